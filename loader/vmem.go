package loader

import (
	"bufio"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// VmemRecord is one word of a vmem image.
type VmemRecord struct {
	// Addr is the word address.
	Addr uint32
	// Data is the word, little-endian, widthBytes long.
	Data []byte
}

// ParseVmem reads a vmem image of widthBytes-wide words. "@hex" tokens set
// the word address; every other token is a hex word stored at the current
// address, which then advances by one. "//" starts a comment.
func ParseVmem(r io.Reader, widthBytes int) ([]VmemRecord, error) {
	if widthBytes <= 0 {
		return nil, fmt.Errorf("vmem width must be > 0")
	}

	var (
		records []VmemRecord
		addr    uint32
		line    int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line++
		text := scanner.Text()
		if i := strings.Index(text, "//"); i >= 0 {
			text = text[:i]
		}

		for _, tok := range strings.Fields(text) {
			if strings.HasPrefix(tok, "@") {
				a, err := strconv.ParseUint(tok[1:], 16, 32)
				if err != nil {
					return nil, fmt.Errorf("vmem line %d: bad address %q", line, tok)
				}
				addr = uint32(a)
				continue
			}

			data, err := parseVmemWord(tok, widthBytes)
			if err != nil {
				return nil, fmt.Errorf("vmem line %d: %w", line, err)
			}
			records = append(records, VmemRecord{Addr: addr, Data: data})
			addr++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read vmem: %w", err)
	}

	return records, nil
}

func parseVmemWord(tok string, widthBytes int) ([]byte, error) {
	digits := 2 * widthBytes
	if len(tok) > digits {
		return nil, fmt.Errorf("word %q wider than %d bytes", tok, widthBytes)
	}
	tok = strings.Repeat("0", digits-len(tok)) + tok

	be, err := hex.DecodeString(tok)
	if err != nil {
		return nil, fmt.Errorf("bad word %q", tok)
	}

	le := make([]byte, widthBytes)
	for i, b := range be {
		le[widthBytes-1-i] = b
	}
	return le, nil
}
