package otp

import (
	"fmt"
	"strings"
)

// BlockBytes is the scrambling block width. Partition offsets and sizes are
// multiples of it.
const BlockBytes = 8

// Variant selects the partition controller implementation.
type Variant uint8

// Partition variants.
const (
	// Unbuffered partitions are read from the macro on every bus access.
	Unbuffered Variant = iota
	// Buffered partitions are copied into registers during init.
	Buffered
)

func (v Variant) String() string {
	if v == Buffered {
		return "buffered"
	}
	return "unbuffered"
}

// MarshalText implements encoding.TextMarshaler.
func (v Variant) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *Variant) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "unbuffered":
		*v = Unbuffered
	case "buffered":
		*v = Buffered
	default:
		return fmt.Errorf("unknown partition variant %q", text)
	}
	return nil
}

// Partition describes one fixed region of the OTP array.
type Partition struct {
	Name    string  `json:"name" yaml:"name"`
	Variant Variant `json:"variant" yaml:"variant"`

	// Offset and Size are in bytes.
	Offset uint32 `json:"offset" yaml:"offset"`
	Size   uint32 `json:"size" yaml:"size"`

	// KeyIdx selects the scrambling key for scrambled partitions.
	KeyIdx int `json:"key_idx" yaml:"key_idx"`

	Scrambled bool `json:"scrambled" yaml:"scrambled"`
	HwDigest  bool `json:"hw_digest" yaml:"hw_digest"`
	WriteLock bool `json:"write_lock" yaml:"write_lock"`
	ReadLock  bool `json:"read_lock" yaml:"read_lock"`
}

// HasDigest reports whether the partition keeps a digest in its last block.
// Unbuffered partitions always carry a software digest there.
func (p Partition) HasDigest() bool {
	return p.HwDigest || p.Variant == Unbuffered
}

// DigestOffset is the absolute byte offset of the digest block.
func (p Partition) DigestOffset() uint32 {
	return p.Offset + p.Size - BlockBytes
}

// Blocks returns the number of 64-bit blocks in the partition.
func (p Partition) Blocks() int {
	return int(p.Size / BlockBytes)
}

// Validate checks alignment and key selection.
func (p Partition) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("partition name is empty")
	}
	if p.Size == 0 {
		return fmt.Errorf("partition %s: size must be > 0", p.Name)
	}
	if p.Offset%BlockBytes != 0 || p.Size%BlockBytes != 0 {
		return fmt.Errorf("partition %s: offset 0x%x and size %d must be multiples of %d",
			p.Name, p.Offset, p.Size, BlockBytes)
	}
	if p.Scrambled {
		if p.Variant != Buffered {
			return fmt.Errorf("partition %s: scrambled partitions must be buffered", p.Name)
		}
		if p.KeyIdx < 0 || p.KeyIdx >= len(ScrmblKeys) {
			return fmt.Errorf("partition %s: key index %d out of range", p.Name, p.KeyIdx)
		}
	}
	if (p.ReadLock || p.WriteLock) && !p.HasDigest() {
		return fmt.Errorf("partition %s: lockable partitions need a digest", p.Name)
	}
	return nil
}

// DefaultPartitions returns the standard partition map. The map spans
// 0x800 bytes.
func DefaultPartitions() []Partition {
	return []Partition{
		{Name: "CREATOR_SW_CFG", Variant: Unbuffered, Offset: 0x000, Size: 768, WriteLock: true},
		{Name: "OWNER_SW_CFG", Variant: Unbuffered, Offset: 0x300, Size: 768, WriteLock: true},
		{Name: "HW_CFG", Variant: Buffered, Offset: 0x600, Size: 208, HwDigest: true, WriteLock: true},
		{
			Name: "SECRET0", Variant: Buffered, Offset: 0x6D0, Size: 40, KeyIdx: 0,
			Scrambled: true, HwDigest: true, WriteLock: true, ReadLock: true,
		},
		{
			Name: "SECRET1", Variant: Buffered, Offset: 0x6F8, Size: 88, KeyIdx: 1,
			Scrambled: true, HwDigest: true, WriteLock: true, ReadLock: true,
		},
		{
			Name: "SECRET2", Variant: Buffered, Offset: 0x750, Size: 120, KeyIdx: 2,
			Scrambled: true, HwDigest: true, WriteLock: true, ReadLock: true,
		},
		{Name: "LIFE_CYCLE", Variant: Buffered, Offset: 0x7C8, Size: 56},
	}
}

// ValidateMap checks every partition and that none overlap or exceed
// macroSize.
func ValidateMap(parts []Partition, macroSize uint32) error {
	seen := make(map[string]bool, len(parts))
	for i, p := range parts {
		if err := p.Validate(); err != nil {
			return err
		}
		if seen[p.Name] {
			return fmt.Errorf("duplicate partition %s", p.Name)
		}
		seen[p.Name] = true

		if uint64(p.Offset)+uint64(p.Size) > uint64(macroSize) {
			return fmt.Errorf("partition %s exceeds macro size 0x%x", p.Name, macroSize)
		}
		for _, q := range parts[:i] {
			if p.Offset < q.Offset+q.Size && q.Offset < p.Offset+p.Size {
				return fmt.Errorf("partitions %s and %s overlap", q.Name, p.Name)
			}
		}
	}
	return nil
}
