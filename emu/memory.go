package emu

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/sarchlab/akita/v4/mem/mem"

	"github.com/sarchlab/otsim/insts"
)

// WideBytes is the size of a wide data register in memory.
const WideBytes = 32

var (
	// ErrOutOfRange is returned for accesses beyond the end of a memory.
	ErrOutOfRange = errors.New("address out of range")
	// ErrMisaligned is returned for accesses not aligned to their size.
	ErrMisaligned = errors.New("misaligned address")
)

// Memory is a byte-addressed, bounds-checked memory backed by akita storage.
type Memory struct {
	storage *mem.Storage
	size    uint32
}

// NewMemory creates a zero-filled memory of size bytes.
func NewMemory(size uint32) *Memory {
	return &Memory{
		storage: mem.NewStorage(uint64(size)),
		size:    size,
	}
}

// Size returns the memory size in bytes.
func (m *Memory) Size() uint32 {
	return m.size
}

func (m *Memory) check(addr, n uint32) error {
	if addr%n != 0 {
		return fmt.Errorf("%w: 0x%x", ErrMisaligned, addr)
	}
	if uint64(addr)+uint64(n) > uint64(m.size) {
		return fmt.Errorf("%w: 0x%x", ErrOutOfRange, addr)
	}
	return nil
}

// Read32 reads a little-endian 32-bit word.
func (m *Memory) Read32(addr uint32) (uint32, error) {
	if err := m.check(addr, 4); err != nil {
		return 0, err
	}
	data, err := m.storage.Read(uint64(addr), 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(data), nil
}

// Write32 writes a little-endian 32-bit word.
func (m *Memory) Write32(addr, value uint32) error {
	if err := m.check(addr, 4); err != nil {
		return err
	}
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], value)
	return m.storage.Write(uint64(addr), buf[:])
}

// ReadWide reads a 256-bit little-endian value.
func (m *Memory) ReadWide(addr uint32) (insts.Wide, error) {
	var w insts.Wide
	if err := m.check(addr, WideBytes); err != nil {
		return w, err
	}
	data, err := m.storage.Read(uint64(addr), WideBytes)
	if err != nil {
		return w, err
	}
	for i := range w {
		w[i] = binary.LittleEndian.Uint64(data[i*8:])
	}
	return w, nil
}

// WriteWide writes a 256-bit little-endian value.
func (m *Memory) WriteWide(addr uint32, w insts.Wide) error {
	if err := m.check(addr, WideBytes); err != nil {
		return err
	}
	buf := make([]byte, WideBytes)
	for i := range w {
		binary.LittleEndian.PutUint64(buf[i*8:], w[i])
	}
	return m.storage.Write(uint64(addr), buf)
}

// Load copies data to the start of the memory.
func (m *Memory) Load(data []byte) error {
	if uint64(len(data)) > uint64(m.size) {
		return fmt.Errorf("%w: image of %d bytes exceeds %d", ErrOutOfRange, len(data), m.size)
	}
	return m.storage.Write(0, data)
}

// Bytes returns a copy of the whole memory.
func (m *Memory) Bytes() ([]byte, error) {
	return m.storage.Read(0, uint64(m.size))
}
