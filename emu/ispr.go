package emu

import (
	"errors"
	"fmt"
)

// ISPR addresses reachable through CSRRW/CSRRS.
const (
	CSRFG0   = 0x7C0
	CSRFG1   = 0x7C1
	CSRFlags = 0x7C8
	CSRMod0  = 0x7D0
	CSRMod7  = 0x7D7
	CSRRnd   = 0xFC0
)

// ErrUnknownISPR is returned for accesses to an unimplemented ISPR.
var ErrUnknownISPR = errors.New("unknown ISPR")

// rndSeed seeds the RND source. Placeholder value for simulation only; the
// hardware RND comes from the entropy complex.
const rndSeed uint32 = 0xACE1_ACE1

// isprFile implements the special-purpose register accesses.
type isprFile struct {
	regFile *RegFile
	lfsr    uint32
}

func newISPRFile(regFile *RegFile) *isprFile {
	return &isprFile{regFile: regFile, lfsr: rndSeed}
}

func (s *isprFile) read(addr uint32) (uint32, error) {
	rf := s.regFile
	switch {
	case addr == CSRFG0:
		return rf.FG[0].Bits(), nil
	case addr == CSRFG1:
		return rf.FG[1].Bits(), nil
	case addr == CSRFlags:
		return rf.FG[0].Bits() | rf.FG[1].Bits()<<4, nil
	case addr >= CSRMod0 && addr <= CSRMod7:
		i := addr - CSRMod0
		return uint32(rf.MOD[i/2] >> (32 * (i % 2))), nil
	case addr == CSRRnd:
		return s.nextRnd(), nil
	}
	return 0, fmt.Errorf("%w: 0x%03x", ErrUnknownISPR, addr)
}

func (s *isprFile) write(addr, value uint32) error {
	rf := s.regFile
	switch {
	case addr == CSRFG0:
		rf.FG[0] = FlagsFromBits(value)
	case addr == CSRFG1:
		rf.FG[1] = FlagsFromBits(value)
	case addr == CSRFlags:
		rf.FG[0] = FlagsFromBits(value)
		rf.FG[1] = FlagsFromBits(value >> 4)
	case addr >= CSRMod0 && addr <= CSRMod7:
		i := addr - CSRMod0
		shift := 32 * (i % 2)
		limb := rf.MOD[i/2] &^ (uint64(0xFFFFFFFF) << shift)
		rf.MOD[i/2] = limb | uint64(value)<<shift
	case addr == CSRRnd:
		// read-only
	default:
		return fmt.Errorf("%w: 0x%03x", ErrUnknownISPR, addr)
	}
	return nil
}

// nextRnd steps a 32-bit Galois LFSR.
func (s *isprFile) nextRnd() uint32 {
	lsb := s.lfsr & 1
	s.lfsr >>= 1
	if lsb != 0 {
		s.lfsr ^= 0x80200003
	}
	return s.lfsr
}
