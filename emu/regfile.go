// Package emu provides a functional OTBN instruction-set simulator.
package emu

import "github.com/sarchlab/otsim/insts"

// Flags is one OTBN flag group.
type Flags struct {
	C bool // carry
	M bool // most significant bit of the result
	L bool // least significant bit of the result
	Z bool // result is zero
}

// Bits packs the flags as {Z, L, M, C} in bits [3:0].
func (f Flags) Bits() uint32 {
	var v uint32
	if f.C {
		v |= 1
	}
	if f.M {
		v |= 2
	}
	if f.L {
		v |= 4
	}
	if f.Z {
		v |= 8
	}
	return v
}

// FlagsFromBits unpacks the layout produced by Bits.
func FlagsFromBits(v uint32) Flags {
	return Flags{C: v&1 != 0, M: v&2 != 0, L: v&4 != 0, Z: v&8 != 0}
}

// RegFile represents the OTBN architectural register state.
// It contains 32 base registers (x0 reads as zero), 32 wide data registers,
// two flag groups, the modulus register, and the program counter.
type RegFile struct {
	// X holds the 32-bit general-purpose registers.
	X [32]uint32

	// W holds the 256-bit wide data registers.
	W [32]insts.Wide

	// FG holds flag groups 0 and 1.
	FG [2]Flags

	// MOD is the modulus used by BN.ADDM and BN.SUBM.
	MOD insts.Wide

	// PC is the program counter.
	PC uint32
}

// ReadReg reads a base register. Register 0 always reads as 0.
func (r *RegFile) ReadReg(reg uint8) uint32 {
	if reg == 0 || reg >= 32 {
		return 0
	}
	return r.X[reg]
}

// WriteReg writes a base register. Writes to register 0 are ignored.
func (r *RegFile) WriteReg(reg uint8, value uint32) {
	if reg == 0 || reg >= 32 {
		return
	}
	r.X[reg] = value
}

// ReadWide reads a wide data register.
func (r *RegFile) ReadWide(reg uint8) insts.Wide {
	return r.W[reg&0x1F]
}

// WriteWide writes a wide data register.
func (r *RegFile) WriteWide(reg uint8, value insts.Wide) {
	r.W[reg&0x1F] = value
}
