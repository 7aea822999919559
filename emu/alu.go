package emu

import "github.com/sarchlab/otsim/insts"

// ALU implements the OTBN base and bignum arithmetic and logic operations.
type ALU struct {
	regFile *RegFile
}

// NewALU creates a new ALU connected to the given register file.
func NewALU(regFile *RegFile) *ALU {
	return &ALU{regFile: regFile}
}

// Base computes a 32-bit base ALU operation.
func (a *ALU) Base(op insts.AluOpBase, x, y uint32) uint32 {
	shamt := y & 0x1F
	switch op {
	case insts.AluOpBaseSub:
		return x - y
	case insts.AluOpBaseXor:
		return x ^ y
	case insts.AluOpBaseOr:
		return x | y
	case insts.AluOpBaseAnd:
		return x & y
	case insts.AluOpBaseSll:
		return x << shamt
	case insts.AluOpBaseSrl:
		return x >> shamt
	case insts.AluOpBaseSra:
		return uint32(int32(x) >> shamt)
	default:
		return x + y
	}
}

// Bignum executes a bignum ALU instruction and writes the destination
// register. Flag groups are updated for the operations that define flags.
func (a *ALU) Bignum(b insts.Bignum, opB insts.Wide) {
	rf := a.regFile
	x := rf.ReadWide(b.A)
	fg := &rf.FG[b.FlagGroup&1]

	var r insts.Wide
	switch b.AluOp {
	case insts.AluOpBignumAdd:
		var c uint64
		r, c = addWide(x, opB, 0)
		*fg = resultFlags(r, c != 0)
	case insts.AluOpBignumAddc:
		var c uint64
		r, c = addWide(x, opB, carryIn(fg.C))
		*fg = resultFlags(r, c != 0)
	case insts.AluOpBignumSub:
		var c uint64
		r, c = subWide(x, opB, 0)
		*fg = resultFlags(r, c != 0)
	case insts.AluOpBignumSubb:
		var c uint64
		r, c = subWide(x, opB, carryIn(fg.C))
		*fg = resultFlags(r, c != 0)
	case insts.AluOpBignumAddm:
		r = a.addMod(x, opB)
	case insts.AluOpBignumSubm:
		r = a.subMod(x, opB)
	case insts.AluOpBignumRshi:
		r = rshiWide(x, rf.ReadWide(b.B), uint(b.ShiftAmt))
	case insts.AluOpBignumAnd:
		r = andWide(x, opB)
		*fg = resultFlags(r, fg.C)
	case insts.AluOpBignumOr:
		r = orWide(x, opB)
		*fg = resultFlags(r, fg.C)
	case insts.AluOpBignumXor:
		r = xorWide(x, opB)
		*fg = resultFlags(r, fg.C)
	case insts.AluOpBignumNot:
		r = notWide(opB)
		*fg = resultFlags(r, fg.C)
	}

	rf.WriteWide(b.D, r)
}

// addMod computes (x + y) mod MOD for x, y < MOD.
func (a *ALU) addMod(x, y insts.Wide) insts.Wide {
	mod := a.regFile.MOD
	r, c := addWide(x, y, 0)
	if c != 0 || geWide(r, mod) {
		r, _ = subWide(r, mod, 0)
	}
	return r
}

// subMod computes (x - y) mod MOD for x, y < MOD.
func (a *ALU) subMod(x, y insts.Wide) insts.Wide {
	r, borrow := subWide(x, y, 0)
	if borrow != 0 {
		r, _ = addWide(r, a.regFile.MOD, 0)
	}
	return r
}

// shiftOperand applies the operand-B shift of a bignum instruction.
func shiftOperand(v insts.Wide, amt uint8, right bool) insts.Wide {
	if amt == 0 {
		return v
	}
	if right {
		return shrWide(v, uint(amt))
	}
	return shlWide(v, uint(amt))
}

func resultFlags(r insts.Wide, carry bool) Flags {
	return Flags{
		C: carry,
		M: r[3]>>63 == 1,
		L: r[0]&1 == 1,
		Z: isZeroWide(r),
	}
}

func carryIn(c bool) uint64 {
	if c {
		return 1
	}
	return 0
}
