package insts

import "fmt"

// Disassemble renders a single instruction word in assembler syntax.
// Illegal words render as ".word 0x...".
func Disassemble(word uint32) string {
	d := NewDecoder().Decode(word, true)
	if d.Illegal {
		return fmt.Sprintf(".word 0x%08x", word)
	}

	op := d.Shared.Op
	b := d.Base
	w := d.Bignum
	fg := fmt.Sprintf("FG%d", w.FlagGroup)

	switch op {
	case OpLUI:
		return fmt.Sprintf("%s x%d, 0x%x", op, b.D, b.Imm>>12)
	case OpADDI, OpXORI, OpORI, OpANDI:
		return fmt.Sprintf("%s x%d, x%d, %d", op, b.D, b.A, int32(b.Imm))
	case OpSLLI, OpSRLI, OpSRAI:
		return fmt.Sprintf("%s x%d, x%d, %d", op, b.D, b.A, b.Imm&0x1F)
	case OpADD, OpSUB, OpSLL, OpSRL, OpSRA, OpXOR, OpOR, OpAND:
		return fmt.Sprintf("%s x%d, x%d, x%d", op, b.D, b.A, b.B)
	case OpLW:
		return fmt.Sprintf("%s x%d, %d(x%d)", op, b.D, int32(b.Imm), b.A)
	case OpSW:
		return fmt.Sprintf("%s x%d, %d(x%d)", op, b.B, int32(b.Imm), b.A)
	case OpBEQ, OpBNE:
		return fmt.Sprintf("%s x%d, x%d, %d", op, b.A, b.B, int32(b.Imm))
	case OpJAL:
		return fmt.Sprintf("%s x%d, %d", op, b.D, int32(b.Imm))
	case OpJALR:
		return fmt.Sprintf("%s x%d, %d(x%d)", op, b.D, int32(b.Imm), b.A)
	case OpECALL:
		return op.String()
	case OpCSRRW, OpCSRRS:
		return fmt.Sprintf("%s x%d, 0x%03x, x%d", op, b.D, b.Imm&0xFFF, b.A)
	case OpBNADD, OpBNSUB, OpBNADDC, OpBNSUBB, OpBNAND, OpBNOR, OpBNXOR:
		return fmt.Sprintf("%s w%d, w%d, w%d%s, %s", op, w.D, w.A, w.B, shiftSuffix(w), fg)
	case OpBNNOT:
		return fmt.Sprintf("%s w%d, w%d%s, %s", op, w.D, w.B, shiftSuffix(w), fg)
	case OpBNADDI, OpBNSUBI:
		return fmt.Sprintf("%s w%d, w%d, %d, %s", op, w.D, w.A, w.Imm[0], fg)
	case OpBNADDM, OpBNSUBM:
		return fmt.Sprintf("%s w%d, w%d, w%d", op, w.D, w.A, w.B)
	case OpBNRSHI:
		return fmt.Sprintf("%s w%d, w%d, w%d >> %d", op, w.D, w.A, w.B, w.ShiftAmt)
	case OpBNLID:
		return fmt.Sprintf("%s w%d, %d(x%d)", op, w.D, int32(b.Imm), w.A)
	case OpBNSID:
		return fmt.Sprintf("%s w%d, %d(x%d)", op, w.B, int32(b.Imm), w.A)
	case OpBNMOV:
		return fmt.Sprintf("%s w%d, w%d", op, w.D, w.A)
	}

	return fmt.Sprintf(".word 0x%08x", word)
}

func shiftSuffix(w Bignum) string {
	if w.ShiftAmt == 0 {
		return ""
	}
	dir := "<<"
	if w.ShiftRight {
		dir = ">>"
	}
	return fmt.Sprintf(" %s %d", dir, w.ShiftAmt)
}
