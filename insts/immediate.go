package insts

// bits extracts word[hi:lo].
func bits(word uint32, hi, lo uint) uint32 {
	return (word >> lo) & ((1 << (hi - lo + 1)) - 1)
}

// signExtend sign-extends the low width bits of v to 32 bits.
func signExtend(v uint32, width uint) uint32 {
	shift := 32 - width
	return uint32(int32(v<<shift) >> shift)
}

// ImmI returns the sign-extended I-type immediate.
func ImmI(word uint32) uint32 {
	return signExtend(bits(word, 31, 20), 12)
}

// ImmS returns the sign-extended S-type immediate.
func ImmS(word uint32) uint32 {
	return signExtend(bits(word, 31, 25)<<5|bits(word, 11, 7), 12)
}

// ImmB returns the sign-extended B-type immediate (byte offset).
func ImmB(word uint32) uint32 {
	v := bits(word, 31, 31)<<12 |
		bits(word, 7, 7)<<11 |
		bits(word, 30, 25)<<5 |
		bits(word, 11, 8)<<1
	return signExtend(v, 13)
}

// ImmU returns the U-type immediate, already shifted into bits [31:12].
func ImmU(word uint32) uint32 {
	return word & 0xFFFFF000
}

// ImmJ returns the sign-extended J-type immediate (byte offset).
func ImmJ(word uint32) uint32 {
	v := bits(word, 31, 31)<<20 |
		bits(word, 19, 12)<<12 |
		bits(word, 20, 20)<<11 |
		bits(word, 30, 21)<<1
	return signExtend(v, 21)
}

// Immediate returns the immediate of word in the given encoding.
func Immediate(word uint32, sel ImmSel) uint32 {
	switch sel {
	case ImmSelS:
		return ImmS(word)
	case ImmSelB:
		return ImmB(word)
	case ImmSelU:
		return ImmU(word)
	case ImmSelJ:
		return ImmJ(word)
	default:
		return ImmI(word)
	}
}
