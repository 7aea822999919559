package insts_test

// Instruction encoders used by the decoder tests.

func encR(funct7, rs2, rs1, funct3, rd, opcode uint32) uint32 {
	return funct7<<25 | rs2<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encI(imm int32, rs1, funct3, rd, opcode uint32) uint32 {
	return (uint32(imm)&0xFFF)<<20 | rs1<<15 | funct3<<12 | rd<<7 | opcode
}

func encS(imm int32, rs2, rs1, funct3, opcode uint32) uint32 {
	u := uint32(imm)
	return (u>>5&0x7F)<<25 | rs2<<20 | rs1<<15 | funct3<<12 | (u&0x1F)<<7 | opcode
}

func encB(imm int32, rs2, rs1, funct3 uint32) uint32 {
	u := uint32(imm)
	return (u>>12&1)<<31 | (u>>5&0x3F)<<25 | rs2<<20 | rs1<<15 | funct3<<12 |
		(u>>1&0xF)<<8 | (u>>11&1)<<7 | 0x63
}

func encJ(imm int32, rd uint32) uint32 {
	u := uint32(imm)
	return (u>>20&1)<<31 | (u>>1&0x3FF)<<21 | (u>>11&1)<<20 | (u>>12&0xFF)<<12 | rd<<7 | 0x6F
}

func encU(imm20, rd uint32) uint32 {
	return imm20<<12 | rd<<7 | 0x37
}

// encBN encodes the shifted-operand bignum format.
func encBN(fg, shiftRight, shiftBytes, wrs2, wrs1, funct3, wrd, opcode uint32) uint32 {
	return fg<<31 | shiftRight<<30 | shiftBytes<<25 | wrs2<<20 | wrs1<<15 | funct3<<12 | wrd<<7 | opcode
}

func encBNI(fg, sub, imm10, wrs1, wrd uint32) uint32 {
	return fg<<31 | sub<<30 | imm10<<20 | wrs1<<15 | 0b100<<12 | wrd<<7 | 0x2B
}

func encRSHI(imm8, wrs2, wrs1, wrd uint32) uint32 {
	return (imm8>>1)<<25 | wrs2<<20 | wrs1<<15 | (imm8&1)<<14 | 0b11<<12 | wrd<<7 | 0x7B
}
