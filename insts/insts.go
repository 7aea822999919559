// Package insts provides OTBN instruction definitions and decoding.
//
// This package turns raw 32-bit OTBN instruction words into decoded
// operation descriptors. It covers:
//   - the RV32I-derived base subset: LUI, ALU register/immediate forms, LW/SW,
//     BEQ/BNE, JAL/JALR, ECALL and the ISPR access forms of CSRRW/CSRRS
//   - the bignum subset: BN.ADD/SUB/ADDC/SUBB/ADDI/SUBI/ADDM/SUBM, the wide
//     logical operations, BN.RSHI, and BN.LID/BN.SID/BN.MOV
//
// Decoding is split the way the hardware splits it: Decode determines
// legality and control, ResolveALUControl determines operator and operand
// selection from the raw word alone. Both are pure functions.
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	d := decoder.Decode(0x00a00093, true) // addi x1, x0, 10
//	fmt.Printf("Op: %v, Rd: %d, Imm: %d\n", d.Shared.Op, d.Base.D, d.Base.Imm)
package insts
