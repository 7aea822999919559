package insts

// Op represents an OTBN instruction mnemonic.
type Op uint8

// OTBN opcodes.
const (
	OpUnknown Op = iota

	// Base subset
	OpLUI
	OpADDI
	OpSLLI
	OpSRLI
	OpSRAI
	OpXORI
	OpORI
	OpANDI
	OpADD
	OpSUB
	OpSLL
	OpSRL
	OpSRA
	OpXOR
	OpOR
	OpAND
	OpLW
	OpSW
	OpBEQ
	OpBNE
	OpJAL
	OpJALR
	OpECALL
	OpCSRRW
	OpCSRRS

	// Bignum subset
	OpBNADD
	OpBNADDC
	OpBNADDI
	OpBNADDM
	OpBNSUB
	OpBNSUBB
	OpBNSUBI
	OpBNSUBM
	OpBNAND
	OpBNOR
	OpBNXOR
	OpBNNOT
	OpBNRSHI
	OpBNLID
	OpBNSID
	OpBNMOV
)

var opNames = [...]string{
	OpUnknown: "unknown",
	OpLUI:     "lui",
	OpADDI:    "addi",
	OpSLLI:    "slli",
	OpSRLI:    "srli",
	OpSRAI:    "srai",
	OpXORI:    "xori",
	OpORI:     "ori",
	OpANDI:    "andi",
	OpADD:     "add",
	OpSUB:     "sub",
	OpSLL:     "sll",
	OpSRL:     "srl",
	OpSRA:     "sra",
	OpXOR:     "xor",
	OpOR:      "or",
	OpAND:     "and",
	OpLW:      "lw",
	OpSW:      "sw",
	OpBEQ:     "beq",
	OpBNE:     "bne",
	OpJAL:     "jal",
	OpJALR:    "jalr",
	OpECALL:   "ecall",
	OpCSRRW:   "csrrw",
	OpCSRRS:   "csrrs",
	OpBNADD:   "bn.add",
	OpBNADDC:  "bn.addc",
	OpBNADDI:  "bn.addi",
	OpBNADDM:  "bn.addm",
	OpBNSUB:   "bn.sub",
	OpBNSUBB:  "bn.subb",
	OpBNSUBI:  "bn.subi",
	OpBNSUBM:  "bn.subm",
	OpBNAND:   "bn.and",
	OpBNOR:    "bn.or",
	OpBNXOR:   "bn.xor",
	OpBNNOT:   "bn.not",
	OpBNRSHI:  "bn.rshi",
	OpBNLID:   "bn.lid",
	OpBNSID:   "bn.sid",
	OpBNMOV:   "bn.mov",
}

// String returns the assembler mnemonic.
func (o Op) String() string {
	if int(o) < len(opNames) {
		return opNames[o]
	}
	return "unknown"
}

// IsBignum reports whether the op belongs to the bignum subset.
func (o Op) IsBignum() bool {
	return o >= OpBNADD
}
