package insts

// AluOpBase selects the operation of the 32-bit base ALU.
type AluOpBase uint8

// Base ALU operations.
const (
	AluOpBaseAdd AluOpBase = iota
	AluOpBaseSub
	AluOpBaseXor
	AluOpBaseOr
	AluOpBaseAnd
	AluOpBaseSll
	AluOpBaseSrl
	AluOpBaseSra
)

// AluOpBignum selects the operation of the 256-bit bignum ALU.
type AluOpBignum uint8

// Bignum ALU operations.
const (
	AluOpBignumAdd AluOpBignum = iota
	AluOpBignumAddc
	AluOpBignumAddm
	AluOpBignumSub
	AluOpBignumSubb
	AluOpBignumSubm
	AluOpBignumRshi
	AluOpBignumXor
	AluOpBignumOr
	AluOpBignumAnd
	AluOpBignumNot
)

// ComparisonOp selects the branch comparison.
type ComparisonOp uint8

// Comparison operations. Only equality comparisons exist.
const (
	ComparisonOpEq ComparisonOp = iota
	ComparisonOpNeq
)

// OpASel selects the source of ALU operand A.
type OpASel uint8

// Operand A sources.
const (
	OpASelRegister OpASel = iota
	OpASelZero
	OpASelFwd
	OpASelCurrPC
)

// OpBSel selects the source of ALU operand B.
type OpBSel uint8

// Operand B sources.
const (
	OpBSelRegister OpBSel = iota
	OpBSelImmediate
)

// ImmSel selects the immediate encoding.
type ImmSel uint8

// Immediate encodings.
const (
	ImmSelI ImmSel = iota
	ImmSelS
	ImmSelB
	ImmSelU
	ImmSelJ
)

// ALUControl is the operator and operand selection for one instruction word.
//
// The zero value (ADD, EQ, register operands, I-type immediate) is the
// fallback for encodings the decoder rejects. It carries no meaning.
type ALUControl struct {
	AluOpBase    AluOpBase
	AluOpBignum  AluOpBignum
	ComparisonOp ComparisonOp
	OpASel       OpASel
	OpBSel       OpBSel
	ImmSel       ImmSel

	// ShiftAmt is the bignum operand-B shift in bits.
	ShiftAmt   uint8
	ShiftRight bool
}

// ResolveALUControl selects ALU operators and operand sources from the raw
// instruction word. It does not check legality; that is Decode's job.
func ResolveALUControl(word uint32) ALUControl {
	var c ALUControl

	funct3 := bits(word, 14, 12)
	bit30 := bits(word, 30, 30) == 1

	switch bits(word, 6, 0) {
	case OpcodeLoad:
		c.OpBSel = OpBSelImmediate
		c.ImmSel = ImmSelI

	case OpcodeStore:
		c.OpBSel = OpBSelImmediate
		c.ImmSel = ImmSelS

	case OpcodeOpImm:
		c.OpBSel = OpBSelImmediate
		c.ImmSel = ImmSelI
		c.AluOpBase = baseFunct3Op(funct3, bit30, false)

	case OpcodeOp:
		c.AluOpBase = baseFunct3Op(funct3, bit30, true)

	case OpcodeLui:
		c.OpASel = OpASelZero
		c.OpBSel = OpBSelImmediate
		c.ImmSel = ImmSelU

	case OpcodeBranch:
		c.OpASel = OpASelCurrPC
		c.OpBSel = OpBSelImmediate
		c.ImmSel = ImmSelB
		if funct3 == 0b001 {
			c.ComparisonOp = ComparisonOpNeq
		}

	case OpcodeJal:
		c.OpASel = OpASelCurrPC
		c.OpBSel = OpBSelImmediate
		c.ImmSel = ImmSelJ

	case OpcodeJalr:
		c.OpBSel = OpBSelImmediate
		c.ImmSel = ImmSelI

	case OpcodeSystem:
		c.ImmSel = ImmSelI

	case OpcodeBignumMisc:
		// BN.LID/BN.SID compute their address in the base ALU.
		switch funct3 {
		case 0b100:
			c.OpBSel = OpBSelImmediate
		case 0b101:
			c.OpBSel = OpBSelImmediate
			c.ImmSel = ImmSelS
		}

	case OpcodeBignumArith:
		c.ShiftAmt = uint8(bits(word, 29, 25) << 3)
		c.ShiftRight = bit30
		switch funct3 {
		case 0b000:
			c.AluOpBignum = AluOpBignumAdd
		case 0b001:
			c.AluOpBignum = AluOpBignumSub
		case 0b010:
			c.AluOpBignum = AluOpBignumAddc
		case 0b011:
			c.AluOpBignum = AluOpBignumSubb
		case 0b100:
			c.OpBSel = OpBSelImmediate
			c.ShiftAmt = 0
			c.ShiftRight = false
			if bit30 {
				c.AluOpBignum = AluOpBignumSub
			}
		case 0b101:
			c.ShiftAmt = 0
			c.ShiftRight = false
			if bit30 {
				c.AluOpBignum = AluOpBignumSubm
			} else {
				c.AluOpBignum = AluOpBignumAddm
			}
		}

	case OpcodeBignumLogic:
		if bits(word, 13, 12) == 0b11 {
			c.AluOpBignum = AluOpBignumRshi
			c.ShiftAmt = uint8(bits(word, 31, 25)<<1 | bits(word, 14, 14))
			c.ShiftRight = true
			break
		}
		c.ShiftAmt = uint8(bits(word, 29, 25) << 3)
		c.ShiftRight = bit30
		switch funct3 {
		case 0b010:
			c.AluOpBignum = AluOpBignumAnd
		case 0b100:
			c.AluOpBignum = AluOpBignumOr
		case 0b101:
			c.AluOpBignum = AluOpBignumNot
		case 0b110:
			c.AluOpBignum = AluOpBignumXor
		}
	}

	return c
}

// baseFunct3Op maps a base ALU funct3 to its operator. bit30 distinguishes
// SRL/SRA for both forms and ADD/SUB for the register form only.
func baseFunct3Op(funct3 uint32, bit30, regForm bool) AluOpBase {
	switch funct3 {
	case 0b000:
		if regForm && bit30 {
			return AluOpBaseSub
		}
		return AluOpBaseAdd
	case 0b001:
		return AluOpBaseSll
	case 0b100:
		return AluOpBaseXor
	case 0b101:
		if bit30 {
			return AluOpBaseSra
		}
		return AluOpBaseSrl
	case 0b110:
		return AluOpBaseOr
	case 0b111:
		return AluOpBaseAnd
	default:
		return AluOpBaseAdd
	}
}
