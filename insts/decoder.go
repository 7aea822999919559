package insts

// Major opcodes, bits [6:0].
const (
	OpcodeLoad        = 0x03
	OpcodeBignumMisc  = 0x0B
	OpcodeOpImm       = 0x13
	OpcodeStore       = 0x23
	OpcodeBignumArith = 0x2B
	OpcodeOp          = 0x33
	OpcodeLui         = 0x37
	OpcodeBranch      = 0x63
	OpcodeJalr        = 0x67
	OpcodeJal         = 0x6F
	OpcodeSystem      = 0x73
	OpcodeBignumLogic = 0x7B
)

// Subset identifies which field record of a Decoded is meaningful.
type Subset uint8

// Instruction subsets.
const (
	SubsetBase Subset = iota
	SubsetBignum
)

// WdSel selects the source of register write data.
type WdSel uint8

// Write data sources.
const (
	WdSelEx WdSel = iota
	WdSelNextPC
	WdSelLSU
	WdSelISPR
)

// Wide is a 256-bit value as four little-endian 64-bit limbs.
type Wide [4]uint64

// Shared holds control fields common to both subsets.
type Shared struct {
	Op     Op
	Subset Subset

	OpASel OpASel
	OpBSel OpBSel

	RfWe       bool // base register write enable
	RfWeBignum bool // wide register write enable
	WdSel      WdSel

	Ecall         bool
	Load          bool
	Store         bool
	Branch        bool
	Jump          bool
	IsprRead      bool
	IsprReadWrite bool
}

// Base holds the base subset fields.
type Base struct {
	D, A, B uint8  // rd, rs1, rs2
	Imm     uint32 // sign- or zero-extended per ImmSel
	AluOp   AluOpBase
	CmpOp   ComparisonOp
}

// Bignum holds the bignum subset fields.
type Bignum struct {
	D, A, B    uint8 // wrd, wrs1, wrs2; BN.LID/BN.SID use A as the GPR base
	Imm        Wide
	ShiftAmt   uint8
	ShiftRight bool
	FlagGroup  uint8
	AluOp      AluOpBignum
}

// Decoded is the full decode result of one instruction word. Only the
// record selected by Shared.Subset is meaningful; the other holds whatever
// the raw bit fields yield.
type Decoded struct {
	Shared Shared
	Base   Base
	Bignum Bignum

	Valid   bool
	Illegal bool
}

// Decoder decodes OTBN machine code. It holds no state.
type Decoder struct{}

// NewDecoder creates a new OTBN instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word. valid qualifies the word; an
// unqualified word is never flagged illegal and never enables a write.
func (d *Decoder) Decode(word uint32, valid bool) Decoded {
	alu := ResolveALUControl(word)

	var out Decoded
	illegal := d.decodeControl(word, &out.Shared)

	out.Shared.OpASel = alu.OpASel
	out.Shared.OpBSel = alu.OpBSel

	out.Base = Base{
		D:     uint8(bits(word, 11, 7)),
		A:     uint8(bits(word, 19, 15)),
		B:     uint8(bits(word, 24, 20)),
		Imm:   Immediate(word, alu.ImmSel),
		AluOp: alu.AluOpBase,
		CmpOp: alu.ComparisonOp,
	}

	out.Bignum = Bignum{
		D:          uint8(bits(word, 11, 7)),
		A:          uint8(bits(word, 19, 15)),
		B:          uint8(bits(word, 24, 20)),
		ShiftAmt:   alu.ShiftAmt,
		ShiftRight: alu.ShiftRight,
		FlagGroup:  uint8(bits(word, 31, 31)),
		AluOp:      alu.AluOpBignum,
	}
	if out.Shared.Op == OpBNADDI || out.Shared.Op == OpBNSUBI {
		out.Bignum.Imm[0] = uint64(bits(word, 29, 20))
	}

	out.Illegal = valid && illegal
	out.Valid = valid && !illegal

	if illegal || !valid {
		// An illegal instruction must never touch architectural state.
		op := out.Shared.Op
		if illegal {
			op = OpUnknown
		}
		out.Shared = Shared{
			Op:     op,
			Subset: out.Shared.Subset,
			OpASel: out.Shared.OpASel,
			OpBSel: out.Shared.OpBSel,
			WdSel:  out.Shared.WdSel,
		}
	}

	return out
}

// decodeControl fills subset, write enables, and the instruction class
// flags. It returns true when the encoding is illegal.
func (d *Decoder) decodeControl(word uint32, s *Shared) bool {
	funct3 := bits(word, 14, 12)
	funct7 := bits(word, 31, 25)
	rd := bits(word, 11, 7)
	rs1 := bits(word, 19, 15)

	s.Subset = SubsetBase

	switch bits(word, 6, 0) {
	case OpcodeLui:
		s.Op = OpLUI
		s.RfWe = true
		return false

	case OpcodeOpImm:
		s.RfWe = true
		switch funct3 {
		case 0b000:
			s.Op = OpADDI
		case 0b100:
			s.Op = OpXORI
		case 0b110:
			s.Op = OpORI
		case 0b111:
			s.Op = OpANDI
		case 0b001:
			s.Op = OpSLLI
			return bits(word, 31, 27) != 0b00000
		case 0b101:
			switch bits(word, 31, 27) {
			case 0b00000:
				s.Op = OpSRLI
			case 0b01000:
				s.Op = OpSRAI
			default:
				return true
			}
		default:
			return true
		}
		return false

	case OpcodeOp:
		s.RfWe = true
		switch {
		case funct3 == 0b000 && funct7 == 0x00:
			s.Op = OpADD
		case funct3 == 0b000 && funct7 == 0x20:
			s.Op = OpSUB
		case funct3 == 0b001 && funct7 == 0x00:
			s.Op = OpSLL
		case funct3 == 0b100 && funct7 == 0x00:
			s.Op = OpXOR
		case funct3 == 0b101 && funct7 == 0x00:
			s.Op = OpSRL
		case funct3 == 0b101 && funct7 == 0x20:
			s.Op = OpSRA
		case funct3 == 0b110 && funct7 == 0x00:
			s.Op = OpOR
		case funct3 == 0b111 && funct7 == 0x00:
			s.Op = OpAND
		default:
			return true
		}
		return false

	case OpcodeLoad:
		s.Op = OpLW
		s.RfWe = true
		s.WdSel = WdSelLSU
		s.Load = true
		return funct3 != 0b010

	case OpcodeStore:
		s.Op = OpSW
		s.Store = true
		return funct3 != 0b010

	case OpcodeBranch:
		s.Branch = true
		switch funct3 {
		case 0b000:
			s.Op = OpBEQ
		case 0b001:
			s.Op = OpBNE
		default:
			return true
		}
		return false

	case OpcodeJal:
		s.Op = OpJAL
		s.RfWe = true
		s.WdSel = WdSelNextPC
		s.Jump = true
		return false

	case OpcodeJalr:
		s.Op = OpJALR
		s.RfWe = true
		s.WdSel = WdSelNextPC
		s.Jump = true
		return funct3 != 0b000

	case OpcodeSystem:
		return d.decodeSystem(word, funct3, rd, rs1, s)

	case OpcodeBignumArith:
		s.Subset = SubsetBignum
		s.RfWeBignum = true
		bit30 := bits(word, 30, 30) == 1
		switch funct3 {
		case 0b000:
			s.Op = OpBNADD
		case 0b001:
			s.Op = OpBNSUB
		case 0b010:
			s.Op = OpBNADDC
		case 0b011:
			s.Op = OpBNSUBB
		case 0b100:
			s.Op = pick(bit30, OpBNSUBI, OpBNADDI)
		case 0b101:
			s.Op = pick(bit30, OpBNSUBM, OpBNADDM)
		default:
			return true
		}
		return false

	case OpcodeBignumLogic:
		s.Subset = SubsetBignum
		s.RfWeBignum = true
		if bits(word, 13, 12) == 0b11 {
			s.Op = OpBNRSHI
			return false
		}
		switch funct3 {
		case 0b010:
			s.Op = OpBNAND
		case 0b100:
			s.Op = OpBNOR
		case 0b101:
			s.Op = OpBNNOT
		case 0b110:
			s.Op = OpBNXOR
		default:
			return true
		}
		return false

	case OpcodeBignumMisc:
		s.Subset = SubsetBignum
		switch funct3 {
		case 0b100:
			s.Op = OpBNLID
			s.RfWeBignum = true
			s.WdSel = WdSelLSU
			s.Load = true
		case 0b101:
			s.Op = OpBNSID
			s.Store = true
		case 0b110:
			s.Op = OpBNMOV
			s.RfWeBignum = true
		default:
			return true
		}
		return false
	}

	return true
}

// decodeSystem handles ECALL and the ISPR access forms.
func (d *Decoder) decodeSystem(word, funct3, rd, rs1 uint32, s *Shared) bool {
	switch funct3 {
	case 0b000:
		// Non-CSR forms: rs1 and rd must be zero, and only ECALL exists.
		s.Op = OpECALL
		s.Ecall = true
		return rs1 != 0 || rd != 0 || bits(word, 31, 20) != 0
	case 0b001:
		s.Op = OpCSRRW
		s.RfWe = true
		s.WdSel = WdSelISPR
		s.IsprReadWrite = true
		return false
	case 0b010:
		s.Op = OpCSRRS
		s.RfWe = true
		s.WdSel = WdSelISPR
		s.IsprRead = true
		return false
	default:
		return true
	}
}

func pick(cond bool, a, b Op) Op {
	if cond {
		return a
	}
	return b
}
