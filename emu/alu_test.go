package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/otsim/emu"
	"github.com/sarchlab/otsim/insts"
)

var allOnes = insts.Wide{^uint64(0), ^uint64(0), ^uint64(0), ^uint64(0)}

var _ = Describe("ALU", func() {
	var (
		regFile *emu.RegFile
		alu     *emu.ALU
	)

	BeforeEach(func() {
		regFile = &emu.RegFile{}
		alu = emu.NewALU(regFile)
	})

	DescribeTable("base operations",
		func(op insts.AluOpBase, x, y, want uint32) {
			Expect(alu.Base(op, x, y)).To(Equal(want))
		},
		Entry("add wraps", insts.AluOpBaseAdd, uint32(0xFFFFFFFF), uint32(2), uint32(1)),
		Entry("sub", insts.AluOpBaseSub, uint32(3), uint32(5), uint32(0xFFFFFFFE)),
		Entry("xor", insts.AluOpBaseXor, uint32(0xF0F0), uint32(0xFF00), uint32(0x0FF0)),
		Entry("or", insts.AluOpBaseOr, uint32(0xF0), uint32(0x0F), uint32(0xFF)),
		Entry("and", insts.AluOpBaseAnd, uint32(0xF0), uint32(0x3C), uint32(0x30)),
		Entry("sll masks the amount", insts.AluOpBaseSll, uint32(1), uint32(33), uint32(2)),
		Entry("srl", insts.AluOpBaseSrl, uint32(0x80000000), uint32(4), uint32(0x08000000)),
		Entry("sra", insts.AluOpBaseSra, uint32(0x80000000), uint32(4), uint32(0xF8000000)),
	)

	Describe("Bignum", func() {
		It("should add with carry out and set flags", func() {
			regFile.W[1] = allOnes

			alu.Bignum(insts.Bignum{D: 3, A: 1, AluOp: insts.AluOpBignumAdd}, insts.Wide{1})

			Expect(regFile.W[3]).To(Equal(insts.Wide{}))
			Expect(regFile.FG[0]).To(Equal(emu.Flags{C: true, Z: true}))
			Expect(regFile.FG[1]).To(Equal(emu.Flags{}))
		})

		It("should propagate carries across limbs", func() {
			regFile.W[1] = insts.Wide{^uint64(0), 0, 0, 0}

			alu.Bignum(insts.Bignum{D: 2, A: 1, AluOp: insts.AluOpBignumAdd}, insts.Wide{1})

			Expect(regFile.W[2]).To(Equal(insts.Wide{0, 1, 0, 0}))
		})

		It("should update the selected flag group", func() {
			alu.Bignum(insts.Bignum{D: 2, A: 1, FlagGroup: 1, AluOp: insts.AluOpBignumSub}, insts.Wide{1})

			Expect(regFile.W[2]).To(Equal(allOnes))
			Expect(regFile.FG[1]).To(Equal(emu.Flags{C: true, M: true, L: true}))
			Expect(regFile.FG[0]).To(Equal(emu.Flags{}))
		})

		It("should consume the carry flag in ADDC and SUBB", func() {
			regFile.W[1] = insts.Wide{5}
			regFile.FG[0].C = true

			alu.Bignum(insts.Bignum{D: 2, A: 1, AluOp: insts.AluOpBignumAddc}, insts.Wide{1})
			Expect(regFile.W[2]).To(Equal(insts.Wide{7}))
			Expect(regFile.FG[0].C).To(BeFalse())

			regFile.FG[0].C = true
			alu.Bignum(insts.Bignum{D: 2, A: 1, AluOp: insts.AluOpBignumSubb}, insts.Wide{1})
			Expect(regFile.W[2]).To(Equal(insts.Wide{3}))
		})

		It("should reduce ADDM and SUBM by MOD without touching flags", func() {
			regFile.MOD = insts.Wide{13}
			regFile.W[1] = insts.Wide{10}
			regFile.FG[0] = emu.Flags{C: true, Z: true}

			alu.Bignum(insts.Bignum{D: 2, A: 1, AluOp: insts.AluOpBignumAddm}, insts.Wide{5})
			Expect(regFile.W[2]).To(Equal(insts.Wide{2}))

			regFile.W[1] = insts.Wide{3}
			alu.Bignum(insts.Bignum{D: 2, A: 1, AluOp: insts.AluOpBignumSubm}, insts.Wide{5})
			Expect(regFile.W[2]).To(Equal(insts.Wide{11}))

			Expect(regFile.FG[0]).To(Equal(emu.Flags{C: true, Z: true}))
		})

		It("should take RSHI bits from the concatenation of both sources", func() {
			regFile.W[1] = insts.Wide{1}
			regFile.W[2] = insts.Wide{0x100}

			alu.Bignum(insts.Bignum{D: 3, A: 1, B: 2, ShiftAmt: 8, AluOp: insts.AluOpBignumRshi}, insts.Wide{})

			Expect(regFile.W[3]).To(Equal(insts.Wide{1, 0, 0, 1 << 56}))
		})

		It("should keep the carry flag on logic operations", func() {
			regFile.W[1] = insts.Wide{0xF0}
			regFile.FG[0].C = true

			alu.Bignum(insts.Bignum{D: 2, A: 1, AluOp: insts.AluOpBignumAnd}, insts.Wide{0x0F})

			Expect(regFile.W[2]).To(Equal(insts.Wide{}))
			Expect(regFile.FG[0]).To(Equal(emu.Flags{C: true, Z: true}))
		})

		It("should invert operand B on NOT", func() {
			alu.Bignum(insts.Bignum{D: 2, AluOp: insts.AluOpBignumNot}, insts.Wide{})

			Expect(regFile.W[2]).To(Equal(allOnes))
			Expect(regFile.FG[0]).To(Equal(emu.Flags{M: true, L: true}))
		})

		DescribeTable("or and xor",
			func(op insts.AluOpBignum, want insts.Wide) {
				regFile.W[1] = insts.Wide{0b1100}
				alu.Bignum(insts.Bignum{D: 2, A: 1, AluOp: op}, insts.Wide{0b1010})
				Expect(regFile.W[2]).To(Equal(want))
			},
			Entry("or", insts.AluOpBignumOr, insts.Wide{0b1110}),
			Entry("xor", insts.AluOpBignumXor, insts.Wide{0b0110}),
		)
	})
})
