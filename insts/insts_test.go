package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/otsim/insts"
)

var _ = Describe("Insts Package", func() {
	It("should have a Decoded type", func() {
		var d insts.Decoded
		Expect(d).To(BeZero())
	})

	It("should have a Decoder type", func() {
		decoder := insts.NewDecoder()
		Expect(decoder).ToNot(BeNil())
	})

	Describe("Immediates", func() {
		It("should sign-extend B-type offsets", func() {
			Expect(insts.ImmB(encB(-4096, 0, 0, 0))).To(Equal(uint32(0xFFFFF000)))
			Expect(insts.ImmB(encB(4094, 0, 0, 0))).To(Equal(uint32(4094)))
		})

		It("should sign-extend J-type offsets", func() {
			Expect(insts.ImmJ(encJ(-2, 0))).To(Equal(uint32(0xFFFFFFFE)))
			Expect(insts.ImmJ(encJ(0xFFFFE, 0))).To(Equal(uint32(0xFFFFE)))
		})

		It("should sign-extend S-type offsets", func() {
			Expect(insts.ImmS(encS(-2048, 0, 0, 0b010, 0x23))).To(Equal(uint32(0xFFFFF800)))
		})
	})

	Describe("Disassemble", func() {
		DescribeTable("rendering",
			func(word uint32, text string) {
				Expect(insts.Disassemble(word)).To(Equal(text))
			},
			Entry("addi", uint32(0x00a00093), "addi x1, x0, 10"),
			Entry("ecall", uint32(0x00000073), "ecall"),
			Entry("illegal", uint32(0x0000007F), ".word 0x0000007f"),
			Entry("lw", encI(-4, 6, 0b010, 5, 0x03), "lw x5, -4(x6)"),
			Entry("bn.add", encBN(1, 0, 2, 2, 1, 0b000, 3, 0x2B), "bn.add w3, w1, w2 << 16, FG1"),
			Entry("bn.rshi", encRSHI(165, 3, 2, 1), "bn.rshi w1, w2, w3 >> 165"),
			Entry("bn.addi", encBNI(0, 0, 9, 2, 1), "bn.addi w1, w2, 9, FG0"),
		)
	})
})
