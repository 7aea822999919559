package otp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/otsim/otp"
)

var _ = Describe("Macro", func() {
	var (
		m    *otp.Macro
		a, b otp.MacroPort
	)

	BeforeEach(func() {
		m = otp.NewMacro(0x100, otp.WithMacroLogger(GinkgoLogr))
		a = m.Port(0)
		b = m.Port(1)
	})

	read := func(addr uint32) otp.MacroReq {
		return otp.MacroReq{Cmd: otp.CmdRead, Addr: addr, Size: otp.Size64}
	}

	It("should answer a read after one cycle", func() {
		Expect(m.ProgramBlock(0x10, 0x0102030405060708)).To(Succeed())

		Expect(a.Request(read(0x10))).To(BeTrue())
		_, ok := a.Response()
		Expect(ok).To(BeFalse())

		m.Tick()
		rsp, ok := a.Response()

		Expect(ok).To(BeTrue())
		Expect(rsp).To(Equal(otp.MacroRsp{RData: 0x0102030405060708}))
	})

	It("should honor a longer latency", func() {
		m = otp.NewMacro(0x100, otp.WithMacroLatency(3))
		a = m.Port(0)
		a.Request(read(0))

		m.Tick()
		m.Tick()
		_, ok := a.Response()
		Expect(ok).To(BeFalse())

		m.Tick()
		_, ok = a.Response()
		Expect(ok).To(BeTrue())
	})

	It("should accept only one outstanding request", func() {
		Expect(a.Request(read(0))).To(BeTrue())
		Expect(b.Request(read(8))).To(BeFalse())
		Expect(a.Request(read(8))).To(BeFalse())
		Expect(m.Busy()).To(BeTrue())

		m.Tick()
		Expect(m.Busy()).To(BeFalse())
		Expect(b.Request(read(8))).To(BeTrue())
	})

	It("should route the response to the requesting port", func() {
		b.Request(read(0))
		m.Tick()

		_, ok := a.Response()
		Expect(ok).To(BeFalse())
		_, ok = b.Response()
		Expect(ok).To(BeTrue())
		_, ok = b.Response()
		Expect(ok).To(BeFalse())
	})

	It("should drop an unconsumed response after one cycle", func() {
		a.Request(read(0))
		m.Tick()
		m.Tick()

		_, ok := a.Response()
		Expect(ok).To(BeFalse())
	})

	It("should read 32-bit words", func() {
		Expect(m.ProgramBlock(0x20, 0xAABBCCDD11223344)).To(Succeed())
		a.Request(otp.MacroReq{Cmd: otp.CmdRead, Addr: 0x24, Size: otp.Size32})
		m.Tick()

		rsp, _ := a.Response()
		Expect(rsp.RData).To(Equal(uint64(0xAABBCCDD)))
	})

	It("should only set bits when programming", func() {
		a.Request(otp.MacroReq{Cmd: otp.CmdWrite, Addr: 0, Size: otp.Size64, WData: 0b0101})
		m.Tick()
		rsp, _ := a.Response()
		Expect(rsp.Err).To(Equal(otp.NoErr))

		a.Request(otp.MacroReq{Cmd: otp.CmdWrite, Addr: 0, Size: otp.Size64, WData: 0b0111})
		m.Tick()
		rsp, _ = a.Response()
		Expect(rsp.Err).To(Equal(otp.NoErr))

		a.Request(otp.MacroReq{Cmd: otp.CmdWrite, Addr: 0, Size: otp.Size64, WData: 0b0010})
		m.Tick()
		rsp, _ = a.Response()
		Expect(rsp.Err).To(Equal(otp.WriteBlankErr))

		image, err := m.Image()
		Expect(err).NotTo(HaveOccurred())
		Expect(image[0]).To(Equal(byte(0b0111)))
	})

	DescribeTable("request errors",
		func(req otp.MacroReq, want otp.ErrCode) {
			a.Request(req)
			m.Tick()
			rsp, ok := a.Response()
			Expect(ok).To(BeTrue())
			Expect(rsp.Err).To(Equal(want))
		},
		Entry("out of range", otp.MacroReq{Cmd: otp.CmdRead, Addr: 0x100, Size: otp.Size64}, otp.AccessErr),
		Entry("misaligned", otp.MacroReq{Cmd: otp.CmdRead, Addr: 0x4, Size: otp.Size64}, otp.AccessErr),
		Entry("bad size", otp.MacroReq{Cmd: otp.CmdRead, Addr: 0, Size: 3}, otp.CmdInvErr),
		Entry("bad command", otp.MacroReq{Cmd: otp.Cmd(9), Addr: 0, Size: otp.Size64}, otp.CmdInvErr),
		Entry("init", otp.MacroReq{Cmd: otp.CmdInit}, otp.NoErr),
	)

	Describe("InjectError", func() {
		It("should fail reads of the faulty block", func() {
			m.InjectError(0x14, otp.ReadUncorrErr)
			a.Request(read(0x10))
			m.Tick()

			rsp, _ := a.Response()
			Expect(rsp.Err).To(Equal(otp.ReadUncorrErr))
		})

		It("should return data with a correctable error", func() {
			Expect(m.ProgramBlock(0x10, 42)).To(Succeed())
			m.InjectError(0x10, otp.ReadCorrErr)
			a.Request(read(0x10))
			m.Tick()

			rsp, _ := a.Response()
			Expect(rsp).To(Equal(otp.MacroRsp{Err: otp.ReadCorrErr, RData: 42}))
		})

		It("should clear with NoErr", func() {
			m.InjectError(0x10, otp.ReadErr)
			m.InjectError(0x10, otp.NoErr)
			a.Request(read(0x10))
			m.Tick()

			rsp, _ := a.Response()
			Expect(rsp.Err).To(Equal(otp.NoErr))
		})
	})

	Describe("Seal", func() {
		part := otp.Partition{Name: "P", Variant: otp.Buffered, Offset: 0x20, Size: 24, HwDigest: true}

		It("should program the digest of the partition contents", func() {
			Expect(m.ProgramBlock(0x20, 1)).To(Succeed())
			Expect(m.ProgramBlock(0x28, 2)).To(Succeed())

			d, err := m.Seal(part)

			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(Equal(otp.Digest([]uint64{1, 2})))
			Expect(d).NotTo(BeZero())
			image, _ := m.Image()
			Expect(image[0x30:0x38]).To(Equal([]byte{
				byte(d), byte(d >> 8), byte(d >> 16), byte(d >> 24),
				byte(d >> 32), byte(d >> 40), byte(d >> 48), byte(d >> 56),
			}))
		})

		It("should digest scrambled partitions in the clear", func() {
			p := part
			p.Scrambled = true
			Expect(m.ProgramBlock(0x20, otp.Scramble(7, 0))).To(Succeed())

			d, err := m.Seal(p)

			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(Equal(otp.Digest([]uint64{7, otp.Scramble(0, 0)})))
		})

		It("should refuse partitions without a digest or already sealed", func() {
			p := part
			p.HwDigest = false
			_, err := m.Seal(p)
			Expect(err).To(HaveOccurred())

			_, err = m.Seal(part)
			Expect(err).NotTo(HaveOccurred())
			_, err = m.Seal(part)
			Expect(err).To(MatchError(ContainSubstring("already sealed")))
		})

		It("should refuse partitions beyond the array", func() {
			p := part
			p.Offset = 0x100
			_, err := m.Seal(p)
			Expect(err).To(HaveOccurred())
		})
	})

	It("should reject backdoor writes beyond the array", func() {
		Expect(m.Program(0xFC, make([]byte, 8))).NotTo(Succeed())
	})
})
