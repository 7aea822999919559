package otp_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/otsim/otp"
)

var _ = Describe("BufferedController", func() {
	var (
		part  otp.Partition
		macro *otp.Macro
		c     *otp.BufferedController
	)

	BeforeEach(func() {
		part = otp.Partition{
			Name:      "BUF",
			Variant:   otp.Buffered,
			Offset:    0x40,
			Size:      32,
			HwDigest:  true,
			WriteLock: true,
		}
		macro = otp.NewMacro(0x100)
	})

	JustBeforeEach(func() {
		c = otp.NewBufferedController(part, macro.Port(0), GinkgoLogr)
	})

	// tick advances the macro and then the controller, like Ctrl does.
	tick := func(in otp.Inputs) otp.Outputs {
		macro.Tick()
		return c.Tick(in)
	}

	runInit := func() otp.Outputs {
		in := idle()
		in.InitReq = true
		out := tick(in)
		for i := 0; i < 100 && !out.InitDone && c.State() != otp.ErrorSt; i++ {
			out = tick(idle())
		}
		return out
	}

	It("should load every block and latch the digest", func() {
		for i := uint32(0); i < 3; i++ {
			Expect(macro.ProgramBlock(0x40+8*i, uint64(i+1)*0x1111)).To(Succeed())
		}
		digest := otp.Digest([]uint64{0x1111, 0x2222, 0x3333})
		Expect(macro.ProgramBlock(0x58, digest)).To(Succeed())

		out := runInit()

		Expect(out.InitDone).To(BeTrue())
		Expect(out.Digest).To(Equal(digest))
		Expect(c.Block(0)).To(Equal(uint64(0x1111)))
		Expect(c.Block(2)).To(Equal(uint64(0x3333)))
		Expect(out.Access.WriteLock).To(Equal(otp.Locked))
		Expect(out.Access.ReadLock).To(Equal(otp.Unlocked))
	})

	It("should serve bus reads in the same cycle", func() {
		Expect(macro.ProgramBlock(0x48, 0x8877665544332211)).To(Succeed())
		runInit()

		out := tick(busRead(12))

		Expect(out.BusGnt).To(BeTrue())
		Expect(out.BusRsp).To(Equal(otp.BusRsp{Valid: true, Data: 0x88776655}))
		Expect(c.State()).To(Equal(otp.IdleSt))
	})

	It("should reject out-of-range reads", func() {
		runInit()

		out := tick(busRead(32))

		Expect(out.BusRsp.Err).To(Equal(otp.BusErrCode))
		Expect(out.Err).To(Equal(otp.NoErr))
	})

	It("should fail init on a digest that does not match the contents", func() {
		Expect(macro.ProgramBlock(0x40, 0x1111)).To(Succeed())
		Expect(macro.ProgramBlock(0x58, 0xBAD)).To(Succeed())

		out := runInit()

		Expect(c.State()).To(Equal(otp.ErrorSt))
		Expect(out.Err).To(Equal(otp.CnstyErr))
		Expect(out.InitDone).To(BeFalse())
		Expect(c.Block(0)).To(BeZero())
	})

	It("should fail init on an uncorrectable block", func() {
		macro.InjectError(0x50, otp.ReadUncorrErr)

		out := runInit()

		Expect(c.State()).To(Equal(otp.ErrorSt))
		Expect(out.Err).To(Equal(otp.ReadUncorrErr))
		Expect(c.Block(0)).To(BeZero())
	})

	It("should finish init with a correctable warning", func() {
		macro.InjectError(0x48, otp.ReadCorrErr)

		out := runInit()

		Expect(out.InitDone).To(BeTrue())
		Expect(out.Err).To(Equal(otp.ReadCorrErr))

		out = tick(busRead(0))
		Expect(out.Err).To(Equal(otp.NoErr))
	})

	Context("when scrambled", func() {
		BeforeEach(func() {
			part.Scrambled = true
			part.KeyIdx = 1
			part.ReadLock = true
		})

		It("should descramble data but not the digest", func() {
			Expect(macro.ProgramBlock(0x40, otp.Scramble(0x1122334455667788, 1))).To(Succeed())

			runInit()
			Expect(c.Block(0)).To(Equal(uint64(0x1122334455667788)))
			Expect(c.Block(3)).To(BeZero())

			out := tick(busRead(4))
			Expect(out.BusRsp).To(Equal(otp.BusRsp{Valid: true, Data: 0x11223344}))
		})

		It("should read-lock once the digest is set", func() {
			Expect(macro.ProgramBlock(0x40, otp.Scramble(0x55, 1))).To(Succeed())
			digest, err := macro.Seal(part)
			Expect(err).NotTo(HaveOccurred())

			out := runInit()
			Expect(out.Err).To(Equal(otp.NoErr))
			Expect(out.Digest).To(Equal(digest))
			Expect(out.Access.ReadLock).To(Equal(otp.Locked))

			out = tick(busRead(0))
			Expect(out.BusRsp.Err).To(Equal(otp.BusErrCode))
		})
	})

	It("should discard the buffer on escalation", func() {
		Expect(macro.ProgramBlock(0x40, 7)).To(Succeed())
		runInit()

		in := idle()
		in.Escalate = otp.On
		out := tick(in)

		Expect(out.Err).To(Equal(otp.EscErr))
		Expect(c.Block(0)).To(BeZero())
	})
})
