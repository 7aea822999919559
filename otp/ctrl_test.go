package otp_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/otsim/clock"
	"github.com/sarchlab/otsim/otp"
)

var _ = Describe("Ctrl", func() {
	var (
		ctx  context.Context
		ctrl *otp.Ctrl
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		ctrl, err = otp.NewCtrl(otp.DefaultCtrlConfig(), otp.WithCtrlLogger(GinkgoLogr))
		Expect(err).NotTo(HaveOccurred())
	})

	It("should initialize every partition", func() {
		Expect(ctrl.InitDone()).To(BeFalse())

		Expect(ctrl.Init(ctx)).To(Succeed())

		Expect(ctrl.InitDone()).To(BeTrue())
		for _, p := range ctrl.Partitions() {
			out, err := ctrl.Outputs(p.Name)
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Err).To(Equal(otp.NoErr), p.Name)
		}
	})

	It("should read through the bus windows", func() {
		Expect(ctrl.Macro().ProgramBlock(0x300+16, 0x00000000DEADBEEF)).To(Succeed())
		Expect(ctrl.Macro().ProgramBlock(0x600, 0x0000000012345678)).To(Succeed())
		Expect(ctrl.Init(ctx)).To(Succeed())

		Expect(ctrl.Read(ctx, "OWNER_SW_CFG", 16)).To(Equal(uint32(0xDEADBEEF)))
		Expect(ctrl.Read(ctx, "HW_CFG", 0)).To(Equal(uint32(0x12345678)))
	})

	It("should report bus errors", func() {
		Expect(ctrl.Init(ctx)).To(Succeed())

		_, err := ctrl.Read(ctx, "CREATOR_SW_CFG", 800)

		var busErr *otp.BusError
		Expect(errors.As(err, &busErr)).To(BeTrue())
		Expect(busErr.Code).To(Equal(otp.BusErrCode))
		Expect(busErr.State).To(Equal(otp.NoErr))
	})

	It("should honor upstream read locks", func() {
		Expect(ctrl.Init(ctx)).To(Succeed())
		Expect(ctrl.SetAccess("OWNER_SW_CFG", otp.Access{ReadLock: otp.Locked, WriteLock: otp.Unlocked})).To(Succeed())

		_, err := ctrl.Read(ctx, "OWNER_SW_CFG", 0)

		Expect(err).To(HaveOccurred())
	})

	It("should lock secret partitions with a digest", func() {
		secret, _ := ctrl.Controller("SECRET0")
		_, err := ctrl.Macro().Seal(secret.Partition())
		Expect(err).NotTo(HaveOccurred())
		Expect(ctrl.Init(ctx)).To(Succeed())

		out, _ := ctrl.Outputs("SECRET0")
		Expect(out.Access.ReadLock).To(Equal(otp.Locked))

		_, err = ctrl.Read(ctx, "SECRET0", 0)
		Expect(err).To(HaveOccurred())

		_, err = ctrl.Read(ctx, "SECRET1", 0)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should fail init on an inconsistent digest", func() {
		Expect(ctrl.Macro().ProgramBlock(0x6D0+32, 0xFEED)).To(Succeed())

		err := ctrl.Init(ctx)

		Expect(err).To(MatchError(otp.ErrNotInitialized))
		out, _ := ctrl.Outputs("SECRET0")
		Expect(out.Err).To(Equal(otp.CnstyErr))
	})

	It("should fail init on an uncorrectable digest", func() {
		ctrl.Macro().InjectError(0x300+768-8, otp.ReadUncorrErr)

		err := ctrl.Init(ctx)

		Expect(err).To(MatchError(otp.ErrNotInitialized))
		Expect(ctrl.Failed()).To(BeTrue())
	})

	It("should move every partition to Error on escalation", func() {
		Expect(ctrl.Init(ctx)).To(Succeed())

		ctrl.Escalate()
		ctrl.Tick()

		for _, p := range ctrl.Partitions() {
			out, _ := ctrl.Outputs(p.Name)
			Expect(out.Err).To(Equal(otp.EscErr), p.Name)
			Expect(out.Access.ReadLock).To(Equal(otp.Locked))
		}

		_, err := ctrl.Read(ctx, "HW_CFG", 0)
		var busErr *otp.BusError
		Expect(errors.As(err, &busErr)).To(BeTrue())
		Expect(busErr.State).To(Equal(otp.EscErr))
	})

	It("should keep one request per window", func() {
		win, err := ctrl.Window("HW_CFG")
		Expect(err).NotTo(HaveOccurred())

		Expect(win.Issue(0)).To(Succeed())
		Expect(win.Issue(4)).To(MatchError(otp.ErrBusy))
	})

	It("should give up reading an uninitialized partition", func() {
		_, err := ctrl.Read(ctx, "HW_CFG", 0)
		Expect(err).To(MatchError(clock.ErrCycleLimit))
	})

	It("should release the window after a read times out", func() {
		_, err := ctrl.Read(ctx, "HW_CFG", 0)
		Expect(err).To(MatchError(clock.ErrCycleLimit))

		win, _ := ctrl.Window("HW_CFG")
		Expect(win.Pending()).To(BeFalse())

		_, err = ctrl.Read(ctx, "HW_CFG", 0)
		Expect(err).To(MatchError(clock.ErrCycleLimit))
	})

	It("should release the window after a cancelled read", func() {
		Expect(ctrl.Init(ctx)).To(Succeed())

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := ctrl.Read(cancelled, "OWNER_SW_CFG", 0)
		Expect(err).To(MatchError(context.Canceled))

		Expect(ctrl.Read(ctx, "OWNER_SW_CFG", 0)).To(Equal(uint32(0)))
	})

	It("should fail a granted read when escalation voids it", func() {
		config := otp.DefaultCtrlConfig()
		config.MacroLatency = 4
		c, err := otp.NewCtrl(config, otp.WithCtrlLogger(GinkgoLogr))
		Expect(err).NotTo(HaveOccurred())
		Expect(c.Init(ctx)).To(Succeed())

		win, _ := c.Window("CREATOR_SW_CFG")
		part, _ := c.Controller("CREATOR_SW_CFG")
		Expect(win.Issue(0)).To(Succeed())
		c.Clock().RunCycles(2)
		Expect(part.State()).To(Equal(otp.ReadWaitSt))
		Expect(win.Granted()).To(BeTrue())

		c.Escalate()
		c.Clock().RunCycles(1)

		Expect(part.State()).To(Equal(otp.ErrorSt))
		Expect(win.Pending()).To(BeFalse())
		rsp, ok := win.Response()
		Expect(ok).To(BeTrue())
		Expect(rsp.Err).To(Equal(otp.BusErrCode))

		c.Clock().RunCycles(50)
		_, err = c.Read(ctx, "CREATOR_SW_CFG", 0)
		var busErr *otp.BusError
		Expect(errors.As(err, &busErr)).To(BeTrue())
		Expect(busErr.State).To(Equal(otp.EscErr))
	})

	It("should reject unknown partitions", func() {
		_, err := ctrl.Read(ctx, "NOPE", 0)
		Expect(err).To(MatchError(otp.ErrUnknownPartition))
		Expect(ctrl.SetAccess("NOPE", otp.Access{})).To(MatchError(otp.ErrUnknownPartition))
	})

	It("should share an external clock", func() {
		clk := clock.New(0)
		c, err := otp.NewCtrl(nil, otp.WithClock(clk))
		Expect(err).NotTo(HaveOccurred())

		c.RequestInit()
		clk.RunCycles(1000)

		Expect(c.InitDone()).To(BeTrue())
		Expect(c.Clock()).To(BeIdenticalTo(clk))
	})
})

var _ = Describe("Window", func() {
	It("should complete on a response after a grant", func() {
		w := otp.NewWindow()
		Expect(w.Issue(8)).To(Succeed())
		Expect(w.Request()).To(Equal(otp.BusReq{Valid: true, Addr: 8}))

		w.Observe(otp.Outputs{BusGnt: true})
		Expect(w.Request().Valid).To(BeFalse())
		Expect(w.Pending()).To(BeTrue())

		w.Observe(otp.Outputs{BusRsp: otp.BusRsp{Valid: true, Data: 5}})
		rsp, ok := w.Response()
		Expect(ok).To(BeTrue())
		Expect(rsp.Data).To(Equal(uint32(5)))

		_, ok = w.Response()
		Expect(ok).To(BeFalse())
		Expect(w.Issue(0)).To(Succeed())
	})

	It("should ignore responses before the grant", func() {
		w := otp.NewWindow()
		Expect(w.Issue(0)).To(Succeed())

		w.Observe(otp.Outputs{BusRsp: otp.BusRsp{Valid: true}})

		Expect(w.Pending()).To(BeTrue())
	})

	It("should fail only granted requests", func() {
		w := otp.NewWindow()
		Expect(w.Issue(0)).To(Succeed())

		w.Fail()
		Expect(w.Pending()).To(BeTrue())

		w.Observe(otp.Outputs{BusGnt: true})
		w.Fail()

		rsp, ok := w.Response()
		Expect(ok).To(BeTrue())
		Expect(rsp).To(Equal(otp.BusRsp{Valid: true, Err: otp.BusErrCode}))
	})

	It("should drop a cancelled request and its late response", func() {
		w := otp.NewWindow()
		Expect(w.Issue(0)).To(Succeed())
		w.Observe(otp.Outputs{BusGnt: true})

		w.Cancel()
		w.Observe(otp.Outputs{BusRsp: otp.BusRsp{Valid: true, Data: 1}})

		Expect(w.Pending()).To(BeFalse())
		_, ok := w.Response()
		Expect(ok).To(BeFalse())
		Expect(w.Issue(4)).To(Succeed())
	})
})
