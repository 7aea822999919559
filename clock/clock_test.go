package clock_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/akita/v4/sim"

	"github.com/sarchlab/otsim/clock"
)

var _ = Describe("Clock", func() {
	var clk *clock.Clock

	BeforeEach(func() {
		clk = clock.New(100 * sim.MHz)
	})

	It("should tick components in registration order", func() {
		var order []string
		clk.Register(clock.TickFunc(func() bool { order = append(order, "a"); return true }))
		clk.Register(clock.TickFunc(func() bool { order = append(order, "b"); return false }))

		Expect(clk.Tick()).To(BeTrue())
		clk.RunCycles(1)

		Expect(order).To(Equal([]string{"a", "b", "a", "b"}))
		Expect(clk.Cycle()).To(Equal(uint64(2)))
	})

	It("should report no progress when every component is idle", func() {
		clk.Register(clock.TickFunc(func() bool { return false }))
		Expect(clk.Tick()).To(BeFalse())
	})

	It("should convert cycles to simulated time", func() {
		clk.RunCycles(100)
		Expect(clk.Now()).To(Equal(time.Microsecond))
	})

	It("should fall back to a default frequency", func() {
		Expect(clock.New(0).Freq()).To(Equal(100 * sim.MHz))
	})

	Describe("RunUntil", func() {
		It("should stop when the condition holds", func() {
			count := 0
			clk.Register(clock.TickFunc(func() bool { count++; return true }))

			n, err := clk.RunUntil(context.Background(), func() bool { return count == 5 }, 0)

			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(uint64(5)))
		})

		It("should give up at the cycle limit", func() {
			n, err := clk.RunUntil(context.Background(), func() bool { return false }, 10)

			Expect(err).To(MatchError(clock.ErrCycleLimit))
			Expect(n).To(Equal(uint64(10)))
		})

		It("should honour context cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			_, err := clk.RunUntil(ctx, func() bool { return false }, 0)

			Expect(err).To(MatchError(context.Canceled))
		})
	})
})
