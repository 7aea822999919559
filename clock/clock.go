// Package clock provides the single clock domain that drives every model.
//
// Each registered component is a Ticker: one call to Tick evaluates its
// combinational logic against the current register values and then commits
// the register updates. The clock invokes components in registration order
// once per cycle, so within a cycle nothing observes a partially updated
// component.
package clock

import (
	"context"
	"errors"
	"time"

	"github.com/sarchlab/akita/v4/sim"
)

// ErrCycleLimit is returned when a run exhausts its cycle budget.
var ErrCycleLimit = errors.New("cycle limit reached")

// Ticker is a component advanced once per clock cycle. Tick reports whether
// the component did any work this cycle.
type Ticker interface {
	Tick() bool
}

// TickFunc adapts a plain function to the Ticker interface.
type TickFunc func() bool

// Tick calls f.
func (f TickFunc) Tick() bool {
	return f()
}

// Clock drives a set of tickers in lock step.
type Clock struct {
	freq    sim.Freq
	tickers []Ticker
	cycle   uint64
}

// New creates a clock running at freq.
func New(freq sim.Freq) *Clock {
	if freq <= 0 {
		freq = 100 * sim.MHz
	}
	return &Clock{freq: freq}
}

// Register adds a ticker. Tickers are evaluated in registration order.
func (c *Clock) Register(t Ticker) {
	c.tickers = append(c.tickers, t)
}

// Freq returns the clock frequency.
func (c *Clock) Freq() sim.Freq {
	return c.freq
}

// Cycle returns the number of completed cycles.
func (c *Clock) Cycle() uint64 {
	return c.cycle
}

// Now returns the simulated time elapsed since cycle zero.
func (c *Clock) Now() time.Duration {
	return time.Duration(float64(c.cycle) * float64(time.Second) / float64(c.freq))
}

// Tick advances every ticker by one cycle. It returns true if any ticker
// made progress.
func (c *Clock) Tick() bool {
	progress := false
	for _, t := range c.tickers {
		if t.Tick() {
			progress = true
		}
	}
	c.cycle++
	return progress
}

// RunCycles advances the clock by n cycles.
func (c *Clock) RunCycles(n uint64) {
	for i := uint64(0); i < n; i++ {
		c.Tick()
	}
}

// RunUntil ticks until done reports true, the context is cancelled, or
// limit cycles have elapsed (0 means no limit). It returns the number of
// cycles executed by this call.
func (c *Clock) RunUntil(ctx context.Context, done func() bool, limit uint64) (uint64, error) {
	var n uint64
	for !done() {
		if limit > 0 && n >= limit {
			return n, ErrCycleLimit
		}
		if err := ctx.Err(); err != nil {
			return n, err
		}
		c.Tick()
		n++
	}
	return n, nil
}
