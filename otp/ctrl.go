package otp

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/otsim/clock"
)

type slot struct {
	ctrl   Controller
	win    *Window
	access Access
	out    Outputs
}

// Ctrl owns the macro and every partition controller. Partitions are
// ticked in map order, which is also their macro arbitration priority.
type Ctrl struct {
	config *CtrlConfig
	macro  *Macro
	slots  []*slot
	byName map[string]*slot

	clk *clock.Clock
	log logr.Logger

	initReq  bool
	escalate LcTx
}

// CtrlOption configures a Ctrl.
type CtrlOption func(*Ctrl)

// WithCtrlLogger sets the logger of the controller and its parts.
func WithCtrlLogger(log logr.Logger) CtrlOption {
	return func(c *Ctrl) {
		c.log = log
	}
}

// WithClock registers the controller on clk instead of a private clock.
func WithClock(clk *clock.Clock) CtrlOption {
	return func(c *Ctrl) {
		c.clk = clk
	}
}

// NewCtrl builds the macro and partition controllers described by config.
// All upstream locks start Unlocked and escalation starts Off.
func NewCtrl(config *CtrlConfig, opts ...CtrlOption) (*Ctrl, error) {
	if config == nil {
		config = DefaultCtrlConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid otp config: %w", err)
	}

	c := &Ctrl{
		config:   config,
		byName:   make(map[string]*slot, len(config.Partitions)),
		log:      logr.Discard(),
		escalate: Off,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.clk == nil {
		c.clk = clock.New(0)
	}

	c.macro = NewMacro(config.MacroSize,
		WithMacroLatency(config.MacroLatency),
		WithMacroLogger(c.log.WithName("macro")))

	for i, p := range config.Partitions {
		s := &slot{
			ctrl:   NewController(p, c.macro.Port(i), c.log),
			win:    NewWindow(),
			access: Access{ReadLock: Unlocked, WriteLock: Unlocked},
		}
		c.slots = append(c.slots, s)
		c.byName[p.Name] = s
	}

	c.clk.Register(c)
	return c, nil
}

// Macro returns the memory macro.
func (c *Ctrl) Macro() *Macro {
	return c.macro
}

// Clock returns the clock the controller is registered on.
func (c *Ctrl) Clock() *clock.Clock {
	return c.clk
}

// Partitions returns the partition map.
func (c *Ctrl) Partitions() []Partition {
	return c.config.Partitions
}

// RequestInit pulses init_req on the next tick.
func (c *Ctrl) RequestInit() {
	c.initReq = true
}

// Escalate asserts escalation. It stays asserted until the controller is
// rebuilt.
func (c *Ctrl) Escalate() {
	c.escalate = On
}

// SetAccess sets the upstream lock inputs of a partition.
func (c *Ctrl) SetAccess(name string, access Access) error {
	s, err := c.slot(name)
	if err != nil {
		return err
	}
	s.access = access
	return nil
}

// Controller returns the controller of a partition.
func (c *Ctrl) Controller(name string) (Controller, error) {
	s, err := c.slot(name)
	if err != nil {
		return nil, err
	}
	return s.ctrl, nil
}

// Window returns the bus window of a partition.
func (c *Ctrl) Window(name string) (*Window, error) {
	s, err := c.slot(name)
	if err != nil {
		return nil, err
	}
	return s.win, nil
}

// Outputs returns the outputs a partition produced in the last tick.
func (c *Ctrl) Outputs(name string) (Outputs, error) {
	s, err := c.slot(name)
	if err != nil {
		return Outputs{}, err
	}
	return s.out, nil
}

func (c *Ctrl) slot(name string) (*slot, error) {
	s, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPartition, name)
	}
	return s, nil
}

// InitDone reports whether every partition has completed init.
func (c *Ctrl) InitDone() bool {
	for _, s := range c.slots {
		if !s.out.InitDone {
			return false
		}
	}
	return true
}

// Failed reports whether any partition is in the error state.
func (c *Ctrl) Failed() bool {
	for _, s := range c.slots {
		if s.out.Err.Fatal() {
			return true
		}
	}
	return false
}

// Tick advances the macro and then every partition by one cycle.
func (c *Ctrl) Tick() bool {
	c.macro.Tick()

	for _, s := range c.slots {
		in := Inputs{
			InitReq:  c.initReq,
			Escalate: c.escalate,
			Access:   s.access,
			Bus:      s.win.Request(),
		}
		s.out = s.ctrl.Tick(in)
		s.win.Observe(s.out)

		// Error discards the in-flight read, so nothing will answer it.
		if s.ctrl.State() == ErrorSt {
			s.win.Fail()
		}
	}
	c.initReq = false

	return true
}

// Init pulses init_req and runs the clock until every partition is
// initialized. A partition entering the error state fails the init.
func (c *Ctrl) Init(ctx context.Context) error {
	c.RequestInit()

	_, err := c.clk.RunUntil(ctx, func() bool {
		return c.InitDone() || c.Failed()
	}, c.config.MaxCycles)
	if err != nil {
		return fmt.Errorf("failed to initialize otp: %w", err)
	}

	for _, s := range c.slots {
		if s.out.Err.Fatal() {
			return fmt.Errorf("failed to initialize %s: %w: %s",
				s.ctrl.Partition().Name, ErrNotInitialized, s.out.Err)
		}
	}

	c.log.Info("otp initialized", "partitions", len(c.slots), "cycles", c.clk.Cycle())
	return nil
}

// Read issues a bus read through a partition window and runs the clock
// until it completes.
func (c *Ctrl) Read(ctx context.Context, name string, addr uint32) (uint32, error) {
	s, err := c.slot(name)
	if err != nil {
		return 0, err
	}
	if err := s.win.Issue(addr); err != nil {
		return 0, err
	}

	var rsp BusRsp
	_, err = c.clk.RunUntil(ctx, func() bool {
		var ok bool
		rsp, ok = s.win.Response()
		return ok
	}, c.config.MaxCycles)
	if err != nil {
		s.win.Cancel()
		return 0, fmt.Errorf("failed to read %s+0x%x: %w", name, addr, err)
	}

	if rsp.Err != 0 {
		return 0, &BusError{Partition: name, Addr: addr, Code: rsp.Err, State: s.out.Err}
	}
	return rsp.Data, nil
}
