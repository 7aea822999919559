package cosim

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
	"github.com/go-logr/logr"
	"github.com/rs/xid"
	"github.com/sarchlab/akita/v4/mem/mem"
)

// ErrCycleLimit is returned by Run when the model does not finish in time.
var ErrCycleLimit = errors.New("cycle limit reached before model finished")

// Bridge drives an external instruction-set model once per clock cycle.
//
// A start pulse latched with Start is consumed by the next Tick. Done pulses
// for exactly one cycle on the falling edge of Running.
type Bridge struct {
	config *Config
	model  Model
	handle xid.ID

	// dmem is the design-side data memory. Standalone mode writes the
	// model's final contents into it; companion mode compares against it.
	dmem *mem.Storage

	log logr.Logger

	start    bool
	running  bool
	runningQ bool
	err      error
}

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithLogger sets the bridge logger.
func WithLogger(log logr.Logger) BridgeOption {
	return func(b *Bridge) {
		b.log = log
	}
}

// New creates a model instance through factory and binds it to a bridge.
// The bridge owns the instance until Close.
func New(factory Factory, config *Config, dmem *mem.Storage, opts ...BridgeOption) (*Bridge, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cosim config: %w", err)
	}
	if dmem == nil {
		return nil, fmt.Errorf("data memory is required")
	}

	b := &Bridge{
		config: config,
		dmem:   dmem,
		handle: xid.New(),
		log:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(b)
	}

	model, err := factory()
	if err != nil {
		return nil, fmt.Errorf("failed to create model instance: %w", err)
	}

	if err := checkVersion(model.Version(), config.ModelVersion); err != nil {
		_ = model.Close()
		return nil, err
	}

	b.model = model
	b.log = b.log.WithValues("handle", b.handle.String())
	b.log.Info("model instance created", "version", model.Version(), "mode", config.Mode)

	return b, nil
}

func checkVersion(version, constraint string) error {
	if constraint == "" {
		return nil
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("failed to parse model version constraint: %w", err)
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("%w: bad version %q: %v", ErrIncompatibleModel, version, err)
	}

	if !c.Check(v) {
		return fmt.Errorf("%w: version %s does not satisfy %q", ErrIncompatibleModel, v, constraint)
	}
	return nil
}

// Handle returns the identifier of the bound model instance.
func (b *Bridge) Handle() xid.ID {
	return b.handle
}

// Config returns the bridge configuration.
func (b *Bridge) Config() *Config {
	return b.config
}

// Start asserts the start signal for the next cycle.
func (b *Bridge) Start() {
	b.start = true
}

// Running reports whether the model is executing.
func (b *Bridge) Running() bool {
	return b.running
}

// Done is true for the one cycle after the model stops running.
func (b *Bridge) Done() bool {
	return b.runningQ && !b.running
}

// Err returns the error recorded by the last run, or nil. A successful start
// clears it.
func (b *Bridge) Err() error {
	return b.err
}

// Tick advances the bridge by one clock cycle. It reports whether any work
// was done.
func (b *Bridge) Tick() bool {
	b.runningQ = b.running

	if b.model == nil {
		return false
	}

	if b.start {
		b.start = false
		b.doStart()
		return true
	}

	if !b.running {
		return false
	}

	b.doStep()
	return true
}

func (b *Bridge) doStart() {
	status := b.model.Start(b.config.Regions(), b.config.StartAddr)
	if status != StatusOK {
		b.running = false
		b.err = &StopError{Phase: PhaseStart, Status: status}
		b.log.Error(b.err, "model failed to start")
		return
	}

	b.running = true
	b.err = nil
	b.log.V(1).Info("model started", "start_addr", b.config.StartAddr)
}

func (b *Bridge) doStep() {
	switch status := b.model.Step(); status {
	case StatusOK:
		return

	case StatusDone:
		b.running = false
		b.log.V(1).Info("model finished")
		b.complete()

	default:
		b.running = false
		b.err = &StopError{Phase: PhaseStep, Status: status}
		b.log.Error(b.err, "model stopped abnormally")
	}
}

// complete runs the mode's completion action.
func (b *Bridge) complete() {
	size := b.config.DMemSize

	if b.config.Mode == ModeStandalone {
		buf := make([]byte, size)
		if status := b.model.LoadMemory(b.config.DMem, buf); status != StatusOK {
			b.err = &StopError{Phase: PhaseLoad, Status: status}
			b.log.Error(b.err, "failed to load memory from model", "region", b.config.DMem)
			return
		}
		if err := b.dmem.Write(0, buf); err != nil {
			b.err = fmt.Errorf("failed to write model memory: %w", err)
			b.log.Error(err, "failed to write model memory")
		}
		return
	}

	want, err := b.dmem.Read(0, uint64(size))
	if err != nil {
		b.err = fmt.Errorf("failed to read design memory: %w", err)
		b.log.Error(err, "failed to read design memory")
		return
	}
	if status := b.model.CompareMemory(b.config.DMem, want); status != StatusOK {
		b.err = &MismatchError{Region: b.config.DMem, Status: status}
		b.log.Error(b.err, "memory mismatch")
	}
}

// Run pulses start and ticks until the model finishes, ctx is cancelled, or
// maxCycles elapse (0 uses the configured limit). It returns the number of
// cycles ticked and the error recorded by the run.
func (b *Bridge) Run(ctx context.Context, maxCycles uint64) (uint64, error) {
	if maxCycles == 0 {
		maxCycles = b.config.MaxCycles
	}

	b.Start()

	var cycles uint64
	for {
		if err := ctx.Err(); err != nil {
			return cycles, err
		}
		if maxCycles > 0 && cycles >= maxCycles {
			return cycles, ErrCycleLimit
		}

		b.Tick()
		cycles++

		if !b.running {
			return cycles, b.err
		}
	}
}

// Close destroys the model instance.
func (b *Bridge) Close() error {
	if b.model == nil {
		return nil
	}

	err := b.model.Close()
	b.model = nil
	b.running = false
	b.runningQ = false
	b.log.Info("model instance destroyed")

	if err != nil {
		return fmt.Errorf("failed to close model instance: %w", err)
	}
	return nil
}
