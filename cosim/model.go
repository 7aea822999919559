// Package cosim drives an external instruction-set simulator in lock step
// with the clock, for equivalence checking against a hardware model.
//
// The bridge owns the simulator instance for its whole lifetime: it is
// created when the bridge is created and destroyed by Close. Once per clock
// tick the bridge either (re)starts the model, advances it by exactly one
// instruction, or does nothing.
package cosim

// Status is the return code of every Model call.
type Status int

// Model status codes. Any value other than StatusOK and StatusDone is an
// error.
const (
	StatusOK    Status = 0
	StatusDone  Status = 1
	StatusError Status = 2
)

// RegionKind identifies the role of a memory region.
type RegionKind uint8

// Region kinds.
const (
	RegionIMem RegionKind = iota
	RegionDMem
)

// Region names a memory the model must read at start.
type Region struct {
	Kind RegionKind
	Name string
	Size uint32
}

// Model is the control surface of an instruction-set simulator.
type Model interface {
	// Version reports the model's semantic version.
	Version() string

	// Start (re)initializes the model from the named regions and sets the
	// start address.
	Start(regions []Region, startAddr uint32) Status

	// Step executes one instruction.
	Step() Status

	// LoadMemory copies the model's view of region into dst.
	LoadMemory(region string, dst []byte) Status

	// CompareMemory checks the model's view of region against want.
	CompareMemory(region string, want []byte) Status

	// Close destroys the instance.
	Close() error
}

// Factory creates a new model instance.
type Factory func() (Model, error)
