package cosim

import (
	"errors"
	"fmt"
)

// ErrIncompatibleModel is returned when a model's version does not satisfy
// the configured constraint.
var ErrIncompatibleModel = errors.New("incompatible model version")

// Phase names the bridge operation that observed a status.
type Phase string

// Bridge phases.
const (
	PhaseStart Phase = "start"
	PhaseStep  Phase = "step"
	PhaseLoad  Phase = "load"
)

// StopError reports that the model stopped abnormally or failed to start.
type StopError struct {
	Phase  Phase
	Status Status
}

func (e *StopError) Error() string {
	return fmt.Sprintf("model %s returned status %d", e.Phase, e.Status)
}

// MismatchError reports that the model's final memory differs from the
// externally supplied memory.
type MismatchError struct {
	Region string
	Status Status
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("memory %q mismatch (status %d)", e.Region, e.Status)
}
