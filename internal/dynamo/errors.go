package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a body position or velocity went NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrUnknownParam indicates a Configurable was asked for a name it does not own.
	ErrUnknownParam = errors.New("dynamo: unknown parameter")

	// ErrUnknownPreset indicates a preset name with no registered config.
	ErrUnknownPreset = errors.New("dynamo: unknown preset")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// SimulationError wraps an error with the tick it happened on.
type SimulationError struct {
	Tick    uint64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("tick %d: %v", e.Tick, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
