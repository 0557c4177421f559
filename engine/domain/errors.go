package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for rejected events and startup failures.
var (
	ErrAtBoundary    = errors.New("at scene boundary")
	ErrControlLocked = errors.New("control locked")
	ErrInvalidInput  = errors.New("invalid input")
	ErrDatasetLoad   = errors.New("dataset load failure")

	ErrMissingMake        = errors.New("missing make")
	ErrMissingFuel        = errors.New("missing fuel")
	ErrNegativeValue      = errors.New("negative value")
	ErrUnsupportedFuel    = errors.New("unsupported fuel")
	ErrCylinderRange      = errors.New("cylinder range out of bounds")
	ErrUnsupportedMeasure = errors.New("unsupported measure")
)

// ValidationError wraps a sentinel with the offending record field.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}

// ControlError is returned when a navigation or control event is rejected.
// Wrapped is one of ErrAtBoundary, ErrControlLocked or ErrInvalidInput.
type ControlError struct {
	Control string
	Value   string
	Wrapped error
}

func (e *ControlError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("rejected: %s: %s", e.Control, e.Wrapped)
	}
	return fmt.Sprintf("rejected: %s: %s (value=%q)", e.Control, e.Wrapped, e.Value)
}

func (e *ControlError) Unwrap() error { return e.Wrapped }

// NewControlError creates a ControlError.
func NewControlError(control, value string, wrapped error) *ControlError {
	return &ControlError{Control: control, Value: value, Wrapped: wrapped}
}

// Reason returns a short label for the kind of rejection, suitable for
// metric labels and HTTP error bodies.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrAtBoundary):
		return "at_boundary"
	case errors.Is(err, ErrControlLocked):
		return "control_locked"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrDatasetLoad):
		return "dataset_load"
	default:
		return "internal"
	}
}
