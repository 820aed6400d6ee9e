package sensor

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedControl is returned for control identifiers the
	// device does not declare.
	ErrUnsupportedControl = errors.New("unsupported control")

	// ErrReadOnlyControl is returned when setting a mode-derived control.
	ErrReadOnlyControl = errors.New("control is read only")

	// ErrFrameLengthRange is returned when the requested frame timing is
	// unrepresentable even after maximum long-exposure shifting.
	ErrFrameLengthRange = errors.New("frame length out of range")
)

// StateError reports an operation that is illegal in the current device
// state, such as changing flips while streaming.
type StateError struct {
	Op    string
	State string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s not allowed while %s", e.Op, e.State)
}

// RangeError reports a control value outside its declared range. The
// value was rejected and no register written.
type RangeError struct {
	ID       ControlID
	Value    int64
	Min, Max int64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("control %s: value %d outside [%d, %d]", e.ID, e.Value, e.Min, e.Max)
}

// IdentificationError reports a chip-identifier mismatch or read failure
// at attach time.
type IdentificationError struct {
	Got, Want uint32
	Err       error
}

func (e *IdentificationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chip id read failed: %v", e.Err)
	}
	return fmt.Sprintf("chip id mismatch: got %#04x, want %#04x", e.Got, e.Want)
}

func (e *IdentificationError) Unwrap() error { return e.Err }

// ConfigError reports an unsupported attach-time configuration. It is
// fatal to attach and raised before any power sequencing.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("unsupported %s: %s", e.Field, e.Reason)
}
