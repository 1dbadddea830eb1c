package capture

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMethodUnavailable means a method's tool is not installed or its
	// precondition does not hold. The orchestrator skips such methods.
	ErrMethodUnavailable = errors.New("capture method unavailable")

	// ErrNoCaptureAvailable means every applicable method was skipped or failed.
	ErrNoCaptureAvailable = errors.New("no capture method succeeded")
)

// CaptureError is returned by a method whose tool ran but did not produce a
// usable image.
type CaptureError struct {
	Method string
	Reason string
	Err    error
}

func (e *CaptureError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Method, e.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", e.Method, e.Reason, e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// NoCaptureError lists every attempt of an exhausted capture chain.
// It matches ErrNoCaptureAvailable with errors.Is.
type NoCaptureError struct {
	Attempts []Attempt
}

func (e *NoCaptureError) Error() string {
	if len(e.Attempts) == 0 {
		return ErrNoCaptureAvailable.Error() + " (no applicable methods)"
	}
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, a.Method+"="+string(a.Outcome))
	}
	return fmt.Sprintf("%s (tried: %s)", ErrNoCaptureAvailable, strings.Join(parts, ", "))
}

func (e *NoCaptureError) Unwrap() error { return ErrNoCaptureAvailable }
