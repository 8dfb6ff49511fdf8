package vm

import (
	"errors"
	"fmt"
)

// ErrKeyNotFound indicates a mapping key that is not present.
var ErrKeyNotFound = errors.New("key not found in mapping")

// HaltError is an expected transaction-level failure: a failed assertion,
// a get against a missing key, an arithmetic overflow, or an operation on
// an undefined mapping. It aborts the current invocation but is not an
// implementation bug.
type HaltError struct {
	Msg string
}

func (e *HaltError) Error() string { return "halt: " + e.Msg }

// Haltf constructs a user halt.
func Haltf(format string, args ...any) error {
	return &HaltError{Msg: fmt.Sprintf(format, args...)}
}

// IsHalt reports whether err is (or wraps) a user halt.
func IsHalt(err error) bool {
	var h *HaltError
	return errors.As(err, &h)
}

// InternalError indicates a condition the upstream compiler passes were
// supposed to rule out, such as a register holding a value of an unexpected
// shape. It is a structured error rather than a panic so the engine stays
// embeddable and testable.
type InternalError struct {
	Msg string
}

func (e *InternalError) Error() string { return "internal inconsistency: " + e.Msg }

// Internalf constructs an internal-inconsistency error.
func Internalf(format string, args ...any) error {
	return &InternalError{Msg: fmt.Sprintf(format, args...)}
}

// IsInternal reports whether err is (or wraps) an internal inconsistency.
func IsInternal(err error) bool {
	var e *InternalError
	return errors.As(err, &e)
}
