package cmn

import (
	"fmt"

	"github.com/pkg/errors"
)

// FormatError indicates a malformed wire payload: bad magic, inconsistent
// length, unsupported version, malformed bounding volume. The node carrying
// it is marked permanently failed (spec §7).
type FormatError struct {
	cause error
	msg   string
}

func NewFormatError(msg string, args ...interface{}) *FormatError {
	return &FormatError{msg: errors.WithStack(fmt.Errorf(msg, args...)).Error()}
}

func WrapFormatError(cause error, msg string) *FormatError {
	return &FormatError{cause: errors.WithStack(cause), msg: msg}
}

func (e *FormatError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("format error: %s: %v", e.msg, e.cause)
	}
	return fmt.Sprintf("format error: %s", e.msg)
}

func (e *FormatError) Unwrap() error { return e.cause }

// IoError indicates a recoverable fetch failure: timeout, unauthorized,
// transport failure. The loader may retry via LoadLater after a back-off
// (spec §7).
type IoError struct {
	cause      error
	StatusText string
}

func NewIoError(statusText string, cause error) *IoError {
	return &IoError{cause: errors.WithStack(cause), StatusText: statusText}
}

func (e *IoError) Error() string {
	return fmt.Sprintf("io error (%s): %v", e.StatusText, e.cause)
}

func (e *IoError) Unwrap() error { return e.cause }

// InvariantViolation signals an internal inconsistency (e.g. double-set
// content node id). Fatal to the current tick; the graph otherwise remains
// operable (spec §7).
type InvariantViolation struct {
	msg string
}

func NewInvariantViolation(msg string, args ...interface{}) *InvariantViolation {
	return &InvariantViolation{msg: fmt.Sprintf(msg, args...)}
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation: %s", e.msg)
}

// SchedulerCancellation signals a target-state flip during an in-flight
// load. Non-fatal: the scheduler runs a revert-on-completion (spec §7).
type SchedulerCancellation struct {
	NodeID NodeId
}

func (e *SchedulerCancellation) Error() string {
	return fmt.Sprintf("load for node %d cancelled by target-state flip", e.NodeID)
}
