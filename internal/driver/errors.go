package driver

import (
	"errors"
	"fmt"
)

// ErrWriteProtected is returned by every mutating operation while the
// write gate is locked. The medium is guaranteed untouched.
var ErrWriteProtected = errors.New("device is write-protected")

// ErrOutOfRange is returned when a request falls outside the device
// geometry. The adapter is never contacted for such a request.
var ErrOutOfRange = errors.New("request outside device geometry")

// ErrClosed is returned by operations on a driver after Shutdown.
var ErrClosed = errors.New("device is shut down")

// MediumError wraps an adapter-level failure. The driver performs no
// retries; any hardware retry policy lives below the adapter.
type MediumError struct {
	Op  string
	Err error
}

func (e *MediumError) Error() string {
	return fmt.Sprintf("medium %s failed: %v", e.Op, e.Err)
}

func (e *MediumError) Unwrap() error {
	return e.Err
}

// PartialMirrorError reports that a primary table write succeeded but
// the backup copy could not be written: the table pair is inconsistent
// until ForceTableRepair runs. It is deliberately distinct from
// MediumError so callers can warn the operator.
type PartialMirrorError struct {
	Err error
}

func (e *PartialMirrorError) Error() string {
	return fmt.Sprintf("backup table write failed, table copies have diverged: %v", e.Err)
}

func (e *PartialMirrorError) Unwrap() error {
	return e.Err
}
