package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidSubmission marks structurally invalid submissions (missing class,
// non-positive amount). Missing optional attributes never produce this - they
// are defaulted by the calculators and surface as reduced confidence.
var ErrInvalidSubmission = errors.New("invalid submission")

// ErrAllocationConflict signals a concurrent-mutation race during assignment.
// The whole Assign call is safe to retry: scoring is deterministic and the
// asset ID deduplicates the assignment.
var ErrAllocationConflict = errors.New("allocation conflict, retry assignment")

// UnknownAssetClassError is returned when a submission carries a class tag
// outside the supported set.
type UnknownAssetClassError struct {
	Class string
}

func (e *UnknownAssetClassError) Error() string {
	return fmt.Sprintf("unknown asset class %q", e.Class)
}

// PersistenceError wraps a failed basket/assignment write. The caller retries
// with the same assessment; the assignment is written in the same transaction
// as the basket update, so a failure never leaves a dangling assignment.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("basket persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
