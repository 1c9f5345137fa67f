package render

import (
	"fmt"
)

// AcquisitionError means the matrix couldn't be taken exclusively. It is never retried.
type AcquisitionError struct {
	Err error
}

func (e *AcquisitionError) Error() string {
	return fmt.Sprintf("unable to acquire the matrix (is another instance running?): %v", e.Err)
}

func (e *AcquisitionError) Unwrap() error {
	return e.Err
}

// OutputPushError is a frame the sink refused. Consecutive counts the failures in a row.
type OutputPushError struct {
	Err         error
	Consecutive int
}

func (e *OutputPushError) Error() string {
	return fmt.Sprintf("unable to push frame (%d consecutive failures): %v", e.Consecutive, e.Err)
}

func (e *OutputPushError) Unwrap() error {
	return e.Err
}
