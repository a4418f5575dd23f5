package service

import (
	"errors"
	"fmt"
)

// ErrInvalidSample is matched by every *InvalidSampleError via errors.Is.
var ErrInvalidSample = errors.New("invalid sample")

// InvalidSampleError is returned by Recorder.Record for a sample that cannot
// be recorded. The sample is dropped; callers log it and carry on.
type InvalidSampleError struct {
	Field  string
	Value  any
	Reason string
}

func (e *InvalidSampleError) Error() string {
	return fmt.Sprintf("invalid sample: %s=%v: %s", e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidSample) true.
func (e *InvalidSampleError) Is(target error) bool {
	return target == ErrInvalidSample
}
