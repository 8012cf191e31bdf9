package pvcarbon

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for malformed or out-of-range request fields.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound is returned when no default emission factor exists for a key and
	// no override was supplied.
	ErrNotFound = errors.New("emission factor not found")
	// ErrMissingData is returned when an irradiance series has no usable column.
	ErrMissingData = errors.New("missing irradiance data")
	// ErrUpstreamUnavailable is returned when an external fetch exhausted its retries.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrInvalidLocation is returned when a location cannot be resolved to coordinates.
	ErrInvalidLocation = errors.New("invalid location")
)

// StageErr records which lifecycle stage failed.
type StageErr struct {
	Stage Stage
	Err   error
}

func (stageErr *StageErr) Error() string {
	return fmt.Sprintf("stage failed (stage: %s): %s", stageErr.Stage, stageErr.Err.Error())
}

func (stageErr *StageErr) Unwrap() error {
	return stageErr.Err
}
