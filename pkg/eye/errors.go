package eye

import (
	"errors"
	"fmt"
)

// Sentinel errors for the eye package.
var (
	// ErrInvalidChannelCount indicates a stage received a frame of the wrong kind.
	ErrInvalidChannelCount = errors.New("eye: invalid channel count")

	// ErrEmptyFrame indicates the pipeline was handed a frame without pixels.
	ErrEmptyFrame = errors.New("eye: empty frame")
)

// Stage names a pipeline stage.
type Stage string

// Pipeline stages in processing order.
const (
	StageGrayscale Stage = "grayscale"
	StageCrop      Stage = "crop"
	StageQuantize  Stage = "quantize"
	StageInvert    Stage = "invert"
	StageUpscale   Stage = "upscale"
)

// StageError reports a recoverable failure inside one stage.
type StageError struct {
	// Stage is where the failure happened.
	Stage Stage

	// Detail describes the offending input.
	Detail string

	// Err is the underlying sentinel.
	Err error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("eye: %s: %v (%s)", e.Stage, e.Err, e.Detail)
	}
	return fmt.Sprintf("eye: %s: %v", e.Stage, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *StageError) Unwrap() error {
	return e.Err
}

// IsInvalidChannelCount returns true if err was caused by a frame of the wrong kind.
func IsInvalidChannelCount(err error) bool {
	return errors.Is(err, ErrInvalidChannelCount)
}
