// Package eye implements the prosthetic vision pipeline: grayscale reduction,
// aspect cropping, electrode quantization, point-reflection inversion and
// block upscaling for display.
package eye

import (
	"time"

	"github.com/teslashibe/bionic-eye/pkg/debug"
	"github.com/teslashibe/bionic-eye/pkg/frame"
)

// Result holds every intermediate of one pipeline pass.
// Each field is a separately allocated frame, except where a stage passed its
// input through unchanged.
type Result struct {
	Initial   frame.Frame
	Gray      frame.Frame
	Cropped   frame.Frame
	Quantized frame.Frame
	Inverted  frame.Frame
	Output    frame.Frame

	Config      Config
	CropOutcome CropOutcome

	// Errors lists the recoverable stage failures of this pass.
	Errors []error

	Duration time.Duration
}

// Failed reports whether any stage fell back to passing its input through.
func (r *Result) Failed() bool {
	return len(r.Errors) > 0
}

// Pipeline runs the five stages in order. It keeps no state between passes.
type Pipeline struct {
	// OnStageError is called for every recoverable stage failure.
	OnStageError func(err error)
}

// New creates a pipeline.
func New() *Pipeline {
	return &Pipeline{}
}

// Process runs one full pass over src using cfg.
func (p *Pipeline) Process(src frame.Frame, cfg Config) (*Result, error) {
	if src.Empty() {
		return nil, ErrEmptyFrame
	}
	if err := src.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	r := &Result{Initial: src, Config: cfg}

	if cfg.SkipGrayscale {
		r.Gray = src
	} else {
		r.Gray = Grayscale(src)
	}
	debug.StageLog("👁️  gray %s\n", r.Gray)

	r.Cropped, r.CropOutcome = Crop(r.Gray, cfg.CropAnglePercent, cfg.AspectScale)
	debug.StageLog("👁️  crop %s (%s)\n", r.Cropped, r.CropOutcome)

	q, err := Quantize(r.Cropped, cfg.ElectrodeWidth, cfg.ElectrodeHeight)
	if err != nil {
		r.Errors = append(r.Errors, err)
		if p.OnStageError != nil {
			p.OnStageError(err)
		}
	}
	r.Quantized = q
	debug.StageLog("👁️  grid %s\n", r.Quantized)

	r.Inverted = Invert(r.Quantized)
	zoom := cfg.Zoom
	if err != nil {
		// Unquantized frames are already full size
		zoom = 1
	}
	r.Output = Upscale(r.Inverted, zoom)
	r.Duration = time.Since(start)
	debug.StageLog("👁️  output %s in %v\n", r.Output, r.Duration)

	return r, nil
}
