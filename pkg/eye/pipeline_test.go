package eye

import (
	"errors"
	"testing"

	"github.com/teslashibe/bionic-eye/pkg/frame"
)

func TestProcess_ReferenceScenario(t *testing.T) {
	src := uniformColor(100, 60, 0, 0, 0)
	// Bright top-left block so the reflection is visible in the grid
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			for c := 0; c < 3; c++ {
				src.Set(x, y, c, 255)
			}
		}
	}

	cfg := Config{
		ElectrodeWidth:   10,
		ElectrodeHeight:  6,
		CropAnglePercent: 100,
		AspectScale:      0.6,
		Zoom:             2,
	}

	r, err := New().Process(src, cfg)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if r.Failed() {
		t.Errorf("Expected no stage errors, got %v", r.Errors)
	}
	if r.Cropped.Width != 100 || r.Cropped.Height != 60 {
		t.Errorf("Expected 100x60 crop, got %s", r.Cropped)
	}
	if r.CropOutcome != CropCentered {
		t.Errorf("Expected centered crop, got %v", r.CropOutcome)
	}
	if r.Quantized.Width != 10 || r.Quantized.Height != 6 {
		t.Errorf("Expected 10x6 grid, got %s", r.Quantized)
	}
	if r.Quantized.At(0, 0, 0) != 255 {
		t.Errorf("Expected bright cell at (0,0), got %d", r.Quantized.At(0, 0, 0))
	}
	if r.Inverted.At(9, 5, 0) != r.Quantized.At(0, 0, 0) {
		t.Errorf("Expected cell (0,0) reflected to (9,5), got %d", r.Inverted.At(9, 5, 0))
	}
	if r.Inverted.At(0, 0, 0) != 0 {
		t.Errorf("Expected dark cell at inverted origin, got %d", r.Inverted.At(0, 0, 0))
	}
	if r.Output.Width != 20 || r.Output.Height != 12 {
		t.Errorf("Expected 20x12 output, got %s", r.Output)
	}
	if r.Output.Kind() != frame.Gray {
		t.Errorf("Expected gray output, got %v", r.Output.Kind())
	}
}

func TestProcess_ZeroElectrodeWidth(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ElectrodeWidth = 0
	cfg.ElectrodeHeight = 6
	cfg.CropAnglePercent = 100
	cfg.AspectScale = 0.6
	cfg.Zoom = 1

	r, err := New().Process(uniformColor(100, 60, 50, 50, 50), cfg)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if r.Failed() {
		t.Errorf("Expected no stage errors, got %v", r.Errors)
	}
	if r.Quantized.Width != 1 || r.Quantized.Height != 6 {
		t.Errorf("Expected 1x6 grid, got %s", r.Quantized)
	}
}

func TestProcess_SkipGrayscaleReportsChannelCount(t *testing.T) {
	var reported []error
	p := New()
	p.OnStageError = func(err error) { reported = append(reported, err) }

	cfg := DefaultConfig()
	cfg.SkipGrayscale = true
	src := uniformColor(40, 30, 1, 2, 3)

	r, err := p.Process(src, cfg)
	if err != nil {
		t.Fatalf("Expected recoverable failure, got %v", err)
	}
	if len(r.Errors) != 1 || !IsInvalidChannelCount(r.Errors[0]) {
		t.Fatalf("Expected one ErrInvalidChannelCount, got %v", r.Errors)
	}
	if len(reported) != 1 {
		t.Errorf("Expected OnStageError to fire once, got %d", len(reported))
	}
	if !frame.Equal(r.Quantized, r.Cropped) {
		t.Error("Expected quantizer to pass the crop through")
	}
	if r.Output.Width != r.Cropped.Width || r.Output.Kind() != frame.Color {
		t.Errorf("Expected unscaled color output, got %s", r.Output)
	}
}

func TestProcess_DegenerateCropPassesThrough(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CropAnglePercent = 0

	r, err := New().Process(uniformColor(64, 48, 9, 9, 9), cfg)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if r.CropOutcome != CropDegenerate {
		t.Errorf("Expected degenerate crop, got %v", r.CropOutcome)
	}
	if r.Cropped.Width != 64 || r.Cropped.Height != 48 {
		t.Errorf("Expected full gray frame, got %s", r.Cropped)
	}
}

func TestProcess_StagesDoNotAliasInput(t *testing.T) {
	src := uniformColor(32, 32, 10, 10, 10)
	cfg := Config{ElectrodeWidth: 32, ElectrodeHeight: 32, CropAnglePercent: 100, AspectScale: 1, Zoom: 1}

	r, err := New().Process(src, cfg)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	r.Output.Pix[0] = 99
	r.Inverted.Pix[0] = 98
	if r.Quantized.Pix[len(r.Quantized.Pix)-1] == 98 || src.Pix[0] != 10 {
		t.Error("Expected each stage to own its buffer")
	}
}

func TestProcess_EmptyFrame(t *testing.T) {
	_, err := New().Process(frame.Frame{}, DefaultConfig())
	if !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("Expected ErrEmptyFrame, got %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	if errs := DefaultConfig().Validate(); len(errs) != 0 {
		t.Errorf("Expected default config to be valid, got %v", errs)
	}

	bad := Config{ElectrodeWidth: 0, ElectrodeHeight: 2000, CropAnglePercent: 101, AspectScale: 0, Zoom: 0}
	if errs := bad.Validate(); len(errs) != 5 {
		t.Errorf("Expected 5 validation errors, got %d: %v", len(errs), errs)
	}
}

func TestConfig_GridSize(t *testing.T) {
	cfg := Config{ElectrodeWidth: 0, ElectrodeHeight: 900}
	w, h := cfg.GridSize(640, 480)
	if w != 1 || h != 480 {
		t.Errorf("Expected 1x480, got %dx%d", w, h)
	}
}
