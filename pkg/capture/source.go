// Package capture supplies raw frames to the simulator.
package capture

import (
	"context"
	"errors"
	"fmt"

	"github.com/disintegration/imaging"

	"github.com/teslashibe/bionic-eye/pkg/frame"
)

// Sentinel errors for the capture package.
var (
	// ErrClosed indicates the source was read after Close.
	ErrClosed = errors.New("capture: source closed")

	// ErrNoFrame indicates the device produced no frame this cycle.
	ErrNoFrame = errors.New("capture: no frame")
)

// Source produces one BGR frame per call.
type Source interface {
	// Read returns the next frame. It blocks until a frame is available or ctx is done.
	Read(ctx context.Context) (frame.Frame, error)

	// Name identifies the source in logs
	Name() string

	// Close releases resources
	Close() error
}

// ImageSource replays a still image on every Read.
type ImageSource struct {
	path   string
	frame  frame.Frame
	closed bool
}

// OpenImage decodes the image at path, honoring EXIF orientation.
func OpenImage(path string) (*ImageSource, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", path, err)
	}
	f, err := frame.FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("capture: convert %s: %w", path, err)
	}
	return &ImageSource{path: path, frame: f}, nil
}

// NewStaticSource replays f on every Read.
func NewStaticSource(name string, f frame.Frame) *ImageSource {
	return &ImageSource{path: name, frame: f}
}

// Read returns a copy of the still image so callers own their frame.
func (s *ImageSource) Read(ctx context.Context) (frame.Frame, error) {
	if s.closed {
		return frame.Frame{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return frame.Frame{}, err
	}
	return s.frame.Clone(), nil
}

// Name returns the image path.
func (s *ImageSource) Name() string {
	return s.path
}

// Close marks the source closed.
func (s *ImageSource) Close() error {
	s.closed = true
	return nil
}
