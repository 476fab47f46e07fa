package camera

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/bionic-eye/internal/log"
	"github.com/teslashibe/bionic-eye/pkg/capture"
	"github.com/teslashibe/bionic-eye/pkg/frame"
)

// Webcam reads frames from an OpenCV video capture device.
type Webcam struct {
	config Config
	cap    *gocv.VideoCapture
	mat    gocv.Mat
	mu     sync.Mutex // Protects cap and mat
	closed bool
}

// Open opens the device described by cfg.
func Open(cfg Config) (*Webcam, error) {
	if errors := cfg.Validate(); len(errors) > 0 {
		return nil, fmt.Errorf("validation failed: %v", errors)
	}

	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("camera: open device %d: %w", cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, fmt.Errorf("camera: device %d not opened", cfg.Device)
	}

	if cfg.Width > 0 {
		vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	}
	if cfg.Height > 0 {
		vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}
	if cfg.Framerate > 0 {
		vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	}

	log.Info("webcam opened",
		"device", cfg.Device,
		"width", int(vc.Get(gocv.VideoCaptureFrameWidth)),
		"height", int(vc.Get(gocv.VideoCaptureFrameHeight)),
	)

	return &Webcam{
		config: cfg,
		cap:    vc,
		mat:    gocv.NewMat(),
	}, nil
}

// Read grabs the next frame from the device.
func (w *Webcam) Read(ctx context.Context) (frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return frame.Frame{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return frame.Frame{}, capture.ErrClosed
	}
	if ok := w.cap.Read(&w.mat); !ok || w.mat.Empty() {
		return frame.Frame{}, capture.ErrNoFrame
	}
	return FrameFromMat(w.mat)
}

// Name identifies the device.
func (w *Webcam) Name() string {
	return fmt.Sprintf("webcam:%d", w.config.Device)
}

// Close releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	w.mat.Close()
	return w.cap.Close()
}
