package camera

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/teslashibe/bionic-eye/pkg/frame"
)

// FrameFromMat copies an 8-bit Mat into a frame.
// BGRA input is reduced to BGR; gray input stays gray.
func FrameFromMat(mat gocv.Mat) (frame.Frame, error) {
	if mat.Empty() {
		return frame.Frame{}, fmt.Errorf("camera: empty mat")
	}

	src := mat
	switch mat.Channels() {
	case 1, 3:
	case 4:
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(mat, &bgr, gocv.ColorBGRAToBGR)
		src = bgr
	default:
		return frame.Frame{}, fmt.Errorf("camera: unsupported channel count %d", mat.Channels())
	}

	if src.Type() != gocv.MatTypeCV8UC1 && src.Type() != gocv.MatTypeCV8UC3 {
		return frame.Frame{}, fmt.Errorf("camera: unsupported mat type %v", src.Type())
	}

	if !src.IsContinuous() {
		cont := src.Clone()
		defer cont.Close()
		src = cont
	}

	// ToBytes copies out of C memory
	return frame.FromBytes(src.Cols(), src.Rows(), src.Channels(), src.ToBytes())
}

// MatFromFrame copies a frame into a new Mat. The caller must Close it.
func MatFromFrame(f frame.Frame) (gocv.Mat, error) {
	if err := f.Validate(); err != nil {
		return gocv.NewMat(), err
	}

	mt := gocv.MatTypeCV8UC1
	if f.Kind() == frame.Color {
		mt = gocv.MatTypeCV8UC3
	}

	// NewMatFromBytes wraps Go memory, so clone into OpenCV-owned storage
	wrapped, err := gocv.NewMatFromBytes(f.Height, f.Width, mt, f.Bytes())
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("camera: wrap frame: %w", err)
	}
	defer wrapped.Close()
	return wrapped.Clone(), nil
}
