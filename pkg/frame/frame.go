// Package frame provides the 8-bit pixel buffer shared by every pipeline stage.
package frame

import (
	"errors"
	"fmt"
)

// Kind tags a frame as single-channel intensity or three-channel color.
type Kind int

const (
	// Gray is a single-channel intensity frame
	Gray Kind = 1
	// Color is a three-channel frame stored in B, G, R order
	Color Kind = 3
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Gray:
		return "gray"
	case Color:
		return "color"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Sentinel errors for the frame package.
var (
	// ErrInvalidDimensions indicates a non-positive width or height.
	ErrInvalidDimensions = errors.New("frame: width and height must be positive")

	// ErrInvalidChannels indicates a channel count other than 1 or 3.
	ErrInvalidChannels = errors.New("frame: channel count must be 1 or 3")

	// ErrShortBuffer indicates the pixel buffer is smaller than the geometry requires.
	ErrShortBuffer = errors.New("frame: pixel buffer too short")
)

// Frame is a rectangular, row-major pixel buffer.
// Stride is the distance in bytes between the starts of two consecutive rows,
// so a Frame may be a non-contiguous view into a larger buffer.
type Frame struct {
	Width    int
	Height   int
	Channels int
	Stride   int
	Pix      []uint8
}

// New allocates a zeroed, contiguous frame.
func New(width, height int, kind Kind) (Frame, error) {
	if width <= 0 || height <= 0 {
		return Frame{}, ErrInvalidDimensions
	}
	if kind != Gray && kind != Color {
		return Frame{}, ErrInvalidChannels
	}
	ch := int(kind)
	return Frame{
		Width:    width,
		Height:   height,
		Channels: ch,
		Stride:   width * ch,
		Pix:      make([]uint8, width*height*ch),
	}, nil
}

// NewGray allocates a zeroed gray frame. It panics on non-positive dimensions.
func NewGray(width, height int) Frame {
	f, err := New(width, height, Gray)
	if err != nil {
		panic(err)
	}
	return f
}

// NewColor allocates a zeroed color frame. It panics on non-positive dimensions.
func NewColor(width, height int) Frame {
	f, err := New(width, height, Color)
	if err != nil {
		panic(err)
	}
	return f
}

// FromBytes wraps a contiguous buffer without copying it.
func FromBytes(width, height, channels int, pix []uint8) (Frame, error) {
	f := Frame{
		Width:    width,
		Height:   height,
		Channels: channels,
		Stride:   width * channels,
		Pix:      pix,
	}
	if err := f.Validate(); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// Validate checks the frame invariants.
func (f Frame) Validate() error {
	if f.Width <= 0 || f.Height <= 0 {
		return ErrInvalidDimensions
	}
	if f.Channels != 1 && f.Channels != 3 {
		return ErrInvalidChannels
	}
	if f.Stride < f.Width*f.Channels {
		return fmt.Errorf("frame: stride %d smaller than row width %d", f.Stride, f.Width*f.Channels)
	}
	if len(f.Pix) < (f.Height-1)*f.Stride+f.Width*f.Channels {
		return ErrShortBuffer
	}
	return nil
}

// Kind reports whether the frame is gray or color.
func (f Frame) Kind() Kind {
	return Kind(f.Channels)
}

// Empty reports whether the frame holds no pixels.
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || len(f.Pix) == 0
}

// Offset returns the index of the first channel of pixel (x, y).
func (f Frame) Offset(x, y int) int {
	return y*f.Stride + x*f.Channels
}

// At returns channel c of pixel (x, y).
func (f Frame) At(x, y, c int) uint8 {
	return f.Pix[f.Offset(x, y)+c]
}

// Set writes channel c of pixel (x, y).
func (f Frame) Set(x, y, c int, v uint8) {
	f.Pix[f.Offset(x, y)+c] = v
}

// Row returns the samples of row y, without the stride padding.
func (f Frame) Row(y int) []uint8 {
	start := y * f.Stride
	return f.Pix[start : start+f.Width*f.Channels]
}

// Contiguous reports whether rows are packed without padding.
func (f Frame) Contiguous() bool {
	return f.Stride == f.Width*f.Channels
}

// View returns a frame sharing f's buffer, restricted to the given rectangle.
// The rectangle must lie inside f.
func (f Frame) View(x, y, w, h int) Frame {
	if w <= 0 || h <= 0 || x < 0 || y < 0 || x+w > f.Width || y+h > f.Height {
		panic(fmt.Sprintf("frame: view %dx%d+%d+%d outside %dx%d", w, h, x, y, f.Width, f.Height))
	}
	start := f.Offset(x, y)
	end := f.Offset(x+w-1, y+h-1) + f.Channels
	return Frame{
		Width:    w,
		Height:   h,
		Channels: f.Channels,
		Stride:   f.Stride,
		Pix:      f.Pix[start:end:end],
	}
}

// Clone returns a contiguous deep copy of f.
func (f Frame) Clone() Frame {
	out := Frame{
		Width:    f.Width,
		Height:   f.Height,
		Channels: f.Channels,
		Stride:   f.Width * f.Channels,
		Pix:      make([]uint8, f.Width*f.Height*f.Channels),
	}
	for y := 0; y < f.Height; y++ {
		copy(out.Row(y), f.Row(y))
	}
	return out
}

// Bytes returns the samples as a contiguous slice.
// The result aliases f.Pix when f is already contiguous.
func (f Frame) Bytes() []uint8 {
	if f.Contiguous() {
		return f.Pix[:f.Width*f.Height*f.Channels]
	}
	return f.Clone().Pix
}

// Equal reports whether a and b have the same geometry and samples.
// Stride padding is ignored.
func Equal(a, b Frame) bool {
	if a.Width != b.Width || a.Height != b.Height || a.Channels != b.Channels {
		return false
	}
	for y := 0; y < a.Height; y++ {
		ra, rb := a.Row(y), b.Row(y)
		for i := range ra {
			if ra[i] != rb[i] {
				return false
			}
		}
	}
	return true
}

// String summarizes the frame geometry.
func (f Frame) String() string {
	return fmt.Sprintf("%dx%d %s", f.Width, f.Height, f.Kind())
}
