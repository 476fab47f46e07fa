package eye

import (
	"fmt"

	"github.com/teslashibe/bionic-eye/pkg/frame"
)

// BT.601 luma weights in 14-bit fixed point, the same table OpenCV uses for BGR2GRAY.
const (
	lumaShift = 14
	lumaR     = 4899
	lumaG     = 9617
	lumaB     = 1868
	lumaRound = 1 << (lumaShift - 1)
)

// Grayscale collapses a BGR color frame to a single intensity channel.
// A frame that is already gray is returned as a copy.
func Grayscale(src frame.Frame) frame.Frame {
	if src.Kind() == frame.Gray {
		return src.Clone()
	}

	dst := frame.NewGray(src.Width, src.Height)
	for y := 0; y < src.Height; y++ {
		in := src.Row(y)
		out := dst.Row(y)
		for x := range out {
			b := uint32(in[x*3])
			g := uint32(in[x*3+1])
			r := uint32(in[x*3+2])
			out[x] = uint8((b*lumaB + g*lumaG + r*lumaR + lumaRound) >> lumaShift)
		}
	}
	return dst
}

// CropOutcome records which branch of the crop policy was taken.
type CropOutcome int

const (
	// CropCentered extracted the centered region as computed
	CropCentered CropOutcome = iota
	// CropDegenerate computed a zero-area region and passed the input through
	CropDegenerate
	// CropFullWidth fell back to the full source width
	CropFullWidth
	// CropFullHeight fell back to the full source height
	CropFullHeight
)

// String returns the outcome name.
func (o CropOutcome) String() string {
	switch o {
	case CropCentered:
		return "centered"
	case CropDegenerate:
		return "degenerate"
	case CropFullWidth:
		return "full_width"
	case CropFullHeight:
		return "full_height"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// CropRegion computes the crop rectangle for a source of the given size.
// A zero-area region reports CropDegenerate together with the full source bounds.
func CropRegion(srcW, srcH, anglePercent int, aspectScale float64) (x, y, w, h int, outcome CropOutcome) {
	w = srcW * anglePercent / 100
	// epsilon keeps ratios such as 60/100 from flooring one short
	h = int(float64(w)*aspectScale + 1e-9)
	if w <= 0 || h <= 0 {
		return 0, 0, srcW, srcH, CropDegenerate
	}

	x = (srcW - w) / 2
	y = (srcH - h) / 2

	switch {
	case x < 0 || x+w > srcW:
		x, w = 0, srcW
		outcome = CropFullWidth
	case y < 0 || y+h > srcH:
		y, h = 0, srcH
		outcome = CropFullHeight
	default:
		return x, y, w, h, CropCentered
	}

	// A fallback can still overflow on the other axis
	x, w = fit(x, w, srcW)
	y, h = fit(y, h, srcH)
	return x, y, w, h, outcome
}

func fit(off, size, limit int) (int, int) {
	if off < 0 {
		size += off
		off = 0
	}
	if off+size > limit {
		size = limit - off
	}
	return off, size
}

// Crop extracts a centered region sized by anglePercent of the source width
// and aspectScale of that width in height. A zero-area region leaves the
// input untouched.
func Crop(src frame.Frame, anglePercent int, aspectScale float64) (frame.Frame, CropOutcome) {
	x, y, w, h, outcome := CropRegion(src.Width, src.Height, anglePercent, aspectScale)
	if outcome == CropDegenerate || w <= 0 || h <= 0 {
		return src, CropDegenerate
	}
	return src.View(x, y, w, h).Clone(), outcome
}

// Quantize block-averages a gray frame into an electrode grid.
// Electrode counts are clamped to [1, source dimension]. Pixels past the last
// whole block on the right and bottom edges do not contribute.
// A non-gray input is returned unchanged along with an error.
func Quantize(src frame.Frame, electrodeW, electrodeH int) (frame.Frame, error) {
	if src.Kind() != frame.Gray {
		return src, &StageError{
			Stage:  StageQuantize,
			Detail: fmt.Sprintf("got %d channels, want 1", src.Channels),
			Err:    ErrInvalidChannelCount,
		}
	}

	cfg := Config{ElectrodeWidth: electrodeW, ElectrodeHeight: electrodeH}
	gw, gh := cfg.GridSize(src.Width, src.Height)
	blockW := src.Width / gw
	blockH := src.Height / gh
	area := uint64(blockW * blockH)

	grid := frame.NewGray(gw, gh)
	for gy := 0; gy < gh; gy++ {
		for gx := 0; gx < gw; gx++ {
			var sum uint64
			for y := gy * blockH; y < (gy+1)*blockH; y++ {
				row := src.Row(y)[gx*blockW : (gx+1)*blockW]
				for _, v := range row {
					sum += uint64(v)
				}
			}
			grid.Set(gx, gy, 0, uint8(sum/area))
		}
	}
	return grid, nil
}

// Invert applies a 180 degree point reflection: out(x, y) = in(W-1-x, H-1-y).
// The channels of each pixel move together.
func Invert(src frame.Frame) frame.Frame {
	dst := src.Clone()
	ch := src.Channels
	for y := 0; y < src.Height; y++ {
		in := src.Row(src.Height - 1 - y)
		out := dst.Row(y)
		for x := 0; x < src.Width; x++ {
			copy(out[x*ch:(x+1)*ch], in[(src.Width-1-x)*ch:(src.Width-x)*ch])
		}
	}
	return dst
}

// Upscale replicates every pixel into a zoom x zoom block. Zoom values below
// one are treated as one.
func Upscale(src frame.Frame, zoom int) frame.Frame {
	if zoom < 1 {
		zoom = 1
	}
	if zoom == 1 {
		return src.Clone()
	}

	ch := src.Channels
	dst, _ := frame.New(src.Width*zoom, src.Height*zoom, src.Kind())
	for y := 0; y < src.Height; y++ {
		in := src.Row(y)
		first := dst.Row(y * zoom)
		for x := 0; x < src.Width; x++ {
			px := in[x*ch : (x+1)*ch]
			for z := 0; z < zoom; z++ {
				copy(first[(x*zoom+z)*ch:], px)
			}
		}
		for z := 1; z < zoom; z++ {
			copy(dst.Row(y*zoom+z), first)
		}
	}
	return dst
}
