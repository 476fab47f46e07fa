package frame

import (
	"image"
	"image/color"
)

// ToImage converts a frame to a standard library image.
// Gray frames become *image.Gray, color frames become *image.NRGBA (BGR -> RGB).
func (f Frame) ToImage() image.Image {
	if f.Kind() == Gray {
		img := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
		for y := 0; y < f.Height; y++ {
			copy(img.Pix[y*img.Stride:y*img.Stride+f.Width], f.Row(y))
		}
		return img
	}

	img := image.NewNRGBA(image.Rect(0, 0, f.Width, f.Height))
	for y := 0; y < f.Height; y++ {
		row := f.Row(y)
		dst := img.Pix[y*img.Stride:]
		for x := 0; x < f.Width; x++ {
			i := x * 3
			j := x * 4
			dst[j] = row[i+2] // BGR -> RGB
			dst[j+1] = row[i+1]
			dst[j+2] = row[i]
			dst[j+3] = 255
		}
	}
	return img
}

// FromImage converts any image to a frame.
// *image.Gray sources produce a gray frame, everything else a BGR color frame.
// Alpha is discarded.
func FromImage(img image.Image) (Frame, error) {
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return Frame{}, ErrInvalidDimensions
	}

	if g, ok := img.(*image.Gray); ok {
		f := NewGray(b.Dx(), b.Dy())
		for y := 0; y < f.Height; y++ {
			start := (y+b.Min.Y-g.Rect.Min.Y)*g.Stride + (b.Min.X - g.Rect.Min.X)
			copy(f.Row(y), g.Pix[start:start+f.Width])
		}
		return f, nil
	}

	f := NewColor(b.Dx(), b.Dy())
	for y := 0; y < f.Height; y++ {
		row := f.Row(y)
		for x := 0; x < f.Width; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := x * 3
			row[i] = c.B
			row[i+1] = c.G
			row[i+2] = c.R
		}
	}
	return f, nil
}
