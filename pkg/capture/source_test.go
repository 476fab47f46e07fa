package capture

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/teslashibe/bionic-eye/pkg/frame"
)

func TestOpenImage(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 200, 100, 50, 255
	}
	path := filepath.Join(t.TempDir(), "still.png")
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	src, err := OpenImage(path)
	if err != nil {
		t.Fatalf("OpenImage failed: %v", err)
	}
	defer src.Close()

	f, err := src.Read(context.Background())
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if f.Width != 8 || f.Height != 4 || f.Kind() != frame.Color {
		t.Fatalf("Expected 8x4 color, got %s", f)
	}
	if f.At(0, 0, 0) != 50 || f.At(0, 0, 2) != 200 {
		t.Errorf("Expected BGR order, got %v", f.Row(0)[:3])
	}
	if src.Name() != path {
		t.Errorf("Expected name %q, got %q", path, src.Name())
	}
}

func TestOpenImage_Missing(t *testing.T) {
	if _, err := OpenImage(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestStaticSource_ReadReturnsCopies(t *testing.T) {
	f := frame.NewGray(2, 2)
	src := NewStaticSource("test", f)

	a, _ := src.Read(context.Background())
	a.Set(0, 0, 0, 255)
	b, _ := src.Read(context.Background())
	if b.At(0, 0, 0) != 0 {
		t.Error("Expected each Read to return an independent frame")
	}
}

func TestStaticSource_Closed(t *testing.T) {
	src := NewStaticSource("test", frame.NewGray(1, 1))
	src.Close()
	if _, err := src.Read(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("Expected ErrClosed, got %v", err)
	}
}

func TestStaticSource_CancelledContext(t *testing.T) {
	src := NewStaticSource("test", frame.NewGray(1, 1))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := src.Read(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
