package snapshot

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/teslashibe/bionic-eye/pkg/eye"
	"github.com/teslashibe/bionic-eye/pkg/feed"
	"github.com/teslashibe/bionic-eye/pkg/frame"
)

func processTestFrame(t *testing.T, cfg eye.Config) *eye.Result {
	t.Helper()
	src := frame.NewColor(40, 30)
	for i := range src.Pix {
		src.Pix[i] = uint8(i % 256)
	}
	r, err := eye.New().Process(src, cfg)
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	return r
}

func TestFileName(t *testing.T) {
	if got := FileName("abc", OrdinalQuantized); got != "abc_3_quantized.png" {
		t.Errorf("Expected abc_3_quantized.png, got %s", got)
	}
	if got := GridFileName("abc"); got != "abc_grid.cbor" {
		t.Errorf("Expected abc_grid.cbor, got %s", got)
	}
}

func TestNewID_Unique(t *testing.T) {
	a, b := NewID(), NewID()
	if a == b || len(a) < 10 {
		t.Errorf("Expected distinct ids, got %q and %q", a, b)
	}
}

func TestSave_WritesAllStages(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	w, err := NewWriter(dir)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	cfg := eye.Config{ElectrodeWidth: 8, ElectrodeHeight: 6, CropAnglePercent: 100, AspectScale: 0.75, Zoom: 4}
	r := processTestFrame(t, cfg)

	snap, err := w.Save("session", r)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if len(snap.Files) != 6 {
		t.Fatalf("Expected 5 images and a grid, got %v", snap.Files)
	}

	for ordinal, name := range []string{"initial", "grayscale", "cropped", "quantized", "inverted"} {
		path := filepath.Join(dir, FileName("session", ordinal))
		if !strings.HasSuffix(path, name+".png") {
			t.Errorf("Expected %s suffix, got %s", name, path)
		}
		if _, err := os.Stat(path); err != nil {
			t.Errorf("Expected %s to exist: %v", path, err)
		}
	}

	img, err := imaging.Open(filepath.Join(dir, FileName("session", OrdinalQuantized)))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 8, 6) {
		t.Errorf("Expected 8x6 grid image, got %v", img.Bounds())
	}

	data, err := os.ReadFile(filepath.Join(dir, GridFileName("session")))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	msg, err := feed.Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	grid, _ := msg.Frame()
	if !frame.Equal(grid, r.Quantized) {
		t.Error("Expected grid sidecar to match the quantized frame")
	}
}

func TestSave_GeneratesID(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	snap, err := w.Save("", processTestFrame(t, eye.DefaultConfig()))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if snap.ID == "" {
		t.Error("Expected generated id")
	}
}

func TestSave_NoGridWhenQuantizerRejected(t *testing.T) {
	w, err := NewWriter(t.TempDir())
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	cfg := eye.DefaultConfig()
	cfg.SkipGrayscale = true

	snap, err := w.Save("color", processTestFrame(t, cfg))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if len(snap.Files) != 5 {
		t.Errorf("Expected 5 images without grid, got %v", snap.Files)
	}
}

func TestPNGBytes(t *testing.T) {
	data, err := PNGBytes(frame.NewGray(3, 3))
	if err != nil {
		t.Fatalf("PNGBytes failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("Expected PNG signature")
	}
}
