// Package snapshot persists the intermediates of one pipeline pass.
package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/teslashibe/bionic-eye/pkg/eye"
	"github.com/teslashibe/bionic-eye/pkg/feed"
	"github.com/teslashibe/bionic-eye/pkg/frame"
)

// Stage ordinals used in snapshot file names.
const (
	OrdinalInitial = iota
	OrdinalGrayscale
	OrdinalCropped
	OrdinalQuantized
	OrdinalInverted
)

// stageNames maps ordinals to file name suffixes.
var stageNames = []string{
	OrdinalInitial:   "initial",
	OrdinalGrayscale: "grayscale",
	OrdinalCropped:   "cropped",
	OrdinalQuantized: "quantized",
	OrdinalInverted:  "inverted",
}

// Snapshot describes the files written for one save trigger.
type Snapshot struct {
	ID      string    `json:"id"`
	Dir     string    `json:"dir"`
	Files   []string  `json:"files"`
	SavedAt time.Time `json:"saved_at"`
}

// NewID returns a fresh snapshot session id.
func NewID() string {
	return uuid.New().String()
}

// FileName returns the image file name for a stage ordinal.
func FileName(id string, ordinal int) string {
	return fmt.Sprintf("%s_%d_%s.png", id, ordinal, stageNames[ordinal])
}

// GridFileName returns the CBOR sidecar name.
func GridFileName(id string) string {
	return id + "_grid.cbor"
}

// Writer saves snapshots under a directory.
type Writer struct {
	dir string
}

// NewWriter creates the directory if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Dir returns the output directory.
func (w *Writer) Dir() string {
	return w.dir
}

// Save writes the five stage frames of r as PNG files and the electrode grid as CBOR.
// An empty id gets a fresh one.
func (w *Writer) Save(id string, r *eye.Result) (*Snapshot, error) {
	if id == "" {
		id = NewID()
	}

	stages := []frame.Frame{
		OrdinalInitial:   r.Initial,
		OrdinalGrayscale: r.Gray,
		OrdinalCropped:   r.Cropped,
		OrdinalQuantized: r.Quantized,
		OrdinalInverted:  r.Inverted,
	}

	snap := &Snapshot{ID: id, Dir: w.dir, SavedAt: time.Now()}
	for ordinal, f := range stages {
		path := filepath.Join(w.dir, FileName(id, ordinal))
		if err := imaging.Save(f.ToImage(), path); err != nil {
			return snap, fmt.Errorf("snapshot: save %s: %w", stageNames[ordinal], err)
		}
		snap.Files = append(snap.Files, path)
	}

	// The grid sidecar only makes sense when the quantizer produced a grid
	if r.Quantized.Kind() == frame.Gray {
		msg, err := feed.NewGridMessage(0, snap.SavedAt, r.Quantized, r.Config)
		if err != nil {
			return snap, err
		}
		data, err := feed.Encode(msg)
		if err != nil {
			return snap, fmt.Errorf("snapshot: encode grid: %w", err)
		}
		path := filepath.Join(w.dir, GridFileName(id))
		if err := os.WriteFile(path, data, 0644); err != nil {
			return snap, fmt.Errorf("snapshot: write grid: %w", err)
		}
		snap.Files = append(snap.Files, path)
	}

	return snap, nil
}

// EncodePNG writes f as a PNG.
func EncodePNG(w io.Writer, f frame.Frame) error {
	return imaging.Encode(w, f.ToImage(), imaging.PNG)
}

// PNGBytes returns f encoded as a PNG.
func PNGBytes(f frame.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodePNG(&buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
