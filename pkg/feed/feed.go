// Package feed encodes electrode grids for external consumers.
// Messages are CBOR maps shaped like:
// { "type": "grid", "seq": <uint>, "timestamp": <float seconds>, "width": <int>, "height": <int>,
//   "cells": <bytes, row-major>, "config": { ... } }
package feed

import (
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/teslashibe/bionic-eye/pkg/eye"
	"github.com/teslashibe/bionic-eye/pkg/frame"
)

// MessageTypeGrid tags electrode grid messages.
const MessageTypeGrid = "grid"

// ErrInvalidMessage indicates a payload that is not a well-formed grid.
var ErrInvalidMessage = errors.New("feed: invalid message")

// GridConfig is the subset of the pipeline config a consumer needs to interpret a grid.
type GridConfig struct {
	ElectrodeWidth   int     `cbor:"electrode_width"`
	ElectrodeHeight  int     `cbor:"electrode_height"`
	CropAnglePercent int     `cbor:"crop_angle_percent"`
	AspectScale      float64 `cbor:"aspect_scale"`
}

// GridMessage carries one electrode grid.
type GridMessage struct {
	Type      string     `cbor:"type"`
	Seq       uint64     `cbor:"seq"`
	Timestamp float64    `cbor:"timestamp"`
	Width     int        `cbor:"width"`
	Height    int        `cbor:"height"`
	Cells     []byte     `cbor:"cells"`
	Config    GridConfig `cbor:"config"`
}

// NewGridMessage builds a message from a gray grid.
func NewGridMessage(seq uint64, at time.Time, grid frame.Frame, cfg eye.Config) (GridMessage, error) {
	if grid.Kind() != frame.Gray {
		return GridMessage{}, fmt.Errorf("feed: grid must be gray, got %s", grid.Kind())
	}
	cells := make([]byte, grid.Width*grid.Height)
	copy(cells, grid.Bytes())

	return GridMessage{
		Type:      MessageTypeGrid,
		Seq:       seq,
		Timestamp: float64(at.Unix()) + float64(at.Nanosecond())/1e9,
		Width:     grid.Width,
		Height:    grid.Height,
		Cells:     cells,
		Config: GridConfig{
			ElectrodeWidth:   cfg.ElectrodeWidth,
			ElectrodeHeight:  cfg.ElectrodeHeight,
			CropAnglePercent: cfg.CropAnglePercent,
			AspectScale:      cfg.AspectScale,
		},
	}, nil
}

// Frame returns the grid as a gray frame.
func (m GridMessage) Frame() (frame.Frame, error) {
	return frame.FromBytes(m.Width, m.Height, 1, m.Cells)
}

// Encode serializes a message to CBOR.
func Encode(m GridMessage) ([]byte, error) {
	return cbor.Marshal(m)
}

// Decode parses a CBOR grid message.
func Decode(data []byte) (GridMessage, error) {
	var m GridMessage
	if err := cbor.Unmarshal(data, &m); err != nil {
		return GridMessage{}, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if m.Type != MessageTypeGrid {
		return GridMessage{}, fmt.Errorf("%w: type %q", ErrInvalidMessage, m.Type)
	}
	if m.Width <= 0 || m.Height <= 0 || len(m.Cells) != m.Width*m.Height {
		return GridMessage{}, fmt.Errorf("%w: %dx%d with %d cells", ErrInvalidMessage, m.Width, m.Height, len(m.Cells))
	}
	return m, nil
}

// Sink receives encoded grids.
type Sink interface {
	// Publish sends one message. Implementations must not block the frame loop.
	Publish(m GridMessage) error

	// Close releases resources
	Close() error
}

// Discard is a Sink that drops every message.
type Discard struct{}

// Publish drops m.
func (Discard) Publish(GridMessage) error { return nil }

// Close does nothing.
func (Discard) Close() error { return nil }
