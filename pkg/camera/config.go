// Package camera captures BGR frames from a local webcam through OpenCV.
package camera

import "fmt"

// Config holds the webcam capture parameters.
type Config struct {
	// Device is the OpenCV device index (0 = first webcam).
	Device int `json:"device"`

	// Requested resolution. Zero keeps the driver default.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Framerate is the requested FPS. Zero keeps the driver default.
	Framerate int `json:"framerate"`
}

// Capture limits
const (
	MaxWidth     = 4096
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns a 640x480 capture from the first device.
func DefaultConfig() Config {
	return Config{
		Device:    0,
		Width:     640,
		Height:    480,
		Framerate: 30,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device < 0 {
		errors = append(errors, "device must be 0 or greater")
	}
	if c.Width != 0 && (c.Width < 16 || c.Width > MaxWidth) {
		errors = append(errors, fmt.Sprintf("width must be 0 (driver default) or between 16 and %d", MaxWidth))
	}
	if c.Height != 0 && (c.Height < 16 || c.Height > MaxHeight) {
		errors = append(errors, fmt.Sprintf("height must be 0 (driver default) or between 16 and %d", MaxHeight))
	}
	if c.Framerate < 0 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 0 and %d", MaxFramerate))
	}

	return errors
}
