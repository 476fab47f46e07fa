package display

import (
	"math"

	"github.com/teslashibe/bionic-eye/pkg/eye"
)

// Trackbar names as shown in the window.
const (
	BarElectrodeWidth  = "electrode w"
	BarElectrodeHeight = "electrode h"
	BarCropAngle       = "crop angle %"
	BarAspect          = "aspect %"
	BarZoom            = "zoom"
)

// control maps one trackbar to a config field.
type control struct {
	name     string
	min, max int
	get      func(eye.Config) int
	set      func(*eye.Config, int)
}

// Slider ranges stay below the validation limits so every position is a valid config.
var controls = []control{
	{
		name: BarElectrodeWidth, min: 1, max: 256,
		get: func(c eye.Config) int { return c.ElectrodeWidth },
		set: func(c *eye.Config, v int) { c.ElectrodeWidth = v },
	},
	{
		name: BarElectrodeHeight, min: 1, max: 256,
		get: func(c eye.Config) int { return c.ElectrodeHeight },
		set: func(c *eye.Config, v int) { c.ElectrodeHeight = v },
	},
	{
		name: BarCropAngle, min: 0, max: 100,
		get: func(c eye.Config) int { return c.CropAnglePercent },
		set: func(c *eye.Config, v int) { c.CropAnglePercent = v },
	},
	{
		name: BarAspect, min: 1, max: 300,
		get: func(c eye.Config) int { return int(math.Round(c.AspectScale * 100)) },
		set: func(c *eye.Config, v int) { c.AspectScale = float64(v) / 100 },
	},
	{
		name: BarZoom, min: 1, max: eye.MaxZoom,
		get: func(c eye.Config) int { return c.Zoom },
		set: func(c *eye.Config, v int) { c.Zoom = v },
	},
}

// Positions returns the trackbar positions for cfg, clamped to each slider's range.
func Positions(cfg eye.Config) map[string]int {
	pos := make(map[string]int, len(controls))
	for _, c := range controls {
		v := c.get(cfg)
		if v < c.min {
			v = c.min
		}
		if v > c.max {
			v = c.max
		}
		pos[c.name] = v
	}
	return pos
}

// Changes returns the config edits implied by moving sliders from prev to cur,
// keyed the way tuning.Manager.UpdateConfig expects. Untouched sliders are
// left out so dashboard edits outside the slider range survive.
func Changes(base eye.Config, prev, cur map[string]int) map[string]interface{} {
	params := make(map[string]interface{})
	for _, c := range controls {
		v, ok := cur[c.name]
		if !ok || v == prev[c.name] {
			continue
		}
		if v < c.min {
			v = c.min
		}
		cfg := base
		c.set(&cfg, v)
		key, value := paramFor(c.name, cfg)
		params[key] = value
	}
	return params
}

func paramFor(name string, cfg eye.Config) (string, interface{}) {
	switch name {
	case BarElectrodeWidth:
		return "electrode_width", cfg.ElectrodeWidth
	case BarElectrodeHeight:
		return "electrode_height", cfg.ElectrodeHeight
	case BarCropAngle:
		return "crop_angle_percent", cfg.CropAnglePercent
	case BarAspect:
		return "aspect_scale", cfg.AspectScale
	default:
		return "zoom", cfg.Zoom
	}
}
