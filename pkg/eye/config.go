package eye

// Config holds the per-pass pipeline parameters.
// A Config is passed by value; the pipeline never modifies it.
type Config struct {
	// === Quantization ===
	ElectrodeWidth  int `json:"electrode_width"`  // Electrode columns
	ElectrodeHeight int `json:"electrode_height"` // Electrode rows

	// === Crop ===
	// CropAnglePercent is the share of the source width kept (0-100).
	CropAnglePercent int `json:"crop_angle_percent"`

	// AspectScale is the crop height divided by the crop width.
	AspectScale float64 `json:"aspect_scale"`

	// === Display ===
	// Zoom is the block size each electrode is replicated to.
	Zoom int `json:"zoom"`

	// SkipGrayscale hands the color frame straight to the crop. The quantizer
	// then rejects it and the color crop is shown instead of a grid.
	SkipGrayscale bool `json:"skip_grayscale"`
}

// Limits accepted by Validate.
const (
	MaxElectrodes  = 1024
	MaxAspectScale = 10.0
	MaxZoom        = 64
)

// DefaultConfig returns a mid-density simulation.
func DefaultConfig() Config {
	return Config{
		ElectrodeWidth:   32,
		ElectrodeHeight:  24,
		CropAnglePercent: 60,
		AspectScale:      0.75,
		Zoom:             16,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
// Values that the stages clamp on their own (electrode counts of 0, zoom below 1)
// are still rejected here so that API clients get feedback.
func (c Config) Validate() []string {
	var errors []string

	if c.ElectrodeWidth < 1 || c.ElectrodeWidth > MaxElectrodes {
		errors = append(errors, "electrode_width must be between 1 and 1024")
	}
	if c.ElectrodeHeight < 1 || c.ElectrodeHeight > MaxElectrodes {
		errors = append(errors, "electrode_height must be between 1 and 1024")
	}
	if c.CropAnglePercent < 0 || c.CropAnglePercent > 100 {
		errors = append(errors, "crop_angle_percent must be between 0 and 100")
	}
	if c.AspectScale <= 0 || c.AspectScale > MaxAspectScale {
		errors = append(errors, "aspect_scale must be greater than 0 and at most 10")
	}
	if c.Zoom < 1 || c.Zoom > MaxZoom {
		errors = append(errors, "zoom must be between 1 and 64")
	}

	return errors
}

// GridSize returns the electrode grid dimensions that a source of the given size produces.
func (c Config) GridSize(srcW, srcH int) (w, h int) {
	return clamp(c.ElectrodeWidth, 1, srcW), clamp(c.ElectrodeHeight, 1, srcH)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
