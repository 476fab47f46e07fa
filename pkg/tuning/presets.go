package tuning

import "github.com/teslashibe/bionic-eye/pkg/eye"

// Preset names for common electrode arrays
const (
	PresetDefault = "default"
	PresetArgus   = "argus"
	PresetCoarse  = "coarse"
	PresetFine    = "fine"
	PresetWide    = "wide"
	PresetTunnel  = "tunnel"
)

// Presets returns all available preset configurations.
func Presets() map[string]eye.Config {
	return map[string]eye.Config{
		PresetDefault: eye.DefaultConfig(),
		PresetArgus:   ArgusConfig(),
		PresetCoarse:  CoarseConfig(),
		PresetFine:    FineConfig(),
		PresetWide:    WideConfig(),
		PresetTunnel:  TunnelConfig(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetArgus,
		PresetCoarse,
		PresetFine,
		PresetWide,
		PresetTunnel,
	}
}

// GetPreset returns a preset config by name, or nil if not found.
func GetPreset(name string) *eye.Config {
	presets := Presets()
	if cfg, ok := presets[name]; ok {
		return &cfg
	}
	return nil
}

// ArgusConfig returns a 6x10 array, the layout of the Argus II epiretinal implant.
func ArgusConfig() eye.Config {
	cfg := eye.DefaultConfig()
	cfg.ElectrodeWidth = 10
	cfg.ElectrodeHeight = 6
	cfg.CropAnglePercent = 40
	cfg.AspectScale = 0.6
	cfg.Zoom = 48
	return cfg
}

// CoarseConfig returns a 16x12 grid.
func CoarseConfig() eye.Config {
	cfg := eye.DefaultConfig()
	cfg.ElectrodeWidth = 16
	cfg.ElectrodeHeight = 12
	cfg.Zoom = 32
	return cfg
}

// FineConfig returns a 64x48 grid.
func FineConfig() eye.Config {
	cfg := eye.DefaultConfig()
	cfg.ElectrodeWidth = 64
	cfg.ElectrodeHeight = 48
	cfg.Zoom = 8
	return cfg
}

// WideConfig keeps the whole source width.
func WideConfig() eye.Config {
	cfg := eye.DefaultConfig()
	cfg.CropAnglePercent = 100
	cfg.AspectScale = 0.75
	return cfg
}

// TunnelConfig simulates a narrow visual field.
func TunnelConfig() eye.Config {
	cfg := eye.DefaultConfig()
	cfg.ElectrodeWidth = 20
	cfg.ElectrodeHeight = 20
	cfg.CropAnglePercent = 25
	cfg.AspectScale = 1.0
	cfg.Zoom = 24
	return cfg
}
