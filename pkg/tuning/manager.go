// Package tuning holds the runtime-adjustable pipeline configuration.
// Trackbars, the dashboard API and presets all write through a Manager;
// the frame loop takes one snapshot per pass.
package tuning

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/teslashibe/bionic-eye/pkg/eye"
)

// Manager holds the current pipeline configuration and handles updates.
type Manager struct {
	config eye.Config
	preset string
	mu     sync.RWMutex

	// Callback when config changes (for syncing trackbars, broadcasting status)
	OnConfigChange func(cfg eye.Config) error
}

// NewManager creates a new manager with the default config.
func NewManager() *Manager {
	return &Manager{
		config: eye.DefaultConfig(),
		preset: PresetDefault,
	}
}

// NewManagerWith creates a manager starting from cfg.
func NewManagerWith(cfg eye.Config) (*Manager, error) {
	if errors := cfg.Validate(); len(errors) > 0 {
		return nil, fmt.Errorf("validation failed: %v", errors)
	}
	return &Manager{config: cfg}, nil
}

// GetConfig returns the current configuration by value.
func (m *Manager) GetConfig() eye.Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// Preset returns the name of the last applied preset, or "" after manual edits.
func (m *Manager) Preset() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.preset
}

// SetConfig replaces the configuration.
func (m *Manager) SetConfig(cfg eye.Config) error {
	return m.set(cfg, "")
}

// ApplyPreset replaces the configuration with a named preset.
func (m *Manager) ApplyPreset(name string) error {
	preset := GetPreset(name)
	if preset == nil {
		return fmt.Errorf("unknown preset: %s", name)
	}
	return m.set(*preset, name)
}

func (m *Manager) set(cfg eye.Config, preset string) error {
	// Validate
	if errors := cfg.Validate(); len(errors) > 0 {
		return fmt.Errorf("validation failed: %v", errors)
	}

	m.mu.Lock()
	changed := m.config != cfg
	m.config = cfg
	m.preset = preset
	callback := m.OnConfigChange
	m.mu.Unlock()

	// Notify callback if set
	if changed && callback != nil {
		if err := callback(cfg); err != nil {
			return fmt.Errorf("failed to apply config: %w", err)
		}
	}

	return nil
}

// UpdateConfig updates specific fields of the configuration.
// Accepts a map of field names to values.
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	m.mu.RLock()
	cfg := m.config
	m.mu.RUnlock()

	// Check for preset first
	if presetName, ok := params["preset"].(string); ok {
		preset := GetPreset(presetName)
		if preset == nil {
			return fmt.Errorf("unknown preset: %s", presetName)
		}
		cfg = *preset
		// Remove preset from params so we can still apply other overrides
		delete(params, "preset")
		if len(params) == 0 {
			return m.set(cfg, presetName)
		}
	}

	// Apply individual parameters
	for key, value := range params {
		switch key {
		case "electrode_width":
			if v, ok := toInt(value); ok {
				cfg.ElectrodeWidth = v
			}
		case "electrode_height":
			if v, ok := toInt(value); ok {
				cfg.ElectrodeHeight = v
			}
		case "crop_angle_percent":
			if v, ok := toInt(value); ok {
				cfg.CropAnglePercent = v
			}
		case "aspect_scale":
			if v, ok := toFloat(value); ok {
				cfg.AspectScale = v
			}
		case "zoom":
			if v, ok := toInt(value); ok {
				cfg.Zoom = v
			}
		case "skip_grayscale":
			if v, ok := value.(bool); ok {
				cfg.SkipGrayscale = v
			}
		default:
			return fmt.Errorf("unknown parameter: %s", key)
		}
	}

	return m.SetConfig(cfg)
}

// GetConfigJSON returns the current config as a map for JSON serialization.
func (m *Manager) GetConfigJSON() map[string]interface{} {
	cfg := m.GetConfig()

	// Convert to map via JSON for consistent serialization
	data, _ := json.Marshal(cfg)
	var result map[string]interface{}
	json.Unmarshal(data, &result)

	return result
}

// Helper functions for type conversion

func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	case float64:
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		if err == nil {
			return int(i), true
		}
	}
	return 0, false
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case float32:
		return float64(val), true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		if err == nil {
			return f, true
		}
	}
	return 0, false
}
