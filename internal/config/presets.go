package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Preset is a named bundle of sensor control values that can be applied
// in one call, e.g. a "night" preset with long exposure and high gain.
type Preset struct {
	Name        string `toml:"name" json:"name"`
	Description string `toml:"description,omitempty" json:"description,omitempty"`

	// Controls maps control identifiers (exposure, analogue_gain, ...)
	// to the value the preset applies.
	Controls map[string]int64 `toml:"controls" json:"controls"`

	// Metadata
	CreatedAt time.Time `toml:"created_at" json:"created_at"`
	UpdatedAt time.Time `toml:"updated_at" json:"updated_at"`
}

// PresetsConfig is the complete presets configuration file.
type PresetsConfig struct {
	Version int               `toml:"version" json:"version"`
	Presets map[string]Preset `toml:"presets" json:"presets"`
}

// PresetManager manages control presets backed by a TOML file.
type PresetManager struct {
	configPath string
	config     *PresetsConfig
}

// NewPresetManager creates a preset manager for the given file path.
func NewPresetManager(configPath string) *PresetManager {
	if configPath == "" {
		configPath = "presets.toml"
	}

	return &PresetManager{
		configPath: configPath,
		config: &PresetsConfig{
			Version: 1,
			Presets: make(map[string]Preset),
		},
	}
}

// Load loads the presets configuration from file. A missing file is not
// an error; the manager starts empty.
func (pm *PresetManager) Load() error {
	if _, err := os.Stat(pm.configPath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(pm.configPath)
	if err != nil {
		return fmt.Errorf("failed to read presets config: %w", err)
	}

	if err := toml.Unmarshal(data, pm.config); err != nil {
		return fmt.Errorf("failed to parse presets config: %w", err)
	}

	if pm.config.Presets == nil {
		pm.config.Presets = make(map[string]Preset)
	}
	if pm.config.Version == 0 {
		pm.config.Version = 1
	}

	return nil
}

// LoadPresets is a Watcher-compatible loader returning the parsed file.
func LoadPresets(path string) (PresetsConfig, error) {
	pm := NewPresetManager(path)
	if err := pm.Load(); err != nil {
		return PresetsConfig{}, err
	}
	return *pm.config, nil
}

// Save saves the presets configuration to file.
func (pm *PresetManager) Save() error {
	dir := filepath.Dir(pm.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(pm.config)
	if err != nil {
		return fmt.Errorf("failed to marshal presets config: %w", err)
	}

	if err := os.WriteFile(pm.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write presets config: %w", err)
	}

	return nil
}

// AddPreset adds a new preset and persists the file.
func (pm *PresetManager) AddPreset(preset Preset) error {
	if preset.Name == "" {
		return fmt.Errorf("preset name cannot be empty")
	}
	if len(preset.Controls) == 0 {
		return fmt.Errorf("preset %s has no control values", preset.Name)
	}

	now := time.Now()
	if preset.CreatedAt.IsZero() {
		preset.CreatedAt = now
	}
	preset.UpdatedAt = now

	pm.config.Presets[preset.Name] = preset
	return pm.Save()
}

// UpdatePreset updates an existing preset.
func (pm *PresetManager) UpdatePreset(name string, updates Preset) error {
	existing, exists := pm.config.Presets[name]
	if !exists {
		return fmt.Errorf("preset %s not found", name)
	}

	// Preserve identity and creation time
	updates.Name = existing.Name
	updates.CreatedAt = existing.CreatedAt
	updates.UpdatedAt = time.Now()

	if updates.Description == "" {
		updates.Description = existing.Description
	}
	if len(updates.Controls) == 0 {
		updates.Controls = existing.Controls
	}

	pm.config.Presets[name] = updates
	return pm.Save()
}

// RemovePreset removes a preset.
func (pm *PresetManager) RemovePreset(name string) error {
	if _, exists := pm.config.Presets[name]; !exists {
		return fmt.Errorf("preset %s not found", name)
	}

	delete(pm.config.Presets, name)
	return pm.Save()
}

// GetPreset retrieves a preset by name.
func (pm *PresetManager) GetPreset(name string) (Preset, bool) {
	preset, exists := pm.config.Presets[name]
	return preset, exists
}

// GetPresets returns all presets.
func (pm *PresetManager) GetPresets() map[string]Preset {
	return pm.config.Presets
}
