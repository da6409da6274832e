// Package config handles tool configuration loading and management.
package config

// Config holds all tool settings.
type Config struct {
	Import  ImportConfig  `yaml:"import"`
	PDK     PDKConfig     `yaml:"pdk"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// ImportConfig holds layout import settings.
type ImportConfig struct {
	// UnitScale is the target planar unit in meters. The default of
	// 1e-6 scales database units to micrometers.
	UnitScale float64 `yaml:"unit_scale"`
	// ZScale stretches layer heights without touching planar extents.
	ZScale float64 `yaml:"z_scale"`
	// ChipBase adds a substrate slab under the extruded layers.
	ChipBase bool `yaml:"chip_base"`
	// ChipBaseHeight is the slab thickness in the same unit as layer
	// heights.
	ChipBaseHeight float64 `yaml:"chip_base_height"`
}

// PDKConfig holds process design kit settings.
type PDKConfig struct {
	Dir     string `yaml:"dir"`     // directory with layer stack YAML files
	Default string `yaml:"default"` // stack name used when none is given
}

// OutputConfig holds export settings.
type OutputConfig struct {
	Dir string `yaml:"dir"` // directory for exported scenes
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Import: ImportConfig{
			UnitScale:      1e-6,
			ZScale:         1.0,
			ChipBase:       false,
			ChipBaseHeight: 2.0,
		},
		PDK: PDKConfig{
			Dir:     "configs",
			Default: "ihp-sg13g2",
		},
		Output: OutputConfig{
			Dir: ".",
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
