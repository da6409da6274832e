package config

import "flag"

// Flags carries command-line overrides for a loaded config. Zero
// values mean "not set" and leave the config untouched.
type Flags struct {
	ConfigPath string
	Debug      bool
	LogFile    string
	PDKDir     string
	PDK        string
	UnitScale  float64
	ZScale     float64
	OutDir     string
}

// Register binds the override flags onto a flag set.
func (f *Flags) Register(fs *flag.FlagSet) {
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log-file", "", "Write logs to a rotating file")
	fs.StringVar(&f.PDKDir, "pdk-dir", "", "Directory with layer stack files")
	fs.StringVar(&f.PDK, "pdk", "", "Layer stack name")
	fs.Float64Var(&f.UnitScale, "unit-scale", 0, "Target planar unit in meters")
	fs.Float64Var(&f.ZScale, "z-scale", 0, "Height axis scale factor")
	fs.StringVar(&f.OutDir, "out-dir", "", "Directory for exported files")
}

// Apply overlays the set flags onto cfg. Flags are the highest
// priority layer, above defaults and the config file.
func (f *Flags) Apply(cfg *Config) {
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.PDKDir != "" {
		cfg.PDK.Dir = f.PDKDir
	}
	if f.PDK != "" {
		cfg.PDK.Default = f.PDK
	}
	if f.UnitScale != 0 {
		cfg.Import.UnitScale = f.UnitScale
	}
	if f.ZScale != 0 {
		cfg.Import.ZScale = f.ZScale
	}
	if f.OutDir != "" {
		cfg.Output.Dir = f.OutDir
	}
}
