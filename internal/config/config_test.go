package config

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Import.UnitScale != 1e-6 {
		t.Errorf("expected unit scale 1e-6, got %g", cfg.Import.UnitScale)
	}
	if cfg.Import.ZScale != 1.0 {
		t.Errorf("expected z scale 1.0, got %g", cfg.Import.ZScale)
	}
	if cfg.Import.ChipBase {
		t.Error("expected chip_base to be false by default")
	}
	if cfg.Import.ChipBaseHeight != 2.0 {
		t.Errorf("expected chip base height 2.0, got %g", cfg.Import.ChipBaseHeight)
	}

	if cfg.PDK.Dir != "configs" {
		t.Errorf("expected pdk dir 'configs', got %s", cfg.PDK.Dir)
	}
	if cfg.PDK.Default != "ihp-sg13g2" {
		t.Errorf("expected default stack 'ihp-sg13g2', got %s", cfg.PDK.Default)
	}

	if cfg.Output.Dir != "." {
		t.Errorf("expected output dir '.', got %s", cfg.Output.Dir)
	}

	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if cfg.Logging.LogFile != "" {
		t.Errorf("expected empty log file, got %s", cfg.Logging.LogFile)
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	yamlContent := `
import:
  unit_scale: 1e-9
  z_scale: 10
  chip_base: true

pdk:
  dir: /opt/pdk
  default: sky130

logging:
  level: debug
`
	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Import.UnitScale != 1e-9 {
		t.Errorf("expected unit scale 1e-9, got %g", cfg.Import.UnitScale)
	}
	if cfg.Import.ZScale != 10 {
		t.Errorf("expected z scale 10, got %g", cfg.Import.ZScale)
	}
	if !cfg.Import.ChipBase {
		t.Error("expected chip_base true")
	}
	if cfg.PDK.Dir != "/opt/pdk" {
		t.Errorf("expected pdk dir /opt/pdk, got %s", cfg.PDK.Dir)
	}
	if cfg.PDK.Default != "sky130" {
		t.Errorf("expected default stack sky130, got %s", cfg.PDK.Default)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected log level debug, got %s", cfg.Logging.Level)
	}

	// Fields absent from the file keep their defaults.
	if cfg.Import.ChipBaseHeight != 2.0 {
		t.Errorf("partial file should keep default chip base height, got %g", cfg.Import.ChipBaseHeight)
	}
	if cfg.Output.Dir != "." {
		t.Errorf("partial file should keep default output dir, got %s", cfg.Output.Dir)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad.yaml")
	if err := os.WriteFile(configPath, []byte("import: [not a mapping"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestSaveAndReload(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "sub", "config.yaml")

	cfg := Default()
	cfg.Import.ZScale = 5
	cfg.PDK.Default = "gf180mcu"

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Import.ZScale != 5 {
		t.Errorf("expected z scale 5 after reload, got %g", loaded.Import.ZScale)
	}
	if loaded.PDK.Default != "gf180mcu" {
		t.Errorf("expected stack gf180mcu after reload, got %s", loaded.PDK.Default)
	}
}

func TestFlagsApply(t *testing.T) {
	var f Flags
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	f.Register(fs)

	args := []string{
		"-debug",
		"-pdk", "sky130",
		"-z-scale", "3",
		"-out-dir", "/tmp/out",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("flag parse failed: %v", err)
	}

	cfg := Default()
	f.Apply(cfg)

	if cfg.Logging.Level != "debug" {
		t.Errorf("expected -debug to set level debug, got %s", cfg.Logging.Level)
	}
	if cfg.PDK.Default != "sky130" {
		t.Errorf("expected pdk sky130, got %s", cfg.PDK.Default)
	}
	if cfg.Import.ZScale != 3 {
		t.Errorf("expected z scale 3, got %g", cfg.Import.ZScale)
	}
	if cfg.Output.Dir != "/tmp/out" {
		t.Errorf("expected out dir /tmp/out, got %s", cfg.Output.Dir)
	}

	// Unset flags leave the config alone.
	if cfg.Import.UnitScale != 1e-6 {
		t.Errorf("unset flag should keep default unit scale, got %g", cfg.Import.UnitScale)
	}
}
