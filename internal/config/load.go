package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Loaded captures resolved config path, parsed values, and non-fatal warnings.
type Loaded struct {
	Path     string
	Config   Config
	Warnings []Warning
	Exists   bool
}

// Load resolves, reads, parses, and validates the runtime configuration.
// A .env file in the working directory seeds the environment first; actual
// FORESIGHT_* variables win over both the file and the defaults.
func Load(explicitPath string) (Loaded, error) {
	_ = godotenv.Load()

	resolvedPath, err := ResolvePath(explicitPath)
	if err != nil {
		return Loaded{}, err
	}

	base := Default()
	loaded := Loaded{Path: resolvedPath, Exists: true}

	content, err := os.ReadFile(resolvedPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Loaded{}, fmt.Errorf("read config %q: %w", resolvedPath, err)
		}
		loaded.Exists = false
		loaded.Warnings = []Warning{{
			Message: fmt.Sprintf("config file %q not found; using defaults", resolvedPath),
		}}
		content = nil
	}

	cfg, warnings, err := Parse(string(content), base)
	if err != nil {
		return Loaded{}, fmt.Errorf("parse config %q: %w", resolvedPath, err)
	}
	loaded.Warnings = append(loaded.Warnings, warnings...)

	if err := applyEnv(&cfg); err != nil {
		return Loaded{}, err
	}
	if _, err := Validate(cfg); err != nil {
		return Loaded{}, fmt.Errorf("invalid config after environment overrides: %w", err)
	}

	loaded.Config = cfg
	return loaded, nil
}
