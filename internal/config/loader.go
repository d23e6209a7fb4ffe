package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	AppName      = "retouch"
	DevFileName  = ".retouchrc.toml"
	FileName     = "config.toml"
	devVersion   = "dev"
	homeFallback = "."
)

// Loader handles loading the configuration.
type Loader struct {
	Version      string // Build version, used to determine dev mode
	OverridePath string // -config flag or compile time override
}

// NewLoader creates a new Loader.
func NewLoader(version string, overridePath string) *Loader {
	return &Loader{
		Version:      version,
		OverridePath: overridePath,
	}
}

// Load reads the configuration file if one exists and applies environment
// overrides. Missing files yield the defaults.
func (l *Loader) Load() (*Config, error) {
	cfg := New()
	if path := l.GetConfigPath(); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		parsed, err := Parse(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		cfg = parsed
	}
	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}

// GetConfigPath returns the path to the configuration file, or empty string
// if not found.
func (l *Loader) GetConfigPath() string {
	// 1. Explicit override
	if l.OverridePath != "" {
		if _, err := os.Stat(l.OverridePath); err == nil {
			return l.OverridePath
		}
	}

	// 2. Working directory (dev builds)
	if l.Version == devVersion {
		wd, _ := os.Getwd()
		localPath := filepath.Join(wd, DevFileName)
		if _, err := os.Stat(localPath); err == nil {
			return localPath
		}
	}

	// 3. XDG config path
	if p := DefaultPath(); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// SavePath is where `config save` writes: the override path when set,
// otherwise the XDG location.
func (l *Loader) SavePath() string {
	if l.OverridePath != "" {
		return l.OverridePath
	}
	return DefaultPath()
}

// DefaultPath returns $XDG_CONFIG_HOME/retouch/config.toml, falling back to
// ~/.config.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, FileName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = homeFallback
	}
	return filepath.Join(home, ".config", AppName, FileName)
}
