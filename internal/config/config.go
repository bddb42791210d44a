// Package config loads and saves the compiler's own configuration file.
// Event documents have their own loader in internal/schema; this file only
// configures where they live and how the tool runs.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for serve mode.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level tool configuration.
type Config struct {
	// EventsDir holds one YAML event document per event.
	EventsDir string `yaml:"events_dir" json:"events_dir"`

	// MetaPath is the site metadata document.
	MetaPath string `yaml:"meta_path" json:"meta_path"`

	// Output is where the compiled artifact is written.
	Output string `yaml:"output" json:"output"`

	// Listen is the HTTP address used in serve mode.
	Listen string `yaml:"listen" json:"listen"`

	// HorizonDays is how far ahead of the range start expansion runs.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// RefreshCron schedules recompiles in serve mode
	// (e.g. "*/15 * * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// BasicAuth, if non-nil, protects all serve-mode endpoints except
	// /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		EventsDir:   "events",
		MetaPath:    "meta.yaml",
		Output:      "data.json",
		Listen:      "127.0.0.1:8080",
		HorizonDays: 7,
		RefreshCron: "*/15 * * * *",
	}
}

// Normalize fills in missing or zero values so partially-filled configs
// still behave.
func (c *Config) Normalize() {
	if c.EventsDir == "" {
		c.EventsDir = "events"
	}
	if c.MetaPath == "" {
		c.MetaPath = "meta.yaml"
	}
	if c.Output == "" {
		c.Output = "data.json"
	}
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 7
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
}

// Load reads configuration from a YAML path. A missing file is not an
// error: a default config is written there first, so a fresh checkout
// works immediately.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()
	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename, 0600).
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".wcc-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
