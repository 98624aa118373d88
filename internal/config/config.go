// Package config loads the profile file naming the library assignments a
// session is created with.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Profile is one named session configuration.
type Profile struct {
	// Libraries maps libref names to filesystem paths.
	Libraries map[string]string `yaml:"libraries"`
	// Interactive enables the TUI and the display clear on reconnect.
	// Defaults to true when omitted.
	Interactive *bool `yaml:"interactive,omitempty"`
}

// InteractiveEnabled returns the interactive flag, defaulting to true.
func (p Profile) InteractiveEnabled() bool {
	return p.Interactive == nil || *p.Interactive
}

// Config holds all named profiles.
type Config struct {
	DefaultProfile string             `yaml:"default_profile,omitempty"`
	Profiles       map[string]Profile `yaml:"profiles"`
}

// DefaultPath returns the config file location.
func DefaultPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "amigosas", "config.yaml")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "amigosas", "config.yaml")
}

// Load reads the config file at path, or at DefaultPath when path is empty.
// A session cannot be created without a profile, so a missing file is an
// error rather than a fallback.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if len(cfg.Profiles) == 0 {
		return nil, fmt.Errorf("config %s defines no profiles", path)
	}
	return &cfg, nil
}

// Resolve picks a profile by name, falling back to the default profile when
// name is empty.
func (c *Config) Resolve(name string) (string, Profile, error) {
	if name == "" {
		name = c.DefaultProfile
	}
	if name == "" {
		return "", Profile{}, fmt.Errorf("no profile selected and no default_profile set")
	}
	prof, ok := c.Profiles[name]
	if !ok {
		return "", Profile{}, fmt.Errorf("profile %q not found in config", name)
	}
	return name, prof, nil
}
