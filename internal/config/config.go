// Package config reads the reqsync configuration file: where the model
// lives and which tracker modules to reconcile.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level reqsync.yaml structure.
type Config struct {
	Model   ModelConfig     `yaml:"model"`
	Modules []TrackerConfig `yaml:"modules"`
}

// ModelConfig locates the persisted model file.
type ModelConfig struct {
	Path string `yaml:"path"`
}

// TrackerConfig configures one tracker module to reconcile. UUID is the
// live module's identity and is required; the changeset engine rejects
// configs without it. ExternalID carries the external system's own
// correlation identifier, if the tracker supplies one.
type TrackerConfig struct {
	Name       string `yaml:"name,omitempty"`
	UUID       string `yaml:"uuid"`
	ExternalID string `yaml:"external-id,omitempty"`
	Snapshot   string `yaml:"snapshot,omitempty"`
}

// DisplayName returns the module's human-facing name for messages,
// falling back to its uuid and then its external id.
func (t TrackerConfig) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	if t.UUID != "" {
		return t.UUID
	}
	return t.ExternalID
}

// Load reads and parses a config file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 - config path from flag or env
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields the CLI cannot run without. Per-module
// UUID validation is left to the changeset engine, which reports it as
// a tracker configuration error scoped to that module.
func (c *Config) Validate() error {
	if c.Model.Path == "" {
		return fmt.Errorf("config is missing model.path")
	}
	if len(c.Modules) == 0 {
		return fmt.Errorf("config declares no modules")
	}
	return nil
}
