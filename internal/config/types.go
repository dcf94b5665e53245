// Package config provides shared configuration types for crickflat.
// This package is decoupled from CLI concerns; the CLI layers flags and
// environment variables on top of it.
package config

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/crickflat/pkg/adapter"
)

// TargetConfig holds the sink target configuration.
type TargetConfig struct {
	Type string `koanf:"type" yaml:"type"` // sqlite, duckdb, postgres

	// File-based databases (SQLite, DuckDB)
	Database string `koanf:"database" yaml:"database,omitempty"` // file path or database name

	// Network databases
	Host     string `koanf:"host" yaml:"host,omitempty"`
	Port     int    `koanf:"port" yaml:"port,omitempty"`
	User     string `koanf:"user" yaml:"user,omitempty"`
	Password string `koanf:"password" yaml:"password,omitempty"`

	Schema string `koanf:"schema" yaml:"schema,omitempty"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options" yaml:"options,omitempty"`

	// Params holds adapter-specific configuration (sqlite pragmas, duckdb settings, pool sizes)
	Params map[string]any `koanf:"params" yaml:"params,omitempty"`
}

// Validate checks if the target configuration is valid.
// It uses the adapter registry to determine which adapter types are available.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}

	if !adapter.IsRegistered(strings.ToLower(t.Type)) {
		return &adapter.UnknownAdapterError{
			Type:      t.Type,
			Available: adapter.ListAdapters(),
		}
	}

	if t.Port < 0 || t.Port > 65535 {
		return fmt.Errorf("target port %d out of range", t.Port)
	}

	return nil
}

// AdapterConfig converts the target into the adapter connection config.
func (t *TargetConfig) AdapterConfig() adapter.Config {
	return adapter.Config{
		Type:     strings.ToLower(t.Type),
		Path:     t.Database,
		Database: t.Database,
		Schema:   t.Schema,
		Host:     t.Host,
		Port:     t.Port,
		Username: t.User,
		Password: t.Password,
		Options:  t.Options,
		Params:   t.Params,
	}
}

// ProjectConfig holds the project-level settings stored in crickflat.yaml.
type ProjectConfig struct {
	SourceDir string        `koanf:"source_dir" yaml:"source_dir"`
	ExportDir string        `koanf:"export_dir" yaml:"export_dir"`
	StatePath string        `koanf:"state_path" yaml:"state_path"`
	Target    *TargetConfig `koanf:"target" yaml:"target"`
}
