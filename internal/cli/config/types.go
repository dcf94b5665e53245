// Package config provides configuration management for the crickflat CLI.
//
// This package extends the shared configuration types from internal/config
// with CLI-specific fields. The shared TargetConfig is re-exported here via a
// type alias for convenience.
package config

import (
	sharedcfg "github.com/leapstack-labs/crickflat/internal/config"
)

// TargetConfig is an alias for the shared target configuration.
type TargetConfig = sharedcfg.TargetConfig

// Config holds all CLI configuration options.
type Config struct {
	SourceDir    string               `koanf:"source_dir"`
	ExportDir    string               `koanf:"export_dir"`
	StatePath    string               `koanf:"state_path"`
	Environment  string               `koanf:"environment"`
	Verbose      bool                 `koanf:"verbose"`
	OutputFormat string               `koanf:"output"`
	Target       *TargetConfig        `koanf:"target"`
	Environments map[string]EnvConfig `koanf:"environments"`

	// ProjectRoot is the directory relative paths are resolved against.
	ProjectRoot string `koanf:"-"`
}

// EnvConfig holds environment-specific configuration overrides.
type EnvConfig struct {
	SourceDir string        `koanf:"source_dir"`
	ExportDir string        `koanf:"export_dir"`
	Target    *TargetConfig `koanf:"target"`
}

// Default configuration values, shared with internal/config.
const (
	DefaultSourceDir = sharedcfg.DefaultSourceDir
	DefaultExportDir = sharedcfg.DefaultExportDir
	DefaultStateFile = sharedcfg.DefaultStateFile
	DefaultEnv       = "dev"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)
