package config

import "strings"

// Default configuration values.
const (
	DefaultSourceDir  = "data/json"
	DefaultExportDir  = "processing"
	DefaultStateFile  = ".crickflat/state.db"
	DefaultTargetType = "sqlite"
	DefaultDatabase   = "database/cricsheet.db"
)

// DefaultSchemaForType returns the default schema for a database type.
func DefaultSchemaForType(dbType string) string {
	if strings.EqualFold(dbType, "postgres") {
		return "public"
	}
	return "main"
}

// DefaultTarget returns the target used when none is configured.
func DefaultTarget() *TargetConfig {
	return &TargetConfig{
		Type:     DefaultTargetType,
		Database: DefaultDatabase,
	}
}

// ApplyDefaults applies default values to a ProjectConfig.
func (c *ProjectConfig) ApplyDefaults() {
	if c == nil {
		return
	}
	if c.SourceDir == "" {
		c.SourceDir = DefaultSourceDir
	}
	if c.ExportDir == "" {
		c.ExportDir = DefaultExportDir
	}
	if c.StatePath == "" {
		c.StatePath = DefaultStateFile
	}
	if c.Target == nil {
		c.Target = DefaultTarget()
	}
}

// ApplyDefaults applies default values to a TargetConfig based on the target type.
func (t *TargetConfig) ApplyDefaults() {
	if t == nil {
		return
	}

	if t.Schema == "" {
		t.Schema = DefaultSchemaForType(t.Type)
	}

	switch strings.ToLower(t.Type) {
	case "postgres":
		if t.Port == 0 {
			t.Port = 5432
		}
		if t.Host == "" {
			t.Host = "localhost"
		}
	case "sqlite":
		if t.Database == "" {
			t.Database = DefaultDatabase
		}
	}
}
