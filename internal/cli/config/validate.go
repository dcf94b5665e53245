package config

import (
	"fmt"
	"os"
)

var validOutputs = map[string]bool{
	"":         true,
	"auto":     true,
	"text":     true,
	"markdown": true,
	"json":     true,
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SourceDir == "" {
		return fmt.Errorf("source_dir is required")
	}
	if c.ExportDir == "" {
		return fmt.Errorf("export_dir is required")
	}
	if !validOutputs[c.OutputFormat] {
		return fmt.Errorf("invalid output format %q (expected auto, text, markdown or json)", c.OutputFormat)
	}
	if c.Target == nil {
		return fmt.Errorf("target is required")
	}
	return c.Target.Validate()
}

// ValidateSourceDir checks that the source directory exists.
// Only commands that read documents call it, so help and init work anywhere.
func (c *Config) ValidateSourceDir() error {
	info, err := os.Stat(c.SourceDir)
	if os.IsNotExist(err) {
		return fmt.Errorf("source directory does not exist: %s\nHint: Create the directory or use --source-dir to specify a different path", c.SourceDir)
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("source path is not a directory: %s", c.SourceDir)
	}
	return nil
}
