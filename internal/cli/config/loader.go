package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	sharedcfg "github.com/leapstack-labs/crickflat/internal/config"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by the loader.
// A double underscore descends into a section: CRICKFLAT_TARGET__TYPE sets
// target.type.
const EnvPrefix = "CRICKFLAT_"

// maxUpwardSearchLevels limits how far up the directory tree to search for config files.
const maxUpwardSearchLevels = 10

// Package-level koanf instance and config file tracking
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// flagKeys maps CLI flag names onto config keys where they differ.
var flagKeys = map[string]string{
	"state":    "state_path",
	"database": "target.database",
	"sink":     "target.type",
	"env":      "environment",
}

// ignoredFlags select how configuration is loaded rather than setting a key.
var ignoredFlags = map[string]bool{
	"config": true,
	"target": true,
}

// ResetConfig resets the koanf instance. Used for testing.
func ResetConfig() {
	k = koanf.New(".")
	configFileUsed = ""
	currentConfig = nil
}

// LoadConfig loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	return LoadConfigWithTarget(cfgFile, "", flags)
}

// LoadConfigWithTarget loads configuration with an optional environment
// override whose target is merged over the base target.
func LoadConfigWithTarget(cfgFile string, targetOverride string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"source_dir":  DefaultSourceDir,
		"export_dir":  DefaultExportDir,
		"state_path":  DefaultStateFile,
		"environment": DefaultEnv,
		"verbose":     false,
		"output":      DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file: explicit path, else search upward from the working directory
	projectRoot := inferProjectRoot(cfgFile)
	configFileUsed = cfgFile
	if configFileUsed == "" {
		configFileUsed = sharedcfg.FindConfigFile(projectRoot)
	}
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", configFileUsed, err)
		}
	}

	// 3. Environment variables: CRICKFLAT_SOURCE_DIR -> source_dir
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags that were explicitly set. Paths given on the command line are
	// relative to the working directory, not the project root.
	flagPaths := map[string]string{}
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || ignoredFlags[f.Name] {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			if mapped, ok := flagKeys[f.Name]; ok {
				key = mapped
			}
			val := posflag.FlagVal(flags, f)
			if s, ok := val.(string); ok && isPathKey(key) {
				flagPaths[key] = absPath(s)
			}
			return key, val
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// 5. Unmarshal into Config struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ProjectRoot = projectRoot

	// 6. Environment overrides
	envName := cfg.Environment
	if targetOverride != "" {
		envName = targetOverride
		if _, ok := cfg.Environments[envName]; !ok {
			return nil, fmt.Errorf("environment %q not found in config", envName)
		}
	}
	if envCfg, ok := cfg.Environments[envName]; ok {
		if envCfg.SourceDir != "" && flagPaths["source_dir"] == "" {
			cfg.SourceDir = envCfg.SourceDir
		}
		if envCfg.ExportDir != "" && flagPaths["export_dir"] == "" {
			cfg.ExportDir = envCfg.ExportDir
		}
		if envCfg.Target != nil {
			cfg.Target = MergeTargetConfig(cfg.Target, envCfg.Target)
		}
	}

	if cfg.Target == nil {
		cfg.Target = sharedcfg.DefaultTarget()
	}
	if cfg.Target.Type == "" {
		cfg.Target.Type = sharedcfg.DefaultTargetType
	}
	if p, ok := flagPaths["target.database"]; ok {
		cfg.Target.Database = p
	}
	cfg.Target.ApplyDefaults()
	expandTargetEnvVars(cfg.Target)

	// 7. Resolve relative paths against the project root
	cfg.SourceDir = resolvePath(cfg.SourceDir, flagPaths["source_dir"], projectRoot)
	cfg.ExportDir = resolvePath(cfg.ExportDir, flagPaths["export_dir"], projectRoot)
	cfg.StatePath = resolvePath(cfg.StatePath, flagPaths["state_path"], projectRoot)
	if isFileTarget(cfg.Target) && flagPaths["target.database"] == "" {
		cfg.Target.Database = resolvePathRelativeTo(cfg.Target.Database, projectRoot)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path to the config file being used, if any.
func GetConfigFileUsed() string {
	return configFileUsed
}

// GetCurrentConfig returns the configuration loaded by the last LoadConfig call.
func GetCurrentConfig() *Config {
	return currentConfig
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// inferProjectRoot returns the directory of an explicit config file, else the
// nearest ancestor holding crickflat.yaml, else the working directory.
func inferProjectRoot(cfgFile string) string {
	if cfgFile != "" {
		if abs, err := filepath.Abs(cfgFile); err == nil {
			return filepath.Dir(abs)
		}
		return filepath.Dir(cfgFile)
	}

	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return "."
	}
	if root := sharedcfg.FindProjectRoot(cwd, maxUpwardSearchLevels); root != "" {
		return root
	}
	return cwd
}

func isPathKey(key string) bool {
	switch key {
	case "source_dir", "export_dir", "state_path", "target.database":
		return true
	}
	return false
}

func absPath(p string) string {
	if p == "" || p == ":memory:" {
		return p
	}
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func resolvePath(value, fromFlag, baseDir string) string {
	if fromFlag != "" {
		return fromFlag
	}
	return resolvePathRelativeTo(value, baseDir)
}

// resolvePathRelativeTo resolves a path relative to baseDir if it's not absolute.
// Returns the path unchanged if it's empty, in-memory or already absolute.
func resolvePathRelativeTo(path, baseDir string) string {
	if path == "" || path == ":memory:" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func isFileTarget(t *TargetConfig) bool {
	switch strings.ToLower(t.Type) {
	case "sqlite", "duckdb":
		return true
	}
	return false
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match // Return original if not found
	})
}

// expandTargetEnvVars expands environment variables in sensitive target fields.
func expandTargetEnvVars(t *TargetConfig) {
	if t == nil {
		return
	}
	t.Password = expandEnvVars(t.Password)
	t.User = expandEnvVars(t.User)
	t.Host = expandEnvVars(t.Host)
	t.Database = expandEnvVars(t.Database)
}

// MergeTargetConfig merges two target configs, with override taking precedence.
func MergeTargetConfig(base, override *TargetConfig) *TargetConfig {
	if base == nil {
		return override
	}
	if override == nil {
		return base
	}

	merged := &TargetConfig{
		Type:     base.Type,
		Database: base.Database,
		Host:     base.Host,
		Port:     base.Port,
		User:     base.User,
		Password: base.Password,
		Schema:   base.Schema,
		Options:  make(map[string]string),
		Params:   make(map[string]any),
	}
	for k, v := range base.Options {
		merged.Options[k] = v
	}
	for k, v := range base.Params {
		merged.Params[k] = v
	}

	if override.Type != "" {
		merged.Type = override.Type
	}
	if override.Database != "" {
		merged.Database = override.Database
	}
	if override.Host != "" {
		merged.Host = override.Host
	}
	if override.Port != 0 {
		merged.Port = override.Port
	}
	if override.User != "" {
		merged.User = override.User
	}
	if override.Password != "" {
		merged.Password = override.Password
	}
	if override.Schema != "" {
		merged.Schema = override.Schema
	}
	for k, v := range override.Options {
		merged.Options[k] = v
	}
	for k, v := range override.Params {
		merged.Params[k] = v
	}

	return merged
}
