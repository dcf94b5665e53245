package config

import (
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "crickflat.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "crickflat.yml"

// LoadFromDir loads a ProjectConfig from the given directory.
// Returns nil, nil if no config file is found (not an error condition).
func LoadFromDir(dir string) (*ProjectConfig, error) {
	configPath := FindConfigFile(dir)
	if configPath == "" {
		return nil, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, err
	}

	var cfg ProjectConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	cfg.Target.ApplyDefaults()

	return &cfg, nil
}

// FindConfigFile returns the config file in dir, or "" if there is none.
func FindConfigFile(dir string) string {
	for _, name := range []string{ConfigFileName, ConfigFileNameAlt} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// FindProjectRoot walks up from startDir to the first directory holding a
// config file, giving up after maxLevels parents.
// Returns empty string if not found.
func FindProjectRoot(startDir string, maxLevels int) string {
	dir := startDir
	for i := 0; i <= maxLevels; i++ {
		if FindConfigFile(dir) != "" {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return ""
		}
		dir = parent
	}
	return ""
}
