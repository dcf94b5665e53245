package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Import adapter packages to ensure adapters are registered via init()
	_ "github.com/leapstack-labs/crickflat/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/crickflat/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/crickflat/pkg/adapters/sqlite"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "crickflat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func newFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("source-dir", "", "")
	flags.String("export-dir", "", "")
	flags.String("state", "", "")
	flags.String("database", "", "")
	flags.String("sink", "", "")
	flags.String("env", "", "")
	flags.BoolP("verbose", "v", false, "")
	flags.StringP("output", "o", "", "")
	return flags
}

func TestLoadConfig_Defaults(t *testing.T) {
	ResetConfig()
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	root, err := os.Getwd()
	require.NoError(t, err)

	assert.Equal(t, root, cfg.ProjectRoot)
	assert.Equal(t, filepath.Join(root, DefaultSourceDir), cfg.SourceDir)
	assert.Equal(t, filepath.Join(root, DefaultExportDir), cfg.ExportDir)
	assert.Equal(t, filepath.Join(root, DefaultStateFile), cfg.StatePath)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.False(t, cfg.Verbose)
	require.NotNil(t, cfg.Target)
	assert.Equal(t, "sqlite", cfg.Target.Type)
	assert.Equal(t, filepath.Join(root, "database", "cricsheet.db"), cfg.Target.Database)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, GetCurrentConfig())
}

func TestLoadConfig_FileResolvesAgainstProjectRoot(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, `source_dir: raw/json
export_dir: /abs/exports
output: json
target:
  type: duckdb
  database: warehouse/cricket.duckdb
`)
	root := filepath.Dir(path)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, GetConfigFileUsed())
	assert.Equal(t, filepath.Join(root, "raw", "json"), cfg.SourceDir)
	assert.Equal(t, "/abs/exports", cfg.ExportDir)
	assert.Equal(t, "json", cfg.OutputFormat)
	assert.Equal(t, "duckdb", cfg.Target.Type)
	assert.Equal(t, filepath.Join(root, "warehouse", "cricket.duckdb"), cfg.Target.Database)
	assert.Equal(t, "main", cfg.Target.Schema)
}

func TestLoadConfig_UpwardSearch(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "source_dir: matches\n")
	root := filepath.Dir(path)
	nested := filepath.Join(root, "sql", "reports")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	// Compare resolved paths so symlinked temp dirs do not matter.
	wantRoot, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	gotRoot, err := filepath.EvalSymlinks(cfg.ProjectRoot)
	require.NoError(t, err)
	assert.Equal(t, wantRoot, gotRoot)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, "matches"), cfg.SourceDir)
}

func TestLoadConfig_Precedence(t *testing.T) {
	path := writeConfig(t, "source_dir: from_file\nexport_dir: from_file\n")
	root := filepath.Dir(path)

	t.Run("env overrides file", func(t *testing.T) {
		ResetConfig()
		t.Setenv("CRICKFLAT_SOURCE_DIR", "from_env")

		cfg, err := LoadConfig(path, nil)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "from_env"), cfg.SourceDir)
		assert.Equal(t, filepath.Join(root, "from_file"), cfg.ExportDir)
	})

	t.Run("flag overrides env", func(t *testing.T) {
		ResetConfig()
		t.Setenv("CRICKFLAT_SOURCE_DIR", "from_env")
		flags := newFlags()
		require.NoError(t, flags.Set("source-dir", "from_flag"))

		cfg, err := LoadConfig(path, flags)
		require.NoError(t, err)

		// Flag paths are relative to the working directory.
		want, err := filepath.Abs("from_flag")
		require.NoError(t, err)
		assert.Equal(t, want, cfg.SourceDir)
	})

	t.Run("unset flag falls back to env", func(t *testing.T) {
		ResetConfig()
		t.Setenv("CRICKFLAT_SOURCE_DIR", "from_env")

		cfg, err := LoadConfig(path, newFlags())
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, "from_env"), cfg.SourceDir)
	})

	t.Run("nested env key", func(t *testing.T) {
		ResetConfig()
		t.Setenv("CRICKFLAT_TARGET__TYPE", "postgres")
		t.Setenv("CRICKFLAT_TARGET__DATABASE", "cricket")

		cfg, err := LoadConfig(path, nil)
		require.NoError(t, err)
		assert.Equal(t, "postgres", cfg.Target.Type)
		assert.Equal(t, "cricket", cfg.Target.Database)
		assert.Equal(t, 5432, cfg.Target.Port)
	})
}

func TestLoadConfig_MappedFlags(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "target:\n  type: sqlite\n")

	flags := newFlags()
	require.NoError(t, flags.Set("state", "run/state.db"))
	require.NoError(t, flags.Set("database", ":memory:"))
	require.NoError(t, flags.Set("verbose", "true"))
	require.NoError(t, flags.Set("output", "markdown"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	wantState, err := filepath.Abs("run/state.db")
	require.NoError(t, err)
	assert.Equal(t, wantState, cfg.StatePath)
	assert.Equal(t, ":memory:", cfg.Target.Database)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "markdown", cfg.OutputFormat)
}

func TestLoadConfig_DatabaseFlagWithoutTarget(t *testing.T) {
	ResetConfig()
	path := writeConfig(t, "source_dir: data\n")

	flags := newFlags()
	require.NoError(t, flags.Set("database", ":memory:"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Target.Type)
	assert.Equal(t, ":memory:", cfg.Target.Database)
}

func TestLoadConfigWithTarget_Environments(t *testing.T) {
	content := `target:
  type: postgres
  host: localhost
  database: cricket
  user: analyst
  password: ${CRICKFLAT_TEST_PG_PASSWORD}
environments:
  prod:
    export_dir: /srv/exports
    target:
      host: db.internal
      schema: cricsheet
`

	t.Run("override merges target", func(t *testing.T) {
		ResetConfig()
		t.Setenv("CRICKFLAT_TEST_PG_PASSWORD", "s3cret")
		path := writeConfig(t, content)

		cfg, err := LoadConfigWithTarget(path, "prod", nil)
		require.NoError(t, err)
		assert.Equal(t, "/srv/exports", cfg.ExportDir)
		assert.Equal(t, "postgres", cfg.Target.Type)
		assert.Equal(t, "db.internal", cfg.Target.Host)
		assert.Equal(t, "cricsheet", cfg.Target.Schema)
		assert.Equal(t, "cricket", cfg.Target.Database)
		assert.Equal(t, "s3cret", cfg.Target.Password)
	})

	t.Run("no override keeps base", func(t *testing.T) {
		ResetConfig()
		path := writeConfig(t, content)

		cfg, err := LoadConfigWithTarget(path, "", nil)
		require.NoError(t, err)
		assert.Equal(t, "localhost", cfg.Target.Host)
		assert.Equal(t, "public", cfg.Target.Schema)
		assert.Equal(t, "${CRICKFLAT_TEST_PG_PASSWORD}", cfg.Target.Password)
	})

	t.Run("unknown environment", func(t *testing.T) {
		ResetConfig()
		path := writeConfig(t, content)

		_, err := LoadConfigWithTarget(path, "staging", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `environment "staging" not found`)
	})
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{name: "unknown target", content: "target:\n  type: oracle\n", errSubstr: "unknown adapter type"},
		{name: "bad output", content: "output: html\n", errSubstr: "invalid output format"},
		{name: "broken yaml", content: "source_dir: [\n", errSubstr: "error reading config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ResetConfig()
			_, err := LoadConfig(writeConfig(t, tt.content), nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TEST_VAR_ONE", "value_one")
	t.Setenv("TEST_VAR_TWO", "value_two")

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "single variable", input: "${TEST_VAR_ONE}", expected: "value_one"},
		{name: "multiple variables", input: "${TEST_VAR_ONE}/${TEST_VAR_TWO}", expected: "value_one/value_two"},
		{name: "unset variable stays as-is", input: "${UNSET_VARIABLE}", expected: "${UNSET_VARIABLE}"},
		{name: "no variables", input: "plain string", expected: "plain string"},
		{name: "empty string", input: "", expected: ""},
		{name: "mixed set and unset", input: "${TEST_VAR_ONE}:${UNSET_VAR}", expected: "value_one:${UNSET_VAR}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, expandEnvVars(tt.input))
		})
	}
}

func TestMergeTargetConfig(t *testing.T) {
	t.Run("nil base returns override", func(t *testing.T) {
		override := &TargetConfig{Type: "sqlite"}
		assert.Same(t, override, MergeTargetConfig(nil, override))
	})

	t.Run("nil override returns base", func(t *testing.T) {
		base := &TargetConfig{Type: "sqlite"}
		assert.Same(t, base, MergeTargetConfig(base, nil))
	})

	t.Run("override wins and maps merge", func(t *testing.T) {
		base := &TargetConfig{
			Type:    "postgres",
			Host:    "localhost",
			Port:    5432,
			Options: map[string]string{"sslmode": "disable"},
			Params:  map[string]any{"max_open_conns": 4},
		}
		override := &TargetConfig{
			Host:    "db.internal",
			Options: map[string]string{"application_name": "crickflat"},
			Params:  map[string]any{"max_open_conns": 8},
		}

		merged := MergeTargetConfig(base, override)
		assert.Equal(t, "postgres", merged.Type)
		assert.Equal(t, "db.internal", merged.Host)
		assert.Equal(t, 5432, merged.Port)
		assert.Equal(t, map[string]string{"sslmode": "disable", "application_name": "crickflat"}, merged.Options)
		assert.Equal(t, 8, merged.Params["max_open_conns"])
		assert.Equal(t, 4, base.Params["max_open_conns"], "base must not be mutated")
	})
}

func TestConfig_ValidateSourceDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "match.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o600))

	assert.NoError(t, (&Config{SourceDir: dir}).ValidateSourceDir())

	err := (&Config{SourceDir: filepath.Join(dir, "missing")}).ValidateSourceDir()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	err = (&Config{SourceDir: file}).ValidateSourceDir()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a directory")
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer

	quiet := NewLogger(&buf, false)
	quiet.Info("hidden")
	quiet.Warn("skipping document", "document", "1001")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "document=1001")

	buf.Reset()
	NewLogger(&buf, true).Debug("visible")
	assert.Contains(t, buf.String(), "visible")

	ctx := WithLogger(context.Background(), quiet)
	assert.Same(t, quiet, GetLogger(ctx))
	assert.NotNil(t, GetLogger(context.Background()))
}
