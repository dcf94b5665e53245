package commands

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/crickflat/internal/cli/config"
	"github.com/leapstack-labs/crickflat/internal/cli/testutil"
	"github.com/leapstack-labs/crickflat/internal/query"
)

// loadProject creates a test project and loads its config as the current
// configuration.
func loadProject(t *testing.T) string {
	t.Helper()
	dir := testutil.SetupTestProject(t)

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	_, err := config.LoadConfig(filepath.Join(dir, "crickflat.yaml"), nil)
	require.NoError(t, err)
	return dir
}

// execute runs cmd with args and returns what it wrote to stdout and stderr.
func execute(cmd *cobra.Command, args ...string) (string, string, error) {
	out := new(bytes.Buffer)
	errOut := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

// ingestProject loads a test project and runs ingest over it.
func ingestProject(t *testing.T) string {
	t.Helper()
	dir := loadProject(t)
	_, _, err := execute(NewIngestCommand())
	require.NoError(t, err)
	return dir
}

// newTestRunner opens a query runner on the current project's sink.
func newTestRunner(t *testing.T) *query.Runner {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.SetContext(context.Background())
	runner, cleanup, err := openRunner(cmd)
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return runner
}

func TestNewIngestCommand(t *testing.T) {
	cmd := NewIngestCommand()

	assert.Equal(t, "ingest", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	for _, flag := range []string{"skip-sink", "skip-export"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewQueryCommand(t *testing.T) {
	cmd := NewQueryCommand()

	assert.Equal(t, "query [SQL]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	for _, flag := range []string{"input", "limit"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("format"))

	var subs []string
	for _, c := range cmd.Commands() {
		subs = append(subs, c.Name())
	}
	assert.ElementsMatch(t, []string{"tables", "schema"}, subs)
}

func TestNewReportCommand(t *testing.T) {
	cmd := NewReportCommand()

	assert.Equal(t, "report [name...]", cmd.Use)
	for _, flag := range []string{"format", "limit", "list"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}

	names, directive := cmd.ValidArgsFunction(cmd, nil, "")
	assert.Equal(t, query.ReportNames(), names)
	assert.Equal(t, cobra.ShellCompDirectiveNoFileComp, directive)
}

func TestNewRunsCommand(t *testing.T) {
	cmd := NewRunsCommand()

	assert.Equal(t, "runs", cmd.Use)
	var subs []string
	for _, c := range cmd.Commands() {
		subs = append(subs, c.Name())
	}
	assert.ElementsMatch(t, []string{"list", "show"}, subs)
}

func TestGetConfig_Defaults(t *testing.T) {
	config.ResetConfig()

	cfg := getConfig()
	assert.Equal(t, config.DefaultSourceDir, cfg.SourceDir)
	assert.Equal(t, config.DefaultExportDir, cfg.ExportDir)
	assert.Equal(t, "sqlite", cfg.Target.Type)
	assert.Equal(t, "main", cfg.Target.Schema)
}
