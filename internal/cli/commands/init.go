package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/leapstack-labs/crickflat/internal/cli/output"
	sharedcfg "github.com/leapstack-labs/crickflat/internal/config"
	"github.com/leapstack-labs/crickflat/internal/query"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Force bool
	// Sink is the target type written to the new config.
	Sink string
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	opts := &InitOptions{}

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new crickflat project",
		Long: `Initialize a new crickflat project with default directory structure and configuration.

This creates:
  - data/json/ directory for cricsheet match documents
  - processing/ directory for the CSV exports
  - sql/analysis_queries.sql with the canned report queries
  - crickflat.yaml configuration file`,
		Example: `  # Initialize in current directory
  crickflat init

  # Initialize in a new directory with a DuckDB sink
  crickflat init cricket --sink duckdb

  # Force overwrite existing config
  crickflat init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			cfg := getConfig()
			opts.Sink = cfg.Target.Type
			r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
			return runInit(r, dir, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(r *output.Renderer, dir string, opts *InitOptions) error {
	configPath := filepath.Join(dir, sharedcfg.ConfigFileName)
	if _, err := os.Stat(configPath); err == nil && !opts.Force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", sharedcfg.ConfigFileName)
	}

	project := starterConfig(opts.Sink)
	if err := project.Target.Validate(); err != nil {
		return err
	}

	for _, sub := range []string{project.SourceDir, project.ExportDir, "sql"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", sub, err)
		}
		r.StatusLine(sub+"/", "success", "")
	}

	content, err := marshalConfig(project)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, content, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", sharedcfg.ConfigFileName, err)
	}
	r.StatusLine(sharedcfg.ConfigFileName, "success", "")

	queriesPath := filepath.Join(dir, "sql", "analysis_queries.sql")
	if _, err := os.Stat(queriesPath); os.IsNotExist(err) || opts.Force {
		if err := os.WriteFile(queriesPath, analysisScript(), 0o600); err != nil {
			return fmt.Errorf("failed to write analysis queries: %w", err)
		}
		r.StatusLine("sql/analysis_queries.sql", "success", "")
	}

	r.Println("")
	r.Success("crickflat project initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Copy cricsheet JSON match files into " + project.SourceDir + "/")
	r.Println("  2. Run 'crickflat ingest' to build the tables and CSV exports")
	r.Println("  3. Run 'crickflat report' or 'crickflat query --input sql/analysis_queries.sql'")

	return nil
}

func starterConfig(targetType string) *sharedcfg.ProjectConfig {
	target := &sharedcfg.TargetConfig{Type: targetType}
	switch targetType {
	case "duckdb":
		target.Database = "database/cricsheet.duckdb"
	case "postgres":
		target.Host = "localhost"
		target.Port = 5432
		target.Database = "cricsheet"
		target.User = "${PGUSER}"
		target.Password = "${PGPASSWORD}"
	default:
		target.Database = sharedcfg.DefaultDatabase
	}

	return &sharedcfg.ProjectConfig{
		SourceDir: sharedcfg.DefaultSourceDir,
		ExportDir: sharedcfg.DefaultExportDir,
		StatePath: sharedcfg.DefaultStateFile,
		Target:    target,
	}
}

func marshalConfig(project *sharedcfg.ProjectConfig) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# crickflat project configuration\n")
	buf.WriteString("# Values can be overridden with CRICKFLAT_* environment variables or flags.\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(project); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

func analysisScript() []byte {
	var buf bytes.Buffer
	buf.WriteString("-- Analysis queries over the matches and deliveries tables.\n")
	buf.WriteString("-- Run with: crickflat query --input sql/analysis_queries.sql\n")
	for _, rep := range query.Reports() {
		fmt.Fprintf(&buf, "\n-- %s\n%s;\n", rep.Title, rep.SQL)
	}
	return buf.Bytes()
}
