package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/leapstack-labs/crickflat/internal/cli/config"
	"github.com/leapstack-labs/crickflat/internal/query"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// defaultScriptLimit is the number of rows printed per statement when a
// script file is run.
const defaultScriptLimit = 5

// QueryOptions holds options for the query command.
type QueryOptions struct {
	Format string
	Input  string
	Limit  int
}

// NewQueryCommand creates the query command.
func NewQueryCommand() *cobra.Command {
	opts := &QueryOptions{}

	cmd := &cobra.Command{
		Use:   "query [SQL]",
		Short: "Query the sink tables",
		Long: `Run SQL against the matches and deliveries tables in the sink.

SQL can be given as arguments, read from a file with --input, or piped on
stdin. Scripts are split on semicolons; each statement runs in order and a
failing statement is reported without stopping the rest.

When invoked without arguments on a terminal, enters interactive REPL mode.`,
		Example: `  # Execute SQL directly
  crickflat query "SELECT match_type, COUNT(*) FROM matches GROUP BY 1"

  # Run every query in a script, printing the first 5 rows of each
  crickflat query --input sql/analysis_queries.sql

  # List tables and show a schema
  crickflat query tables
  crickflat query schema deliveries

  # Output as CSV
  crickflat query "SELECT * FROM matches" --format csv

  # Interactive mode
  crickflat query`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args, opts)
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Maximum rows printed per statement (0 for all; default 5 with --input)")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json", "csv", "md"}, cobra.ShellCompDirectiveNoFileComp
	})

	cmd.AddCommand(newQueryTablesCommand(opts))
	cmd.AddCommand(newQuerySchemaCommand(opts))

	return cmd
}

func runQuery(cmd *cobra.Command, args []string, opts *QueryOptions) error {
	limit := opts.Limit

	var script string
	switch {
	case len(args) > 0:
		script = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		script = string(content)
		if !cmd.Flags().Changed("limit") {
			limit = defaultScriptLimit
		}
	case !isTerminal(cmd.InOrStdin()):
		// Read from stdin (piped input)
		content, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		script = string(content)
	default:
		runner, cleanup, err := openRunner(cmd)
		if err != nil {
			return err
		}
		defer cleanup()
		return runQueryREPL(cmd, runner, opts)
	}

	runner, cleanup, err := openRunner(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	return executeScript(cmd, runner, script, opts.Format, limit)
}

// executeScript runs each statement of script and renders its rows. Errors
// are printed as they happen; the returned error summarizes them.
func executeScript(cmd *cobra.Command, runner *query.Runner, script, format string, limit int) error {
	results := runner.RunScript(cmd.Context(), script, limit)
	if len(results) == 0 {
		return fmt.Errorf("no SQL statements to run")
	}

	w := cmd.OutOrStdout()
	failed := 0
	for i, sr := range results {
		if len(results) > 1 {
			if i > 0 {
				_, _ = fmt.Fprintln(w)
			}
			_, _ = fmt.Fprintf(w, "-- [%d/%d] %s\n", i+1, len(results), firstLine(sr.SQL))
		}
		if sr.Err != nil {
			failed++
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", sr.Err)
			continue
		}
		if err := renderResults(w, sr.Result, format); err != nil {
			return err
		}
	}

	if failed == 1 && len(results) == 1 {
		return fmt.Errorf("query failed: %w", results[0].Err)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d statements failed", failed, len(results))
	}
	return nil
}

// openRunner connects to the configured sink. File-backed sinks must
// already exist so a typo does not silently create an empty database.
func openRunner(cmd *cobra.Command) (*query.Runner, func(), error) {
	if err := checkSinkExists(getConfig()); err != nil {
		return nil, nil, err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return nil, nil, err
	}

	db, err := cmdCtx.Engine.Adapter(cmd.Context())
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return query.NewRunner(db), cleanup, nil
}

func checkSinkExists(cfg *config.Config) error {
	t := cfg.Target
	switch strings.ToLower(t.Type) {
	case "sqlite", "duckdb":
	default:
		return nil
	}
	if t.Database == "" || t.Database == ":memory:" {
		return nil
	}
	if _, err := os.Stat(t.Database); os.IsNotExist(err) {
		return fmt.Errorf("sink database not found at %s (run 'crickflat ingest' first)", t.Database)
	}
	return nil
}

// newQueryTablesCommand creates the tables subcommand.
func newQueryTablesCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the sink tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			runner, cleanup, err := openRunner(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return listTables(cmd.Context(), cmd.OutOrStdout(), runner, opts.Format)
		},
	}
}

// newQuerySchemaCommand creates the schema subcommand.
func newQuerySchemaCommand(opts *QueryOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema <table>",
		Short: "Show the columns of a sink table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, cleanup, err := openRunner(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return showSchema(cmd.Context(), cmd.OutOrStdout(), runner, args[0], opts.Format)
		},
	}
}

func firstLine(sql string) string {
	line, _, cut := strings.Cut(strings.TrimSpace(sql), "\n")
	if cut {
		return line + " ..."
	}
	return line
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
