package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/leapstack-labs/crickflat/internal/query"
	"github.com/spf13/cobra"
)

const (
	replPrompt     = "crickflat> "
	replContPrompt = "      ...> "
)

func runQueryREPL(cmd *cobra.Command, runner *query.Runner, opts *QueryOptions) error {
	ctx := cmd.Context()
	cfg := getConfig()

	// History lives next to the state database
	historyFile := filepath.Join(filepath.Dir(cfg.StatePath), "query_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		HistoryFile:     historyFile,
		AutoComplete:    newTableCompleter(ctx, runner),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "crickflat query REPL (sink: %s)\n", cfg.Target.Type)
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(cmd.OutOrStdout())

	var multiLineBuffer strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			multiLineBuffer.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if multiLineBuffer.Len() == 0 && strings.HasPrefix(line, ".") {
			if quit := handleDotCommand(ctx, cmd.OutOrStdout(), cmd.ErrOrStderr(), runner, line, opts.Format); quit {
				break
			}
			continue
		}

		// Accumulate multi-line SQL until semicolon
		multiLineBuffer.WriteString(line)
		if !strings.HasSuffix(line, ";") {
			multiLineBuffer.WriteString("\n")
			rl.SetPrompt(replContPrompt)
			continue
		}
		rl.SetPrompt(replPrompt)

		sql := strings.TrimSuffix(multiLineBuffer.String(), ";")
		multiLineBuffer.Reset()

		res, err := runner.Run(ctx, sql, opts.Limit)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		} else if err := renderResults(cmd.OutOrStdout(), res, opts.Format); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout())
	}

	return nil
}

// handleDotCommand runs a REPL dot-command and reports whether the REPL
// should exit.
func handleDotCommand(ctx context.Context, w, errW io.Writer, runner *query.Runner, line, format string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(w)

	case ".tables":
		if err := listTables(ctx, w, runner, format); err != nil {
			_, _ = fmt.Fprintf(errW, "Error: %v\n", err)
		}

	case ".schema":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errW, "Usage: .schema <table>")
			return false
		}
		if err := showSchema(ctx, w, runner, parts[1], format); err != nil {
			_, _ = fmt.Fprintf(errW, "Error: %v\n", err)
		}

	case ".reports":
		for _, rep := range query.Reports() {
			_, _ = fmt.Fprintf(w, "  %-20s %s\n", rep.Name, rep.Title)
		}

	case ".report":
		if len(parts) < 2 {
			_, _ = fmt.Fprintln(errW, "Usage: .report <name>")
			return false
		}
		rep, res, err := runner.RunReport(ctx, parts[1], 0)
		if err != nil {
			_, _ = fmt.Fprintf(errW, "Error: %v\n", err)
			return false
		}
		_, _ = fmt.Fprintln(w, rep.Title)
		if err := renderResults(w, res, format); err != nil {
			_, _ = fmt.Fprintf(errW, "Error: %v\n", err)
		}

	case ".clear":
		_, _ = fmt.Fprint(w, "\033[H\033[2J")

	default:
		_, _ = fmt.Fprintf(errW, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func printREPLHelp(w io.Writer) {
	help := `
Commands:
  .help           Show this help message
  .tables         List the sink tables
  .schema <name>  Show the columns of a table
  .reports        List the canned reports
  .report <name>  Run a canned report
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Use arrow keys to navigate history
  - Tab completion works for table and report names
`
	_, _ = fmt.Fprintln(w, help)
}

// newTableCompleter creates a readline completer for table names,
// dot-commands and report names.
func newTableCompleter(ctx context.Context, runner *query.Runner) *readline.PrefixCompleter {
	var items []readline.PrefixCompleterInterface

	// Ignore errors; completion is best effort
	tables, _ := runner.Tables(ctx)
	tableItems := make([]readline.PrefixCompleterInterface, 0, len(tables))
	for _, name := range tables {
		items = append(items, readline.PcItem(name))
		tableItems = append(tableItems, readline.PcItem(name))
	}

	reportItems := make([]readline.PrefixCompleterInterface, 0)
	for _, name := range query.ReportNames() {
		reportItems = append(reportItems, readline.PcItem(name))
	}

	items = append(items,
		readline.PcItem(".help"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", tableItems...),
		readline.PcItem(".reports"),
		readline.PcItem(".report", reportItems...),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)

	return readline.NewPrefixCompleter(items...)
}
