package commands

import (
	"fmt"

	"github.com/leapstack-labs/crickflat/internal/query"
	"github.com/spf13/cobra"
)

// ReportOptions holds options for the report command.
type ReportOptions struct {
	Format string
	Limit  int
	List   bool
}

// NewReportCommand creates the report command.
func NewReportCommand() *cobra.Command {
	opts := &ReportOptions{}

	cmd := &cobra.Command{
		Use:   "report [name...]",
		Short: "Run canned analysis reports",
		Long: `Run the built-in analysis reports against the sink tables: match counts by
format, top winners, top batters and bowlers, dismissal kinds, the runs per
ball distribution, toss decisions, matches per season, top six hitters and
the average T20 team score.

With no names, every report runs in order.`,
		Example: `  # Run all reports
  crickflat report

  # List the available reports
  crickflat report --list

  # Run two reports as JSON
  crickflat report top-batters top-bowlers --format json`,
		ValidArgsFunction: func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
			return query.ReportNames(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.List {
				return listReports(cmd, opts.Format)
			}
			return runReports(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "table", "Output format: table, json, csv, md")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "Maximum rows per report (0 for all)")
	cmd.Flags().BoolVarP(&opts.List, "list", "l", false, "List available reports")

	return cmd
}

func listReports(cmd *cobra.Command, format string) error {
	res := &query.Result{Columns: []string{"name", "title"}}
	for _, rep := range query.Reports() {
		res.Rows = append(res.Rows, []any{rep.Name, rep.Title})
	}
	res.Total = len(res.Rows)
	return renderResults(cmd.OutOrStdout(), res, format)
}

// reportOutput is the JSON form of one report.
type reportOutput struct {
	Name    string           `json:"name"`
	Title   string           `json:"title"`
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

func runReports(cmd *cobra.Command, names []string, opts *ReportOptions) error {
	if len(names) == 0 {
		for _, rep := range query.Reports() {
			names = append(names, rep.Name)
		}
	}
	for _, name := range names {
		if _, ok := query.LookupReport(name); !ok {
			return &query.UnknownReportError{Name: name, Available: query.ReportNames()}
		}
	}

	runner, cleanup, err := openRunner(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	w := cmd.OutOrStdout()
	var collected []reportOutput
	for i, name := range names {
		rep, res, err := runner.RunReport(cmd.Context(), name, opts.Limit)
		if err != nil {
			return err
		}

		if opts.Format == "json" {
			collected = append(collected, newReportOutput(rep, res))
			continue
		}

		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		if opts.Format == "md" || opts.Format == "markdown" {
			_, _ = fmt.Fprintf(w, "## %s\n\n", rep.Title)
		} else {
			_, _ = fmt.Fprintln(w, rep.Title)
		}
		if err := renderResults(w, res, opts.Format); err != nil {
			return err
		}
	}

	if opts.Format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(collected)
	}
	return nil
}

func newReportOutput(rep query.Report, res *query.Result) reportOutput {
	out := reportOutput{
		Name:    rep.Name,
		Title:   rep.Title,
		Columns: res.Columns,
		Rows:    make([]map[string]any, 0, len(res.Rows)),
	}
	for _, values := range res.Rows {
		row := make(map[string]any, len(res.Columns))
		for i, col := range res.Columns {
			row[col] = values[i]
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}
