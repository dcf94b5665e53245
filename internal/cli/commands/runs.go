package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/crickflat/internal/cli/output"
	"github.com/leapstack-labs/crickflat/internal/state"
	"github.com/leapstack-labs/crickflat/pkg/core"
	"github.com/spf13/cobra"
)

// NewRunsCommand creates the runs command.
func NewRunsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect ingest run history",
		Long: `Every ingest records its counts, outcome and skipped documents in the
state database. Use the subcommands to list past runs or inspect one.`,
	}

	cmd.AddCommand(newRunsListCommand())
	cmd.AddCommand(newRunsShowCommand())

	return cmd
}

func newRunsListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent ingest runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			runs, err := cmdCtx.Engine.StateStore().ListRuns(limit)
			if err != nil {
				return fmt.Errorf("failed to list runs: %w", err)
			}
			return renderRunList(cmdCtx.Renderer, runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum runs to list (-1 for all)")

	return cmd
}

func newRunsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show one ingest run and its skipped documents",
		Long:  `Show one ingest run. Without an id, the most recent run is shown.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			store := cmdCtx.Engine.StateStore()

			var run *core.IngestRun
			if len(args) == 0 {
				run, err = store.GetLatestRun()
				if err == nil && run == nil {
					return errors.New("no ingest runs recorded yet")
				}
			} else {
				run, err = store.GetRun(args[0])
				if errors.Is(err, state.ErrRunNotFound) {
					return fmt.Errorf("run %s not found", args[0])
				}
			}
			if err != nil {
				return fmt.Errorf("failed to load run: %w", err)
			}

			failures, err := store.GetFailures(run.ID)
			if err != nil {
				return fmt.Errorf("failed to load failures: %w", err)
			}
			return renderRun(cmdCtx.Renderer, run, failures)
		},
	}
}

// RunOutput is the JSON form of a run.
type RunOutput struct {
	ID           string          `json:"id"`
	SourceDir    string          `json:"source_dir"`
	Status       string          `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	Documents    int             `json:"documents"`
	Processed    int             `json:"processed"`
	Skipped      int             `json:"skipped"`
	MatchRows    int             `json:"match_rows"`
	DeliveryRows int             `json:"delivery_rows"`
	Error        string          `json:"error,omitempty"`
	Failures     []FailureOutput `json:"failures,omitempty"`
}

func newRunOutput(run *core.IngestRun) RunOutput {
	return RunOutput{
		ID:           run.ID,
		SourceDir:    run.SourceDir,
		Status:       string(run.Status),
		StartedAt:    run.StartedAt,
		CompletedAt:  run.CompletedAt,
		Documents:    run.Counts.Documents,
		Processed:    run.Counts.Processed,
		Skipped:      run.Skipped(),
		MatchRows:    run.Counts.MatchRows,
		DeliveryRows: run.Counts.DeliveryRows,
		Error:        run.Error,
	}
}

func renderRunList(r *output.Renderer, runs []*core.IngestRun) error {
	if r.EffectiveMode() == output.ModeJSON {
		out := make([]RunOutput, len(runs))
		for i, run := range runs {
			out[i] = newRunOutput(run)
		}
		return r.JSON(out)
	}

	if len(runs) == 0 {
		r.Muted("No ingest runs recorded yet")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.Writer())
	t.AppendHeader(table.Row{"Run", "Started", "Status", "Documents", "Skipped", "Matches", "Deliveries"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID,
			run.StartedAt.Local().Format(time.DateTime),
			r.Status(string(run.Status)),
			run.Counts.Documents,
			run.Skipped(),
			run.Counts.MatchRows,
			run.Counts.DeliveryRows,
		})
	}

	if r.EffectiveMode() == output.ModeMarkdown {
		t.RenderMarkdown()
		return nil
	}
	t.SetStyle(table.StyleLight)
	t.Render()
	return nil
}

func renderRun(r *output.Renderer, run *core.IngestRun, failures []core.DocumentFailure) error {
	out := newRunOutput(run)
	for _, f := range failures {
		out.Failures = append(out.Failures, FailureOutput{Document: f.DocumentID, Stage: f.Stage, Reason: f.Reason})
	}
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Header(1, "Run "+out.ID)
	r.KeyValue("Status", r.Status(out.Status))
	r.KeyValue("Source", out.SourceDir)
	r.KeyValue("Started", out.StartedAt.Local().Format(time.DateTime))
	if out.CompletedAt != nil {
		r.KeyValue("Duration", out.CompletedAt.Sub(out.StartedAt).Round(time.Millisecond))
	}
	r.KeyValue("Documents", out.Documents)
	r.KeyValue("Skipped", out.Skipped)
	r.KeyValue("Match rows", out.MatchRows)
	r.KeyValue("Delivery rows", out.DeliveryRows)
	if out.Error != "" {
		r.KeyValue("Error", out.Error)
	}

	if len(out.Failures) > 0 {
		r.Println("")
		r.Header(2, "Skipped documents")
		for _, f := range out.Failures {
			r.StatusLine(f.Document, "warning", f.Stage+": "+f.Reason)
		}
	}
	return nil
}
