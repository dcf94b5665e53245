package commands

import (
	"fmt"

	"github.com/leapstack-labs/crickflat/internal/cli/output"
	"github.com/leapstack-labs/crickflat/internal/engine"
	"github.com/spf13/cobra"
)

// IngestOptions holds options for the ingest command.
type IngestOptions struct {
	SkipSink   bool
	SkipExport bool
}

// NewIngestCommand creates the ingest command.
func NewIngestCommand() *cobra.Command {
	opts := &IngestOptions{}

	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Flatten match documents into the sink and CSV exports",
		Long: `Read every *.json match document in the source directory, flatten it
into one match row and one row per delivery, then write matches.csv and
deliveries.csv to the export directory and replace the matches and
deliveries tables in the sink.

Malformed documents are skipped and reported; they never fail the run.
The sink is replaced in a single transaction, so a failed write leaves the
previous tables intact.`,
		Example: `  # Flatten data/json into the default SQLite sink and processing/
  crickflat ingest

  # Only write the CSV exports
  crickflat ingest --skip-sink

  # Use another source directory and sink
  crickflat ingest --source-dir ~/cricsheet/json --database cricket.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIngest(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.SkipSink, "skip-sink", false, "Write the CSV exports only")
	cmd.Flags().BoolVar(&opts.SkipExport, "skip-export", false, "Replace the sink tables only")

	return cmd
}

func runIngest(cmd *cobra.Command, opts *IngestOptions) error {
	if opts.SkipSink && opts.SkipExport {
		return fmt.Errorf("--skip-sink and --skip-export cannot be combined")
	}
	if err := getConfig().ValidateSourceDir(); err != nil {
		return err
	}

	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	res, runErr := cmdCtx.Engine.Ingest(cmd.Context(), engine.IngestOptions{
		SkipExport: opts.SkipExport,
		SkipSink:   opts.SkipSink,
	})
	if res != nil {
		if err := renderIngest(cmdCtx.Renderer, res, runErr); err != nil {
			return err
		}
	}
	return runErr
}

// IngestOutput is the JSON form of an ingest result.
type IngestOutput struct {
	RunID        string          `json:"run_id"`
	Status       string          `json:"status"`
	Documents    int             `json:"documents"`
	Processed    int             `json:"processed"`
	Skipped      int             `json:"skipped"`
	MatchRows    int             `json:"match_rows"`
	DeliveryRows int             `json:"delivery_rows"`
	Exports      []string        `json:"exports,omitempty"`
	Failures     []FailureOutput `json:"failures,omitempty"`
	Error        string          `json:"error,omitempty"`
}

// FailureOutput describes one skipped document.
type FailureOutput struct {
	Document string `json:"document"`
	Stage    string `json:"stage"`
	Reason   string `json:"reason"`
}

func newIngestOutput(res *engine.IngestResult, runErr error) IngestOutput {
	rep := res.Report
	out := IngestOutput{
		RunID:        res.Run.ID,
		Status:       string(res.Run.Status),
		Documents:    rep.Documents,
		Processed:    rep.Processed,
		Skipped:      rep.Skipped(),
		MatchRows:    rep.MatchRows,
		DeliveryRows: rep.DeliveryRows,
		Exports:      res.ExportPaths,
	}
	for _, f := range rep.FailureRecords() {
		out.Failures = append(out.Failures, FailureOutput{Document: f.DocumentID, Stage: f.Stage, Reason: f.Reason})
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	return out
}

func renderIngest(r *output.Renderer, res *engine.IngestResult, runErr error) error {
	out := newIngestOutput(res, runErr)
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(out)
	}

	r.Header(1, "Ingest")
	r.KeyValue("Run", out.RunID)
	r.KeyValue("Status", r.Status(out.Status))
	r.KeyValue("Documents", out.Documents)
	r.KeyValue("Processed", out.Processed)
	r.KeyValue("Skipped", out.Skipped)
	r.KeyValue("Match rows", out.MatchRows)
	r.KeyValue("Delivery rows", out.DeliveryRows)

	if len(out.Exports) > 0 {
		r.Println("")
		r.Header(2, "Exports")
		for _, p := range out.Exports {
			r.StatusLine(p, "success", "")
		}
	}

	if len(out.Failures) > 0 {
		r.Println("")
		r.Header(2, "Skipped documents")
		for _, f := range out.Failures {
			r.StatusLine(f.Document, "warning", f.Stage+": "+f.Reason)
		}
	}

	r.Println("")
	if runErr != nil {
		r.Error(out.Error)
		return nil
	}
	r.Success(fmt.Sprintf("Flattened %d matches and %d deliveries", out.MatchRows, out.DeliveryRows))
	return nil
}
