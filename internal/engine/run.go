package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/crickflat/internal/export"
	"github.com/leapstack-labs/crickflat/pkg/core"
)

// IngestOptions selects which outputs an ingest run writes.
type IngestOptions struct {
	// SkipExport leaves the CSV files untouched.
	SkipExport bool
	// SkipSink leaves the sink tables untouched.
	SkipSink bool
}

// IngestResult describes a finished (or failed) ingest run. Report is
// populated whenever the batch ran, even if a later step failed.
type IngestResult struct {
	Run         *core.IngestRun
	Report      Report
	ExportPaths []string
}

// Ingest flattens the source directory and writes the configured outputs.
// Skipped documents never fail the run; an unreadable source directory,
// cancellation, an export error or a sink write error does. The sink is
// written first, so a failed sink write leaves the previous exports in place.
func (e *Engine) Ingest(ctx context.Context, opts IngestOptions) (*IngestResult, error) {
	run, err := e.store.CreateRun(e.sourceDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	e.logger.Info("starting ingest", "run_id", run.ID, "source_dir", e.sourceDir)

	result := &IngestResult{Run: run}

	batch, err := RunBatch(ctx, e.sourceDir, e.logger)
	if batch != nil {
		result.Report = batch.Report
	}
	if err != nil {
		status := core.RunStatusFailed
		if IsCancelled(err) {
			status = core.RunStatusCancelled
		}
		return result, e.finish(run, status, result.Report, err)
	}

	if !opts.SkipSink {
		if err := e.replaceSink(ctx, batch.Accumulator.Tables()); err != nil {
			return result, e.finish(run, core.RunStatusFailed, result.Report, err)
		}
	}

	if !opts.SkipExport {
		paths, err := export.WriteAll(e.exportDir, batch.Accumulator.Tables()...)
		if err != nil {
			return result, e.finish(run, core.RunStatusFailed, result.Report, fmt.Errorf("failed to write exports: %w", err))
		}
		result.ExportPaths = paths
		e.logger.Debug("wrote exports", "dir", e.exportDir, "files", len(paths))
	}

	return result, e.finish(run, core.RunStatusCompleted, result.Report, nil)
}

func (e *Engine) replaceSink(ctx context.Context, tables []core.TableData) error {
	db, err := e.Adapter(ctx)
	if err != nil {
		return err
	}
	if err := db.ReplaceTables(ctx, tables...); err != nil {
		return err
	}
	for _, t := range tables {
		e.logger.Debug("replaced sink table", "table", t.Name, "rows", len(t.Rows))
	}
	return nil
}

// finish records the outcome of run and passes runErr through. Failures to
// update history are logged rather than masking runErr.
func (e *Engine) finish(run *core.IngestRun, status core.RunStatus, report Report, runErr error) error {
	if err := e.store.RecordFailures(run.ID, report.FailureRecords()); err != nil {
		e.logger.Warn("failed to record document failures", slog.String("run_id", run.ID), slog.String("error", err.Error()))
	}

	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	if err := e.store.CompleteRun(run.ID, status, report.Counts(), errMsg); err != nil {
		e.logger.Warn("failed to complete run", slog.String("run_id", run.ID), slog.String("error", err.Error()))
		if runErr == nil {
			runErr = fmt.Errorf("failed to complete run: %w", err)
		}
	}

	run.Status = status
	run.Counts = report.Counts()
	run.Error = errMsg

	if runErr != nil {
		e.logger.Error("ingest failed", "run_id", run.ID, "status", string(status), "error", runErr)
	} else {
		e.logger.Info("ingest completed", "run_id", run.ID)
	}
	return runErr
}
