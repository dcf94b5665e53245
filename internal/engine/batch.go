package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/leapstack-labs/crickflat/internal/flatten"
	"github.com/leapstack-labs/crickflat/internal/parser"
	"github.com/leapstack-labs/crickflat/pkg/core"
)

// Stage names the step at which a document failed.
type Stage string

// Document processing stages.
const (
	StageRead    Stage = "read"
	StageParse   Stage = "parse"
	StageFlatten Stage = "flatten"
)

// DocumentResult is the outcome of processing one source document.
type DocumentResult struct {
	ID         string
	Path       string
	Matches    int
	Deliveries int
	// Stage and Err are set when the document was skipped.
	Stage Stage
	Err   error
}

// OK reports whether the document contributed rows.
func (r DocumentResult) OK() bool { return r.Err == nil }

// Failure converts a failed result into a recordable failure.
func (r DocumentResult) Failure() core.DocumentFailure {
	reason := ""
	if r.Err != nil {
		reason = r.Err.Error()
	}
	return core.DocumentFailure{DocumentID: r.ID, Stage: string(r.Stage), Reason: reason}
}

// Accumulator collects rows from successfully processed documents in
// processing order. It is owned by a single batch.
type Accumulator struct {
	Matches    []core.MatchRecord
	Deliveries []core.DeliveryRecord
}

func (a *Accumulator) add(m core.MatchRecord, ds []core.DeliveryRecord) {
	a.Matches = append(a.Matches, m)
	a.Deliveries = append(a.Deliveries, ds...)
}

// Tables returns the accumulated rows as sink tables, matches first.
func (a *Accumulator) Tables() []core.TableData {
	return []core.TableData{
		core.MatchesTable(a.Matches),
		core.DeliveriesTable(a.Deliveries),
	}
}

// Report summarizes a batch.
type Report struct {
	Documents    int
	Processed    int
	MatchRows    int
	DeliveryRows int
	Failures     []DocumentResult
}

// Skipped returns the number of documents that contributed no rows.
func (r Report) Skipped() int { return r.Documents - r.Processed }

// Counts returns the totals in the form stored with a run.
func (r Report) Counts() core.RunCounts {
	return core.RunCounts{
		Documents:    r.Documents,
		Processed:    r.Processed,
		MatchRows:    r.MatchRows,
		DeliveryRows: r.DeliveryRows,
	}
}

// FailureRecords returns the failed documents as recordable failures.
func (r Report) FailureRecords() []core.DocumentFailure {
	out := make([]core.DocumentFailure, len(r.Failures))
	for i, f := range r.Failures {
		out[i] = f.Failure()
	}
	return out
}

// Batch is the accumulated result of one pass over a source directory.
type Batch struct {
	Dir         string
	Accumulator Accumulator
	Report      Report
}

// ListDocuments returns the *.json files of dir in lexical order. The
// extension match is case-sensitive so that every listed file yields a
// distinct match id; subdirectories are not descended.
func ListDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	slices.Sort(paths)
	return paths, nil
}

// RunBatch reads, parses and flattens every document in dir. A document
// that fails at any stage is logged, recorded in the report and contributes
// no rows. Only an unreadable directory or cancellation stops the batch;
// on cancellation the partial batch is returned with the context error.
func RunBatch(ctx context.Context, dir string, logger *slog.Logger) (*Batch, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	paths, err := ListDocuments(dir)
	if err != nil {
		return nil, err
	}

	logger.Debug("starting batch", "dir", dir, "documents", len(paths))

	b := &Batch{Dir: dir}
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return b, fmt.Errorf("batch cancelled after %d of %d documents: %w", b.Report.Documents, len(paths), err)
		}

		res, match, deliveries := processDocument(path)
		b.Report.Documents++

		if !res.OK() {
			logger.Warn("skipping document",
				slog.String("document", res.ID),
				slog.String("stage", string(res.Stage)),
				slog.String("error", res.Err.Error()))
			b.Report.Failures = append(b.Report.Failures, res)
			continue
		}

		b.Accumulator.add(match, deliveries)
		b.Report.Processed++
		b.Report.MatchRows += res.Matches
		b.Report.DeliveryRows += res.Deliveries

		logger.Debug("processed document", "document", res.ID, "deliveries", res.Deliveries)
	}

	logger.Info("batch complete",
		"documents", b.Report.Documents,
		"processed", b.Report.Processed,
		"skipped", b.Report.Skipped(),
		"match_rows", b.Report.MatchRows,
		"delivery_rows", b.Report.DeliveryRows)

	return b, nil
}

// processDocument handles one file. Rows are buffered per document so a
// failure part way through leaves nothing behind.
func processDocument(path string) (res DocumentResult, match core.MatchRecord, deliveries []core.DeliveryRecord) {
	res = DocumentResult{ID: parser.DocumentID(path), Path: path}

	defer func() {
		if r := recover(); r != nil {
			res.Stage = StageFlatten
			res.Err = fmt.Errorf("panic while flattening: %v", r)
			res.Matches, res.Deliveries = 0, 0
			match, deliveries = core.MatchRecord{}, nil
		}
	}()

	data, err := os.ReadFile(path) //nolint:gosec // path comes from the configured source directory
	if err != nil {
		res.Stage, res.Err = StageRead, err
		return res, match, nil
	}

	doc, err := parser.Parse(res.ID, data)
	if err != nil {
		res.Stage, res.Err = StageParse, err
		return res, match, nil
	}

	match, err = flatten.Match(res.ID, doc)
	if err != nil {
		res.Stage, res.Err = StageFlatten, err
		return res, core.MatchRecord{}, nil
	}

	for d := range flatten.Deliveries(res.ID, doc) {
		deliveries = append(deliveries, d)
	}

	res.Matches = 1
	res.Deliveries = len(deliveries)
	return res, match, deliveries
}

// IsCancelled reports whether err stems from context cancellation.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
