package core

import "time"

// Store defines the interface for run history operations.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Run operations
	CreateRun(sourceDir string) (*IngestRun, error)
	GetRun(id string) (*IngestRun, error)
	CompleteRun(id string, status RunStatus, counts RunCounts, errMsg string) error
	GetLatestRun() (*IngestRun, error)
	ListRuns(limit int) ([]*IngestRun, error)

	// Document failure operations
	RecordFailures(runID string, failures []DocumentFailure) error
	GetFailures(runID string) ([]DocumentFailure, error)
}

// RunStatus represents the status of an ingest run.
type RunStatus string

// Run status values.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
	RunStatusCancelled RunStatus = "cancelled"
)

// RunCounts holds the batch totals recorded for a run.
type RunCounts struct {
	Documents    int
	Processed    int
	MatchRows    int
	DeliveryRows int
}

// IngestRun represents one execution of the batch pipeline.
type IngestRun struct {
	ID          string
	SourceDir   string
	Status      RunStatus
	Counts      RunCounts
	StartedAt   time.Time
	CompletedAt *time.Time
	Error       string
}

// Skipped returns the number of documents that produced no rows.
func (r *IngestRun) Skipped() int {
	return r.Counts.Documents - r.Counts.Processed
}

// DocumentFailure records why a source document was skipped.
type DocumentFailure struct {
	DocumentID string
	Stage      string
	Reason     string
}
