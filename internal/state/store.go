// Package state records ingest run history in a local SQLite database.
// Each run stores its batch totals and the documents it had to skip.
package state

import (
	"errors"

	"github.com/leapstack-labs/crickflat/pkg/core"
)

// Type aliases for the run history types defined in pkg/core.
type (
	// Store is an alias for core.Store.
	Store = core.Store

	// RunStatus is an alias for core.RunStatus.
	RunStatus = core.RunStatus

	// Run is an alias for core.IngestRun.
	Run = core.IngestRun

	// RunCounts is an alias for core.RunCounts.
	RunCounts = core.RunCounts

	// Failure is an alias for core.DocumentFailure.
	Failure = core.DocumentFailure
)

// Re-export status constants from core.
const (
	RunStatusRunning   = core.RunStatusRunning
	RunStatusCompleted = core.RunStatusCompleted
	RunStatusFailed    = core.RunStatusFailed
	RunStatusCancelled = core.RunStatusCancelled
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = errors.New("run not found")

var _ Store = (*SQLiteStore)(nil)
