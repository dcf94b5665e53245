package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const runColumns = `id, source_dir, status, documents, processed, match_rows, delivery_rows, started_at, completed_at, error`

// CreateRun creates a new ingest run in the running state.
func (s *SQLiteStore) CreateRun(sourceDir string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:        generateID(),
		SourceDir: sourceDir,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO ingest_runs (id, source_dir, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.SourceDir, string(run.Status), formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	s.logger.Debug("created run", slog.String("run_id", run.ID))
	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(`SELECT `+runColumns+` FROM ingest_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// CompleteRun records the final status and totals of a run.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, counts RunCounts, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var errVal any
	if errMsg != "" {
		errVal = errMsg
	}

	res, err := s.db.Exec(`
		UPDATE ingest_runs
		SET status = ?, documents = ?, processed = ?, match_rows = ?, delivery_rows = ?,
		    completed_at = ?, error = ?
		WHERE id = ?`,
		string(status), counts.Documents, counts.Processed, counts.MatchRows, counts.DeliveryRows,
		formatTime(time.Now()), errVal, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// GetLatestRun retrieves the most recently started run, or nil if none.
func (s *SQLiteStore) GetLatestRun() (*Run, error) {
	runs, err := s.ListRuns(1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}
	return runs[0], nil
}

// ListRuns returns up to limit runs, newest first. A limit <= 0 lists all.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(`SELECT `+runColumns+` FROM ingest_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	run := &Run{}
	var (
		status      string
		startedAt   string
		completedAt sql.NullString
		errMsg      sql.NullString
	)
	err := sc.Scan(
		&run.ID, &run.SourceDir, &status,
		&run.Counts.Documents, &run.Counts.Processed, &run.Counts.MatchRows, &run.Counts.DeliveryRows,
		&startedAt, &completedAt, &errMsg,
	)
	if err != nil {
		return nil, err
	}

	run.Status = RunStatus(status)
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, fmt.Errorf("invalid started_at: %w", err)
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, fmt.Errorf("invalid completed_at: %w", err)
		}
		run.CompletedAt = &t
	}
	run.Error = errMsg.String
	return run, nil
}
