package state

import (
	"fmt"
)

// RecordFailures stores the skipped documents of a run in order.
func (s *SQLiteStore) RecordFailures(runID string, failures []Failure) (err error) {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}
	if len(failures) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var start int
	if err = tx.QueryRow(`SELECT COALESCE(MAX(seq), 0) FROM document_failures WHERE run_id = ?`, runID).Scan(&start); err != nil {
		return fmt.Errorf("failed to read failure sequence: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO document_failures (run_id, seq, document_id, stage, reason) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare failure insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, f := range failures {
		if _, err = stmt.Exec(runID, start+i+1, f.DocumentID, f.Stage, f.Reason); err != nil {
			return fmt.Errorf("failed to record failure for %s: %w", f.DocumentID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit failures: %w", err)
	}
	return nil
}

// GetFailures returns the skipped documents of a run in recorded order.
func (s *SQLiteStore) GetFailures(runID string) ([]Failure, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT document_id, stage, reason FROM document_failures WHERE run_id = ? ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get failures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var failures []Failure
	for rows.Next() {
		var f Failure
		if err := rows.Scan(&f.DocumentID, &f.Stage, &f.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan failure: %w", err)
		}
		failures = append(failures, f)
	}
	return failures, rows.Err()
}
