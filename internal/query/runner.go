// Package query runs ad-hoc SQL and canned analysis reports against the
// sink tables.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/crickflat/pkg/adapter"
)

// Result is a materialized query result.
type Result struct {
	Columns []string
	Rows    [][]any
	// Total is the number of rows the statement produced; Rows may hold
	// fewer when a limit was applied.
	Total int
}

// Truncated reports whether rows were dropped by a limit.
func (r *Result) Truncated() bool { return r.Total > len(r.Rows) }

// Runner executes statements through a sink adapter.
type Runner struct {
	db adapter.Adapter
}

// NewRunner creates a runner on a connected adapter.
func NewRunner(db adapter.Adapter) *Runner {
	return &Runner{db: db}
}

// Run executes one statement and keeps at most limit rows (all if limit <= 0).
func (r *Runner) Run(ctx context.Context, sql string, limit int) (*Result, error) {
	if r.db == nil {
		return nil, errors.New("no sink connection")
	}

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	res := &Result{Columns: cols}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		res.Total++
		if limit > 0 && len(res.Rows) >= limit {
			continue
		}
		for i, v := range values {
			values[i] = normalize(v)
		}
		res.Rows = append(res.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// normalize converts driver values into printable ones.
func normalize(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	default:
		return v
	}
}

// Tables lists the sink's tables.
func (r *Runner) Tables(ctx context.Context) ([]string, error) {
	if r.db == nil {
		return nil, errors.New("no sink connection")
	}
	return r.db.ListTables(ctx)
}

// Schema describes one table.
func (r *Runner) Schema(ctx context.Context, table string) (*adapter.Metadata, error) {
	if r.db == nil {
		return nil, errors.New("no sink connection")
	}
	return r.db.GetTableMetadata(ctx, table)
}
