package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/crickflat/pkg/core"
)

// BaseSQLAdapter provides common database/sql functionality for adapters.
// Embed this struct in concrete adapter implementations to get standard
// Close, Exec, Query and ReplaceTables implementations.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger
}

// Close closes the database connection.
func (b *BaseSQLAdapter) Close() error {
	if b.DB != nil {
		if b.Logger != nil {
			b.Logger.Debug("closing database connection")
		}
		return b.DB.Close()
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, sqlStr string) error {
	if b.DB == nil {
		return fmt.Errorf("database connection not established")
	}
	_, err := b.DB.ExecContext(ctx, sqlStr)
	if err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query executes a SQL statement that returns rows.
func (b *BaseSQLAdapter) Query(ctx context.Context, sqlStr string) (*core.Rows, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}
	//nolint:rowserrcheck // rows.Err() must be checked by caller after iteration completes
	rows, err := b.DB.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// IsConnected returns true if the database connection is established.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

func (b *BaseSQLAdapter) logger() *slog.Logger {
	if b.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return b.Logger
}

// ReplaceTablesCommon drops, recreates and fills every table inside one
// transaction using the dialect's DDL and placeholders.
func (b *BaseSQLAdapter) ReplaceTablesCommon(ctx context.Context, d *Dialect, tables []core.TableData) (err error) {
	if b.DB == nil {
		return &SinkWriteError{Op: "connect", Err: errors.New("database connection not established")}
	}

	tx, err := b.DB.BeginTx(ctx, nil)
	if err != nil {
		return &SinkWriteError{Op: "begin", Err: err}
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				b.logger().Warn("rollback failed", slog.String("error", rbErr.Error()))
			}
		}
	}()

	for _, t := range tables {
		if err = replaceTable(ctx, tx, d, t); err != nil {
			return err
		}
		b.logger().Debug("replaced table", slog.String("table", t.Name), slog.Int("rows", len(t.Rows)))
	}

	if err = tx.Commit(); err != nil {
		return &SinkWriteError{Op: "commit", Err: err}
	}
	return nil
}

func replaceTable(ctx context.Context, tx *sql.Tx, d *Dialect, t core.TableData) error {
	if _, err := tx.ExecContext(ctx, d.DropTableSQL(t.Name)); err != nil {
		return &SinkWriteError{Table: t.Name, Op: "drop", Err: err}
	}
	if _, err := tx.ExecContext(ctx, d.CreateTableSQL(t.Name, t.Columns)); err != nil {
		return &SinkWriteError{Table: t.Name, Op: "create", Err: err}
	}
	if len(t.Rows) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, d.InsertSQL(t.Name, t.Columns))
	if err != nil {
		return &SinkWriteError{Table: t.Name, Op: "prepare", Err: err}
	}
	defer func() { _ = stmt.Close() }()

	for i, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return &SinkWriteError{
				Table: t.Name,
				Op:    "insert",
				Err:   fmt.Errorf("row %d has %d values, want %d", i, len(row), len(t.Columns)),
			}
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return &SinkWriteError{Table: t.Name, Op: "insert", Err: fmt.Errorf("row %d: %w", i, err)}
		}
	}
	return nil
}

// ParseQualifiedName splits a table reference into schema and name.
// Uses the dialect's default schema if not specified.
func ParseQualifiedName(table string, d *Dialect) (schema, name string) {
	if parts := strings.Split(table, "."); len(parts) == 2 {
		return parts[0], parts[1]
	}
	return d.DefaultSchema, table
}

// GetTableMetadataCommon provides a shared implementation of GetTableMetadata.
// Uses information_schema.columns with dialect-appropriate placeholders.
func (b *BaseSQLAdapter) GetTableMetadataCommon(ctx context.Context, table string, d *Dialect) (*core.TableMetadata, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schema, tableName := ParseQualifiedName(table, d)

	//nolint:gosec // Placeholders are safe - they come from dialect.FormatPlaceholder
	query := fmt.Sprintf(`
		SELECT 
			column_name,
			data_type,
			is_nullable,
			ordinal_position
		FROM information_schema.columns 
		WHERE table_schema = %s AND table_name = %s
		ORDER BY ordinal_position
	`, d.FormatPlaceholder(1), d.FormatPlaceholder(2))

	rows, err := b.DB.QueryContext(ctx, query, schema, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []core.Column
	for rows.Next() {
		var col core.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		columns = append(columns, col)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}

	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	return &core.TableMetadata{
		Schema:   schema,
		Name:     tableName,
		Columns:  columns,
		RowCount: b.countRows(ctx, d, schema, tableName),
	}, nil
}

// ListTablesCommon lists base tables of the dialect's default schema from
// information_schema.tables.
func (b *BaseSQLAdapter) ListTablesCommon(ctx context.Context, d *Dialect) ([]string, error) {
	if b.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	//nolint:gosec // Placeholder comes from the dialect
	query := fmt.Sprintf(`
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = %s AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, d.FormatPlaceholder(1))

	rows, err := b.DB.QueryContext(ctx, query, d.DefaultSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanStrings(rows)
}

func (b *BaseSQLAdapter) countRows(ctx context.Context, d *Dialect, schema, table string) int64 {
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", d.QuoteIdent(schema), d.QuoteIdent(table)) //nolint:gosec // identifiers are quoted
	var rowCount int64
	if err := b.DB.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		// Non-fatal, report 0
		return 0
	}
	return rowCount
}

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
