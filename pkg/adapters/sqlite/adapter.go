// Package sqlite provides the default SQLite sink adapter for crickflat.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/crickflat/pkg/adapter"
	"github.com/leapstack-labs/crickflat/pkg/core"

	_ "modernc.org/sqlite" // sqlite driver
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

const defaultBusyTimeout = 5 * time.Second

var dialect = &adapter.Dialect{
	Name:          "sqlite",
	DefaultSchema: "main",
	Placeholder:   adapter.PlaceholderQuestion,
}

// Adapter implements the adapter.Adapter interface for SQLite.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new SQLite adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the SQLite dialect.
func (a *Adapter) Dialect() *adapter.Dialect {
	return dialect
}

// Connect opens the database file, creating its parent directory if needed.
// Use ":memory:" (or an empty path) for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := adapter.DecodeParams[Params](cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = cfg.Database
	}
	if path == "" {
		path = MemoryPath
	}

	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	a.Logger.Debug("connecting to sqlite", slog.String("path", path))

	db, err := sql.Open("sqlite", buildDSN(path, params))
	if err != nil {
		return fmt.Errorf("failed to open sqlite connection: %w", err)
	}
	// One connection keeps :memory: databases shared across calls and
	// serializes writers on file databases.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	return nil
}

// buildDSN appends _pragma query parameters understood by modernc.org/sqlite.
func buildDSN(path string, p *Params) string {
	timeout := p.BusyTimeout
	if timeout <= 0 {
		timeout = defaultBusyTimeout
	}

	q := url.Values{}
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", timeout.Milliseconds()))
	if p.JournalMode != "" {
		q.Add("_pragma", fmt.Sprintf("journal_mode(%s)", strings.ToUpper(p.JournalMode)))
	}
	if p.Synchronous != "" {
		q.Add("_pragma", fmt.Sprintf("synchronous(%s)", strings.ToUpper(p.Synchronous)))
	}

	if path == MemoryPath {
		return "file::memory:?" + q.Encode()
	}
	return "file:" + path + "?" + q.Encode()
}

// ReplaceTables replaces the given tables in one transaction.
func (a *Adapter) ReplaceTables(ctx context.Context, tables ...core.TableData) error {
	return a.ReplaceTablesCommon(ctx, dialect, tables)
}

// ListTables returns user tables from sqlite_master.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	rows, err := a.DB.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// GetTableMetadata reads column information with PRAGMA table_info.
// SQLite has no information_schema.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	if a.DB == nil {
		return nil, fmt.Errorf("database connection not established")
	}

	schema, name := adapter.ParseQualifiedName(table, dialect)

	//nolint:gosec // identifiers are quoted
	rows, err := a.DB.QueryContext(ctx, fmt.Sprintf("PRAGMA %s.table_info(%s)",
		dialect.QuoteIdent(schema), dialect.QuoteIdent(name)))
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var columns []adapter.Column
	for rows.Next() {
		var (
			cid       int
			col       adapter.Column
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &col.Name, &col.Type, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Position = cid + 1
		col.Nullable = notNull == 0
		col.PrimaryKey = pk > 0
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	var rowCount int64
	//nolint:gosec // identifiers are quoted
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", dialect.QuoteIdent(schema), dialect.QuoteIdent(name))
	if err := a.DB.QueryRowContext(ctx, countQuery).Scan(&rowCount); err != nil {
		rowCount = 0
	}

	return &adapter.Metadata{
		Schema:   schema,
		Name:     name,
		Columns:  columns,
		RowCount: rowCount,
	}, nil
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
