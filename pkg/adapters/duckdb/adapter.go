// Package duckdb provides a DuckDB sink adapter for crickflat.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/leapstack-labs/crickflat/pkg/adapter"
	"github.com/leapstack-labs/crickflat/pkg/core"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

var dialect = &adapter.Dialect{
	Name:          "duckdb",
	DefaultSchema: "main",
	Placeholder:   adapter.PlaceholderQuestion,
	Types: map[core.ColumnType]string{
		core.ColumnText:    "VARCHAR",
		core.ColumnInteger: "BIGINT",
	},
}

var settingName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
}

// Dialect returns the DuckDB dialect.
func (a *Adapter) Dialect() *adapter.Dialect {
	return dialect
}

// Connect establishes a connection to DuckDB.
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
		path = ":memory:"
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	a.Logger.Debug("connecting to duckdb", slog.String("path", path))

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg

	if err := a.applyParams(ctx, params); err != nil {
		_ = db.Close()
		a.DB = nil
		return err
	}
	return nil
}

func (a *Adapter) applyParams(ctx context.Context, p *Params) error {
	for _, ext := range p.Extensions {
		if !settingName.MatchString(ext) {
			return fmt.Errorf("invalid extension name %q", ext)
		}
		a.Logger.Debug("loading duckdb extension", slog.String("extension", ext))
		if err := a.Exec(ctx, "INSTALL "+ext); err != nil {
			return fmt.Errorf("failed to install extension %s: %w", ext, err)
		}
		if err := a.Exec(ctx, "LOAD "+ext); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	for _, stmt := range settingStatements(p.Settings) {
		if err := a.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply setting: %w", err)
		}
	}
	return nil
}

// settingStatements renders SET statements in key order. Keys that are not
// plain identifiers are dropped.
func settingStatements(settings map[string]string) []string {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		if settingName.MatchString(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	stmts := make([]string, len(keys))
	for i, k := range keys {
		stmts[i] = fmt.Sprintf("SET %s = '%s'", k, strings.ReplaceAll(settings[k], "'", "''"))
	}
	return stmts
}

// ReplaceTables replaces the given tables in one transaction.
func (a *Adapter) ReplaceTables(ctx context.Context, tables ...core.TableData) error {
	return a.ReplaceTablesCommon(ctx, dialect, tables)
}

// ListTables returns base tables of the main schema.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	return a.ListTablesCommon(ctx, dialect)
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return a.GetTableMetadataCommon(ctx, table, dialect)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
