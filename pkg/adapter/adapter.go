// Package adapter provides the sink adapter contract for crickflat.
//
// A sink receives the two flattened datasets once per run and replaces its
// tables atomically. Concrete implementations live in pkg/adapters/
// subdirectories and register themselves with this package's registry.
package adapter

import (
	"context"

	"github.com/leapstack-labs/crickflat/pkg/core"
)

type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// Rows is an alias for core.Rows.
	Rows = core.Rows
)

// Adapter defines the interface that all sink adapters must implement.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows.
	Exec(ctx context.Context, sql string) error

	// Query executes a SQL statement that returns rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// GetTableMetadata retrieves metadata for a specified table.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// ListTables returns the user tables visible in the default schema, sorted.
	ListTables(ctx context.Context) ([]string, error)

	// ReplaceTables drops and recreates every given table with its fixed
	// schema, inserts all rows, and commits once. On failure nothing is
	// committed and a *SinkWriteError is returned.
	ReplaceTables(ctx context.Context, tables ...core.TableData) error

	// Dialect returns the SQL dialect used to generate DDL and DML.
	Dialect() *Dialect
}
