// Package postgres provides a PostgreSQL sink adapter for crickflat.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/leapstack-labs/crickflat/pkg/adapter"
	"github.com/leapstack-labs/crickflat/pkg/core"
)

const defaultSchema = "public"

// Adapter implements the adapter.Adapter interface for PostgreSQL.
type Adapter struct {
	adapter.BaseSQLAdapter
	dialect *adapter.Dialect
}

// New creates a new PostgreSQL adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
		dialect:        newDialect(defaultSchema),
	}
}

func newDialect(schema string) *adapter.Dialect {
	return &adapter.Dialect{
		Name:          "postgres",
		DefaultSchema: schema,
		Placeholder:   adapter.PlaceholderDollar,
		Types: map[core.ColumnType]string{
			core.ColumnInteger: "BIGINT",
		},
	}
}

// Dialect returns the PostgreSQL dialect for the configured schema.
func (a *Adapter) Dialect() *adapter.Dialect {
	return a.dialect
}

// Connect establishes a connection to PostgreSQL.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := adapter.DecodeParams[Params](cfg.Params)
	if err != nil {
		return err
	}

	dsn := buildPostgresDSN(cfg)

	a.Logger.Debug("connecting to postgres", slog.String("host", cfg.Host), slog.String("database", cfg.Database))

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("failed to open postgres connection: %w", err)
	}
	if params.MaxOpenConns > 0 {
		db.SetMaxOpenConns(params.MaxOpenConns)
	}
	if params.MaxIdleConns > 0 {
		db.SetMaxIdleConns(params.MaxIdleConns)
	}
	if params.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(params.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping postgres: %w", err)
	}

	a.DB = db
	a.Cfg = cfg
	if cfg.Schema != "" {
		a.dialect = newDialect(cfg.Schema)
	}
	return nil
}

// buildPostgresDSN constructs a PostgreSQL connection string.
func buildPostgresDSN(cfg adapter.Config) string {
	// Build key=value format: host=localhost port=5432 user=postgres ...
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	port := cfg.Port
	if port == 0 {
		port = 5432
	}

	sslmode := "disable"
	if mode, ok := cfg.Options["sslmode"]; ok {
		sslmode = mode
	}

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		host, port, cfg.Database, sslmode)

	if cfg.Username != "" {
		dsn += fmt.Sprintf(" user=%s", cfg.Username)
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", cfg.Password)
	}
	if cfg.Schema != "" {
		dsn += fmt.Sprintf(" search_path=%s", cfg.Schema)
	}

	return dsn
}

// ReplaceTables drops, recreates and bulk loads every table with COPY
// inside one pgx transaction on a dedicated connection.
func (a *Adapter) ReplaceTables(ctx context.Context, tables ...core.TableData) error {
	if a.DB == nil {
		return &adapter.SinkWriteError{Op: "connect", Err: errors.New("database connection not established")}
	}

	conn, err := a.DB.Conn(ctx)
	if err != nil {
		return &adapter.SinkWriteError{Op: "connect", Err: err}
	}
	defer func() { _ = conn.Close() }()

	return conn.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*stdlib.Conn)
		if !ok {
			return &adapter.SinkWriteError{Op: "connect", Err: fmt.Errorf("unexpected driver connection %T", driverConn)}
		}
		return a.copyTables(ctx, sc.Conn(), tables)
	})
}

func (a *Adapter) copyTables(ctx context.Context, conn *pgx.Conn, tables []core.TableData) (err error) {
	tx, err := conn.Begin(ctx)
	if err != nil {
		return &adapter.SinkWriteError{Op: "begin", Err: err}
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				a.Logger.Warn("rollback failed", slog.String("error", rbErr.Error()))
			}
		}
	}()

	for _, t := range tables {
		if _, err = tx.Exec(ctx, a.dialect.DropTableSQL(t.Name)); err != nil {
			return &adapter.SinkWriteError{Table: t.Name, Op: "drop", Err: err}
		}
		if _, err = tx.Exec(ctx, a.dialect.CreateTableSQL(t.Name, t.Columns)); err != nil {
			return &adapter.SinkWriteError{Table: t.Name, Op: "create", Err: err}
		}
		n, copyErr := tx.CopyFrom(ctx, pgx.Identifier{t.Name}, core.ColumnNames(t.Columns), pgx.CopyFromRows(t.Rows))
		if copyErr != nil {
			err = &adapter.SinkWriteError{Table: t.Name, Op: "insert", Err: copyErr}
			return err
		}
		a.Logger.Debug("copied table", slog.String("table", t.Name), slog.Int64("rows", n))
	}

	if err = tx.Commit(ctx); err != nil {
		return &adapter.SinkWriteError{Op: "commit", Err: err}
	}
	return nil
}

// ListTables returns base tables of the configured schema.
func (a *Adapter) ListTables(ctx context.Context) ([]string, error) {
	return a.ListTablesCommon(ctx, a.dialect)
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return a.GetTableMetadataCommon(ctx, table, a.dialect)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
