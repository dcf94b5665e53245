// Package engine runs the batch pipeline: it flattens a directory of match
// documents, writes the CSV exports, replaces the sink tables and records
// each run in the state store.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/crickflat/internal/state"
	"github.com/leapstack-labs/crickflat/pkg/adapter"
)

// Engine orchestrates ingest and load runs.
type Engine struct {
	// Sink adapter (lazy initialized)
	db          adapter.Adapter
	dbConfig    adapter.Config
	dbConnected bool
	dbMu        sync.Mutex

	// Structured logger
	logger *slog.Logger

	store     state.Store
	sourceDir string
	exportDir string
}

// Config holds engine configuration.
type Config struct {
	// SourceDir is the directory of *.json match documents
	SourceDir string
	// ExportDir receives matches.csv and deliveries.csv
	ExportDir string
	// StatePath is the path to the SQLite state database (":memory:" if empty)
	StatePath string
	// AdapterConfig selects and configures the sink
	AdapterConfig adapter.Config
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates a new engine with a lazy sink connection.
// The sink is only connected when a run needs it.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	logger.Debug("initializing engine", "source_dir", cfg.SourceDir, "target", cfg.AdapterConfig.Type)

	statePath := cfg.StatePath
	if statePath == "" {
		statePath = ":memory:"
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(statePath); err != nil {
		return nil, fmt.Errorf("failed to open state store: %w", err)
	}
	if err := store.InitSchema(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize state schema: %w", err)
	}

	dbConfig := cfg.AdapterConfig
	if dbConfig.Type == "" {
		dbConfig.Type = "sqlite"
	}

	return &Engine{
		dbConfig:  dbConfig,
		logger:    logger,
		store:     store,
		sourceDir: cfg.SourceDir,
		exportDir: cfg.ExportDir,
	}, nil
}

// Adapter returns the connected sink, connecting on first use.
func (e *Engine) Adapter(ctx context.Context) (adapter.Adapter, error) {
	e.dbMu.Lock()
	defer e.dbMu.Unlock()

	if e.dbConnected {
		return e.db, nil
	}

	e.logger.Debug("connecting to sink", "adapter_type", e.dbConfig.Type)

	db, err := adapter.NewAdapter(e.dbConfig, e.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create sink adapter: %w", err)
	}
	if err := db.Connect(ctx, e.dbConfig); err != nil {
		return nil, fmt.Errorf("failed to connect to sink: %w", err)
	}

	e.db = db
	e.dbConnected = true
	e.logger.Debug("sink connected", "dialect", db.Dialect().Name)
	return db, nil
}

// StateStore returns the run history store.
func (e *Engine) StateStore() state.Store {
	return e.store
}

// SourceDir returns the configured source directory.
func (e *Engine) SourceDir() string { return e.sourceDir }

// ExportDir returns the configured export directory.
func (e *Engine) ExportDir() string { return e.exportDir }

// Close releases all resources.
func (e *Engine) Close() error {
	e.logger.Debug("closing engine")

	var errs []error
	if e.db != nil {
		if err := e.db.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if e.store != nil {
		if err := e.store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing engine: %v", errs)
	}
	return nil
}
