package engine

// load.go - reload the CSV exports into the sink

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/crickflat/internal/export"
)

// LoadResult reports the rows loaded per table.
type LoadResult struct {
	MatchRows    int
	DeliveryRows int
}

// LoadExports reads matches.csv and deliveries.csv from the export
// directory and replaces the sink tables with their contents.
func (e *Engine) LoadExports(ctx context.Context) (*LoadResult, error) {
	e.logger.Debug("loading exports", "export_dir", e.exportDir)

	tables, err := export.ReadAll(e.exportDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read exports: %w", err)
	}

	if err := e.replaceSink(ctx, tables); err != nil {
		return nil, err
	}

	return &LoadResult{
		MatchRows:    len(tables[0].Rows),
		DeliveryRows: len(tables[1].Rows),
	}, nil
}
