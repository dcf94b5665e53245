package engine

// Register the built-in sinks.
import (
	_ "github.com/leapstack-labs/crickflat/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/crickflat/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/crickflat/pkg/adapters/sqlite"
)
