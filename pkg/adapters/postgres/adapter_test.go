package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/crickflat/pkg/adapter"
	"github.com/leapstack-labs/crickflat/pkg/core"
)

func TestBuildPostgresDSN(t *testing.T) {
	tests := []struct {
		name     string
		config   adapter.Config
		expected string
	}{
		{
			name: "basic connection",
			config: adapter.Config{
				Host:     "localhost",
				Port:     5432,
				Database: "cricsheet",
				Username: "analyst",
				Password: "pass",
			},
			expected: "host=localhost port=5432 dbname=cricsheet sslmode=disable user=analyst password=pass",
		},
		{
			name: "with custom sslmode",
			config: adapter.Config{
				Host:     "warehouse.example.com",
				Database: "cricket",
				Username: "loader",
				Options:  map[string]string{"sslmode": "require"},
			},
			expected: "host=warehouse.example.com port=5432 dbname=cricket sslmode=require user=loader",
		},
		{
			name:     "defaults",
			config:   adapter.Config{Database: "cricsheet"},
			expected: "host=localhost port=5432 dbname=cricsheet sslmode=disable",
		},
		{
			name:     "with schema",
			config:   adapter.Config{Host: "db", Port: 5433, Database: "cricsheet", Schema: "staging"},
			expected: "host=db port=5433 dbname=cricsheet sslmode=disable search_path=staging",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, buildPostgresDSN(tt.config))
		})
	}
}

func TestNew(t *testing.T) {
	adp := New(nil)

	assert.NotNil(t, adp)
	assert.False(t, adp.IsConnected(), "should not be connected initially")
	assert.Equal(t, "postgres", adp.Dialect().Name)
	assert.Equal(t, "public", adp.Dialect().DefaultSchema)
	assert.Equal(t, "$2", adp.Dialect().FormatPlaceholder(2))
	assert.Contains(t, adp.Dialect().CreateTableSQL("deliveries", core.DeliveryColumns), `"over" BIGINT`)
}

func TestAdapter_NotConnected(t *testing.T) {
	tests := []struct {
		name      string
		operation func(ctx context.Context, adp *Adapter) error
	}{
		{
			name: "replace tables",
			operation: func(ctx context.Context, adp *Adapter) error {
				return adp.ReplaceTables(ctx, core.MatchesTable(nil))
			},
		},
		{
			name: "list tables",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.ListTables(ctx)
				return err
			},
		},
		{
			name: "get metadata",
			operation: func(ctx context.Context, adp *Adapter) error {
				_, err := adp.GetTableMetadata(ctx, "matches")
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.operation(context.Background(), New(nil))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "not established")
		})
	}
}

func TestAdapter_Registry(t *testing.T) {
	factory, ok := adapter.Get("postgres")
	require.True(t, ok, "should be able to get postgres factory")

	pg, ok := factory(nil).(*Adapter)
	require.True(t, ok, "factory should return *Adapter")
	assert.Equal(t, "postgres", pg.Dialect().Name)
}

// TestAdapter_ReplaceTables_Live runs against a real server when
// CRICKFLAT_TEST_POSTGRES_DB names a database on localhost.
func TestAdapter_ReplaceTables_Live(t *testing.T) {
	db := os.Getenv("CRICKFLAT_TEST_POSTGRES_DB")
	if db == "" {
		t.Skip("CRICKFLAT_TEST_POSTGRES_DB not set")
	}

	ctx := context.Background()
	adp := New(nil)
	require.NoError(t, adp.Connect(ctx, adapter.Config{
		Database: db,
		Username: os.Getenv("PGUSER"),
		Password: os.Getenv("PGPASSWORD"),
	}))
	t.Cleanup(func() { _ = adp.Close() })

	team := "Pakistan"
	require.NoError(t, adp.ReplaceTables(ctx,
		core.MatchesTable([]core.MatchRecord{{MatchID: "9", Team1: &team}}),
		core.DeliveriesTable([]core.DeliveryRecord{{MatchID: "9", RunsTotal: 2, RunsBatter: 2}}),
	))

	meta, err := adp.GetTableMetadata(ctx, core.DeliveriesTableName)
	require.NoError(t, err)
	assert.Equal(t, int64(1), meta.RowCount)

	err = adp.ReplaceTables(ctx, core.MatchesTable([]core.MatchRecord{{MatchID: "9"}, {MatchID: "9"}}))
	var serr *adapter.SinkWriteError
	require.ErrorAs(t, err, &serr)
}
