package adapter

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	var gotLogger *slog.Logger
	Register("registry_test_sink", func(l *slog.Logger) Adapter {
		gotLogger = l
		return nil
	})

	assert.True(t, IsRegistered("registry_test_sink"))
	assert.Contains(t, ListAdapters(), "registry_test_sink")

	factory, ok := Get("registry_test_sink")
	require.True(t, ok)
	require.NotNil(t, factory)

	_, err := NewAdapter(Config{Type: "registry_test_sink"}, nil)
	require.NoError(t, err)
	assert.NotNil(t, gotLogger, "nil logger should be replaced with a discard logger")
}

func TestRegistry_TargetTypeIsCaseInsensitive(t *testing.T) {
	Register("Registry_Test_Mixed", func(*slog.Logger) Adapter { return nil })

	assert.True(t, IsRegistered("registry_test_mixed"))
	assert.True(t, IsRegistered(" REGISTRY_TEST_MIXED "))
	assert.Contains(t, ListAdapters(), "registry_test_mixed")

	_, err := NewAdapter(Config{Type: "REGISTRY_TEST_MIXED"}, nil)
	require.NoError(t, err)
}

func TestNewAdapter_Errors(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
		unknown bool
	}{
		{name: "empty type", cfg: Config{}, wantErr: "adapter type not specified"},
		{name: "blank type", cfg: Config{Type: "  "}, wantErr: "adapter type not specified"},
		{name: "unknown type", cfg: Config{Type: "oracle"}, wantErr: `unknown adapter type "oracle"`, unknown: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAdapter(tt.cfg, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var uerr *UnknownAdapterError
			assert.Equal(t, tt.unknown, errors.As(err, &uerr))
		})
	}
}

func TestUnknownAdapterError_Error(t *testing.T) {
	err := &UnknownAdapterError{Type: "oracle", Available: []string{"duckdb", "postgres", "sqlite"}}

	msg := err.Error()
	assert.Contains(t, msg, "oracle")
	assert.Contains(t, msg, "sqlite")
	assert.Contains(t, msg, "crickflat.yaml")
}

func TestSinkWriteError(t *testing.T) {
	cause := errors.New("UNIQUE constraint failed: matches.match_id")

	err := &SinkWriteError{Table: "matches", Op: "insert", Err: cause}
	assert.Equal(t, "sink write failed during insert of table matches: UNIQUE constraint failed: matches.match_id", err.Error())
	assert.ErrorIs(t, err, cause)

	commit := &SinkWriteError{Op: "commit", Err: cause}
	assert.Equal(t, "sink write failed during commit: UNIQUE constraint failed: matches.match_id", commit.Error())
}
