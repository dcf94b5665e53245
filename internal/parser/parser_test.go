package parser

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "object", input: `{"info": {"venue": "Eden Gardens"}, "innings": []}`},
		{name: "empty object", input: `{}`},
		{name: "empty input", input: "", wantErr: "empty document"},
		{name: "whitespace only", input: "  \n\t", wantErr: "empty document"},
		{name: "truncated", input: `{"info": {"venue": `, wantErr: "invalid JSON"},
		{name: "not json", input: `info: venue`, wantErr: "invalid JSON"},
		{name: "top-level array", input: `[{"info": {}}]`, wantErr: "top level is array"},
		{name: "top-level string", input: `"match"`, wantErr: "top level is string"},
		{name: "top-level null", input: `null`, wantErr: "top level is null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Parse("1001", []byte(tt.input))
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.NotNil(t, doc)
				return
			}

			require.Error(t, err)
			var perr *ParseError
			require.True(t, errors.As(err, &perr), "expected *ParseError, got %T", err)
			assert.Equal(t, "1001", perr.DocumentID)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Nil(t, doc)
		})
	}
}

func TestParse_NumbersStayExact(t *testing.T) {
	doc, err := Parse("big", []byte(`{"info": {"outcome": {"by": {"runs": 9007199254740993}}}}`))
	require.NoError(t, err)

	info := doc["info"].(map[string]any)
	by := info["outcome"].(map[string]any)["by"].(map[string]any)

	n, ok := by["runs"].(json.Number)
	require.True(t, ok, "expected json.Number, got %T", by["runs"])
	assert.Equal(t, "9007199254740993", n.String())
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "335982.json")
	require.NoError(t, os.WriteFile(good, []byte(`{"info": {}}`), 0o600))

	doc, err := ParseFile(good)
	require.NoError(t, err)
	assert.Contains(t, doc, "info")

	bad := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{`), 0o600))

	_, err = ParseFile(bad)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "broken", perr.DocumentID)

	_, err = ParseFile(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDocumentID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"data/json/335982.json", "335982"},
		{"1001349.json", "1001349"},
		{"/abs/path/ipl.final.json", "ipl.final"},
		{"noext", "noext"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, DocumentID(tt.path))
		})
	}
}
