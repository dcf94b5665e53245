package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(mode Mode, isTTY bool) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return NewRendererWithTTY(out, errOut, isTTY, mode), out, errOut
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		name  string
		mode  Mode
		isTTY bool
		want  Mode
	}{
		{name: "auto on tty", mode: ModeAuto, isTTY: true, want: ModeText},
		{name: "auto piped", mode: ModeAuto, isTTY: false, want: ModeMarkdown},
		{name: "empty is auto", mode: "", isTTY: false, want: ModeMarkdown},
		{name: "explicit text piped", mode: ModeText, isTTY: false, want: ModeText},
		{name: "json on tty", mode: ModeJSON, isTTY: true, want: ModeJSON},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode, tt.isTTY)
			assert.Equal(t, tt.want, r.EffectiveMode())
			assert.Equal(t, tt.isTTY, r.IsTTY())
		})
	}
}

func TestNewRenderer_BufferIsNotTTY(t *testing.T) {
	r := NewRenderer(&bytes.Buffer{}, &bytes.Buffer{}, ModeAuto)
	assert.False(t, r.IsTTY())
	assert.Equal(t, ModeMarkdown, r.EffectiveMode())
}

func TestRenderer_Markdown(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeMarkdown, false)

	r.Header(2, "Ingest Summary")
	r.KeyValue("Matches", 3)
	r.StatusLine("bad.json", "error", "invalid JSON")
	r.Muted("no failures")
	r.Success("done")
	r.Warning("2 documents skipped")

	assert.Equal(t, "## Ingest Summary\n\n- **Matches**: 3\n- [error] bad.json: invalid JSON\n_no failures_\n> done\n", out.String())
	assert.Equal(t, "> 2 documents skipped\n", errOut.String())
	assert.Equal(t, "Completed", r.Status("completed"))
}

func TestRenderer_Text(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeText, true)

	r.Header(1, "Ingest Summary")
	r.KeyValue("Matches", 3)
	r.StatusLine("matches.csv", "success", "")
	r.Error("sink write failed")

	assert.Contains(t, out.String(), "Ingest Summary")
	assert.Contains(t, out.String(), "Matches:")
	assert.Contains(t, out.String(), "3")
	assert.Contains(t, out.String(), "matches.csv")
	assert.Contains(t, errOut.String(), "sink write failed")
	assert.Contains(t, r.Status("failed"), "Failed")
}

func TestRenderer_JSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON, false)

	require.NoError(t, r.JSON(map[string]any{"match_rows": 3, "skipped": []string{"bad"}}))
	assert.JSONEq(t, `{"match_rows": 3, "skipped": ["bad"]}`, out.String())
	assert.Contains(t, out.String(), "\n  \"match_rows\": 3,")
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "- **Status**: completed", FormatKeyValue("Status", "completed"))
	assert.Equal(t, "### Failures", FormatHeader(3, "Failures"))
	assert.Equal(t, "# Runs", FormatHeader(0, "Runs"))
	assert.False(t, strings.Contains(FormatHeader(2, "x"), "\n"))
}
