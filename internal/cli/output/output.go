// Package output renders command results for terminals, pipes and machines.
//
// A Renderer picks an effective mode once: styled text on a TTY, markdown
// when piped, or JSON on request. Colors are dropped entirely when the
// output is not a terminal.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	jsoniter "github.com/json-iterator/go"
	"github.com/muesli/termenv"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Mode selects how output is rendered.
type Mode string

// Output modes.
const (
	ModeAuto     Mode = "auto"
	ModeText     Mode = "text"
	ModeMarkdown Mode = "markdown"
	ModeJSON     Mode = "json"
)

// Renderer writes styled or plain output depending on its mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	isTTY  bool
	styles *Styles
	title  cases.Caser
}

// NewRenderer creates a renderer, detecting whether out is a terminal.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	return NewRendererWithTTY(out, errOut, isTerminal(out), mode)
}

// NewRendererWithTTY creates a renderer with an explicit TTY state.
func NewRendererWithTTY(out, errOut io.Writer, isTTY bool, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}

	lr := lipgloss.NewRenderer(out)
	if !isTTY {
		lr.SetColorProfile(termenv.Ascii)
	}

	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		isTTY:  isTTY,
		styles: newStyles(lr),
		title:  cases.Title(language.English),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// EffectiveMode resolves ModeAuto: text on a TTY, markdown otherwise.
func (r *Renderer) EffectiveMode() Mode {
	if r.mode != ModeAuto {
		return r.mode
	}
	if r.isTTY {
		return ModeText
	}
	return ModeMarkdown
}

// IsTTY reports whether stdout is a terminal.
func (r *Renderer) IsTTY() bool { return r.isTTY }

// Writer returns the stdout writer.
func (r *Renderer) Writer() io.Writer { return r.out }

// ErrWriter returns the stderr writer.
func (r *Renderer) ErrWriter() io.Writer { return r.errOut }

// Styles returns the text styles.
func (r *Renderer) Styles() *Styles { return r.styles }

// Println writes a line to stdout.
func (r *Renderer) Println(a ...any) {
	_, _ = fmt.Fprintln(r.out, a...)
}

// Printf writes formatted output to stdout.
func (r *Renderer) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(r.out, format, a...)
}

// Header writes a section title at the given level (1 or 2).
func (r *Renderer) Header(level int, title string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatHeader(level, title))
		r.Println("")
		return
	}
	if level <= 1 {
		r.Println(r.styles.Header1.Render(title))
		return
	}
	r.Println(r.styles.Header2.Render(title))
}

// StatusLine writes one item with a status marker and optional detail.
// Status is one of success, warning or error.
func (r *Renderer) StatusLine(label, status, detail string) {
	if r.EffectiveMode() == ModeMarkdown {
		line := fmt.Sprintf("- [%s] %s", status, label)
		if detail != "" {
			line += ": " + detail
		}
		r.Println(line)
		return
	}

	var marker string
	switch status {
	case "success":
		marker = r.styles.Success.Render("✓")
	case "warning":
		marker = r.styles.Warning.Render("!")
	default:
		marker = r.styles.Error.Render("✗")
	}
	line := "  " + marker + " " + label
	if detail != "" {
		line += " " + r.styles.Muted.Render(detail)
	}
	r.Println(line)
}

// KeyValue writes one labelled value.
func (r *Renderer) KeyValue(key string, value any) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println(FormatKeyValue(key, fmt.Sprint(value)))
		return
	}
	r.Println("  " + r.styles.Key.Render(key+":") + " " + fmt.Sprint(value))
}

// Status renders a run status word in its color.
func (r *Renderer) Status(status string) string {
	label := r.title.String(status)
	if r.EffectiveMode() == ModeMarkdown {
		return label
	}
	switch status {
	case "completed":
		return r.styles.StatusSuccess.Render(label)
	case "failed", "cancelled":
		return r.styles.StatusFailed.Render(label)
	default:
		return r.styles.StatusPending.Render(label)
	}
}

// Success writes a success message to stdout.
func (r *Renderer) Success(msg string) {
	r.Println(r.prefixed("✓", r.styles.Success, msg))
}

// Warning writes a warning to stderr.
func (r *Renderer) Warning(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.prefixed("!", r.styles.Warning, msg))
}

// Error writes an error message to stderr.
func (r *Renderer) Error(msg string) {
	_, _ = fmt.Fprintln(r.errOut, r.prefixed("✗", r.styles.Error, msg))
}

// Muted writes de-emphasized text to stdout.
func (r *Renderer) Muted(msg string) {
	if r.EffectiveMode() == ModeMarkdown {
		r.Println("_" + msg + "_")
		return
	}
	r.Println(r.styles.Muted.Render(msg))
}

func (r *Renderer) prefixed(symbol string, style lipgloss.Style, msg string) string {
	if r.EffectiveMode() == ModeMarkdown {
		return "> " + msg
	}
	return style.Render(symbol) + " " + msg
}

// JSON writes v as indented JSON to stdout.
func (r *Renderer) JSON(v any) error {
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatKeyValue formats a markdown list item with a bold key.
func FormatKeyValue(key, value string) string {
	return fmt.Sprintf("- **%s**: %s", key, value)
}

// FormatHeader formats a markdown header of the given level.
func FormatHeader(level int, title string) string {
	if level < 1 {
		level = 1
	}
	return strings.Repeat("#", level) + " " + title
}
