package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the lipgloss styles used for text output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Key     lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Info    lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
	StatusPending lipgloss.Style
}

// Palette colors (ANSI 256).
var (
	colorAccent  = lipgloss.Color("39")
	colorMuted   = lipgloss.Color("244")
	colorSuccess = lipgloss.Color("42")
	colorWarning = lipgloss.Color("214")
	colorError   = lipgloss.Color("196")
)

func newStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: r.NewStyle().Bold(true).Foreground(colorAccent).Underline(true),
		Header2: r.NewStyle().Bold(true).Foreground(colorAccent),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(colorMuted),
		Key:     r.NewStyle().Foreground(colorMuted).Width(14),
		Success: r.NewStyle().Foreground(colorSuccess),
		Warning: r.NewStyle().Foreground(colorWarning),
		Error:   r.NewStyle().Foreground(colorError).Bold(true),
		Info:    r.NewStyle().Foreground(colorAccent),

		StatusSuccess: r.NewStyle().Foreground(colorSuccess).Bold(true),
		StatusFailed:  r.NewStyle().Foreground(colorError).Bold(true),
		StatusPending: r.NewStyle().Foreground(colorWarning),
	}
}
