package report

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	primaryColor   = lipgloss.Color("#7C3AED") // Purple
	secondaryColor = lipgloss.Color("#10B981") // Green
	warningColor   = lipgloss.Color("#F59E0B") // Yellow
	errorColor     = lipgloss.Color("#EF4444") // Red
	mutedColor     = lipgloss.Color("#6B7280") // Gray
)

// styles are bound to the renderer of one output so color is dropped when
// that output is not a terminal.
type styles struct {
	title   lipgloss.Style
	muted   lipgloss.Style
	keep    lipgloss.Style
	drop    lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	group   lipgloss.Style
	count   lipgloss.Style
	indent  lipgloss.Style
	outcome map[string]lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	s := styles{
		title: r.NewStyle().
			Bold(true).
			Foreground(primaryColor),
		muted: r.NewStyle().
			Foreground(mutedColor),
		keep: r.NewStyle().
			Foreground(secondaryColor).
			Bold(true),
		drop: r.NewStyle().
			Foreground(mutedColor),
		warn: r.NewStyle().
			Foreground(warningColor),
		err: r.NewStyle().
			Foreground(errorColor).
			Bold(true),
		group: r.NewStyle().
			Foreground(primaryColor),
		count: r.NewStyle().
			Width(8).
			Align(lipgloss.Right),
		indent: r.NewStyle().
			PaddingLeft(2),
	}
	s.outcome = map[string]lipgloss.Style{
		"written":    s.keep,
		"dry-run":    s.muted,
		"declined":   s.warn,
		"unresolved": s.err,
		"failed":     s.err,
	}
	return s
}
