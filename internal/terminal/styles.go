package terminal

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Theme holds the styles used by the REPL.
type Theme struct {
	Title   lipgloss.Style
	User    lipgloss.Style
	Bot     lipgloss.Style
	Time    lipgloss.Style
	Info    lipgloss.Style
	Error   lipgloss.Style
	Command lipgloss.Style
}

// NewTheme builds styles bound to w so colour is dropped for non-terminals.
func NewTheme(w io.Writer) Theme {
	r := lipgloss.NewRenderer(w)
	return Theme{
		Title:   r.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#1f4e8c", Dark: "#7fb3ff"}),
		User:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Bot:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		Time:    r.NewStyle().Faint(true),
		Info:    r.NewStyle().Italic(true).Foreground(lipgloss.Color("8")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")),
		Command: r.NewStyle().Foreground(lipgloss.Color("14")),
	}
}
