package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Color palette - consistent across all output
var (
	Green = lipgloss.Color("10") // success
	Red   = lipgloss.Color("9")  // error
	Grey  = lipgloss.Color("8")  // muted text
	Blue  = lipgloss.Color("4")  // user label
	White = lipgloss.Color("15") // headers
)

// Styles returns styled text helpers bound to a renderer
type Styles struct {
	renderer *lipgloss.Renderer

	Title     lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
	Bold      lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
}

// NewStyles creates a new Styles instance for the given output
func NewStyles(output *os.File) *Styles {
	r := lipgloss.NewRenderer(output)

	return &Styles{
		renderer: r,

		Title: r.NewStyle().
			Bold(true).
			Foreground(White),

		Success: r.NewStyle().
			Foreground(Green),

		Error: r.NewStyle().
			Foreground(Red),

		Muted: r.NewStyle().
			Foreground(Grey),

		Bold: r.NewStyle().
			Bold(true),

		User: r.NewStyle().
			Bold(true).
			Foreground(Blue),

		Assistant: r.NewStyle().
			Bold(true).
			Foreground(Green),
	}
}
