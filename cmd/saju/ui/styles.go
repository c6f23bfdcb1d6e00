// Package ui provides the visual styling for the saju terminal client.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	Primary = lipgloss.Color("#7C5CBF") // violet
	Accent  = lipgloss.Color("#E6C15A") // gold
	Muted   = lipgloss.Color("#6C6F85")
	Danger  = lipgloss.Color("#E53935")
	Border  = lipgloss.Color("#44475A")
)

// Styles holds the reusable lipgloss styles for the TUI.
type Styles struct {
	Title       lipgloss.Style
	Label       lipgloss.Style
	Hint        lipgloss.Style
	Error       lipgloss.Style
	Tab         lipgloss.Style
	ActiveTab   lipgloss.Style
	Content     lipgloss.Style
	SubmitOff   lipgloss.Style
	SubmitOn    lipgloss.Style
	FocusCursor lipgloss.Style
}

// DefaultStyles returns the standard style set.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(Primary).
			MarginBottom(1),
		Label: lipgloss.NewStyle().Bold(true),
		Hint:  lipgloss.NewStyle().Foreground(Muted),
		Error: lipgloss.NewStyle().Foreground(Danger).Bold(true),
		Tab: lipgloss.NewStyle().Foreground(Muted).
			Padding(0, 2).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(Border),
		ActiveTab: lipgloss.NewStyle().Foreground(Accent).Bold(true).
			Padding(0, 2).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(Accent),
		Content: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Border).
			Padding(1, 2),
		SubmitOff: lipgloss.NewStyle().Foreground(Muted).
			Border(lipgloss.RoundedBorder()).BorderForeground(Muted).
			Padding(0, 2),
		SubmitOn: lipgloss.NewStyle().Foreground(Accent).Bold(true).
			Border(lipgloss.RoundedBorder()).BorderForeground(Accent).
			Padding(0, 2),
		FocusCursor: lipgloss.NewStyle().Foreground(Accent).Bold(true),
	}
}
