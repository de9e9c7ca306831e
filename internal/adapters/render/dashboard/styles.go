package dashboard

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	camera  lipgloss.Style
	detail  lipgloss.Style
	live    lipgloss.Style
	waiting lipgloss.Style
	warning lipgloss.Style
	stopped lipgloss.Style
	section lipgloss.Style
	empty   lipgloss.Style
	footer  lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:   lipgloss.NewStyle().Bold(true),
		header:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		camera:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		detail:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		live:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		waiting: lipgloss.NewStyle().Foreground(lipgloss.Color("69")),
		warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		stopped: lipgloss.NewStyle().Faint(true),
		section: lipgloss.NewStyle().MarginTop(1),
		empty:   lipgloss.NewStyle().Faint(true),
		footer:  lipgloss.NewStyle().MarginTop(1).Foreground(lipgloss.Color("241")),
	}
}
