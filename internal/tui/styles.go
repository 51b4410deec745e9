package tui

import "github.com/charmbracelet/lipgloss"

var (
	primaryColor = lipgloss.Color("#2563EB")
	mutedColor   = lipgloss.Color("#6B7280")
)

type styles struct {
	Header    lipgloss.Style
	Tagline   lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Time      lipgloss.Style
	Body      lipgloss.Style
	Status    lipgloss.Style
	Input     lipgloss.Style
	Footer    lipgloss.Style
	Highlight lipgloss.Style
}

func defaultStyles() styles {
	return styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFFFFF")).Background(primaryColor).Padding(0, 1),
		Tagline:   lipgloss.NewStyle().Foreground(mutedColor).Padding(0, 1),
		User:      lipgloss.NewStyle().Bold(true).Foreground(primaryColor),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1F2937")),
		Time:      lipgloss.NewStyle().Foreground(mutedColor),
		Body:      lipgloss.NewStyle().PaddingLeft(2),
		Status:    lipgloss.NewStyle().Italic(true).Foreground(mutedColor),
		Input:     lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(primaryColor),
		Footer:    lipgloss.NewStyle().Foreground(mutedColor),
		Highlight: lipgloss.NewStyle().Foreground(primaryColor),
	}
}
