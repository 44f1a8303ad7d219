package tui

import "github.com/charmbracelet/lipgloss"

var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	statusDone = lipgloss.NewStyle().
			Foreground(lipgloss.Color("28")) // Dark green

	statusFailed = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // Red

	statusBlocked = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // Orange

	statusPending = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")) // Gray

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)
