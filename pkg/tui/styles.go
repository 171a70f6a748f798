package tui

import "github.com/charmbracelet/lipgloss"

var (
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)

	paneFocusedStyle = paneStyle.
				BorderForeground(lipgloss.Color("205"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230"))

	listItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	listItemSelectedStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Foreground(lipgloss.Color("205")).
				Bold(true)

	userMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true)

	modelMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252"))

	failedMessageStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196"))

	pendingMarkerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("226"))

	selectionMarkerStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("205")).
				Bold(true)

	feedbackStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)
