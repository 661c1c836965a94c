package tui

import "github.com/charmbracelet/lipgloss"

var (
	ColorAccent = lipgloss.Color("#00D4AA")
	ColorGold   = lipgloss.Color("#FFD700")
	ColorGray   = lipgloss.Color("#888888")
	ColorNavy   = lipgloss.Color("#1E2A44")

	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(ColorGold)
	tabStyle       = lipgloss.NewStyle().Padding(0, 1).Foreground(ColorGray)
	activeTabStyle = lipgloss.NewStyle().Padding(0, 1).Bold(true).Foreground(ColorAccent).Background(ColorNavy)
	entityStyle    = lipgloss.NewStyle().Foreground(ColorAccent)
	mutedStyle     = lipgloss.NewStyle().Foreground(ColorGray).Italic(true)
	helpKeyStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	helpDescStyle  = lipgloss.NewStyle().Foreground(ColorGray)
	barStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("39")).Background(lipgloss.Color("39"))
)
