package ui

import "github.com/charmbracelet/lipgloss"

// ANSI codes keep the monitor readable on basic bedside terminals.
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

var (
	titleStyle        = lipgloss.NewStyle().Bold(true).Foreground(ColorInfo)
	mutedStyle        = lipgloss.NewStyle().Foreground(ColorMuted)
	errorStyle        = lipgloss.NewStyle().Foreground(ColorError)
	instructionsStyle = lipgloss.NewStyle().Foreground(ColorMuted).Italic(true)
	panelStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 3)
)
