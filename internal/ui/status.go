package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/skobkin/dripmon/internal/connectors"
	"github.com/skobkin/dripmon/internal/domain"
)

// Instructions is shown under the status panel while monitoring.
const Instructions = "Normal drip rate: 20-30 drops/min • Blocked drip: More than 30 drops/min • Stopped drip: 0 drops/min or chamber full"

const (
	IconStopped = "⛔"
	IconBlocked = "🚫"
	IconNormal  = "✅"
	IconUnknown = "❓"
)

const (
	SymbolConnected    = "●"
	SymbolConnecting   = "◐"
	SymbolDisconnected = "○"
	SymbolFailed       = "✗"
)

func StatusIcon(status domain.DripStatus) string {
	switch status.Kind {
	case domain.DripStopped:
		return IconStopped
	case domain.DripBlocked:
		return IconBlocked
	case domain.DripNormal:
		return IconNormal
	default:
		return IconUnknown
	}
}

// RateLine returns the rate text for a normal drip, or "" when there is none to show.
func RateLine(status domain.DripStatus) string {
	if status.Kind != domain.DripNormal || !status.HasRate {
		return ""
	}

	return fmt.Sprintf("Current Rate: %d drops/min", status.Rate)
}

func ConnectionLabel(state connectors.ConnectionState) string {
	switch state {
	case connectors.ConnectionStateConnected:
		return "Connected"
	case connectors.ConnectionStateConnecting:
		return "Connecting"
	case connectors.ConnectionStateFailed:
		return "Connection failed"
	default:
		return "Disconnected"
	}
}

func connectionSymbol(state connectors.ConnectionState) (string, lipgloss.Color) {
	switch state {
	case connectors.ConnectionStateConnected:
		return SymbolConnected, ColorSuccess
	case connectors.ConnectionStateConnecting:
		return SymbolConnecting, ColorSecondary
	case connectors.ConnectionStateFailed:
		return SymbolFailed, ColorError
	default:
		return SymbolDisconnected, ColorMuted
	}
}

// RenderConnection renders the colored connection indicator, e.g. "● Connected to Testing".
func RenderConnection(state connectors.ConnectionState, device string) string {
	symbol, color := connectionSymbol(state)
	label := ConnectionLabel(state)
	if device != "" {
		switch state {
		case connectors.ConnectionStateConnected:
			label += " to " + device
		case connectors.ConnectionStateConnecting:
			label += " to " + device + "..."
		}
	}

	return lipgloss.NewStyle().Foreground(color).Render(symbol) + " " + label
}

// StatusColor is red while alerting, green for a normal drip and yellow otherwise.
func StatusColor(status domain.DripStatus) lipgloss.Color {
	switch {
	case status.Alerting():
		return ColorError
	case status.Kind == domain.DripNormal:
		return ColorSuccess
	default:
		return ColorWarning
	}
}

// RenderStatus renders the icon and title banner of a drip status.
func RenderStatus(status domain.DripStatus) string {
	color := StatusColor(status)
	banner := lipgloss.NewStyle().Bold(true).Foreground(color).Render(status.Title())

	return StatusIcon(status) + "  " + banner
}
