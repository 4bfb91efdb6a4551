package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/skobkin/dripmon/internal/alert"
	"github.com/skobkin/dripmon/internal/app"
	"github.com/skobkin/dripmon/internal/config"
	"github.com/skobkin/dripmon/internal/connectors"
	"github.com/skobkin/dripmon/internal/domain"
)

const eventTimeLayout = "15:04:05"

// formatEvent renders one bus event as a watch log line.
func formatEvent(event any) string {
	switch e := event.(type) {
	case connectors.ConnectionStatus:
		line := fmt.Sprintf("%s connection %s", stamp(e.Timestamp), e.State.String())
		if where := strings.TrimSpace(e.TransportName + " " + e.Target); where != "" {
			line += " [" + where + "]"
		}
		if e.Err != "" {
			line += ": " + e.Err
		}

		return line
	case domain.DripReading:
		line := fmt.Sprintf("%s %s %s", stamp(e.At), e.Status.Title(), e.Device)
		if e.Status.Kind == domain.DripNormal && e.Status.HasRate {
			line += fmt.Sprintf(" rate=%d", e.Status.Rate)
		}

		return line + fmt.Sprintf(" raw=%q", e.Raw)
	case alert.Transition:
		if e.Alerting() {
			return fmt.Sprintf("%s ALARM %s %s", stamp(e.At), e.Status.Title(), e.Device)
		}

		return fmt.Sprintf("%s alarm cleared %s (%s)", stamp(e.At), e.Device, e.Status.Title())
	case app.SessionInfo:
		return fmt.Sprintf("%s session %s via %s %s", stamp(e.At), e.Device.DisplayName(), e.Transport, e.Target)
	default:
		return fmt.Sprintf("%s event %T", stamp(time.Time{}), event)
	}
}

// interruptSummary is the last watch line after an interrupt. Without a
// status it names the connector the config would have used.
func interruptSummary(device domain.Device, status connectors.ConnectionStatus, known bool, cfg config.ConnectionConfig) string {
	state := "not connected"
	if known {
		state = status.State.String()
	}
	transport := status.TransportName
	if transport == "" {
		transport = app.TransportNameFromConnector(cfg.Connector)
	}
	target := status.Target
	if target == "" {
		target = app.ConnectionTarget(cfg, device)
	}

	line := fmt.Sprintf("%s interrupted %s via %s", stamp(time.Time{}), device.DisplayName(), transport)
	if target != "" {
		line += " " + target
	}

	return line + " (" + state + ")"
}

func stamp(at time.Time) string {
	if at.IsZero() {
		at = time.Now()
	}

	return at.Format(eventTimeLayout)
}
