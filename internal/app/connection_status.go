package app

import (
	"strings"

	"github.com/skobkin/dripmon/internal/config"
	"github.com/skobkin/dripmon/internal/domain"
)

// TransportNameFromConnector names the transport a connector type selects.
func TransportNameFromConnector(connector config.ConnectorType) string {
	switch connector {
	case config.ConnectorWebSocket:
		return "websocket"
	case config.ConnectorSerial:
		return "serial"
	default:
		if value := strings.TrimSpace(string(connector)); value != "" {
			return value
		}
		return "unknown"
	}
}

// ConnectionTarget describes where a connect attempt to device will go.
func ConnectionTarget(cfg config.ConnectionConfig, device domain.Device) string {
	switch cfg.Connector {
	case config.ConnectorWebSocket:
		if device.Endpoint.Host == "" {
			return ""
		}
		return device.Endpoint.URL()
	case config.ConnectorSerial:
		return strings.TrimSpace(cfg.SerialPort)
	default:
		return ""
	}
}
