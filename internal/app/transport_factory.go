package app

import (
	"fmt"

	"github.com/skobkin/dripmon/internal/config"
	"github.com/skobkin/dripmon/internal/conn"
	"github.com/skobkin/dripmon/internal/domain"
	"github.com/skobkin/dripmon/internal/transport"
)

// NewTransportFactory returns the per-attempt transport constructor for the
// configured connector. Serial sensors ignore the device endpoint.
func NewTransportFactory(cfg config.ConnectionConfig) (conn.TransportFactory, error) {
	switch cfg.Connector {
	case config.ConnectorWebSocket:
		return func(endpoint domain.DeviceEndpoint) (transport.Transport, error) {
			if err := endpoint.Validate(); err != nil {
				return nil, err
			}

			return transport.NewWebSocketTransport(endpoint.URL()), nil
		}, nil
	case config.ConnectorSerial:
		port, baud := cfg.SerialPort, cfg.SerialBaud
		return func(domain.DeviceEndpoint) (transport.Transport, error) {
			return transport.NewSerialTransport(port, baud), nil
		}, nil
	default:
		return nil, fmt.Errorf("unknown connector: %q", cfg.Connector)
	}
}
