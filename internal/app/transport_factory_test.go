package app

import (
	"testing"

	"github.com/skobkin/dripmon/internal/config"
	"github.com/skobkin/dripmon/internal/domain"
	"github.com/skobkin/dripmon/internal/transport"
)

func TestNewTransportFactory(t *testing.T) {
	endpoint := domain.DeviceEndpoint{Host: "127.0.0.1", Port: 8000}
	tests := []struct {
		name       string
		cfg        config.ConnectionConfig
		wantName   string
		wantTarget string
	}{
		{
			name:       "websocket",
			cfg:        config.ConnectionConfig{Connector: config.ConnectorWebSocket},
			wantName:   "websocket",
			wantTarget: "ws://127.0.0.1:8000/ws",
		},
		{
			name:       "serial",
			cfg:        config.ConnectionConfig{Connector: config.ConnectorSerial, SerialPort: "/dev/ttyACM0", SerialBaud: 9600},
			wantName:   "serial",
			wantTarget: "/dev/ttyACM0@9600",
		},
	}

	for _, tc := range tests {
		factory, err := NewTransportFactory(tc.cfg)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		tr, err := factory(endpoint)
		if err != nil {
			t.Fatalf("%s: build transport: %v", tc.name, err)
		}
		if tr.Name() != tc.wantName {
			t.Fatalf("%s: expected transport %q, got %q", tc.name, tc.wantName, tr.Name())
		}
		resolver, ok := tr.(transport.StatusTargetResolver)
		if !ok {
			t.Fatalf("%s: transport does not report a status target", tc.name)
		}
		if got := resolver.StatusTarget(); got != tc.wantTarget {
			t.Fatalf("%s: expected target %q, got %q", tc.name, tc.wantTarget, got)
		}
	}
}

func TestNewTransportFactoryRejectsUnknownConnector(t *testing.T) {
	if _, err := NewTransportFactory(config.ConnectionConfig{Connector: "bluetooth"}); err == nil {
		t.Fatalf("expected error for unknown connector")
	}
}

func TestWebSocketFactoryRejectsInvalidEndpoint(t *testing.T) {
	factory, err := NewTransportFactory(config.ConnectionConfig{Connector: config.ConnectorWebSocket})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := factory(domain.DeviceEndpoint{Host: "10.0.0.1", Port: 0}); err == nil {
		t.Fatalf("expected error for invalid endpoint")
	}
}
