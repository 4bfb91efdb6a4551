package domain

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

const (
	DeviceWebSocketPath = "/ws"
	DefaultDevicePort   = 8000
)

// DeviceEndpoint is the network address of a drip sensor.
type DeviceEndpoint struct {
	Host string
	Port int
}

func (e DeviceEndpoint) Address() string {
	return net.JoinHostPort(strings.TrimSpace(e.Host), strconv.Itoa(e.Port))
}

// URL returns the websocket URL the sensor serves its status stream on.
func (e DeviceEndpoint) URL() string {
	u := url.URL{
		Scheme: "ws",
		Host:   e.Address(),
		Path:   DeviceWebSocketPath,
	}

	return u.String()
}

func (e DeviceEndpoint) Validate() error {
	if strings.TrimSpace(e.Host) == "" {
		return errors.New("device host is required")
	}
	if e.Port <= 0 || e.Port > 65535 {
		return fmt.Errorf("device port out of range: %d", e.Port)
	}

	return nil
}

type Device struct {
	ID       int
	Name     string
	Endpoint DeviceEndpoint
}

func (d Device) DisplayName() string {
	if name := strings.TrimSpace(d.Name); name != "" {
		return name
	}
	if host := strings.TrimSpace(d.Endpoint.Host); host != "" {
		return d.Endpoint.Address()
	}

	return fmt.Sprintf("device #%d", d.ID)
}

// DefaultDevices is the static catalog used when no devices are configured.
func DefaultDevices() []Device {
	return []Device{
		{ID: 1, Name: "Smart IV monitoring device", Endpoint: DeviceEndpoint{Host: "192.168.194.50", Port: DefaultDevicePort}},
		{ID: 2, Name: "Testing", Endpoint: DeviceEndpoint{Host: "192.168.194.195", Port: DefaultDevicePort}},
	}
}

// FindDevice looks a device up by numeric ID, name (case-insensitive) or host:port.
func FindDevice(devices []Device, key string) (Device, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return Device{}, false
	}
	if id, err := strconv.Atoi(key); err == nil {
		for _, d := range devices {
			if d.ID == id {
				return d, true
			}
		}
	}
	for _, d := range devices {
		if strings.EqualFold(strings.TrimSpace(d.Name), key) {
			return d, true
		}
	}
	for _, d := range devices {
		if d.Endpoint.Address() == key {
			return d, true
		}
	}

	return Device{}, false
}
