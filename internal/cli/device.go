package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/skobkin/dripmon/internal/app"
	"github.com/skobkin/dripmon/internal/config"
	"github.com/skobkin/dripmon/internal/domain"
	"github.com/skobkin/dripmon/internal/platform"
	"github.com/skobkin/dripmon/internal/ui"
)

var pickDevice = ui.PickDevice

// chooseDevice resolves the device argument. Without one, interactive runs
// ask the user and headless runs fall back to the configured default or the
// first catalog entry.
func chooseDevice(cfg config.AppConfig, args []string, interactive bool) (domain.Device, error) {
	devices := cfg.DeviceCatalog()
	if len(devices) == 0 {
		return domain.Device{}, ui.ErrNoDevices
	}

	if len(args) > 0 {
		if d, ok := domain.FindDevice(devices, args[0]); ok {
			return d, nil
		}

		return domain.Device{}, fmt.Errorf("device %q not found (available: %s)", args[0], deviceNames(devices))
	}

	if interactive {
		return pickDevice(devices, cfg.Connection.Device)
	}

	preferred := strings.TrimSpace(cfg.Connection.Device)
	if preferred == "" {
		return devices[0], nil
	}
	if d, ok := domain.FindDevice(devices, preferred); ok {
		return d, nil
	}

	return domain.Device{}, fmt.Errorf("default device %q not found (available: %s)", preferred, deviceNames(devices))
}

func deviceNames(devices []domain.Device) string {
	names := make([]string, 0, len(devices))
	for _, d := range devices {
		names = append(names, fmt.Sprintf("%d:%s", d.ID, d.DisplayName()))
	}

	return strings.Join(names, ", ")
}

// lockDevice makes sure no other dripmon process monitors the same sensor.
// The returned func releases the lock.
func lockDevice(cfg config.AppConfig, device domain.Device, logger *slog.Logger) (func(), error) {
	key := app.ConnectionTarget(cfg.Connection, device)
	if key == "" {
		key = device.Endpoint.Address()
	}

	lock, err := platform.AcquireDeviceLock(app.Name, key)
	if errors.Is(err, platform.ErrDeviceLockUnsupported) {
		logger.Warn("device lock unavailable", "error", err)

		return func() {}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", device.DisplayName(), err)
	}

	return func() {
		if err := lock.Release(); err != nil {
			logger.Warn("release device lock", "error", err)
		}
	}, nil
}
