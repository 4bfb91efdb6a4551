package ui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/skobkin/dripmon/internal/domain"
)

var ErrNoDevices = errors.New("no devices configured")

// DeviceOptions builds picker options; the preferred device is marked as default.
func DeviceOptions(devices []domain.Device, preferred string) []huh.Option[int] {
	def, hasDefault := domain.FindDevice(devices, preferred)

	options := make([]huh.Option[int], len(devices))
	for i, d := range devices {
		label := fmt.Sprintf("%s - %s", d.DisplayName(), d.Endpoint.Address())
		if hasDefault && d.ID == def.ID {
			label += " (default)"
		}
		options[i] = huh.NewOption(label, i)
	}

	return options
}

// PickDevice asks the user to choose a device from the catalog.
func PickDevice(devices []domain.Device, preferred string) (domain.Device, error) {
	if len(devices) == 0 {
		return domain.Device{}, ErrNoDevices
	}

	selected := 0
	for i, d := range devices {
		if def, ok := domain.FindDevice(devices, preferred); ok && d.ID == def.ID {
			selected = i
			break
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[int]().
				Title("Select device to monitor").
				Options(DeviceOptions(devices, preferred)...).
				Value(&selected),
		),
	)
	if err := form.Run(); err != nil {
		return domain.Device{}, fmt.Errorf("select device: %w", err)
	}

	return devices[selected], nil
}
