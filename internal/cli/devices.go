package cli

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/skobkin/dripmon/internal/app"
	"github.com/skobkin/dripmon/internal/domain"
	"github.com/skobkin/dripmon/internal/ui"
)

// devicesCmd lists the static device catalog
var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List known drip sensors",
	Long: `List the drip sensors from the device catalog.

The catalog comes from the devices section of the config file. Any ID,
name or host:port shown here can be passed to monitor and watch.

Examples:
  dripmon devices
  dripmon devices --config ./ward.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, cfg, err := app.LoadConfig(runtimeOptions(nil, nil))
		if err != nil {
			return err
		}

		def, hasDefault := domain.FindDevice(cfg.DeviceCatalog(), cfg.Connection.Device)
		fmt.Fprintln(cmd.OutOrStdout(), renderDevices(cfg.DeviceCatalog(), def.ID, hasDefault))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func renderDevices(devices []domain.Device, defaultID int, hasDefault bool) string {
	rows := make([][]string, 0, len(devices))
	for _, d := range devices {
		mark := ""
		if hasDefault && d.ID == defaultID {
			mark = "default"
		}
		rows = append(rows, []string{strconv.Itoa(d.ID), d.DisplayName(), d.Endpoint.URL(), mark})
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ui.ColorMuted)).
		Headers("ID", "NAME", "URL", "").
		Rows(rows...).
		String()
}
