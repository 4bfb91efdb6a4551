package cli

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/skobkin/dripmon/internal/app"
	"github.com/skobkin/dripmon/internal/bus"
	"github.com/skobkin/dripmon/internal/connectors"
	"github.com/skobkin/dripmon/internal/ui"
)

var monitorFlags sessionFlags

// monitorCmd runs the full screen bedside monitor
var monitorCmd = &cobra.Command{
	Use:   "monitor [device]",
	Short: "Connect to a drip sensor and show its status",
	Long: `Connect to a drip sensor and show the drip status it reports.

The alarm tone plays while the drip is stopped or blocked. Without a device
argument a picker lists the device catalog. If the connection cannot be
established the reason is printed and the command exits; run it again to
retry.

Examples:
  dripmon monitor
  dripmon monitor Testing
  dripmon monitor 1 --timeout 10s
  dripmon monitor --connector serial --serial-port /dev/ttyUSB0`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return monitorCommand(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(monitorCmd)
	addSessionFlags(monitorCmd, &monitorFlags)
}

func monitorCommand(cmd *cobra.Command, args []string) error {
	// The alt screen owns the terminal, so logs only go to the log file.
	rt, err := app.Initialize(cmd.Context(), runtimeOptions(io.Discard, sessionOverride(cmd, &monitorFlags)))
	if err != nil {
		return err
	}
	defer func() {
		_ = rt.Close()
	}()

	device, err := chooseDevice(rt.Config, args, true)
	if err != nil {
		return err
	}
	unlock, err := lockDevice(rt.Config, device, rt.LogManager.Logger("cli"))
	if err != nil {
		return err
	}
	defer unlock()

	events := rt.Bus.Subscribe(connectors.TopicConnStatus, connectors.TopicDripStatus, connectors.TopicAlertState)
	defer bus.UnsubscribeDrained(rt.Bus, events)

	if err := rt.Session.Connect(rt.Ctx, device); err != nil {
		return err
	}

	model := ui.NewMonitorModel(rt.Ctx, rt.Session, device, events)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(rt.Ctx))
	if _, err := p.Run(); err != nil && rt.Ctx.Err() == nil {
		return err
	}

	return nil
}
