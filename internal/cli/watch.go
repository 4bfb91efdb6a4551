package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skobkin/dripmon/internal/app"
	"github.com/skobkin/dripmon/internal/bus"
	"github.com/skobkin/dripmon/internal/connectors"
)

var watchFlags sessionFlags

// watchCmd monitors without a UI
var watchCmd = &cobra.Command{
	Use:   "watch [device]",
	Short: "Monitor a drip sensor headlessly and log every event",
	Long: `Connect to a drip sensor and print one line per connection change,
drip status and alarm transition until interrupted.

The alarm tone still plays while the drip is stopped or blocked. Without a
device argument the configured default device (or the first one in the
catalog) is used. The command exits when the connection ends.

Examples:
  dripmon watch
  dripmon watch Testing --no-sound
  dripmon watch 2 --history --notify`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return watchCommand(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addSessionFlags(watchCmd, &watchFlags)
}

func watchCommand(cmd *cobra.Command, args []string) error {
	rt, err := app.Initialize(cmd.Context(), runtimeOptions(nil, sessionOverride(cmd, &watchFlags)))
	if err != nil {
		return err
	}
	defer func() {
		_ = rt.Close()
	}()

	device, err := chooseDevice(rt.Config, args, false)
	if err != nil {
		return err
	}
	unlock, err := lockDevice(rt.Config, device, rt.LogManager.Logger("cli"))
	if err != nil {
		return err
	}
	defer unlock()

	events := rt.Bus.Subscribe(
		connectors.TopicConnStatus,
		connectors.TopicDripStatus,
		connectors.TopicAlertState,
		connectors.TopicSessionInfo,
	)
	defer bus.UnsubscribeDrained(rt.Bus, events)

	if err := rt.Session.Connect(rt.Ctx, device); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for {
		select {
		case <-rt.Ctx.Done():
			status, known := rt.CurrentConnStatus()
			fmt.Fprintln(out, interruptSummary(device, status, known, rt.Config.Connection))

			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			fmt.Fprintln(out, formatEvent(event))

			if done, err := connectionEnded(event); done {
				return err
			}
		}
	}
}

// connectionEnded reports whether event closes the watched connection and
// whether that is an error.
func connectionEnded(event any) (bool, error) {
	status, ok := event.(connectors.ConnectionStatus)
	if !ok {
		return false, nil
	}
	switch status.State {
	case connectors.ConnectionStateFailed:
		reason := status.Err
		if reason == "" {
			reason = "unknown error"
		}

		return true, errors.New("connection lost: " + reason)
	case connectors.ConnectionStateDisconnected:
		return true, nil
	default:
		return false, nil
	}
}
