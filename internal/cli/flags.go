package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/skobkin/dripmon/internal/config"
)

// sessionFlags override the connection and alert config for one run.
type sessionFlags struct {
	timeout    time.Duration
	connector  string
	serialPort string
	serialBaud int
	noSound    bool
	notify     bool
	history    bool
}

func addSessionFlags(cmd *cobra.Command, f *sessionFlags) {
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "connect timeout, e.g. 5s (default from config)")
	cmd.Flags().StringVar(&f.connector, "connector", "", "connector: websocket or serial")
	cmd.Flags().StringVar(&f.serialPort, "serial-port", "", "serial port of a wired sensor, e.g. /dev/ttyUSB0")
	cmd.Flags().IntVar(&f.serialBaud, "serial-baud", 0, "serial baud rate")
	cmd.Flags().BoolVar(&f.noSound, "no-sound", false, "do not play the alarm tone")
	cmd.Flags().BoolVar(&f.notify, "notify", false, "raise desktop notifications")
	cmd.Flags().BoolVar(&f.history, "history", false, "record readings and alarms to the history journal")
}

// apply copies the flags the user set into cfg.
func (f sessionFlags) apply(cfg *config.AppConfig, changed func(name string) bool) {
	if f.timeout > 0 {
		cfg.Connection.TimeoutMS = int(f.timeout / time.Millisecond)
	}
	if f.connector != "" {
		cfg.Connection.Connector = config.ConnectorType(f.connector)
	}
	if f.serialPort != "" {
		cfg.Connection.SerialPort = f.serialPort
	}
	if f.serialBaud > 0 {
		cfg.Connection.SerialBaud = f.serialBaud
	}
	if f.noSound {
		cfg.Alert.Sound = false
	}
	if changed("notify") {
		cfg.Alert.Notify = f.notify
	}
	if changed("history") {
		cfg.History.Enabled = f.history
	}
}

func sessionOverride(cmd *cobra.Command, f *sessionFlags) func(*config.AppConfig) {
	return func(cfg *config.AppConfig) {
		f.apply(cfg, cmd.Flags().Changed)
	}
}
