package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/skobkin/dripmon/internal/app"
	"github.com/skobkin/dripmon/internal/config"
	"github.com/skobkin/dripmon/internal/ui"
)

// Global flags
var (
	configFlag   string
	envFileFlag  string
	logLevelFlag string
)

var errorStyle = lipgloss.NewStyle().Foreground(ui.ColorError)

var rootCmd = &cobra.Command{
	Use:   "dripmon",
	Short: "Bedside monitor for smart IV drip sensors",
	Long: `dripmon connects to a smart IV drip sensor, shows the drip status it
reports and sounds an alarm while the drip is stopped or blocked.

Examples:
  dripmon devices
  dripmon monitor
  dripmon monitor Testing
  dripmon watch 1 --history`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFlag, "config", "", "config file (default is config.yaml in the user config dir)")
	rootCmd.PersistentFlags().StringVar(&envFileFlag, "env-file", "", "dotenv file with DRIPMON_* overrides (default .env)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level: debug, info, warn or error")
}

// Execute runs the command line and returns the process exit code.
func Execute(ctx context.Context) int {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))

		return 1
	}

	return 0
}

// SetVersionInfo sets the version information (called from main).
func SetVersionInfo(version, commit, date string) {
	app.Version = version
	app.Commit = commit
	app.BuildDate = date
}

func runtimeOptions(console io.Writer, override func(*config.AppConfig)) app.Options {
	return app.Options{
		ConfigFile: configFlag,
		EnvFile:    envFileFlag,
		Console:    console,
		Override: func(cfg *config.AppConfig) {
			if logLevelFlag != "" {
				cfg.Logging.Level = logLevelFlag
			}
			if override != nil {
				override(cfg)
			}
		},
	}
}
