package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/skobkin/dripmon/internal/app"
)

// versionShort controls whether to show short or full version output
var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash and build date of dripmon.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		build := app.CurrentBuild()
		if versionShort {
			fmt.Fprintln(out, build.Version)
			return
		}

		fmt.Fprintf(out, "%s %s\n", app.Name, build)
		fmt.Fprintf(out, "go: %s\n", runtime.Version())
		fmt.Fprintf(out, "os/arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Print only the version number")
}
