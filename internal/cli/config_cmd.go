package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/skobkin/dripmon/internal/app"
	"github.com/skobkin/dripmon/internal/config"
)

var configInitForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the config file",
}

// configInitCmd writes the default config
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the defaults",
	Long: `Write config.yaml with the default settings and device catalog.

Examples:
  dripmon config init
  dripmon config init --force
  dripmon config init --config ./ward.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, err := app.ResolvePaths()
		if err != nil {
			return err
		}
		path := paths.WithConfigFile(configFlag).ConfigFile

		if _, err := os.Stat(path); err == nil && !configInitForce {
			return fmt.Errorf("config %s already exists (use --force to overwrite)", path)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("stat config: %w", err)
		}

		if err := config.Save(path, config.Default()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)

		return nil
	},
}

// configShowCmd prints the effective config
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective config after env and file overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		paths, cfg, err := app.LoadConfig(runtimeOptions(nil, nil))
		if err != nil {
			return err
		}
		raw, err := yaml.Marshal(cfg)
		if err != nil {
			return fmt.Errorf("encode config: %w", err)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n", paths.ConfigFile)
		_, err = out.Write(raw)

		return err
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing config file")
}
