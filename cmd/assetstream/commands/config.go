package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lattice3d/assetstream/internal/cli/output"
	"github.com/lattice3d/assetstream/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage assetstream configuration files.

Use 'assetstream init' to create a new configuration file.

Subcommands:
  show      Display the resolved configuration
  validate  Validate a configuration file
  path      Print the default configuration path`,
}

var showOutput string

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the resolved configuration",
	Long: `Display the configuration as the engine would resolve it: file
values merged over defaults, with environment overrides applied.

Examples:
  # Show default config as YAML
  assetstream config show

  # Show as JSON
  assetstream config show --output json

  # Show a specific config file
  assetstream config show --config /etc/assetstream/config.yaml`,
	RunE: runConfigShow,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := config.MustLoad(GetConfigFile()); err != nil {
			return err
		}
		fmt.Println("Configuration is valid")
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the default configuration path",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(config.GetDefaultConfigPath())
	},
}

func init() {
	configShowCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configPathCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(GetConfigFile())
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(os.Stdout, cfg)
	default:
		return output.PrintYAML(os.Stdout, cfg)
	}
}
