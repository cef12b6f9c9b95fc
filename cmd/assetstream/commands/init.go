package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lattice3d/assetstream/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample assetstream configuration file.

By default, the configuration file is created at
$XDG_CONFIG_HOME/assetstream/config.yaml. Use --config to specify a
custom path.

Examples:
  # Initialize with default location
  assetstream init

  # Initialize with custom path
  assetstream init --config /etc/assetstream/config.yaml

  # Force overwrite existing config
  assetstream init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	path := GetConfigFile()
	if path == "" {
		path = config.GetDefaultConfigPath()
	}

	if !initForce {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
		}
	}

	if err := config.SaveConfig(config.GetDefaultConfig(), path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the engine with: assetstream run")
	return nil
}
