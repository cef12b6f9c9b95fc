// Package commands implements the CLI commands for the assetstream daemon.
package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "assetstream",
	Short: "assetstream - Frame-budgeted asset streaming engine",
	Long: `assetstream hosts a frame-budgeted streaming and eviction engine for
real-time renderers. It loads assets in the slack time of each frame,
keeps resident memory under a tiered budget, and recycles evicted
payloads through a bounded pool.

Use "assetstream [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/assetstream/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
}

// GetConfigFile returns the --config flag value, empty when unset.
func GetConfigFile() string {
	return cfgFile
}
