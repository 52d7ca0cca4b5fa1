// Huectl is a command line client for Hue-compatible lighting bridges.
//
// It provides bridge discovery over SSDP and mDNS, interactive pairing,
// and direct commands for listing and controlling lights. Paired bridges
// and their usernames are remembered in a local config file.
//
// Usage:
//
//	huectl [command] [flags]
//
// Running without arguments launches the interactive pairing flow.
// See 'huectl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/huectl/huectl/internal/logging"
	"github.com/huectl/huectl/internal/version"
)

func main() {
	logging.InitializeFromEnv()
	defer logging.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "huectl",
	Short: "Hue Bridge Control Utility",
	Long: `A command line client for Hue-compatible lighting bridges.

Provides bridge discovery, interactive pairing, and direct commands
for listing and controlling lights.

If no command is specified, the interactive pairing flow launches
automatically.`,
	Version: version.Version,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: pair interactively when no subcommand provided
		return runPair(cmd, args)
	},
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("huectl %s (commit: %s)\n", version.Version, version.Commit)
	},
}
