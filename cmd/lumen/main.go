// Lumen is the core daemon of the lumen desktop shell.
//
// It owns the bar's configuration tree with live reload and the
// OS-integration services: network, bluetooth, audio, battery,
// brightness, and the notification daemon. The GUI layer attaches on
// top of this process; running it standalone is mostly useful for
// development and for validating configuration files.
//
// Usage:
//
//	lumen [command] [flags]
//
// Running without arguments starts the daemon.
// See 'lumen --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lumenshell/lumen/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lumen",
	Short: "Lumen Desktop Shell Core",
	Long: `The core daemon of the lumen desktop shell.

Owns the configuration tree with live reload and the OS-integration
services (network, bluetooth, audio, battery, brightness, notification
daemon). If no command is specified, the daemon starts.`,
	Version: version.Version,
	RunE:    runDaemon,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(checkConfigCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("lumen %s (commit: %s)\n", version.Version, version.Commit)
	},
}
