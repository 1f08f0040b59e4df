package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lumenshell/lumen/internal/app"
	"github.com/lumenshell/lumen/internal/config"
	"github.com/lumenshell/lumen/internal/keyfile"
	"github.com/lumenshell/lumen/internal/logging"
)

var (
	configPath string
	logLevel   string
	noDaemon   bool
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the shell core daemon",
	Long: `Start the shell core daemon.

The daemon loads the configuration file (writing a default one if it
does not exist), watches it for changes, and connects to the system
services. Services that cannot be reached at startup are skipped for
the session and logged.`,
	Example: `  # Start with the default configuration path
  lumen daemon

  # Start with verbose logging
  lumen daemon --log-level debug

  # Use an alternate configuration file
  lumen daemon --config ~/shells/test.ini

  # Leave the notification daemon role to another process
  lumen daemon --no-daemon`,
	RunE: runDaemon,
}

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, daemonCmd} {
		cmd.Flags().StringVar(&configPath, "config", "", "Path to the configuration file (default: $XDG_CONFIG_HOME/lumen/lumen.ini)")
		cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error; default: silent, or LUMEN_LOG_LEVEL)")
		cmd.Flags().BoolVar(&noDaemon, "no-daemon", false, "Do not claim the org.freedesktop.Notifications name")
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	defer logging.Sync()

	a, err := app.New(app.Options{
		ConfigPath: configPath,
		NoDaemon:   noDaemon,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logging.Info("Lumen core started")
	a.Run(ctx)
	logging.Info("Lumen core stopped")
	return nil
}

var checkConfigCmd = &cobra.Command{
	Use:   "check-config [file]",
	Short: "Validate a configuration file",
	Long: `Validate a configuration file.

Parses and loads the file the same way the daemon does. Invalid fields
are reported as warnings and fall back to their defaults; a malformed
file fails the check. Without an argument, the default per-user
configuration file is checked.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Field warnings must be visible even in silent mode.
		level := logLevel
		if level == "" && os.Getenv(logging.LogLevelEnvVar) == "" {
			level = "warn"
		}
		if err := logging.Initialize(level); err != nil {
			return err
		}
		defer logging.Sync()

		path := configPath
		if len(args) == 1 {
			path = args[0]
		}
		if path == "" {
			var err error
			if path, err = config.Path(); err != nil {
				return err
			}
		}

		store, err := keyfile.ParseFile(path)
		if err != nil {
			return fmt.Errorf("configuration is malformed: %w", err)
		}
		c := config.Load(store)
		fmt.Printf("%s: OK (%d panel items)\n", path, len(c.Panel.Items))
		return nil
	},
}

func init() {
	checkConfigCmd.Flags().StringVar(&configPath, "config", "", "Path to the configuration file")
	checkConfigCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level for validation warnings (default: warn)")
}
