// Lektrico-cli controls Lektrico EV chargers and energy meters over their
// local HTTP API.
//
// It reads device identity and live telemetry, sends charging commands,
// changes charger settings, keeps a registry of named devices, and can run
// a live dashboard or a Prometheus exporter.
//
// Usage:
//
//	lektrico-cli [command] [flags]
//
// See 'lektrico-cli --help' for available commands.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/muurk/lektrico/internal/logging"
	"github.com/muurk/lektrico/internal/ui"
	"github.com/muurk/lektrico/internal/version"
	"github.com/muurk/lektrico/pkg/lektrico"
)

const appName = "lektrico-cli"

// Exit codes
const (
	exitError   = 1
	exitRefused = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	logging.Sync()

	if err != nil {
		os.Exit(reportError(err))
	}
}

// reportError prints err to stderr and returns the process exit code.
func reportError(err error) int {
	switch {
	case errors.Is(err, errRefused):
		// The warning box has already been printed
		return exitRefused
	case errors.As(err, new(*lektrico.DeviceError)):
		fmt.Fprintln(os.Stderr, ui.RenderError("Device request failed", err))
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return exitError
}

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Lektrico charger and energy meter utility",
	Long: `A command line client for the local HTTP API of Lektrico EV chargers
(1p7k, 3p22k) and energy meters (em, 3em).

Devices are addressed with --device, either by IP address or hostname or by
a name saved with 'lektrico-cli devices add'. The device type is read from
the device when it is not known.`,
	Version:           version.Version,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(versionCmd)
}

// setup initializes logging and checks the global flags
func setup(cmd *cobra.Command, args []string) error {
	if err := logging.Initialize(logLevel); err != nil {
		return err
	}
	switch outputFormat {
	case formatDetailed, formatCompact, formatJSON:
	default:
		return fmt.Errorf("invalid --format %q (use detailed, compact or json)", outputFormat)
	}
	if timeout < 0 {
		return fmt.Errorf("--timeout must not be negative")
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", appName, version.Full())
	},
}
