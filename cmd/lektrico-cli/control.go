package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/muurk/lektrico/internal/logging"
	"github.com/muurk/lektrico/internal/ui"
	"github.com/muurk/lektrico/pkg/lektrico"
)

// errRefused is returned when the device answered a command with false.
var errRefused = errors.New("command refused by device")

var assumeYes bool

func init() {
	chargeCmd.AddCommand(chargeStartCmd)
	chargeCmd.AddCommand(chargeStopCmd)

	resetCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")

	setCmd.AddCommand(setAuthCmd)
	setCmd.AddCommand(setLEDCmd)
	setCmd.AddCommand(setDynamicCurrentCmd)
	setCmd.AddCommand(setUserCurrentCmd)
	setCmd.AddCommand(setLockCmd)
	setCmd.AddCommand(setLBModeCmd)

	rootCmd.AddCommand(chargeCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(setCmd)
}

// commandResult is the JSON form of a command outcome
type commandResult struct {
	Device   string `json:"device"`
	Command  string `json:"command"`
	Value    string `json:"value,omitempty"`
	Accepted bool   `json:"accepted"`
}

// runDeviceCommand sends one command and reports the outcome. value is the
// human-readable argument, empty for commands without one.
func runDeviceCommand(cmd *cobra.Command, title, value string, send func(context.Context, *lektrico.Client) (bool, error)) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.client.Close()

	accepted, err := send(cmd.Context(), s.client)
	logging.LogCommand(s.target.Host, title, accepted, err)
	if err != nil {
		return fmt.Errorf("%s on %s: %w", strings.ToLower(title), s.label(), err)
	}

	out := cmd.OutOrStdout()
	if outputFormat == formatJSON {
		if err := printJSON(out, commandResult{Device: s.label(), Command: title, Value: value, Accepted: accepted}); err != nil {
			return err
		}
	} else {
		details := []ui.Param{{Key: "Device", Value: s.label()}}
		if value != "" {
			details = append(details, ui.Param{Key: "Value", Value: value})
		}
		if accepted {
			fmt.Fprintln(out, ui.RenderSuccess(title+" accepted", details...))
		} else {
			fmt.Fprintln(out, ui.RenderWarning(title+" refused by device", details...))
		}
	}

	if !accepted {
		return errRefused
	}
	return nil
}

var chargeCmd = &cobra.Command{
	Use:   "charge",
	Short: "Start or stop a charging session",
}

var chargeStartCmd = &cobra.Command{
	Use:     "start",
	Short:   "Start charging",
	Example: `  lektrico-cli charge start --device garage`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeviceCommand(cmd, "Charge start", "", func(ctx context.Context, c *lektrico.Client) (bool, error) {
			return c.SendChargeStart(ctx)
		})
	},
}

var chargeStopCmd = &cobra.Command{
	Use:     "stop",
	Short:   "Stop charging",
	Example: `  lektrico-cli charge stop --device garage`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDeviceCommand(cmd, "Charge stop", "", func(ctx context.Context, c *lektrico.Client) (bool, error) {
			return c.SendChargeStop(ctx)
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reboot the device",
	Long: `Ask the device to reboot. Any running charging session is interrupted
and the device is unreachable until it has restarted.`,
	Example: `  lektrico-cli reset --device garage
  lektrico-cli reset --device garage --yes`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func runReset(cmd *cobra.Command, args []string) error {
	if deviceFlag == "" {
		return fmt.Errorf("no device specified, use --device <host|name>")
	}
	if !assumeYes {
		warnings := []string{
			"The device " + deviceFlag + " will reboot",
			"A running charging session will be interrupted",
		}
		if !ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "DEVICE RESET", warnings) {
			return nil
		}
	}
	return runDeviceCommand(cmd, "Device reset", "", func(ctx context.Context, c *lektrico.Client) (bool, error) {
		return c.SendReset(ctx)
	})
}

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change charger or energy meter settings",
}

var setAuthCmd = &cobra.Command{
	Use:   "auth <on|off>",
	Short: "Require authorisation before charging",
	Long: `Turn charging authorisation on or off. With authorisation off the
charger starts a session as soon as a vehicle is connected.`,
	Example: `  lektrico-cli set auth off --device garage`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		enabled, err := parseSwitch(args[0])
		if err != nil {
			return err
		}
		return runDeviceCommand(cmd, "Set authorisation", onOff(enabled), func(ctx context.Context, c *lektrico.Client) (bool, error) {
			return c.SetAuth(ctx, enabled)
		})
	},
}

var setLEDCmd = &cobra.Command{
	Use:     "led <percent>",
	Short:   fmt.Sprintf("Set the maximum LED brightness (%d-%d)", lektrico.MinLEDMaxBrightness, lektrico.MaxLEDMaxBrightness),
	Example: `  lektrico-cli set led 60 --device garage`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		percent, err := parseInt("brightness", args[0])
		if err != nil {
			return err
		}
		return runDeviceCommand(cmd, "Set LED brightness", fmt.Sprintf("%d%%", percent), func(ctx context.Context, c *lektrico.Client) (bool, error) {
			return c.SetLEDMaxBrightness(ctx, percent)
		})
	},
}

var setDynamicCurrentCmd = &cobra.Command{
	Use:   "dynamic-current <amps>",
	Short: fmt.Sprintf("Set the dynamic current limit (%d-%d A)", lektrico.MinDynamicCurrent, lektrico.MaxDynamicCurrent),
	Long: `Set the dynamic current limit of the charger. A limit of 0 pauses
charging without ending the session.`,
	Example: `  lektrico-cli set dynamic-current 16 --device garage`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amps, err := parseInt("current", args[0])
		if err != nil {
			return err
		}
		return runDeviceCommand(cmd, "Set dynamic current", fmt.Sprintf("%d A", amps), func(ctx context.Context, c *lektrico.Client) (bool, error) {
			return c.SetDynamicCurrent(ctx, amps)
		})
	},
}

var setUserCurrentCmd = &cobra.Command{
	Use:     "user-current <amps>",
	Short:   fmt.Sprintf("Set the user current limit (%d-%d A)", lektrico.MinUserCurrent, lektrico.MaxUserCurrent),
	Example: `  lektrico-cli set user-current 20 --device garage`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		amps, err := parseInt("current", args[0])
		if err != nil {
			return err
		}
		return runDeviceCommand(cmd, "Set user current", fmt.Sprintf("%d A", amps), func(ctx context.Context, c *lektrico.Client) (bool, error) {
			return c.SetUserCurrent(ctx, amps)
		})
	},
}

var setLockCmd = &cobra.Command{
	Use:     "lock <on|off>",
	Short:   "Lock or unlock the charger",
	Example: `  lektrico-cli set lock on --device garage`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		locked, err := parseSwitch(args[0])
		if err != nil {
			return err
		}
		return runDeviceCommand(cmd, "Set charger lock", onOff(locked), func(ctx context.Context, c *lektrico.Client) (bool, error) {
			return c.SetChargerLocked(ctx, locked)
		})
	},
}

var setLBModeCmd = &cobra.Command{
	Use:   "lb-mode <off|power|hybrid|green>",
	Short: "Set the load balancing mode of an energy meter",
	Long: `Set the load balancing mode of an energy meter:

  off     no load balancing
  power   keep the total load under the breaker rating
  hybrid  charge from solar surplus plus a grid share
  green   charge from solar surplus only`,
	Example: `  lektrico-cli set lb-mode green --device meter`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := lektrico.ParseLBMode(args[0])
		if err != nil {
			return err
		}
		return runDeviceCommand(cmd, "Set load balancing mode", mode.String(), func(ctx context.Context, c *lektrico.Client) (bool, error) {
			return c.SetLoadBalancingMode(ctx, mode)
		})
	},
}

// parseSwitch accepts on/off, true/false, yes/no and 1/0
func parseSwitch(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "yes":
		return true, nil
	case "off", "no":
		return false, nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid value %q (use on or off)", s)
	}
	return v, nil
}

func parseInt(name, s string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be a whole number", name, s)
	}
	return v, nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
