package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/lektrico/internal/config"
	"github.com/muurk/lektrico/internal/logging"
	"github.com/muurk/lektrico/pkg/lektrico"
)

// Output formats
const (
	formatDetailed = "detailed"
	formatCompact  = "compact"
	formatJSON     = "json"
)

// Global flags
var (
	deviceFlag   string
	typeFlag     string
	timeout      time.Duration
	outputFormat string
	logLevel     string
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&deviceFlag, "device", "d", "", "Device IP address, hostname or registry name")
	rootCmd.PersistentFlags().StringVar(&typeFlag, "type", "", "Device type (1p7k, 3p22k, em, 3em); read from the device when omitted")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Request timeout (default from config, 8s)")
	rootCmd.PersistentFlags().StringVar(&outputFormat, "format", formatDetailed, "Output format (detailed, compact, json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent when unset")

	rootCmd.AddCommand(identifyCmd)
	rootCmd.AddCommand(infoCmd)
}

// session is a resolved device with a client ready to use.
type session struct {
	registry *config.Registry
	target   *config.Target
	client   *lektrico.Client
}

// label names the device for output: "garage (192.168.1.20)" or the host.
func (s *session) label() string {
	if s.target.Name == "" {
		return s.target.Host
	}
	return fmt.Sprintf("%s (%s)", s.target.Name, s.target.Host)
}

// openSession resolves --device against the registry and creates a client.
// The caller must Close the client.
func openSession() (*session, error) {
	if deviceFlag == "" {
		return nil, fmt.Errorf("no device specified, use --device <host|name>")
	}

	registry, err := config.LoadRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	target := registry.Resolve(deviceFlag)
	if timeout > 0 {
		target.Timeout = timeout
	}
	if typeFlag != "" {
		t, err := lektrico.ParseDeviceType(typeFlag)
		if err != nil {
			return nil, err
		}
		target.Type = t
	}

	client := lektrico.NewClient(target.Host,
		lektrico.WithTimeout(target.Timeout),
		lektrico.WithLogger(logging.GetLogger()),
	)
	return &session{registry: registry, target: target, client: client}, nil
}

// deviceType returns the target's type, asking the device when unknown.
func (s *session) deviceType(ctx context.Context) (lektrico.DeviceType, error) {
	if s.target.Type != "" {
		return s.target.Type, nil
	}
	settings, err := s.identify(ctx)
	if err != nil {
		return "", err
	}
	return settings.Type, nil
}

// identify reads the device config and records it for registry devices.
func (s *session) identify(ctx context.Context) (*lektrico.Settings, error) {
	settings, err := s.client.DeviceConfig(ctx)
	if err != nil {
		return nil, err
	}
	s.target.Type = settings.Type

	if s.target.Name != "" {
		s.registry.UpdateDeviceSeen(s.target.Name, settings)
		if err := s.registry.Save(); err != nil {
			logging.Warn("Failed to update config: " + err.Error())
		}
	}
	return settings, nil
}

// formattable is implemented by Settings, ChargerInfo and MeterInfo
type formattable interface {
	FormatDetailed() string
}

// printValue writes v in the selected output format
func printValue(w io.Writer, v formattable, compact func() string) error {
	switch outputFormat {
	case formatJSON:
		return printJSON(w, v)
	case formatCompact:
		fmt.Fprintln(w, compact())
	default:
		fmt.Fprintln(w, v.FormatDetailed())
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// identifyCmd shows the device identity
var identifyCmd = &cobra.Command{
	Use:   "identify",
	Short: "Show device type, serial number and board revision",
	Long: `Read the device configuration endpoint and print the device identity.

For devices saved in the registry the reported type and serial number are
stored, so later commands do not need to ask again.`,
	Example: `  lektrico-cli identify --device 192.168.1.20
  lektrico-cli identify --device garage --format json`,
	Args: cobra.NoArgs,
	RunE: runIdentify,
}

func runIdentify(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.client.Close()

	settings, err := s.identify(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to identify %s: %w", s.label(), err)
	}
	return printValue(cmd.OutOrStdout(), settings, settings.String)
}

// infoCmd shows live telemetry
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show live charger or energy meter readings",
	Long: `Read one telemetry snapshot from the device.

Chargers report state, session, limits and faults. Energy meters report
per-phase power, the breaker rating and the load balancing mode.`,
	Example: `  lektrico-cli info --device 192.168.1.20
  lektrico-cli info --device garage --format compact
  lektrico-cli info --device 192.168.1.21 --type em --format json`,
	Args: cobra.NoArgs,
	RunE: runInfo,
}

func runInfo(cmd *cobra.Command, args []string) error {
	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.client.Close()

	deviceType, err := s.deviceType(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to identify %s: %w", s.label(), err)
	}

	info, err := s.client.DeviceInfo(cmd.Context(), deviceType)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", s.label(), err)
	}

	switch v := info.(type) {
	case *lektrico.ChargerInfo:
		return printValue(cmd.OutOrStdout(), v, v.FormatCompact)
	case *lektrico.MeterInfo:
		return printValue(cmd.OutOrStdout(), v, v.FormatCompact)
	default:
		return fmt.Errorf("unexpected telemetry type %T", info)
	}
}
