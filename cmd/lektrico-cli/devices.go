package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/lektrico/internal/config"
	"github.com/muurk/lektrico/internal/exporter"
	"github.com/muurk/lektrico/internal/logging"
	"github.com/muurk/lektrico/internal/tui"
	"github.com/muurk/lektrico/pkg/lektrico"
)

// Registry, watch and export flags
var (
	addTimeout    time.Duration
	noProbe       bool
	watchInterval time.Duration
	exportListen  string
)

func init() {
	devicesAddCmd.Flags().DurationVar(&addTimeout, "device-timeout", 0, "Request timeout for this device")
	devicesAddCmd.Flags().BoolVar(&noProbe, "no-probe", false, "Save without contacting the device")

	devicesCmd.AddCommand(devicesAddCmd)
	devicesCmd.AddCommand(devicesListCmd)
	devicesCmd.AddCommand(devicesRemoveCmd)

	watchCmd.Flags().DurationVar(&watchInterval, "interval", tui.DefaultInterval, "Polling interval")
	exportCmd.Flags().StringVar(&exportListen, "listen", "", "Listen address (default from config, "+config.DefaultExporterListen+")")

	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(exportCmd)
}

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Manage named devices",
	Long: `Manage the device registry. Saved names can be used with --device
in place of an IP address.`,
}

var devicesAddCmd = &cobra.Command{
	Use:   "add <name> <host>",
	Short: "Save a device under a name",
	Example: `  lektrico-cli devices add garage 192.168.1.20
  lektrico-cli devices add meter 192.168.1.21 --type em --no-probe`,
	Args: cobra.ExactArgs(2),
	RunE: runDevicesAdd,
}

func runDevicesAdd(cmd *cobra.Command, args []string) error {
	name, host := args[0], args[1]

	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if registry.GetDevice(name) != nil {
		return fmt.Errorf("device %q already exists, remove it first", name)
	}

	device, err := registry.AddDevice(name, host, typeFlag)
	if err != nil {
		return err
	}
	device.Timeout = addTimeout

	out := cmd.OutOrStdout()
	if !noProbe {
		client := lektrico.NewClient(host,
			lektrico.WithTimeout(registry.Resolve(name).Timeout),
			lektrico.WithLogger(logging.GetLogger()),
		)
		defer client.Close()

		settings, err := client.DeviceConfig(cmd.Context())
		if err != nil {
			registry.RemoveDevice(name)
			return fmt.Errorf("failed to reach %s (use --no-probe to save anyway): %w", host, err)
		}
		if typeFlag != "" && settings.Type != device.DeviceType() {
			fmt.Fprintf(out, "Note: device reports type %s, not %s\n", settings.Type, typeFlag)
		}
		registry.UpdateDeviceSeen(name, settings)
	}

	if err := registry.Save(); err != nil {
		return err
	}

	path, _ := config.GetConfigPath()
	fmt.Fprintf(out, "Saved %s (%s) to %s\n", name, describeDevice(device), path)
	return nil
}

var devicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved devices",
	Args:  cobra.NoArgs,
	RunE:  runDevicesList,
}

func runDevicesList(cmd *cobra.Command, args []string) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	out := cmd.OutOrStdout()
	names := registry.DeviceNames()

	switch outputFormat {
	case formatJSON:
		return printJSON(out, registry.Devices)
	case formatCompact:
		for _, name := range names {
			fmt.Fprintf(out, "%s=%s\n", name, registry.GetDevice(name).Host)
		}
		return nil
	}

	if len(names) == 0 {
		fmt.Fprintln(out, "No devices saved. Use 'lektrico-cli devices add <name> <host>'.")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tHOST\tTYPE\tSERIAL\tLAST SEEN")
	for _, name := range names {
		d := registry.GetDevice(name)
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name, d.Host, orDash(d.Type), serial(d.SerialNumber), lastSeen(d.LastSeen))
	}
	return w.Flush()
}

var devicesRemoveCmd = &cobra.Command{
	Use:     "remove <name>",
	Aliases: []string{"rm"},
	Short:   "Remove a saved device",
	Args:    cobra.ExactArgs(1),
	RunE:    runDevicesRemove,
}

func runDevicesRemove(cmd *cobra.Command, args []string) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if !registry.RemoveDevice(args[0]) {
		return fmt.Errorf("no device named %q", args[0])
	}
	if err := registry.Save(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", args[0])
	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Show a live dashboard for one device",
	Example: `  lektrico-cli watch --device garage
  lektrico-cli watch --device 192.168.1.21 --interval 5s`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchInterval <= 0 {
		return fmt.Errorf("--interval must be positive")
	}

	s, err := openSession()
	if err != nil {
		return err
	}
	defer s.client.Close()

	deviceType, err := s.deviceType(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to identify %s: %w", s.label(), err)
	}

	name := s.target.Name
	if name == "" {
		name = s.target.Host
	}
	return tui.Run(cmd.Context(), s.client, tui.Options{
		Name:     name,
		Host:     s.target.Host,
		Type:     deviceType,
		Interval: watchInterval,
	})
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Serve Prometheus metrics for saved devices",
	Long: `Run a Prometheus exporter for the devices in the registry, or for the
single device given with --device.

Metrics are served on /metrics. Use lektrico-exporter for deployments
configured through environment variables.`,
	Example: `  lektrico-cli export
  lektrico-cli export --listen :9850 --device garage`,
	Args: cobra.NoArgs,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	registry, err := config.LoadRegistry()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	var devices []exporter.Device
	if deviceFlag != "" {
		target := registry.Resolve(deviceFlag)
		name := target.Name
		if name == "" {
			name = target.Host
		}
		devices = []exporter.Device{{Name: name, Host: target.Host, Type: target.Type}}
	} else {
		devices = exporter.DevicesFromRegistry(registry)
	}
	if len(devices) == 0 {
		return fmt.Errorf("no devices to export, add one with 'lektrico-cli devices add' or use --device")
	}

	listen := exportListen
	if listen == "" {
		listen = registry.Preferences.ExporterListen
	}
	scrapeTimeout := timeout
	if scrapeTimeout == 0 {
		scrapeTimeout = registry.DefaultTimeout()
	}

	collector := exporter.NewCollector(devices,
		lektrico.WithTimeout(scrapeTimeout),
		lektrico.WithLogger(logging.GetLogger()),
	)
	defer collector.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Serving metrics for %s on %s/metrics\n", deviceList(devices), listen)
	return exporter.Serve(cmd.Context(), listen, collector)
}

func describeDevice(d *config.Device) string {
	parts := []string{d.Host}
	if d.Type != "" {
		parts = append(parts, d.Type)
	}
	if d.SerialNumber != 0 {
		parts = append(parts, "#"+fmt.Sprint(d.SerialNumber))
	}
	return strings.Join(parts, ", ")
}

func deviceList(devices []exporter.Device) string {
	names := make([]string, len(devices))
	for i, d := range devices {
		names[i] = d.Name
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func serial(n int) string {
	if n == 0 {
		return "-"
	}
	return fmt.Sprint(n)
}

func lastSeen(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}
