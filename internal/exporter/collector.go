package exporter

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/muurk/lektrico/internal/logging"
	"github.com/muurk/lektrico/pkg/lektrico"
)

const namespace = "lektrico"

// Device is one charger or energy meter to scrape.
type Device struct {
	Name string
	Host string
	Type lektrico.DeviceType // Identified on first scrape when empty
}

// target is a Device with its client and the type learned from the device.
type target struct {
	Device
	client *lektrico.Client

	mu         sync.Mutex
	deviceType lektrico.DeviceType
}

// Collector implements prometheus.Collector for Lektrico chargers and meters
type Collector struct {
	targets []*target

	// ctx bounds every device call; Stop cancels it
	ctx    context.Context
	cancel context.CancelFunc

	// Common metrics
	info           *prometheus.Desc
	scrapeSuccess  *prometheus.Desc
	scrapeDuration *prometheus.Desc
	voltage        *prometheus.Desc
	current        *prometheus.Desc

	// Charger metrics
	chargerState    *prometheus.Desc
	instantPower    *prometheus.Desc
	sessionEnergy   *prometheus.Desc
	totalEnergy     *prometheus.Desc
	chargingTime    *prometheus.Desc
	temperature     *prometheus.Desc
	dynamicCurrent  *prometheus.Desc
	userCurrent     *prometheus.Desc
	installCurrent  *prometheus.Desc
	ledBrightness   *prometheus.Desc
	requireAuth     *prometheus.Desc
	fault           *prometheus.Desc
	hasActiveErrors *prometheus.Desc
	stateEActivated *prometheus.Desc

	// Meter metrics
	activePower   *prometheus.Desc
	powerFactor   *prometheus.Desc
	breakerRating *prometheus.Desc
	lbMode        *prometheus.Desc
}

func newDesc(name, help string, labels ...string) *prometheus.Desc {
	return prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "", name),
		help,
		append([]string{"device"}, labels...),
		nil,
	)
}

// NewCollector creates a collector for devices. opts are applied to every
// device client (timeout, logger).
func NewCollector(devices []Device, opts ...lektrico.Option) *Collector {
	targets := make([]*target, 0, len(devices))
	for _, d := range devices {
		targets = append(targets, &target{
			Device:     d,
			client:     lektrico.NewClient(d.Host, opts...),
			deviceType: d.Type,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Collector{
		targets: targets,
		ctx:     ctx,
		cancel:  cancel,

		info:           newDesc("info", "Device information", "host", "type", "firmware"),
		scrapeSuccess:  newDesc("scrape_success", "Whether scraping the device was successful"),
		scrapeDuration: newDesc("scrape_duration_seconds", "Time taken to scrape the device"),
		voltage:        newDesc("voltage_volts", "Voltage per phase in volts", "phase"),
		current:        newDesc("current_amperes", "Current per phase in amperes", "phase"),

		chargerState:    newDesc("charger_state", "Charger state (1 for the current state)", "state"),
		instantPower:    newDesc("charger_power_watts", "Instant charging power in watts"),
		sessionEnergy:   newDesc("charger_session_energy_kwh", "Energy delivered in the current session in kWh"),
		totalEnergy:     newDesc("charger_energy_kwh_total", "Total energy delivered by the charger in kWh"),
		chargingTime:    newDesc("charger_session_duration_seconds", "Duration of the current session in seconds"),
		temperature:     newDesc("charger_temperature_celsius", "Charger temperature in degrees Celsius"),
		dynamicCurrent:  newDesc("charger_dynamic_current_amperes", "Dynamic current limit in amperes"),
		userCurrent:     newDesc("charger_user_current_amperes", "User current limit in amperes"),
		installCurrent:  newDesc("charger_install_current_amperes", "Installation current limit in amperes"),
		ledBrightness:   newDesc("charger_led_brightness_percent", "LED maximum brightness in percent"),
		requireAuth:     newDesc("charger_require_auth", "Whether charging requires authorisation (1=yes, 0=no)"),
		fault:           newDesc("charger_fault", "Charger fault flag (1=raised, 0=clear)", "fault"),
		hasActiveErrors: newDesc("charger_has_active_errors", "Whether the charger reports active errors (1=yes, 0=no)"),
		stateEActivated: newDesc("charger_state_e_activated", "Whether IEC 61851 state E is active (1=yes, 0=no)"),

		activePower:   newDesc("meter_active_power_watts", "Active power per phase in watts", "phase"),
		powerFactor:   newDesc("meter_power_factor", "Power factor per phase", "phase"),
		breakerRating: newDesc("meter_breaker_rating_amperes", "Main breaker rating in amperes"),
		lbMode:        newDesc("meter_load_balancing_mode", "Load balancing mode (1 for the active mode)", "mode"),
	}
}

// Describe implements prometheus.Collector
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.info, c.scrapeSuccess, c.scrapeDuration, c.voltage, c.current,
		c.chargerState, c.instantPower, c.sessionEnergy, c.totalEnergy, c.chargingTime,
		c.temperature, c.dynamicCurrent, c.userCurrent, c.installCurrent, c.ledBrightness,
		c.requireAuth, c.fault, c.hasActiveErrors, c.stateEActivated,
		c.activePower, c.powerFactor, c.breakerRating, c.lbMode,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	var wg sync.WaitGroup

	for _, t := range c.targets {
		wg.Add(1)
		go func(t *target) {
			defer wg.Done()
			c.collectDevice(c.ctx, t, ch)
		}(t)
	}

	wg.Wait()
}

// Stop cancels in-flight device calls. Scrapes after Stop report failure.
func (c *Collector) Stop() {
	c.cancel()
}

// Close stops the collector and releases the device clients.
func (c *Collector) Close() error {
	c.Stop()
	for _, t := range c.targets {
		_ = t.client.Close()
	}
	return nil
}

func (c *Collector) collectDevice(ctx context.Context, t *target, ch chan<- prometheus.Metric) {
	start := time.Now()

	info, deviceType, err := t.scrape(ctx)
	elapsed := time.Since(start)
	logging.LogScrape(t.Name, t.Host, elapsed, err)

	ch <- prometheus.MustNewConstMetric(c.scrapeDuration, prometheus.GaugeValue, elapsed.Seconds(), t.Name)
	if err != nil {
		ch <- prometheus.MustNewConstMetric(c.scrapeSuccess, prometheus.GaugeValue, 0, t.Name)
		return
	}
	ch <- prometheus.MustNewConstMetric(c.scrapeSuccess, prometheus.GaugeValue, 1, t.Name)
	ch <- prometheus.MustNewConstMetric(c.info, prometheus.GaugeValue, 1, t.Name, t.Host, deviceType.String(), info.Firmware())

	switch v := info.(type) {
	case *lektrico.ChargerInfo:
		c.collectCharger(t.Name, v, ch)
	case *lektrico.MeterInfo:
		c.collectMeter(t.Name, v, ch)
	}
}

// scrape fetches one telemetry snapshot, identifying the device first if its
// type is not known yet.
func (t *target) scrape(ctx context.Context) (lektrico.Info, lektrico.DeviceType, error) {
	t.mu.Lock()
	deviceType := t.deviceType
	t.mu.Unlock()

	if deviceType == "" {
		settings, err := t.client.DeviceConfig(ctx)
		if err != nil {
			return nil, "", err
		}
		deviceType = settings.Type

		t.mu.Lock()
		t.deviceType = deviceType
		t.mu.Unlock()

		logging.Info("Identified device",
			zap.String("device", t.Name),
			zap.String("type", deviceType.String()),
			zap.Int("serial_number", settings.SerialNumber),
		)
	}

	info, err := t.client.DeviceInfo(ctx, deviceType)
	if err != nil {
		return nil, deviceType, err
	}
	return info, deviceType, nil
}

func (c *Collector) collectPhases(desc *prometheus.Desc, name string, values []float64, ch chan<- prometheus.Metric) {
	for i, v := range values {
		ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, name, "L"+strconv.Itoa(i+1))
	}
}

func (c *Collector) collectCharger(name string, info *lektrico.ChargerInfo, ch chan<- prometheus.Metric) {
	c.collectPhases(c.voltage, name, info.Voltages, ch)
	c.collectPhases(c.current, name, info.Currents, ch)

	for _, state := range lektrico.ChargerStates {
		ch <- prometheus.MustNewConstMetric(c.chargerState, prometheus.GaugeValue, boolToFloat(info.ChargerState == state), name, state.String())
	}

	ch <- prometheus.MustNewConstMetric(c.instantPower, prometheus.GaugeValue, info.InstantPower*1000, name)
	ch <- prometheus.MustNewConstMetric(c.sessionEnergy, prometheus.GaugeValue, info.SessionEnergy, name)
	ch <- prometheus.MustNewConstMetric(c.totalEnergy, prometheus.CounterValue, info.TotalChargedEnergy, name)
	ch <- prometheus.MustNewConstMetric(c.chargingTime, prometheus.GaugeValue, float64(info.ChargingTime), name)
	ch <- prometheus.MustNewConstMetric(c.temperature, prometheus.GaugeValue, info.Temperature, name)
	ch <- prometheus.MustNewConstMetric(c.dynamicCurrent, prometheus.GaugeValue, float64(info.DynamicCurrent), name)
	ch <- prometheus.MustNewConstMetric(c.userCurrent, prometheus.GaugeValue, float64(info.UserCurrent), name)
	ch <- prometheus.MustNewConstMetric(c.installCurrent, prometheus.GaugeValue, float64(info.InstallCurrent), name)
	ch <- prometheus.MustNewConstMetric(c.ledBrightness, prometheus.GaugeValue, float64(info.LEDMaxBrightness), name)
	ch <- prometheus.MustNewConstMetric(c.requireAuth, prometheus.GaugeValue, boolToFloat(info.RequireAuth), name)
	ch <- prometheus.MustNewConstMetric(c.hasActiveErrors, prometheus.GaugeValue, boolToFloat(info.HasActiveErrors), name)
	ch <- prometheus.MustNewConstMetric(c.stateEActivated, prometheus.GaugeValue, boolToFloat(info.StateEActivated), name)

	for _, f := range info.Faults() {
		ch <- prometheus.MustNewConstMetric(c.fault, prometheus.GaugeValue, boolToFloat(f.Active), name, f.Name)
	}
}

func (c *Collector) collectMeter(name string, info *lektrico.MeterInfo, ch chan<- prometheus.Metric) {
	c.collectPhases(c.voltage, name, info.Voltages, ch)
	c.collectPhases(c.current, name, info.Currents, ch)
	c.collectPhases(c.activePower, name, info.ActivePowers, ch)
	c.collectPhases(c.powerFactor, name, info.PowerFactors, ch)

	ch <- prometheus.MustNewConstMetric(c.breakerRating, prometheus.GaugeValue, float64(info.BreakerRating), name)
	for _, mode := range lektrico.LBModes {
		ch <- prometheus.MustNewConstMetric(c.lbMode, prometheus.GaugeValue, boolToFloat(info.LoadBalancingMode == mode), name, mode.String())
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
