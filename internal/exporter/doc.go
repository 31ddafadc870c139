// Package exporter exposes Lektrico charger and energy meter telemetry as
// Prometheus metrics.
//
// The Collector scrapes every configured device concurrently on each
// Prometheus scrape. Devices without a type hint are identified through the
// device config endpoint on their first scrape.
//
// # Metrics
//
// All metrics carry a "device" label with the configured name.
//   - lektrico_info, lektrico_scrape_success, lektrico_scrape_duration_seconds
//   - lektrico_voltage_volts, lektrico_current_amperes (per phase)
//   - lektrico_charger_* for chargers (state, power, session, limits, faults)
//   - lektrico_meter_* for energy meters (active power, power factor, breaker, load balancing)
package exporter
