package lektrico

import (
	"fmt"
	"strings"
	"time"
)

// String returns the device identity on one line
func (s *Settings) String() string {
	return fmt.Sprintf("%s #%d (board %s)", s.Type, s.SerialNumber, s.BoardRevision)
}

// Summary returns a one-line summary of the device identity
func (s *Settings) Summary() string {
	return fmt.Sprintf("Lektrico %s %s, serial %d, board rev %s", modelName(s.Type), s.Type, s.SerialNumber, s.BoardRevision)
}

// FormatDetailed returns a sectioned, multi-line rendering of the identity
func (s *Settings) FormatDetailed() string {
	var b strings.Builder

	b.WriteString("=== Device Identity ===\n")
	b.WriteString(fmt.Sprintf("Model:          %s\n", modelName(s.Type)))
	b.WriteString(fmt.Sprintf("Type:           %s (%d phase)\n", s.Type, s.Type.Phases()))
	b.WriteString(fmt.Sprintf("Serial Number:  %d\n", s.SerialNumber))
	b.WriteString(fmt.Sprintf("Board Revision: %s\n", s.BoardRevision))

	if s.HasCalibration() {
		b.WriteString("\n=== Calibration ===\n")
		b.WriteString(fmt.Sprintf("Overtemp:       %d °C (critical %d °C)\n", s.OvertempThreshold, s.CriticalTempThreshold))
		b.WriteString(fmt.Sprintf("Gain:           voltage %.3f, current %.3f\n", s.VoltageGain, s.CurrentGain))
		b.WriteString(fmt.Sprintf("Calibrated At:  %.1f °C (offset %+.1f °C)\n", s.CalibrationTemperature, s.TempOffset))
		b.WriteString(fmt.Sprintf("RCD Enabled:    %v\n", s.RCDEnabled))
	}

	return b.String()
}

func modelName(t DeviceType) string {
	switch t {
	case TypeCharger1P7K:
		return "1P7K Charger"
	case TypeCharger3P22K:
		return "3P22K Charger"
	case TypeMeterEM:
		return "EM Energy Meter"
	case TypeMeter3EM:
		return "3EM Energy Meter"
	default:
		return "Unknown Device"
	}
}

// FormatDetailed returns a sectioned, multi-line rendering of the charger telemetry
func (ci *ChargerInfo) FormatDetailed() string {
	var b strings.Builder

	b.WriteString("=== Charger Status ===\n")
	b.WriteString(fmt.Sprintf("State:         %s\n", formatState(ci)))
	b.WriteString(fmt.Sprintf("Firmware:      %s\n", ci.FirmwareVersion))
	b.WriteString(fmt.Sprintf("Require Auth:  %v\n", ci.RequireAuth))
	b.WriteString(fmt.Sprintf("Temperature:   %.1f °C\n", ci.Temperature))
	b.WriteString("\n")

	b.WriteString("=== Electrical ===\n")
	b.WriteString(fmt.Sprintf("Voltage:       %s V\n", formatPhases(ci.Voltages, 1)))
	b.WriteString(fmt.Sprintf("Current:       %s A\n", formatPhases(ci.Currents, 1)))
	b.WriteString(fmt.Sprintf("Power:         %.2f kW\n", ci.InstantPower))
	b.WriteString("\n")

	b.WriteString("=== Session ===\n")
	b.WriteString(fmt.Sprintf("Energy:        %.2f kWh\n", ci.SessionEnergy))
	b.WriteString(fmt.Sprintf("Duration:      %s\n", FormatDuration(ci.ChargingTime)))
	b.WriteString(fmt.Sprintf("Total Energy:  %.1f kWh\n", ci.TotalChargedEnergy))
	b.WriteString("\n")

	b.WriteString("=== Limits ===\n")
	b.WriteString(fmt.Sprintf("Dynamic:       %d A\n", ci.DynamicCurrent))
	b.WriteString(fmt.Sprintf("User:          %d A\n", ci.UserCurrent))
	b.WriteString(fmt.Sprintf("Installation:  %d A\n", ci.InstallCurrent))
	if ci.CurrentLimitReason != "" {
		b.WriteString(fmt.Sprintf("Limited By:    %s\n", ci.CurrentLimitReason))
	}
	b.WriteString(fmt.Sprintf("LED:           %d%%\n", ci.LEDMaxBrightness))
	b.WriteString("\n")

	b.WriteString("=== Faults ===\n")
	if faults := ci.ActiveFaults(); len(faults) > 0 {
		b.WriteString(fmt.Sprintf("Active:        %s\n", strings.Join(faults, ", ")))
	} else if ci.HasActiveErrors {
		b.WriteString("Active:        (unspecified)\n")
	} else {
		b.WriteString("Active:        (none)\n")
	}

	return b.String()
}

// FormatCompact returns a short multi-line rendering suitable for terminals
func (ci *ChargerInfo) FormatCompact() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("State:   %s (FW %s)\n", formatState(ci), ci.FirmwareVersion))
	b.WriteString(fmt.Sprintf("Power:   %.2f kW  [%s A @ %s V]\n",
		ci.InstantPower, formatPhases(ci.Currents, 1), formatPhases(ci.Voltages, 0)))
	b.WriteString(fmt.Sprintf("Session: %.2f kWh in %s\n", ci.SessionEnergy, FormatDuration(ci.ChargingTime)))
	b.WriteString(fmt.Sprintf("Limits:  dynamic %d A, user %d A, install %d A\n",
		ci.DynamicCurrent, ci.UserCurrent, ci.InstallCurrent))
	if faults := ci.ActiveFaults(); len(faults) > 0 {
		b.WriteString(fmt.Sprintf("Faults:  %s\n", strings.Join(faults, ", ")))
	}

	return b.String()
}

func formatState(ci *ChargerInfo) string {
	if ci.RawChargerState != "" && ci.RawChargerState != string(ci.ChargerState) {
		return fmt.Sprintf("%s (%s)", ci.ChargerState, ci.RawChargerState)
	}
	return string(ci.ChargerState)
}

// FormatDetailed returns a sectioned, multi-line rendering of the meter telemetry
func (mi *MeterInfo) FormatDetailed() string {
	var b strings.Builder

	b.WriteString("=== Energy Meter ===\n")
	b.WriteString(fmt.Sprintf("Firmware:        %s\n", mi.FirmwareVersion))
	b.WriteString(fmt.Sprintf("Load Balancing:  %s\n", mi.LoadBalancingMode))
	b.WriteString(fmt.Sprintf("Breaker Rating:  %d A\n", mi.BreakerRating))
	b.WriteString("\n")

	b.WriteString("=== Electrical ===\n")
	b.WriteString(fmt.Sprintf("Voltage:         %s V\n", formatPhases(mi.Voltages, 1)))
	b.WriteString(fmt.Sprintf("Current:         %s A\n", formatPhases(mi.Currents, 2)))
	b.WriteString(fmt.Sprintf("Active Power:    %s W\n", formatPhases(mi.ActivePowers, 0)))
	b.WriteString(fmt.Sprintf("Power Factor:    %s\n", formatPhases(mi.PowerFactors, 2)))
	b.WriteString(fmt.Sprintf("Total Power:     %.0f W\n", mi.TotalActivePower()))

	return b.String()
}

// FormatCompact returns a short multi-line rendering suitable for terminals
func (mi *MeterInfo) FormatCompact() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Meter:  FW %s, LB %s, breaker %d A\n",
		mi.FirmwareVersion, mi.LoadBalancingMode, mi.BreakerRating))
	b.WriteString(fmt.Sprintf("Power:  %.0f W  [%s A @ %s V]\n",
		mi.TotalActivePower(), formatPhases(mi.Currents, 1), formatPhases(mi.Voltages, 0)))

	return b.String()
}

// formatPhases renders per-phase readings as "230.1 / 229.8 / 231.0"
func formatPhases(values []float64, precision int) string {
	if len(values) == 0 {
		return "-"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%.*f", precision, v)
	}
	return strings.Join(parts, " / ")
}

// FormatDuration renders a charging time in seconds as "1h02m05s"
func FormatDuration(seconds int) string {
	if seconds <= 0 {
		return "0s"
	}
	d := time.Duration(seconds) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := seconds % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm%02ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
