package lektrico

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DeviceKind separates the two telemetry shapes a device can report.
type DeviceKind int

const (
	KindUnknown DeviceKind = iota
	KindCharger
	KindMeter
)

// String returns the kind name.
func (k DeviceKind) String() string {
	switch k {
	case KindCharger:
		return "charger"
	case KindMeter:
		return "meter"
	default:
		return "unknown"
	}
}

// DeviceType is the model identifier reported by the device config endpoint.
type DeviceType string

const (
	// TypeCharger1P7K is the single-phase 7.4 kW charger.
	TypeCharger1P7K DeviceType = "1p7k"
	// TypeCharger3P22K is the three-phase 22 kW charger.
	TypeCharger3P22K DeviceType = "3p22k"
	// TypeMeterEM is the single-phase energy meter.
	TypeMeterEM DeviceType = "em"
	// TypeMeter3EM is the three-phase energy meter.
	TypeMeter3EM DeviceType = "3em"
)

// DeviceTypes lists every supported device type.
var DeviceTypes = []DeviceType{TypeCharger1P7K, TypeCharger3P22K, TypeMeterEM, TypeMeter3EM}

// ParseDeviceType converts a device-reported string into a DeviceType.
// Matching is case-insensitive; unknown values are rejected.
func ParseDeviceType(s string) (DeviceType, error) {
	t := DeviceType(strings.ToLower(strings.TrimSpace(s)))
	if t.Kind() == KindUnknown {
		return "", NewValidationError(fmt.Sprintf("unknown device type %q (want one of %s)", s, joinTypes()))
	}
	return t, nil
}

// Kind returns which telemetry shape the device type reports.
func (t DeviceType) Kind() DeviceKind {
	switch t {
	case TypeCharger1P7K, TypeCharger3P22K:
		return KindCharger
	case TypeMeterEM, TypeMeter3EM:
		return KindMeter
	default:
		return KindUnknown
	}
}

// IsCharger reports whether the type is an EV charger.
func (t DeviceType) IsCharger() bool { return t.Kind() == KindCharger }

// IsMeter reports whether the type is an energy meter.
func (t DeviceType) IsMeter() bool { return t.Kind() == KindMeter }

// Phases returns the number of phases the model measures.
func (t DeviceType) Phases() int {
	switch t {
	case TypeCharger3P22K, TypeMeter3EM:
		return 3
	case TypeCharger1P7K, TypeMeterEM:
		return 1
	default:
		return 0
	}
}

// String returns the wire identifier.
func (t DeviceType) String() string { return string(t) }

// UnmarshalJSON rejects device types outside the closed set.
func (t *DeviceType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("device type: %w", err)
	}
	parsed, err := ParseDeviceType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func joinTypes() string {
	names := make([]string, len(DeviceTypes))
	for i, t := range DeviceTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

// LBMode is the load balancing mode of an energy meter.
type LBMode int

const (
	// LBModeOff disables load balancing.
	LBModeOff LBMode = 0
	// LBModePower limits charging to the breaker rating.
	LBModePower LBMode = 1
	// LBModeHybrid mixes grid and solar surplus.
	LBModeHybrid LBMode = 2
	// LBModeGreen charges from solar surplus only.
	LBModeGreen LBMode = 3
)

// LBModes lists every load balancing mode in wire order.
var LBModes = []LBMode{LBModeOff, LBModePower, LBModeHybrid, LBModeGreen}

// String returns the mode name.
func (m LBMode) String() string {
	switch m {
	case LBModeOff:
		return "OFF"
	case LBModePower:
		return "POWER"
	case LBModeHybrid:
		return "HYBRID"
	case LBModeGreen:
		return "GREEN"
	default:
		return fmt.Sprintf("LBMode(%d)", int(m))
	}
}

// Valid reports whether m is one of the defined modes.
func (m LBMode) Valid() bool {
	return m >= LBModeOff && m <= LBModeGreen
}

// ParseLBMode accepts a mode name (off, power, hybrid, green) or its integer value.
func ParseLBMode(s string) (LBMode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "OFF", "0":
		return LBModeOff, nil
	case "POWER", "1":
		return LBModePower, nil
	case "HYBRID", "2":
		return LBModeHybrid, nil
	case "GREEN", "3":
		return LBModeGreen, nil
	}
	return 0, NewValidationError(fmt.Sprintf("unknown load balancing mode %q (want off, power, hybrid or green)", s))
}

// ChargerState is the readable charging state of a charger.
type ChargerState string

const (
	StateAvailable ChargerState = "Available"
	StateConnected ChargerState = "Connected"
	StateNeedAuth  ChargerState = "NeedAuth"
	StateCharging  ChargerState = "Charging"
	StateError     ChargerState = "Error"
	StateUpdating  ChargerState = "Updating"
)

// ChargerStates lists every readable charger state.
var ChargerStates = []ChargerState{StateAvailable, StateConnected, StateNeedAuth, StateCharging, StateError, StateUpdating}

// ParseChargerState maps an IEC 61851 state code reported by the charger
// (A, B, B_AUTH, C, D, E, F, OTA) to a readable state. Values that are already
// readable pass through; unknown codes are returned verbatim.
func ParseChargerState(raw string) ChargerState {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "A", "AVAILABLE":
		return StateAvailable
	case "B", "CONNECTED":
		return StateConnected
	case "B_AUTH", "NEEDAUTH", "CONNECTED,NEEDAUTH":
		return StateNeedAuth
	case "C", "D", "CHARGING":
		return StateCharging
	case "E", "F", "ERROR":
		return StateError
	case "OTA", "UPDATING", "UPDATING FIRMWARE":
		return StateUpdating
	}
	return ChargerState(raw)
}

// String returns the state name.
func (s ChargerState) String() string { return string(s) }
