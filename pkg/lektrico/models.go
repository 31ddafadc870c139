package lektrico

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Settings is the identity record returned by the device config endpoint.
//
// Type is normalised to the lower-case enum value; ReportedType keeps the
// string exactly as the device sent it. The calibration fields are only
// reported by charger firmware and stay zero when absent.
type Settings struct {
	Type          DeviceType `json:"type"`
	ReportedType  string     `json:"reported_type"`
	SerialNumber  int        `json:"serial_number"`
	BoardRevision string     `json:"board_revision"`

	// Calibration, temperatures in °C
	OvertempThreshold      int     `json:"overtemp_threshold"`
	CriticalTempThreshold  int     `json:"critical_temp_threshold"`
	VoltageGain            float64 `json:"voltage_gain"`
	CurrentGain            float64 `json:"current_gain"`
	CalibrationTemperature float64 `json:"calibration_temperature"`
	TempOffset             float64 `json:"temp_offset"`
	RCDEnabled             bool    `json:"rcd_enabled"`
}

// HasCalibration reports whether the device sent any calibration field.
func (s *Settings) HasCalibration() bool {
	return s.OvertempThreshold != 0 || s.CriticalTempThreshold != 0 ||
		s.VoltageGain != 0 || s.CurrentGain != 0 ||
		s.CalibrationTemperature != 0 || s.TempOffset != 0 || s.RCDEnabled
}

// Info is a telemetry snapshot. The concrete type is *ChargerInfo or *MeterInfo,
// selected by the device type passed to DeviceInfo.
type Info interface {
	// Kind identifies the concrete shape.
	Kind() DeviceKind
	// Firmware returns the firmware version the device reported.
	Firmware() string
}

// ChargerInfo is the telemetry snapshot of an EV charger.
type ChargerInfo struct {
	// Electrical readings, one entry per phase
	Currents []float64 `json:"currents"` // A
	Voltages []float64 `json:"voltages"` // V

	FirmwareVersion string `json:"fw_version"`

	// ChargerState is the readable state; RawChargerState is what the device sent
	ChargerState    ChargerState `json:"charger_state"`
	RawChargerState string       `json:"raw_charger_state"`

	SessionEnergy      float64 `json:"session_energy"`       // kWh
	ChargingTime       int     `json:"charging_time"`        // seconds
	InstantPower       float64 `json:"instant_power"`        // kW
	Temperature        float64 `json:"temperature"`          // °C
	TotalChargedEnergy float64 `json:"total_charged_energy"` // kWh

	// Current limits (A)
	DynamicCurrent int `json:"dynamic_current"`
	UserCurrent    int `json:"user_current"`
	InstallCurrent int `json:"install_current"`

	LEDMaxBrightness int `json:"led_max_brightness"` // percent

	// Fault flags
	HasActiveErrors   bool `json:"has_active_errors"`
	Overtemp          bool `json:"overtemp"`
	CriticalTemp      bool `json:"critical_temp"`
	Overcurrent       bool `json:"overcurrent"`
	MeterFault        bool `json:"meter_fault"`
	UndervoltageError bool `json:"undervoltage_error"`
	OvervoltageError  bool `json:"overvoltage_error"`
	VoltageError      bool `json:"voltage_error"` // older firmware, no under/over split
	RCDError          bool `json:"rcd_error"`
	CPDiodeFailure    bool `json:"cp_diode_failure"`
	ContactorFailure  bool `json:"contactor_failure"`

	CurrentLimitReason string `json:"current_limit_reason"`
	RequireAuth        bool   `json:"require_auth"`
	StateEActivated    bool   `json:"state_e_activated"`
}

// Kind implements Info.
func (ci *ChargerInfo) Kind() DeviceKind { return KindCharger }

// Firmware implements Info.
func (ci *ChargerInfo) Firmware() string { return ci.FirmwareVersion }

// Fault is one named fault flag of a charger.
type Fault struct {
	Name   string
	Active bool
}

// Faults returns every fault flag, raised or not, in a fixed order.
func (ci *ChargerInfo) Faults() []Fault {
	return []Fault{
		{"overtemp", ci.Overtemp},
		{"critical_temp", ci.CriticalTemp},
		{"overcurrent", ci.Overcurrent},
		{"meter_fault", ci.MeterFault},
		{"undervoltage", ci.UndervoltageError},
		{"overvoltage", ci.OvervoltageError},
		{"voltage_error", ci.VoltageError},
		{"rcd_error", ci.RCDError},
		{"cp_diode_failure", ci.CPDiodeFailure},
		{"contactor_failure", ci.ContactorFailure},
	}
}

// ActiveFaults returns the names of all raised fault flags, in a fixed order.
func (ci *ChargerInfo) ActiveFaults() []string {
	var faults []string
	for _, f := range ci.Faults() {
		if f.Active {
			faults = append(faults, f.Name)
		}
	}
	return faults
}

// MeterInfo is the telemetry snapshot of an energy meter.
type MeterInfo struct {
	// Electrical readings, one entry per phase
	Currents     []float64 `json:"currents"`      // A
	Voltages     []float64 `json:"voltages"`      // V
	ActivePowers []float64 `json:"active_powers"` // W
	PowerFactors []float64 `json:"power_factors"`

	FirmwareVersion   string `json:"fw_version"`
	BreakerRating     int    `json:"breaker_rating"` // A
	LoadBalancingMode LBMode `json:"load_balancing_mode"`
}

// Kind implements Info.
func (mi *MeterInfo) Kind() DeviceKind { return KindMeter }

// Firmware implements Info.
func (mi *MeterInfo) Firmware() string { return mi.FirmwareVersion }

// TotalActivePower sums the per-phase active power.
func (mi *MeterInfo) TotalActivePower() float64 {
	var total float64
	for _, p := range mi.ActivePowers {
		total += p
	}
	return total
}

// Wire shapes. Pointer fields are required; everything else defaults to zero.

type settingsWire struct {
	Type          *string     `json:"type"`
	SerialNumber  *flexInt    `json:"serial_number"`
	BoardRevision *flexString `json:"board_revision"`

	OvertempThreshold      flexInt   `json:"overtemp_threshold"`
	CriticalTempThreshold  flexInt   `json:"critical_temp_threshold"`
	VoltageGain            flexFloat `json:"voltage_gain"`
	CurrentGain            flexFloat `json:"current_gain"`
	CalibrationTemperature flexFloat `json:"calibration_temperature"`
	TempOffset             flexFloat `json:"temp_offset"`
	RCDEnabled             flexBool  `json:"rcd_enabled"`
}

type chargerInfoWire struct {
	Currents    flexFloats `json:"currents"`
	Voltages    flexFloats `json:"voltages"`
	LegacyCurr  flexFloats `json:"current"`
	LegacyVolts flexFloats `json:"voltage"`

	FirmwareVersion      *flexString `json:"fw_version"`
	ExtendedChargerState *string     `json:"extended_charger_state"`
	ChargerState         *string     `json:"charger_state"`

	SessionEnergy      flexFloat `json:"session_energy"`
	ChargingTime       flexInt   `json:"charging_time"`
	InstantPower       flexFloat `json:"instant_power"`
	Temperature        flexFloat `json:"temperature"`
	TotalChargedEnergy flexFloat `json:"total_charged_energy"`

	DynamicCurrent flexInt `json:"dynamic_current"`
	UserCurrent    flexInt `json:"user_current"`
	InstallCurrent flexInt `json:"install_current"`

	LEDMaxBrightness flexInt `json:"led_max_brightness"`

	HasActiveErrors   flexBool `json:"has_active_errors"`
	Overtemp          flexBool `json:"overtemp"`
	CriticalTemp      flexBool `json:"critical_temp"`
	Overcurrent       flexBool `json:"overcurrent"`
	MeterFault        flexBool `json:"meter_fault"`
	UndervoltageError flexBool `json:"undervoltage_error"`
	OvervoltageError  flexBool `json:"overvoltage_error"`
	VoltageError      flexBool `json:"voltage_error"`
	RCDError          flexBool `json:"rcd_error"`
	CPDiodeFailure    flexBool `json:"cp_diode_failure"`
	ContactorFailure  flexBool `json:"contactor_failure"`

	CurrentLimitReason flexString `json:"current_limit_reason"`
	Headless           *flexBool  `json:"headless"`
	RequireAuth        flexBool   `json:"require_auth"`
	StateEActivated    flexBool   `json:"state_e_activated"`
}

type meterInfoWire struct {
	Current     flexFloats `json:"current"`
	Voltage     flexFloats `json:"voltage"`
	ActivePower flexFloats `json:"active_p"`
	PowerFactor flexFloats `json:"power_factor"`

	FirmwareVersion   *flexString `json:"fw_version"`
	BreakerRating     flexInt     `json:"breaker_rating"`
	LoadBalancingMode flexInt     `json:"load_balancing_mode"`
}

// errMissingField reports a required field the payload did not carry.
func errMissingField(names ...string) error {
	return fmt.Errorf("missing required field %s", strings.Join(names, " or "))
}

// ParseSettings parses a device config payload.
func ParseSettings(data []byte) (*Settings, error) {
	var w settingsWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal device config: %w", err)
	}
	switch {
	case w.Type == nil:
		return nil, errMissingField("type")
	case w.SerialNumber == nil:
		return nil, errMissingField("serial_number")
	case w.BoardRevision == nil:
		return nil, errMissingField("board_revision")
	}

	deviceType := DeviceType(strings.ToLower(strings.TrimSpace(*w.Type)))
	if deviceType.Kind() == KindUnknown {
		return nil, fmt.Errorf("unknown device type %q", *w.Type)
	}

	return &Settings{
		Type:                   deviceType,
		ReportedType:           *w.Type,
		SerialNumber:           int(*w.SerialNumber),
		BoardRevision:          string(*w.BoardRevision),
		OvertempThreshold:      int(w.OvertempThreshold),
		CriticalTempThreshold:  int(w.CriticalTempThreshold),
		VoltageGain:            float64(w.VoltageGain),
		CurrentGain:            float64(w.CurrentGain),
		CalibrationTemperature: float64(w.CalibrationTemperature),
		TempOffset:             float64(w.TempOffset),
		RCDEnabled:             bool(w.RCDEnabled),
	}, nil
}

// ParseChargerInfo parses a charger telemetry payload.
func ParseChargerInfo(data []byte) (*ChargerInfo, error) {
	var w chargerInfoWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal charger info: %w", err)
	}
	if w.FirmwareVersion == nil {
		return nil, errMissingField("fw_version")
	}

	var rawState string
	switch {
	case w.ExtendedChargerState != nil:
		rawState = *w.ExtendedChargerState
	case w.ChargerState != nil:
		rawState = *w.ChargerState
	default:
		return nil, errMissingField("extended_charger_state", "charger_state")
	}

	currents, voltages := []float64(w.Currents), []float64(w.Voltages)
	if currents == nil {
		currents = w.LegacyCurr
	}
	if voltages == nil {
		voltages = w.LegacyVolts
	}

	requireAuth := bool(w.RequireAuth)
	if w.Headless != nil {
		requireAuth = !bool(*w.Headless)
	}

	return &ChargerInfo{
		Currents:           currents,
		Voltages:           voltages,
		FirmwareVersion:    string(*w.FirmwareVersion),
		ChargerState:       ParseChargerState(rawState),
		RawChargerState:    rawState,
		SessionEnergy:      float64(w.SessionEnergy),
		ChargingTime:       int(w.ChargingTime),
		InstantPower:       float64(w.InstantPower),
		Temperature:        float64(w.Temperature),
		TotalChargedEnergy: float64(w.TotalChargedEnergy),
		DynamicCurrent:     int(w.DynamicCurrent),
		UserCurrent:        int(w.UserCurrent),
		InstallCurrent:     int(w.InstallCurrent),
		LEDMaxBrightness:   int(w.LEDMaxBrightness),
		HasActiveErrors:    bool(w.HasActiveErrors),
		Overtemp:           bool(w.Overtemp),
		CriticalTemp:       bool(w.CriticalTemp),
		Overcurrent:        bool(w.Overcurrent),
		MeterFault:         bool(w.MeterFault),
		UndervoltageError:  bool(w.UndervoltageError),
		OvervoltageError:   bool(w.OvervoltageError),
		VoltageError:       bool(w.VoltageError),
		RCDError:           bool(w.RCDError),
		CPDiodeFailure:     bool(w.CPDiodeFailure),
		ContactorFailure:   bool(w.ContactorFailure),
		CurrentLimitReason: string(w.CurrentLimitReason),
		RequireAuth:        requireAuth,
		StateEActivated:    bool(w.StateEActivated),
	}, nil
}

// ParseMeterInfo parses an energy meter telemetry payload. Charger fields in
// the payload are ignored.
func ParseMeterInfo(data []byte) (*MeterInfo, error) {
	var w meterInfoWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal meter info: %w", err)
	}
	if w.FirmwareVersion == nil {
		return nil, errMissingField("fw_version")
	}

	mode := LBMode(w.LoadBalancingMode)
	if !mode.Valid() {
		return nil, fmt.Errorf("load_balancing_mode %d outside known modes", int(w.LoadBalancingMode))
	}

	return &MeterInfo{
		Currents:          w.Current,
		Voltages:          w.Voltage,
		ActivePowers:      w.ActivePower,
		PowerFactors:      w.PowerFactor,
		FirmwareVersion:   string(*w.FirmwareVersion),
		BreakerRating:     int(w.BreakerRating),
		LoadBalancingMode: mode,
	}, nil
}

// parseInfo dispatches on the device type hint.
func parseInfo(deviceType DeviceType, data []byte) (Info, error) {
	switch deviceType.Kind() {
	case KindCharger:
		return ParseChargerInfo(data)
	case KindMeter:
		return ParseMeterInfo(data)
	default:
		return nil, fmt.Errorf("no info shape for device type %q", deviceType)
	}
}

// commandRequest is the RPC envelope posted to the command endpoint.
type commandRequest struct {
	Src    string `json:"src"`
	ID     uint32 `json:"id"`
	Method string `json:"method"`
	Params any    `json:"params"`
}

// configSetParams is the params block of an app_config.set command.
type configSetParams struct {
	ConfigKey   string `json:"config_key"`
	ConfigValue any    `json:"config_value"`
}

// AckError is the error block of a command the device refused.
type AckError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ackWire is the command acknowledgement. Only result and error are interpreted.
type ackWire struct {
	Result json.RawMessage `json:"result"`
	Error  *AckError       `json:"error"`
}

// ParseAck extracts the boolean result of a command acknowledgement.
// Both {"result": bool} and {"result": {"result": bool}} are accepted.
// An error acknowledgement yields false and the device's error block.
func ParseAck(data []byte) (bool, *AckError, error) {
	var w ackWire
	if err := json.Unmarshal(data, &w); err != nil {
		return false, nil, fmt.Errorf("failed to unmarshal acknowledgement: %w", err)
	}
	if w.Error != nil {
		return false, w.Error, nil
	}
	if len(w.Result) == 0 || string(w.Result) == "null" {
		return false, nil, errMissingField("result", "error")
	}

	var result bool
	if err := json.Unmarshal(w.Result, &result); err == nil {
		return result, nil, nil
	}

	var nested ackWire
	if err := json.Unmarshal(w.Result, &nested); err != nil || len(nested.Result) == 0 {
		return false, nil, errors.New("result is neither a boolean nor an object carrying one")
	}
	if err := json.Unmarshal(nested.Result, &result); err != nil {
		return false, nil, fmt.Errorf("nested result is not a boolean: %w", err)
	}
	return result, nil, nil
}
