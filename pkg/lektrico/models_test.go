package lektrico

import (
	"reflect"
	"testing"
)

// Charger telemetry as reported by a 1p7k on firmware 1.45
const mockChargerInfo = `{"currents":[0.015,0.006,0.011],"voltages":[238.53,238.521,236.852],` +
	`"fw_version":"1.45_beta","extended_charger_state":"A","session_energy":1.25,"charging_time":3725,` +
	`"instant_power":7.36,"temperature":39.8,"dynamic_current":32,"require_auth":false,` +
	`"install_current":6,"led_max_brightness":100,"total_charged_energy":18.0,"has_active_errors":true,` +
	`"state_e_activated":false,"overtemp":false,"critical_temp":true,"overcurrent":false,` +
	`"meter_fault":false,"undervoltage_error":false,"overvoltage_error":true,"rcd_error":false,` +
	`"cp_diode_failure":false,"contactor_failure":false,"headless":false,` +
	`"user_current":32,"current_limit_reason":"Installation current"}`

// Meter telemetry as reported by an EM on firmware 1.15
const mockMeterInfo = `{"current":[0.015,0.006,0.011],"voltage":[238.53,238.521,236.852],` +
	`"active_p":[120.5,0.0,33.25],"fw_version":"1.15","breaker_rating":32,` +
	`"power_factor":[0.98,0.0,0.5],"load_balancing_mode":3}`

func TestParseSettings(t *testing.T) {
	settings, err := ParseSettings([]byte(`{"type":"1p7k","serial_number":500006,"board_revision":"E"}`))
	if err != nil {
		t.Fatalf("ParseSettings failed: %v", err)
	}

	want := &Settings{Type: TypeCharger1P7K, ReportedType: "1p7k", SerialNumber: 500006, BoardRevision: "E"}
	if !reflect.DeepEqual(settings, want) {
		t.Errorf("ParseSettings = %+v, want %+v", settings, want)
	}
}

func TestParseSettings_Coercion(t *testing.T) {
	settings, err := ParseSettings([]byte(`{"type":"3EM","serial_number":"800000","board_revision":2}`))
	if err != nil {
		t.Fatalf("ParseSettings failed: %v", err)
	}
	if settings.Type != TypeMeter3EM {
		t.Errorf("Type = %q, want %q", settings.Type, TypeMeter3EM)
	}
	if settings.ReportedType != "3EM" {
		t.Errorf("ReportedType = %q, want 3EM as sent", settings.ReportedType)
	}
	if settings.SerialNumber != 800000 {
		t.Errorf("SerialNumber = %d, want 800000", settings.SerialNumber)
	}
	if settings.BoardRevision != "2" {
		t.Errorf("BoardRevision = %q, want \"2\"", settings.BoardRevision)
	}
}

func TestParseSettings_Calibration(t *testing.T) {
	data := `{"type":"1p7k","serial_number":500006,"board_revision":"B","overtemp_threshold":65,` +
		`"critical_temp_threshold":"75","voltage_gain":1.02,"current_gain":"0.98",` +
		`"calibration_temperature":25.0,"rcd_enabled":1,"temp_offset":-1.5}`

	settings, err := ParseSettings([]byte(data))
	if err != nil {
		t.Fatalf("ParseSettings failed: %v", err)
	}

	want := &Settings{
		Type:                   TypeCharger1P7K,
		ReportedType:           "1p7k",
		SerialNumber:           500006,
		BoardRevision:          "B",
		OvertempThreshold:      65,
		CriticalTempThreshold:  75,
		VoltageGain:            1.02,
		CurrentGain:            0.98,
		CalibrationTemperature: 25,
		TempOffset:             -1.5,
		RCDEnabled:             true,
	}
	if !reflect.DeepEqual(settings, want) {
		t.Errorf("ParseSettings = %+v, want %+v", settings, want)
	}
	if !settings.HasCalibration() {
		t.Error("HasCalibration() = false, want true")
	}
}

func TestParseSettings_NoCalibration(t *testing.T) {
	settings, err := ParseSettings([]byte(`{"type":"em","serial_number":800000,"board_revision":"A"}`))
	if err != nil {
		t.Fatalf("ParseSettings failed: %v", err)
	}
	if settings.HasCalibration() {
		t.Errorf("HasCalibration() = true for a payload without calibration: %+v", settings)
	}
}

func TestParseSettings_LargeSerial(t *testing.T) {
	tests := []struct {
		name    string
		serial  string
		want    int
		wantErr bool
	}{
		{"above float precision", `9007199254740993`, 9007199254740993, false},
		{"max int64", `9223372036854775807`, 9223372036854775807, false},
		{"numeric string", `"9007199254740993"`, 9007199254740993, false},
		{"integral float string", `"16.0"`, 16, false},
		{"overflow", `9223372036854775808`, 0, true},
		{"overflow as string", `"9223372036854775808"`, 0, true},
		{"inexact float", `9007199254740993.0`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := `{"type":"1p7k","serial_number":` + tt.serial + `,"board_revision":"E"}`
			settings, err := ParseSettings([]byte(data))
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseSettings(%s) = #%d, expected error", tt.serial, settings.SerialNumber)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSettings(%s) failed: %v", tt.serial, err)
			}
			if settings.SerialNumber != tt.want {
				t.Errorf("SerialNumber = %d, want %d", settings.SerialNumber, tt.want)
			}
		})
	}
}

func TestParseSettings_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `<html>busy</html>`},
		{"truncated", `{"type":"1p7k","serial_`},
		{"missing type", `{"serial_number":1,"board_revision":"E"}`},
		{"missing serial", `{"type":"1p7k","board_revision":"E"}`},
		{"missing board revision", `{"type":"1p7k","serial_number":1}`},
		{"unknown type", `{"type":"toaster","serial_number":1,"board_revision":"E"}`},
		{"fractional serial", `{"type":"em","serial_number":1.5,"board_revision":"E"}`},
		{"serial not numeric", `{"type":"em","serial_number":"abc","board_revision":"E"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseSettings([]byte(tt.data)); err == nil {
				t.Errorf("ParseSettings(%s) expected error", tt.data)
			}
		})
	}
}

func TestParseChargerInfo(t *testing.T) {
	info, err := ParseChargerInfo([]byte(mockChargerInfo))
	if err != nil {
		t.Fatalf("ParseChargerInfo failed: %v", err)
	}

	if info.ChargerState != StateAvailable {
		t.Errorf("ChargerState = %q, want %q", info.ChargerState, StateAvailable)
	}
	if info.RawChargerState != "A" {
		t.Errorf("RawChargerState = %q, want A", info.RawChargerState)
	}
	if info.FirmwareVersion != "1.45_beta" {
		t.Errorf("FirmwareVersion = %q", info.FirmwareVersion)
	}
	if !reflect.DeepEqual(info.Voltages, []float64{238.53, 238.521, 236.852}) {
		t.Errorf("Voltages = %v", info.Voltages)
	}
	if !reflect.DeepEqual(info.Currents, []float64{0.015, 0.006, 0.011}) {
		t.Errorf("Currents = %v", info.Currents)
	}
	if info.SessionEnergy != 1.25 || info.InstantPower != 7.36 || info.Temperature != 39.8 {
		t.Errorf("numeric fields lost precision: %+v", info)
	}
	if info.ChargingTime != 3725 {
		t.Errorf("ChargingTime = %d, want 3725", info.ChargingTime)
	}
	if info.DynamicCurrent != 32 || info.UserCurrent != 32 || info.InstallCurrent != 6 {
		t.Errorf("current limits = %d/%d/%d", info.DynamicCurrent, info.UserCurrent, info.InstallCurrent)
	}
	if info.CurrentLimitReason != "Installation current" {
		t.Errorf("CurrentLimitReason = %q", info.CurrentLimitReason)
	}

	// Fault flags mirror the payload one to one
	flags := map[string][2]bool{
		"has_active_errors":  {info.HasActiveErrors, true},
		"overtemp":           {info.Overtemp, false},
		"critical_temp":      {info.CriticalTemp, true},
		"overcurrent":        {info.Overcurrent, false},
		"meter_fault":        {info.MeterFault, false},
		"undervoltage_error": {info.UndervoltageError, false},
		"overvoltage_error":  {info.OvervoltageError, true},
		"voltage_error":      {info.VoltageError, false},
		"rcd_error":          {info.RCDError, false},
		"cp_diode_failure":   {info.CPDiodeFailure, false},
		"contactor_failure":  {info.ContactorFailure, false},
		"state_e_activated":  {info.StateEActivated, false},
	}
	for name, v := range flags {
		if v[0] != v[1] {
			t.Errorf("%s = %v, want %v", name, v[0], v[1])
		}
	}

	if !reflect.DeepEqual(info.ActiveFaults(), []string{"critical_temp", "overvoltage"}) {
		t.Errorf("ActiveFaults() = %v", info.ActiveFaults())
	}

	// headless=false wins over require_auth=false
	if !info.RequireAuth {
		t.Error("RequireAuth should be derived from headless")
	}
}

func TestParseChargerInfo_Coercion(t *testing.T) {
	data := `{"current":"15.5","voltage":230,"fw_version":1.5,"charger_state":"C",` +
		`"session_energy":"2.5","charging_time":"60","overtemp":1,"rcd_error":"true",` +
		`"require_auth":true,"temperature":null}`

	info, err := ParseChargerInfo([]byte(data))
	if err != nil {
		t.Fatalf("ParseChargerInfo failed: %v", err)
	}

	if !reflect.DeepEqual(info.Currents, []float64{15.5}) {
		t.Errorf("Currents = %v, want [15.5]", info.Currents)
	}
	if !reflect.DeepEqual(info.Voltages, []float64{230}) {
		t.Errorf("Voltages = %v, want [230]", info.Voltages)
	}
	if info.FirmwareVersion != "1.5" {
		t.Errorf("FirmwareVersion = %q, want 1.5", info.FirmwareVersion)
	}
	if info.ChargerState != StateCharging {
		t.Errorf("ChargerState = %q, want %q", info.ChargerState, StateCharging)
	}
	if info.SessionEnergy != 2.5 || info.ChargingTime != 60 {
		t.Errorf("SessionEnergy/ChargingTime = %v/%d", info.SessionEnergy, info.ChargingTime)
	}
	if !info.Overtemp || !info.RCDError {
		t.Errorf("Overtemp/RCDError = %v/%v, want true/true", info.Overtemp, info.RCDError)
	}
	if !info.RequireAuth {
		t.Error("RequireAuth should fall back to require_auth when headless is absent")
	}
	if info.Temperature != 0 {
		t.Errorf("Temperature = %v, want 0 for null", info.Temperature)
	}
}

func TestParseChargerInfo_VoltageError(t *testing.T) {
	info, err := ParseChargerInfo([]byte(`{"fw_version":"1.0","extended_charger_state":"A","voltage_error":true}`))
	if err != nil {
		t.Fatalf("ParseChargerInfo failed: %v", err)
	}
	if !info.VoltageError {
		t.Error("VoltageError = false, want true")
	}
	if !reflect.DeepEqual(info.ActiveFaults(), []string{"voltage_error"}) {
		t.Errorf("ActiveFaults() = %v, want [voltage_error]", info.ActiveFaults())
	}
}

func TestParseChargerInfo_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `Internal Server Error`},
		{"truncated", mockChargerInfo[:len(mockChargerInfo)/2]},
		{"missing firmware", `{"extended_charger_state":"A"}`},
		{"missing state", `{"fw_version":"1.45"}`},
		{"wrong type", `{"fw_version":"1.45","charger_state":"A","session_energy":"lots"}`},
		{"array body", `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseChargerInfo([]byte(tt.data)); err == nil {
				t.Errorf("ParseChargerInfo expected error for %s", tt.name)
			}
		})
	}
}

func TestParseMeterInfo(t *testing.T) {
	info, err := ParseMeterInfo([]byte(mockMeterInfo))
	if err != nil {
		t.Fatalf("ParseMeterInfo failed: %v", err)
	}

	want := &MeterInfo{
		Currents:          []float64{0.015, 0.006, 0.011},
		Voltages:          []float64{238.53, 238.521, 236.852},
		ActivePowers:      []float64{120.5, 0.0, 33.25},
		PowerFactors:      []float64{0.98, 0.0, 0.5},
		FirmwareVersion:   "1.15",
		BreakerRating:     32,
		LoadBalancingMode: LBModeGreen,
	}
	if !reflect.DeepEqual(info, want) {
		t.Errorf("ParseMeterInfo = %+v, want %+v", info, want)
	}
	if info.TotalActivePower() != 153.75 {
		t.Errorf("TotalActivePower() = %v, want 153.75", info.TotalActivePower())
	}
}

func TestParseMeterInfo_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing firmware", `{"current":[1],"load_balancing_mode":0}`},
		{"unknown lb mode", `{"fw_version":"1.15","load_balancing_mode":9}`},
		{"truncated", mockMeterInfo[:20]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseMeterInfo([]byte(tt.data)); err == nil {
				t.Errorf("ParseMeterInfo expected error for %s", tt.name)
			}
		})
	}
}

func TestParseInfo_MeterIgnoresChargerFields(t *testing.T) {
	payload := `{"current":[1.0],"voltage":[230.0],"active_p":[230.0],"power_factor":[1.0],` +
		`"fw_version":"1.15","breaker_rating":25,"load_balancing_mode":1,` +
		`"extended_charger_state":"C","session_energy":5.0,"overtemp":true}`

	info, err := parseInfo(TypeMeterEM, []byte(payload))
	if err != nil {
		t.Fatalf("parseInfo failed: %v", err)
	}
	meter, ok := info.(*MeterInfo)
	if !ok {
		t.Fatalf("parseInfo returned %T, want *MeterInfo", info)
	}
	if meter.Kind() != KindMeter {
		t.Errorf("Kind() = %v, want meter", meter.Kind())
	}
	if meter.LoadBalancingMode != LBModePower || meter.BreakerRating != 25 {
		t.Errorf("meter = %+v", meter)
	}
}

func TestParseAck(t *testing.T) {
	tests := []struct {
		name       string
		data       string
		want       bool
		wantAckErr bool
		wantErr    bool
	}{
		{"flat true", `{"id":57130362,"src":"1p7k_500006","dst":"HASS","result":true}`, true, false, false},
		{"flat false", `{"id":1,"result":false}`, false, false, false},
		{"nested true", `{"id":1,"result":{"result":true}}`, true, false, false},
		{"nested false", `{"id":1,"result":{"result":false,"extra":1}}`, false, false, false},
		{"error envelope", `{"id":1,"error":{"code":-32601,"message":"Method not found"}}`, false, true, false},
		{"missing result", `{"id":1,"src":"1p7k_500006"}`, false, false, true},
		{"null result", `{"id":1,"result":null}`, false, false, true},
		{"string result", `{"id":1,"result":"ok"}`, false, false, true},
		{"nested without result", `{"id":1,"result":{"ok":true}}`, false, false, true},
		{"nested wrong type", `{"id":1,"result":{"result":"yes"}}`, false, false, true},
		{"not json", `OK`, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ackErr, err := ParseAck([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseAck(%s) error = %v, wantErr %v", tt.data, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseAck(%s) = %v, want %v", tt.data, got, tt.want)
			}
			if (ackErr != nil) != tt.wantAckErr {
				t.Errorf("ParseAck(%s) ackErr = %v, wantAckErr %v", tt.data, ackErr, tt.wantAckErr)
			}
		})
	}
}

func TestAckErrorFields(t *testing.T) {
	_, ackErr, err := ParseAck([]byte(`{"error":{"code":-32602,"message":"Invalid params"}}`))
	if err != nil {
		t.Fatalf("ParseAck failed: %v", err)
	}
	if ackErr.Code != -32602 || ackErr.Message != "Invalid params" {
		t.Errorf("AckError = %+v", ackErr)
	}
}
