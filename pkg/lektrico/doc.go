// Package lektrico provides an HTTP client for Lektrico EV chargers and energy meters.
//
// This package implements a client for the device's local HTTP API, enabling
// reading identity and live telemetry, starting and stopping charging sessions,
// and changing device settings such as current limits, LED brightness and the
// energy meter's load balancing mode.
//
// # Device Types
//
// Four models are supported, split into two telemetry shapes:
//   - Chargers: "1p7k" (single-phase 7.4 kW) and "3p22k" (three-phase 22 kW)
//   - Energy meters: "em" (single-phase) and "3em" (three-phase)
//
// DeviceConfig reports which one is listening; DeviceInfo needs the type to pick
// the endpoint and returns *ChargerInfo or *MeterInfo accordingly.
//
// # Usage Example
//
//	client := lektrico.NewClient("192.168.1.20", lektrico.WithTimeout(5*time.Second))
//	defer client.Close()
//
//	settings, err := client.DeviceConfig(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	info, err := client.DeviceInfo(ctx, settings.Type)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if charger, ok := info.(*lektrico.ChargerInfo); ok {
//	    fmt.Println(charger.ChargerState, charger.InstantPower)
//	}
//
//	ok, err := client.SetDynamicCurrent(ctx, 16)
//
// # Commands
//
// Commands and setters return (bool, error). The boolean is the device's own
// acknowledgement: false means the device answered but refused. An error means
// the device could not be reached, answered with a non-2xx status, or sent a
// body that could not be parsed.
//
// # Errors
//
// All errors are *DeviceError values. Use errors.Is with ErrCommunication,
// ErrMalformedResponse or ErrInvalidArgument to branch on the kind. Invalid
// arguments (out-of-range values, malformed host) are rejected before any
// network call.
//
// # Thread Safety
//
// A Client is safe for concurrent use by multiple goroutines.
package lektrico
