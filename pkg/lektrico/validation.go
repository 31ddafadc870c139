package lektrico

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Accepted ranges for the setters. The device enforces its own limits as
// well; these bounds only keep obviously invalid values off the wire.
const (
	MinLEDMaxBrightness = 20
	MaxLEDMaxBrightness = 100

	// A dynamic current of 0 pauses charging.
	MinDynamicCurrent = 0
	MaxDynamicCurrent = 32

	MinUserCurrent = 6
	MaxUserCurrent = 32
)

// ValidateHost validates a device host: an IP address or hostname with an
// optional port, without scheme or path.
func ValidateHost(host string) error {
	if host == "" {
		return NewValidationError("device host cannot be empty")
	}
	if strings.ContainsAny(host, " \t\n\r") {
		return NewValidationError(fmt.Sprintf("device host %q contains whitespace", host))
	}
	if strings.Contains(host, "://") {
		return NewValidationError(fmt.Sprintf("device host %q must not include a scheme", host))
	}
	if strings.ContainsAny(host, "/?#") {
		return NewValidationError(fmt.Sprintf("device host %q must not include a path", host))
	}
	if h, port, err := net.SplitHostPort(host); err == nil {
		if h == "" {
			return NewValidationError(fmt.Sprintf("device host %q has an empty hostname", host))
		}
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return NewValidationError(fmt.Sprintf("device port must be 1-65535, got %q", port))
		}
	}
	return nil
}

// ValidateDeviceType validates a device type hint.
func ValidateDeviceType(t DeviceType) error {
	if t.Kind() == KindUnknown {
		return NewValidationError(fmt.Sprintf("unknown device type %q (want one of %s)", string(t), joinTypes()))
	}
	return nil
}

// ValidateLEDMaxBrightness validates an LED brightness percentage (20-100).
func ValidateLEDMaxBrightness(percent int) error {
	return validateRange("LED max brightness", percent, MinLEDMaxBrightness, MaxLEDMaxBrightness, "%")
}

// ValidateDynamicCurrent validates a dynamic current limit in amps (0-32).
func ValidateDynamicCurrent(amps int) error {
	return validateRange("dynamic current", amps, MinDynamicCurrent, MaxDynamicCurrent, "A")
}

// ValidateUserCurrent validates a user current limit in amps (6-32).
func ValidateUserCurrent(amps int) error {
	return validateRange("user current", amps, MinUserCurrent, MaxUserCurrent, "A")
}

// ValidateLBMode validates a load balancing mode.
func ValidateLBMode(mode LBMode) error {
	if !mode.Valid() {
		return NewValidationError(fmt.Sprintf("load balancing mode must be 0-3 (OFF, POWER, HYBRID, GREEN), got %d", int(mode)))
	}
	return nil
}

func validateRange(name string, v, lo, hi int, unit string) error {
	if v < lo || v > hi {
		return NewValidationError(fmt.Sprintf("%s must be %d-%d%s, got %d", name, lo, hi, unit, v))
	}
	return nil
}
