package lektrico

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error (unreachable host, reset connection, etc.)
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates the request did not complete in time
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the device refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeHTTP indicates the device answered with a non-2xx status code
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed response (invalid JSON, missing fields)
	ErrTypeParse
	// ErrTypeValidation indicates an invalid argument, rejected before any request
	ErrTypeValidation
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Malformed Response"
	case ErrTypeValidation:
		return "Invalid Argument"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Sentinel errors matching the three error kinds through errors.Is.
var (
	ErrCommunication     = errors.New("communication error")
	ErrMalformedResponse = errors.New("malformed response")
	ErrInvalidArgument   = errors.New("invalid argument")
)

// DeviceError represents an error that occurred while talking to a device
type DeviceError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (ErrTypeHTTP only)
	Err        error     // Underlying error (if any)
	Host       string    // Device host (for context)
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error's kind.
func (e *DeviceError) Is(target error) bool {
	switch target {
	case ErrCommunication:
		return e.isCommunication()
	case ErrMalformedResponse:
		return e.Type == ErrTypeParse
	case ErrInvalidArgument:
		return e.Type == ErrTypeValidation
	}
	return false
}

func (e *DeviceError) isCommunication() bool {
	switch e.Type {
	case ErrTypeNetwork, ErrTypeTimeout, ErrTypeConnectionRefused, ErrTypeDNS, ErrTypeHTTP:
		return true
	}
	return false
}

// ClassifyNetworkError analyzes a transport error and returns a typed DeviceError
func ClassifyNetworkError(err error, host string) *DeviceError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err) {
		return &DeviceError{
			Type:    ErrTypeTimeout,
			Message: "request timed out",
			Err:     err,
			Host:    host,
		}
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return &DeviceError{
			Type:    ErrTypeDNS,
			Message: fmt.Sprintf("DNS resolution failed for %s", dnsErr.Name),
			Err:     err,
			Host:    host,
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return &DeviceError{
				Type:    ErrTypeConnectionRefused,
				Message: "device refused connection",
				Err:     err,
				Host:    host,
			}
		}
		if errors.Is(opErr.Err, syscall.EHOSTUNREACH) {
			return &DeviceError{
				Type:    ErrTypeNetwork,
				Message: "host unreachable",
				Err:     err,
				Host:    host,
			}
		}
		if errors.Is(opErr.Err, syscall.ENETUNREACH) {
			return &DeviceError{
				Type:    ErrTypeNetwork,
				Message: "network unreachable",
				Err:     err,
				Host:    host,
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil && urlErr.Err != err {
		return ClassifyNetworkError(urlErr.Err, host)
	}

	return &DeviceError{
		Type:    ErrTypeNetwork,
		Message: "network error occurred",
		Err:     err,
		Host:    host,
	}
}

// NewNetworkError creates a communication error with automatic classification
func NewNetworkError(host, message string, err error) *DeviceError {
	classified := ClassifyNetworkError(err, host)
	if classified == nil {
		return &DeviceError{Type: ErrTypeNetwork, Message: message, Host: host}
	}
	classified.Message = message
	return classified
}

// NewHTTPError creates an error for a non-2xx answer
func NewHTTPError(host string, statusCode int, message string) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Host:       host,
	}
}

// NewParseError creates a malformed response error
func NewParseError(host, message string, err error) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeParse,
		Message: message,
		Err:     err,
		Host:    host,
	}
}

// NewValidationError creates an invalid argument error
func NewValidationError(message string) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeValidation,
		Message: message,
	}
}

// IsCommunicationError reports whether err is a connect failure, timeout or non-2xx status
func IsCommunicationError(err error) bool {
	return errors.Is(err, ErrCommunication)
}

// IsMalformedResponseError reports whether err is a response parsing failure
func IsMalformedResponseError(err error) bool {
	return errors.Is(err, ErrMalformedResponse)
}

// IsInvalidArgumentError reports whether err is a rejected caller argument
func IsInvalidArgumentError(err error) bool {
	return errors.Is(err, ErrInvalidArgument)
}

// ShortMessage returns a concise, user-friendly error message
func ShortMessage(err error) string {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return err.Error()
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return "Device not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Device refused connection"
	case ErrTypeDNS:
		return "Cannot resolve device hostname"
	case ErrTypeNetwork:
		return "Network error - check connection"
	case ErrTypeHTTP:
		return fmt.Sprintf("Device error (HTTP %d)", devErr.StatusCode)
	case ErrTypeParse:
		return "Failed to parse device response"
	default:
		return devErr.Message
	}
}

// TroubleshootingHint returns user-facing advice for an error
func TroubleshootingHint(err error) string {
	var devErr *DeviceError
	if !errors.As(err, &devErr) {
		return "An unexpected error occurred. Please try again."
	}

	switch devErr.Type {
	case ErrTypeTimeout:
		return strings.Join([]string{
			"The device did not respond in time.",
			"Troubleshooting:",
			"  • Check that the charger or meter is powered on",
			"  • Verify the device is connected to your WiFi network",
			"  • Try increasing --timeout",
		}, "\n")

	case ErrTypeConnectionRefused:
		return strings.Join([]string{
			"The device refused the connection.",
			"Troubleshooting:",
			"  • Verify the IP address belongs to a Lektrico device",
			"  • The local API may be restarting - wait a few seconds and retry",
		}, "\n")

	case ErrTypeDNS:
		return strings.Join([]string{
			"Could not resolve the device hostname.",
			"Troubleshooting:",
			"  • Use the IP address instead of hostname",
			"  • Check your network DNS settings",
		}, "\n")

	case ErrTypeNetwork:
		hint := []string{
			"Network communication failed.",
			"Troubleshooting:",
			"  • Check that you are on the same network as the device",
			"  • Verify the device IP address is correct",
		}
		if devErr.Host != "" {
			hint = append(hint, "  • Try pinging the device: ping "+hostOnly(devErr.Host))
		}
		return strings.Join(hint, "\n")

	case ErrTypeHTTP:
		if devErr.StatusCode >= 500 {
			return strings.Join([]string{
				fmt.Sprintf("The device returned an error (HTTP %d).", devErr.StatusCode),
				"Troubleshooting:",
				"  • Try rebooting the device",
				"  • Check if a firmware update is available",
			}, "\n")
		}
		return fmt.Sprintf("The device returned HTTP error %d. The firmware may not support this endpoint.", devErr.StatusCode)

	case ErrTypeParse:
		return strings.Join([]string{
			"Failed to parse the device's response.",
			"This may indicate a firmware incompatibility or a wrong --type.",
			"Troubleshooting:",
			"  • Run 'identify' to check the reported device type",
			"  • Check if a firmware update is available",
		}, "\n")

	case ErrTypeValidation:
		return "The value is outside the range accepted by the device."

	default:
		return "An error occurred. Please check the error message for details."
	}
}

func hostOnly(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
