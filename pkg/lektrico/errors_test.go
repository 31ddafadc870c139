package lektrico

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"syscall"
	"testing"
)

func TestClassifyNetworkError_Timeout(t *testing.T) {
	err := &url.Error{
		Op:  "Get",
		URL: "http://192.168.1.20/rpc/device_config.get",
		Err: &net.OpError{
			Op:  "dial",
			Net: "tcp",
			Err: &timeoutError{},
		},
	}

	devErr := ClassifyNetworkError(err, "192.168.1.20")
	if devErr == nil {
		t.Fatal("Expected DeviceError, got nil")
	}
	if devErr.Type != ErrTypeTimeout {
		t.Errorf("Expected error type %v, got %v", ErrTypeTimeout, devErr.Type)
	}
}

func TestClassifyNetworkError_ContextDeadline(t *testing.T) {
	err := fmt.Errorf("request: %w", context.DeadlineExceeded)

	devErr := ClassifyNetworkError(err, "192.168.1.20")
	if devErr.Type != ErrTypeTimeout {
		t.Errorf("Expected error type %v, got %v", ErrTypeTimeout, devErr.Type)
	}
}

func TestClassifyNetworkError_ConnectionRefused(t *testing.T) {
	err := &url.Error{
		Op:  "Post",
		URL: "http://192.168.1.20/rpc",
		Err: &net.OpError{
			Op:  "dial",
			Net: "tcp",
			Err: syscall.ECONNREFUSED,
		},
	}

	devErr := ClassifyNetworkError(err, "192.168.1.20")
	if devErr.Type != ErrTypeConnectionRefused {
		t.Errorf("Expected error type %v, got %v", ErrTypeConnectionRefused, devErr.Type)
	}
}

func TestClassifyNetworkError_Unreachable(t *testing.T) {
	tests := []struct {
		name    string
		errno   syscall.Errno
		wantMsg string
	}{
		{"host unreachable", syscall.EHOSTUNREACH, "host unreachable"},
		{"network unreachable", syscall.ENETUNREACH, "network unreachable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := &net.OpError{Op: "dial", Net: "tcp", Err: tt.errno}
			devErr := ClassifyNetworkError(err, "192.168.1.20")
			if devErr.Type != ErrTypeNetwork {
				t.Errorf("Type = %v, want %v", devErr.Type, ErrTypeNetwork)
			}
			if devErr.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", devErr.Message, tt.wantMsg)
			}
		})
	}
}

func TestClassifyNetworkError_DNS(t *testing.T) {
	err := &net.DNSError{
		Err:        "no such host",
		Name:       "charger.local",
		IsNotFound: true,
	}

	devErr := ClassifyNetworkError(err, "charger.local")
	if devErr.Type != ErrTypeDNS {
		t.Errorf("Expected error type %v, got %v", ErrTypeDNS, devErr.Type)
	}
	if !strings.Contains(devErr.Message, "charger.local") {
		t.Errorf("Message %q should name the host", devErr.Message)
	}
}

func TestClassifyNetworkError_Nil(t *testing.T) {
	if devErr := ClassifyNetworkError(nil, "192.168.1.20"); devErr != nil {
		t.Errorf("Expected nil, got %v", devErr)
	}
}

func TestClassifyNetworkError_Generic(t *testing.T) {
	devErr := ClassifyNetworkError(errors.New("connection reset by peer"), "192.168.1.20")
	if devErr.Type != ErrTypeNetwork {
		t.Errorf("Expected error type %v, got %v", ErrTypeNetwork, devErr.Type)
	}
}

func TestNewNetworkError_KeepsMessage(t *testing.T) {
	devErr := NewNetworkError("192.168.1.20", "GET /rpc/charger_info.get failed", syscall.ECONNREFUSED)

	if devErr.Message != "GET /rpc/charger_info.get failed" {
		t.Errorf("Message = %q", devErr.Message)
	}
	if devErr.Host != "192.168.1.20" {
		t.Errorf("Host = %q, want 192.168.1.20", devErr.Host)
	}
	if !errors.Is(devErr, syscall.ECONNREFUSED) {
		t.Error("Underlying error should be reachable through Unwrap")
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		communication bool
		malformed     bool
		invalid       bool
	}{
		{"network", &DeviceError{Type: ErrTypeNetwork}, true, false, false},
		{"timeout", &DeviceError{Type: ErrTypeTimeout}, true, false, false},
		{"refused", &DeviceError{Type: ErrTypeConnectionRefused}, true, false, false},
		{"dns", &DeviceError{Type: ErrTypeDNS}, true, false, false},
		{"http", NewHTTPError("h", 500, "boom"), true, false, false},
		{"parse", NewParseError("h", "bad json", errors.New("x")), false, true, false},
		{"validation", NewValidationError("out of range"), false, false, true},
		{"wrapped parse", fmt.Errorf("info: %w", NewParseError("h", "bad", nil)), false, true, false},
		{"plain error", errors.New("other"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCommunicationError(tt.err); got != tt.communication {
				t.Errorf("IsCommunicationError() = %v, want %v", got, tt.communication)
			}
			if got := IsMalformedResponseError(tt.err); got != tt.malformed {
				t.Errorf("IsMalformedResponseError() = %v, want %v", got, tt.malformed)
			}
			if got := IsInvalidArgumentError(tt.err); got != tt.invalid {
				t.Errorf("IsInvalidArgumentError() = %v, want %v", got, tt.invalid)
			}
		})
	}
}

func TestDeviceError_Error(t *testing.T) {
	withCause := NewParseError("h", "invalid charger info response", errors.New("unexpected EOF"))
	want := "Malformed Response: invalid charger info response (caused by: unexpected EOF)"
	if withCause.Error() != want {
		t.Errorf("Error() = %q, want %q", withCause.Error(), want)
	}

	plain := NewValidationError("dynamic current must be 0-32A, got 40")
	want = "Invalid Argument: dynamic current must be 0-32A, got 40"
	if plain.Error() != want {
		t.Errorf("Error() = %q, want %q", plain.Error(), want)
	}
}

func TestShortMessage(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{&DeviceError{Type: ErrTypeTimeout}, "Device not responding (timeout)"},
		{&DeviceError{Type: ErrTypeConnectionRefused}, "Device refused connection"},
		{&DeviceError{Type: ErrTypeDNS}, "Cannot resolve device hostname"},
		{&DeviceError{Type: ErrTypeNetwork}, "Network error - check connection"},
		{NewHTTPError("h", 503, "x"), "Device error (HTTP 503)"},
		{NewParseError("h", "x", nil), "Failed to parse device response"},
		{NewValidationError("user current must be 6-32A, got 2"), "user current must be 6-32A, got 2"},
		{errors.New("something else"), "something else"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := ShortMessage(tt.err); got != tt.want {
				t.Errorf("ShortMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTroubleshootingHint(t *testing.T) {
	hint := TroubleshootingHint(&DeviceError{Type: ErrTypeNetwork, Host: "192.168.1.20:8080"})
	if !strings.Contains(hint, "ping 192.168.1.20") {
		t.Errorf("Network hint should suggest pinging the host, got:\n%s", hint)
	}
	if strings.Contains(hint, ":8080") {
		t.Errorf("Ping hint should not include the port, got:\n%s", hint)
	}

	if hint := TroubleshootingHint(NewHTTPError("h", 500, "x")); !strings.Contains(hint, "rebooting") {
		t.Errorf("5xx hint should suggest a reboot, got:\n%s", hint)
	}
	if hint := TroubleshootingHint(NewHTTPError("h", 404, "x")); !strings.Contains(hint, "404") {
		t.Errorf("4xx hint should mention the status, got:\n%s", hint)
	}
	if hint := TroubleshootingHint(NewParseError("h", "x", nil)); !strings.Contains(hint, "identify") {
		t.Errorf("Parse hint should point at identify, got:\n%s", hint)
	}
}

// timeoutError is a mock error that implements timeout behavior
type timeoutError struct{}

func (e *timeoutError) Error() string   { return "i/o timeout" }
func (e *timeoutError) Timeout() bool   { return true }
func (e *timeoutError) Temporary() bool { return true }
