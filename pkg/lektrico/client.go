package lektrico

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the default per-request timeout
	DefaultTimeout = 8 * time.Second

	// DefaultSource is the default "src" field of command envelopes
	DefaultSource = "LEKTRICO-GO"

	// Endpoints of the device's local RPC API
	PathRPC          = "/rpc"
	PathDeviceConfig = "/rpc/device_config.get"
	PathChargerInfo  = "/rpc/charger_info.get"
	PathMeterInfo    = "/rpc/meter_info.get"

	// RPC methods posted to PathRPC
	MethodChargeStart    = "charge.start"
	MethodChargeStop     = "charge.stop"
	MethodDeviceReset    = "device.reset"
	MethodAppConfigSet   = "app_config.set"
	MethodDynamicCurrent = "dynamic_current.set"

	// app_config.set keys
	ConfigKeyHeadless          = "headless"
	ConfigKeyLEDMaxBrightness  = "led_max_brightness"
	ConfigKeyUserCurrent       = "user_current"
	ConfigKeyChargerLocked     = "charger_locked"
	ConfigKeyLoadBalancingMode = "load_balancing_mode"

	maxResponseSize = 1 << 20
)

// Client talks to one Lektrico charger or energy meter over its local HTTP API.
//
// A Client is safe for concurrent use: it holds no per-call state and the
// underlying *http.Client is itself safe for concurrent use.
type Client struct {
	host    string
	timeout time.Duration
	source  string
	logger  *zap.Logger

	// mu guards the lazily created transport
	mu         sync.Mutex
	httpClient *http.Client
	ownsHTTP   bool
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient makes the client use hc. The caller keeps ownership:
// Close never touches a supplied client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
		c.ownsHTTP = false
	}
}

// WithTimeout sets the per-request timeout. Zero disables it, leaving only
// the deadline of the context passed to each call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLogger enables debug-level request tracing.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithSource sets the "src" field sent with commands.
func WithSource(src string) Option {
	return func(c *Client) {
		if src != "" {
			c.source = src
		}
	}
}

// NewClient creates a client for the device at host ("192.168.1.20" or
// "192.168.1.20:8080"). No connection is made until the first call.
func NewClient(host string, opts ...Option) *Client {
	c := &Client{
		host:    host,
		timeout: DefaultTimeout,
		source:  DefaultSource,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Host returns the device host the client was created for.
func (c *Client) Host() string {
	return c.host
}

// Close releases idle connections of a transport the client created itself.
// It is safe to call more than once; a later call recreates the transport.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ownsHTTP && c.httpClient != nil {
		c.httpClient.CloseIdleConnections()
		c.httpClient = nil
		c.ownsHTTP = false
	}
	return nil
}

// transport returns the HTTP client, creating an owned one on first use.
func (c *Client) transport() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: http.DefaultTransport.(*http.Transport).Clone(),
		}
		c.ownsHTTP = true
	}
	return c.httpClient
}

// DeviceConfig retrieves the device identity (type, serial number, board revision).
func (c *Client) DeviceConfig(ctx context.Context) (*Settings, error) {
	body, err := c.request(ctx, http.MethodGet, PathDeviceConfig, nil)
	if err != nil {
		return nil, err
	}

	settings, err := ParseSettings(body)
	if err != nil {
		return nil, NewParseError(c.host, "invalid device config response", err)
	}
	return settings, nil
}

// DeviceInfo retrieves a telemetry snapshot. deviceType selects the endpoint
// and the shape of the result: *ChargerInfo for chargers, *MeterInfo for meters.
func (c *Client) DeviceInfo(ctx context.Context, deviceType DeviceType) (Info, error) {
	if err := ValidateDeviceType(deviceType); err != nil {
		return nil, err
	}

	path := PathChargerInfo
	if deviceType.IsMeter() {
		path = PathMeterInfo
	}

	body, err := c.request(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	info, err := parseInfo(deviceType, body)
	if err != nil {
		return nil, NewParseError(c.host, fmt.Sprintf("invalid %s info response", deviceType.Kind()), err)
	}
	return info, nil
}

// SendChargeStart starts a charging session.
func (c *Client) SendChargeStart(ctx context.Context) (bool, error) {
	return c.sendCommand(ctx, MethodChargeStart, map[string]string{"tag": c.source})
}

// SendChargeStop stops the running charging session.
func (c *Client) SendChargeStop(ctx context.Context) (bool, error) {
	return c.sendCommand(ctx, MethodChargeStop, struct{}{})
}

// SendReset reboots the device. Chargers and meters both accept it.
func (c *Client) SendReset(ctx context.Context) (bool, error) {
	return c.sendCommand(ctx, MethodDeviceReset, struct{}{})
}

// SetAuth enables or disables RFID/app authorisation before charging.
// The device stores the inverse ("headless" mode).
func (c *Client) SetAuth(ctx context.Context, enabled bool) (bool, error) {
	return c.setConfig(ctx, ConfigKeyHeadless, !enabled)
}

// SetLEDMaxBrightness sets the LED brightness in percent (20-100).
func (c *Client) SetLEDMaxBrightness(ctx context.Context, percent int) (bool, error) {
	if err := ValidateLEDMaxBrightness(percent); err != nil {
		return false, err
	}
	return c.setConfig(ctx, ConfigKeyLEDMaxBrightness, percent)
}

// SetDynamicCurrent sets the dynamic current limit in amps (0-32, 0 pauses charging).
func (c *Client) SetDynamicCurrent(ctx context.Context, amps int) (bool, error) {
	if err := ValidateDynamicCurrent(amps); err != nil {
		return false, err
	}
	return c.sendCommand(ctx, MethodDynamicCurrent, map[string]int{"dynamic_current": amps})
}

// SetUserCurrent sets the user current limit in amps (6-32).
func (c *Client) SetUserCurrent(ctx context.Context, amps int) (bool, error) {
	if err := ValidateUserCurrent(amps); err != nil {
		return false, err
	}
	return c.setConfig(ctx, ConfigKeyUserCurrent, amps)
}

// SetChargerLocked locks or unlocks the charger.
func (c *Client) SetChargerLocked(ctx context.Context, locked bool) (bool, error) {
	return c.setConfig(ctx, ConfigKeyChargerLocked, locked)
}

// SetLoadBalancingMode changes the load balancing mode of an energy meter.
func (c *Client) SetLoadBalancingMode(ctx context.Context, mode LBMode) (bool, error) {
	if err := ValidateLBMode(mode); err != nil {
		return false, err
	}
	return c.setConfig(ctx, ConfigKeyLoadBalancingMode, int(mode))
}

func (c *Client) setConfig(ctx context.Context, key string, value any) (bool, error) {
	return c.sendCommand(ctx, MethodAppConfigSet, configSetParams{
		ConfigKey:   key,
		ConfigValue: value,
	})
}

// sendCommand posts an RPC envelope and interprets the acknowledgement.
func (c *Client) sendCommand(ctx context.Context, method string, params any) (bool, error) {
	req := commandRequest{
		Src:    c.source,
		ID:     rand.Uint32(),
		Method: method,
		Params: params,
	}

	body, err := c.request(ctx, http.MethodPost, PathRPC, req)
	if err != nil {
		return false, err
	}

	result, ackErr, err := ParseAck(body)
	if err != nil {
		return false, NewParseError(c.host, fmt.Sprintf("invalid acknowledgement for %s", method), err)
	}
	if ackErr != nil {
		c.logger.Debug("device refused command",
			zap.String("host", c.host),
			zap.String("method", method),
			zap.Int("code", ackErr.Code),
			zap.String("message", ackErr.Message),
		)
	}
	return result, nil
}

// request performs one round trip and returns the raw response body.
func (c *Client) request(ctx context.Context, method, path string, payload any) ([]byte, error) {
	if err := ValidateHost(c.host); err != nil {
		return nil, err
	}

	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, NewValidationError(fmt.Sprintf("failed to encode %s request: %v", path, err))
		}
		reqBody = bytes.NewReader(data)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := (&url.URL{Scheme: "http", Host: c.host, Path: path}).String()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, NewNetworkError(c.host, "failed to create request", err)
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.transport().Do(req)
	if err != nil {
		c.logger.Debug("device request failed",
			zap.String("host", c.host),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, NewNetworkError(c.host, fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("device request",
		zap.String("host", c.host),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, NewHTTPError(c.host, resp.StatusCode, fmt.Sprintf("unexpected status code %d from %s", resp.StatusCode, path))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, NewNetworkError(c.host, "failed to read response body", err)
	}
	return body, nil
}
