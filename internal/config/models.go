package config

import (
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/muurk/lektrico/pkg/lektrico"
)

const (
	// DefaultExporterListen is the address the exporter listens on when unset
	DefaultExporterListen = ":9850"

	registryVersion = 1
)

// Registry represents the entire user configuration file.
// It maps device names to their connection details and holds application preferences.
type Registry struct {
	Version     int                `yaml:"version"`
	Devices     map[string]*Device `yaml:"devices,omitempty"` // Keyed by user-chosen name
	Preferences *Preferences       `yaml:"preferences,omitempty"`
}

// Device represents a named Lektrico charger or energy meter.
type Device struct {
	Host         string        `yaml:"host"`                    // IP address or hostname, optional port
	Type         string        `yaml:"type,omitempty"`          // Device type hint (1p7k, 3p22k, em, 3em)
	SerialNumber int           `yaml:"serial_number,omitempty"` // Last serial number the device reported
	Timeout      time.Duration `yaml:"timeout,omitempty"`       // Per-device request timeout override
	LastSeen     time.Time     `yaml:"last_seen,omitempty"`     // Last successful contact
}

// DeviceType returns the parsed type hint, or "" when none is stored.
func (d *Device) DeviceType() lektrico.DeviceType {
	t, err := lektrico.ParseDeviceType(d.Type)
	if err != nil {
		return ""
	}
	return t
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	DefaultTimeout time.Duration `yaml:"default_timeout"` // Request timeout when neither flag nor device sets one
	ExporterListen string        `yaml:"exporter_listen"` // Listen address for "export"
}

func defaultPreferences() *Preferences {
	return &Preferences{
		DefaultTimeout: lektrico.DefaultTimeout,
		ExporterListen: DefaultExporterListen,
	}
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:     registryVersion,
		Devices:     make(map[string]*Device),
		Preferences: defaultPreferences(),
	}
}

// GetDevice retrieves a device by name.
// Returns nil if the device doesn't exist in the registry.
func (r *Registry) GetDevice(name string) *Device {
	return r.Devices[name]
}

// AddDevice adds or replaces a named device. The host is validated and the
// type, when given, must be one of the supported device types.
func (r *Registry) AddDevice(name, host, deviceType string) (*Device, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("device name cannot be empty")
	}
	if err := lektrico.ValidateHost(host); err != nil {
		return nil, err
	}

	device := &Device{Host: host}
	if deviceType != "" {
		t, err := lektrico.ParseDeviceType(deviceType)
		if err != nil {
			return nil, err
		}
		device.Type = t.String()
	}

	if r.Devices == nil {
		r.Devices = make(map[string]*Device)
	}
	r.Devices[name] = device
	return device, nil
}

// RemoveDevice deletes a device by name and reports whether it existed.
func (r *Registry) RemoveDevice(name string) bool {
	if _, ok := r.Devices[name]; !ok {
		return false
	}
	delete(r.Devices, name)
	return true
}

// DeviceNames returns all device names in sorted order.
func (r *Registry) DeviceNames() []string {
	names := make([]string, 0, len(r.Devices))
	for name := range r.Devices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UpdateDeviceSeen records the identity a device reported and the time of contact.
func (r *Registry) UpdateDeviceSeen(name string, settings *lektrico.Settings) {
	device := r.Devices[name]
	if device == nil {
		return
	}
	device.LastSeen = time.Now()
	if settings != nil {
		device.SerialNumber = settings.SerialNumber
		device.Type = settings.Type.String()
	}
}

// Target is a resolved device address.
type Target struct {
	Name    string              // Registry name, empty for a literal host
	Host    string              // Host to connect to
	Type    lektrico.DeviceType // Type hint, empty when unknown
	Timeout time.Duration       // Effective timeout
}

// Resolve turns a device name or literal host into a Target. Registry names
// take precedence; anything else is treated as a host.
func (r *Registry) Resolve(nameOrHost string) *Target {
	target := &Target{Host: nameOrHost, Timeout: r.DefaultTimeout()}

	if device := r.Devices[nameOrHost]; device != nil {
		target.Name = nameOrHost
		target.Host = device.Host
		target.Type = device.DeviceType()
		if device.Timeout > 0 {
			target.Timeout = device.Timeout
		}
	}
	return target
}

// DefaultTimeout returns the configured request timeout, or the library default.
func (r *Registry) DefaultTimeout() time.Duration {
	if r.Preferences != nil && r.Preferences.DefaultTimeout > 0 {
		return r.Preferences.DefaultTimeout
	}
	return lektrico.DefaultTimeout
}
