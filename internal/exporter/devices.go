package exporter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/muurk/lektrico/internal/config"
	"github.com/muurk/lektrico/pkg/lektrico"
)

// ParseDevices parses a comma separated device list. Each entry is
// "name=host:type", where the name and the type are optional:
//
//	garage=192.168.1.20:3p22k,meter=192.168.1.21:8080:em,192.168.1.22
//
// Unnamed entries are called device0, device1 and so on.
func ParseDevices(list string) ([]Device, error) {
	var devices []Device
	seen := make(map[string]bool)

	for i, entry := range strings.Split(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name := "device" + strconv.Itoa(i)
		hostPart := entry
		if before, after, ok := strings.Cut(entry, "="); ok {
			name = strings.TrimSpace(before)
			hostPart = strings.TrimSpace(after)
			if name == "" {
				return nil, fmt.Errorf("device entry %q has an empty name", entry)
			}
		}

		host, deviceType := splitTypeSuffix(hostPart)
		if err := lektrico.ValidateHost(host); err != nil {
			return nil, fmt.Errorf("device %s: %w", name, err)
		}
		if seen[name] {
			return nil, fmt.Errorf("device name %q is used twice", name)
		}
		seen[name] = true

		devices = append(devices, Device{Name: name, Host: host, Type: deviceType})
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("no devices configured")
	}
	return devices, nil
}

// splitTypeSuffix separates a trailing ":type" from a host. A suffix that is
// not a known device type is left alone, so "host:8080" stays a host and port.
func splitTypeSuffix(s string) (string, lektrico.DeviceType) {
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return s, ""
	}
	t, err := lektrico.ParseDeviceType(s[idx+1:])
	if err != nil {
		return s, ""
	}
	return s[:idx], t
}

// DevicesFromRegistry returns every device of the registry, sorted by name.
func DevicesFromRegistry(reg *config.Registry) []Device {
	names := reg.DeviceNames()
	devices := make([]Device, 0, len(names))
	for _, name := range names {
		d := reg.GetDevice(name)
		devices = append(devices, Device{Name: name, Host: d.Host, Type: d.DeviceType()})
	}
	return devices
}
