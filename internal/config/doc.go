// Package config provides user configuration management for the lektrico CLI.
//
// This package manages a YAML-based configuration file that maps short device
// names ("garage", "meter") to hosts and device type hints, plus a few
// application preferences. The configuration follows OS-specific conventions
// for storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/lektrico/config.yaml or $HOME/.config/lektrico/config.yaml
//   - macOS: $HOME/.config/lektrico/config.yaml
//   - Windows: %LOCALAPPDATA%\lektrico\config.yaml
//
// LEKTRICO_CONFIG overrides the location.
//
// # Usage Example
//
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    return err
//	}
//	if _, err := registry.AddDevice("garage", "192.168.1.20", "3p22k"); err != nil {
//	    return err
//	}
//	if err := registry.Save(); err != nil {
//	    return err
//	}
//
//	target := registry.Resolve("garage") // Host 192.168.1.20, Type 3p22k
//
// # File Format
//
//	version: 1
//	devices:
//	  garage:
//	    host: 192.168.1.20
//	    type: 3p22k
//	    serial_number: 500006
//	    timeout: 5s
//	preferences:
//	  default_timeout: 8s
//	  exporter_listen: ":9850"
package config
