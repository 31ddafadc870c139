package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/muurk/lektrico/pkg/lektrico"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	require.NoError(t, err)
	assert.NotEmpty(t, configDir)
	assert.Contains(t, configDir, "lektrico")

	switch runtime.GOOS {
	case "windows":
		assert.True(t, strings.Contains(configDir, "AppData") || strings.Contains(configDir, "Local"),
			"Windows config dir should contain 'AppData' or 'Local', got: %v", configDir)
	case "darwin":
		assert.Contains(t, configDir, ".config")
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")

	configDir, err := GetConfigDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/xdg", "lektrico"), configDir)
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	configPath, err := GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "config.yaml", filepath.Base(configPath))

	t.Setenv(ConfigPathEnvVar, "/etc/lektrico.yaml")
	configPath, err = GetConfigPath()
	require.NoError(t, err)
	assert.Equal(t, "/etc/lektrico.yaml", configPath)
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	assert.Equal(t, 1, reg.Version)
	assert.NotNil(t, reg.Devices)
	require.NotNil(t, reg.Preferences)
	assert.Equal(t, lektrico.DefaultTimeout, reg.Preferences.DefaultTimeout)
	assert.Equal(t, DefaultExporterListen, reg.Preferences.ExporterListen)
}

func TestRegistryAddDevice(t *testing.T) {
	reg := NewRegistry()

	device, err := reg.AddDevice("garage", "192.168.1.20", "3P22K")
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.20", device.Host)
	assert.Equal(t, "3p22k", device.Type)
	assert.Same(t, device, reg.GetDevice("garage"))

	// Type hint is optional
	device, err = reg.AddDevice("meter", "192.168.1.21:8080", "")
	require.NoError(t, err)
	assert.Empty(t, device.Type)
	assert.Equal(t, lektrico.DeviceType(""), device.DeviceType())
}

func TestRegistryAddDevice_Invalid(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.AddDevice("", "192.168.1.20", "")
	assert.Error(t, err)

	_, err = reg.AddDevice("garage", "http://192.168.1.20", "")
	assert.True(t, lektrico.IsInvalidArgumentError(err))

	_, err = reg.AddDevice("garage", "192.168.1.20", "wallbox")
	assert.True(t, lektrico.IsInvalidArgumentError(err))

	assert.Empty(t, reg.Devices)
}

func TestRegistryRemoveDevice(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.AddDevice("garage", "192.168.1.20", "1p7k")
	require.NoError(t, err)

	assert.True(t, reg.RemoveDevice("garage"))
	assert.False(t, reg.RemoveDevice("garage"))
	assert.Nil(t, reg.GetDevice("garage"))
}

func TestRegistryDeviceNames(t *testing.T) {
	reg := NewRegistry()
	for _, name := range []string{"meter", "garage", "driveway"} {
		_, err := reg.AddDevice(name, "192.168.1.20", "")
		require.NoError(t, err)
	}

	assert.Equal(t, []string{"driveway", "garage", "meter"}, reg.DeviceNames())
}

func TestRegistryUpdateDeviceSeen(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.AddDevice("garage", "192.168.1.20", "")
	require.NoError(t, err)

	before := time.Now()
	reg.UpdateDeviceSeen("garage", &lektrico.Settings{Type: lektrico.TypeCharger1P7K, SerialNumber: 500006, BoardRevision: "E"})

	device := reg.GetDevice("garage")
	assert.Equal(t, 500006, device.SerialNumber)
	assert.Equal(t, lektrico.TypeCharger1P7K, device.DeviceType())
	assert.False(t, device.LastSeen.Before(before))

	// unknown names are ignored
	reg.UpdateDeviceSeen("nope", nil)
	assert.Nil(t, reg.GetDevice("nope"))
}

func TestRegistryResolve(t *testing.T) {
	reg := NewRegistry()
	reg.Preferences.DefaultTimeout = 3 * time.Second

	device, err := reg.AddDevice("garage", "192.168.1.20", "3em")
	require.NoError(t, err)
	device.Timeout = 10 * time.Second

	target := reg.Resolve("garage")
	assert.Equal(t, &Target{
		Name:    "garage",
		Host:    "192.168.1.20",
		Type:    lektrico.TypeMeter3EM,
		Timeout: 10 * time.Second,
	}, target)

	target = reg.Resolve("192.168.1.99")
	assert.Equal(t, &Target{
		Host:    "192.168.1.99",
		Timeout: 3 * time.Second,
	}, target)
}

func TestRegistrySaveAndLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	reg := NewRegistry()
	device, err := reg.AddDevice("garage", "192.168.1.20", "1p7k")
	require.NoError(t, err)
	device.Timeout = 5 * time.Second
	device.SerialNumber = 500006
	reg.Preferences.ExporterListen = "127.0.0.1:9999"

	require.NoError(t, reg.SaveTo(configPath))

	info, err := os.Stat(configPath)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	}
	_, err = os.Stat(configPath + ".tmp")
	assert.True(t, os.IsNotExist(err), "temporary file should be renamed away")

	raw, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "timeout: 5s")
	assert.Contains(t, string(raw), "# Lektrico Configuration File")

	loaded, err := LoadRegistryFrom(configPath)
	require.NoError(t, err)

	got := loaded.GetDevice("garage")
	require.NotNil(t, got)
	assert.Equal(t, "192.168.1.20", got.Host)
	assert.Equal(t, "1p7k", got.Type)
	assert.Equal(t, 500006, got.SerialNumber)
	assert.Equal(t, 5*time.Second, got.Timeout)
	assert.True(t, got.LastSeen.IsZero())
	assert.Equal(t, "127.0.0.1:9999", loaded.Preferences.ExporterListen)
}

func TestLoadRegistryFrom_Missing(t *testing.T) {
	reg, err := LoadRegistryFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, NewRegistry(), reg)
}

func TestLoadRegistryFrom_Invalid(t *testing.T) {
	dir := t.TempDir()

	badYAML := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(badYAML, []byte("devices: [unclosed"), 0600))
	_, err := LoadRegistryFrom(badYAML)
	assert.ErrorContains(t, err, "failed to parse config file")

	badVersion := filepath.Join(dir, "v2.yaml")
	require.NoError(t, os.WriteFile(badVersion, []byte("version: 2\n"), 0600))
	_, err = LoadRegistryFrom(badVersion)
	assert.ErrorContains(t, err, "unsupported config version")
}

func TestLoadRegistryFrom_FillsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("version: 1\n"), 0600))

	reg, err := LoadRegistryFrom(configPath)
	require.NoError(t, err)
	assert.NotNil(t, reg.Devices)
	assert.Equal(t, defaultPreferences(), reg.Preferences)
}

func TestGlobalRegistry(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv(ConfigPathEnvVar, configPath)
	resetGlobal()
	t.Cleanup(resetGlobal)

	reg, err := LoadRegistry()
	require.NoError(t, err)
	_, err = reg.AddDevice("garage", "192.168.1.20", "em")
	require.NoError(t, err)
	require.NoError(t, reg.Save())

	again, err := LoadRegistry()
	require.NoError(t, err)
	assert.Same(t, reg, again, "LoadRegistry should return the cached instance")

	reloaded, err := ReloadRegistry()
	require.NoError(t, err)
	assert.NotSame(t, reg, reloaded)
	assert.Equal(t, "em", reloaded.GetDevice("garage").Type)
}

func resetGlobal() {
	globalRegistryOnce = sync.Once{}
	globalRegistry = nil
	globalRegistryErr = nil
}

func BenchmarkResolve(b *testing.B) {
	reg := NewRegistry()
	_, _ = reg.AddDevice("garage", "192.168.1.20", "3p22k")
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		reg.Resolve("garage")
	}
}
