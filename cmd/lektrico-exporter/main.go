// Lektrico-exporter is a Prometheus exporter for Lektrico EV chargers and
// energy meters.
//
// Configuration is read from the environment:
//
//	LEKTRICO_DEVICES          name=host:type list, e.g. garage=192.168.1.20:3p22k,meter=192.168.1.21:em
//	LEKTRICO_EXPORTER_LISTEN  listen address (default :9850)
//	LEKTRICO_TIMEOUT          per-request timeout (default 8s)
//	LEKTRICO_LOG_LEVEL        debug, info, warn or error (default info)
//
// Without LEKTRICO_DEVICES the devices saved with lektrico-cli are used.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/muurk/lektrico/internal/exporter"
	"github.com/muurk/lektrico/internal/logging"
	"github.com/muurk/lektrico/internal/version"
	"github.com/muurk/lektrico/pkg/lektrico"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	// An exporter always logs; info unless configured otherwise
	level := cfg.LogLevel
	if level == "" {
		level = "info"
	}
	if err := logging.Initialize(level); err != nil {
		return err
	}
	defer logging.Sync()

	devices, err := cfg.devices()
	if err != nil {
		return err
	}

	logging.Info("Starting lektrico exporter",
		zap.String("version", version.Full()),
		zap.Int("devices", len(devices)),
		zap.Duration("timeout", cfg.Timeout),
	)
	for _, d := range devices {
		logging.Info("Configured device",
			zap.String("device", d.Name),
			zap.String("host", d.Host),
			zap.String("type", d.Type.String()),
		)
	}

	collector := exporter.NewCollector(devices,
		lektrico.WithTimeout(cfg.Timeout),
		lektrico.WithLogger(logging.GetLogger()),
	)
	defer collector.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return exporter.Serve(ctx, cfg.Listen, collector)
}
