package exporter

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/muurk/lektrico/internal/logging"
)

const shutdownTimeout = 5 * time.Second

var landingPage = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html>
<head><title>Lektrico Exporter</title></head>
<body>
<h1>Lektrico Prometheus Exporter</h1>
<p>Monitoring {{len .}} device(s)</p>
<ul>
{{range .}}<li>{{.Name}}: {{.Host}}{{if .Type}} ({{.Type}}){{end}}</li>
{{end}}</ul>
<p><a href="/metrics">Metrics</a></p>
</body>
</html>
`))

// NewHandler returns the exporter's HTTP handler: /metrics, /health and a
// landing page listing the devices.
func NewHandler(c *Collector) (http.Handler, error) {
	registry := prometheus.NewRegistry()
	if err := registry.Register(c); err != nil {
		return nil, fmt.Errorf("failed to register collector: %w", err)
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	devices := make([]Device, len(c.targets))
	for i, t := range c.targets {
		devices[i] = t.Device
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = landingPage.Execute(w, devices)
	})

	return mux, nil
}

// Serve runs the exporter on listen until ctx is cancelled. Cancelling ctx
// also stops the collector's in-flight device calls.
func Serve(ctx context.Context, listen string, c *Collector) error {
	handler, err := NewHandler(c)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              listen,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Exporter listening",
			zap.String("listen", listen),
			zap.Int("devices", len(c.targets)),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("exporter server failed: %w", err)
	case <-ctx.Done():
	}

	// abort scrapes still waiting on devices
	c.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down exporter: %w", err)
	}
	return nil
}
