// Package monitoring serves Prometheus metrics and health checks.
package monitoring

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

const (
	MetricsHost = "metrics-host"
	MetricsPort = "metrics-port"
)

// HealthCheck is implemented by anything that can report whether it works.
type HealthCheck interface {
	HealthCheckName() string
	HealthCheck() bool
}

var (
	checksMu sync.Mutex
	checks   []HealthCheck
)

// IncludeMonitoringFlags adds the metrics flags. A port of 0 disables the
// server.
func IncludeMonitoringFlags(app *cli.App, defaultPort int) {
	app.Flags = append(app.Flags,
		&cli.StringFlag{
			Name:    MetricsHost,
			Usage:   "Interface to serve /metrics and /status on",
			Value:   "",
			EnvVars: []string{"METRICS_HOST"},
		},
		&cli.IntFlag{
			Name:    MetricsPort,
			Usage:   "Port to serve /metrics and /status on (0 disables)",
			Value:   defaultPort,
			EnvVars: []string{"METRICS_PORT"},
		},
	)
}

// AddHealthCheck registers a check reported on /status.
func AddHealthCheck(hc HealthCheck) {
	checksMu.Lock()
	defer checksMu.Unlock()
	checks = append(checks, hc)
}

// ResetHealthChecks removes all registered checks.
func ResetHealthChecks() {
	checksMu.Lock()
	defer checksMu.Unlock()
	checks = nil
}

// Address builds the listen address from the flags, empty when disabled.
func Address(c *cli.Context) string {
	port := c.Int(MetricsPort)
	if port <= 0 {
		return ""
	}
	return net.JoinHostPort(c.String(MetricsHost), strconv.Itoa(port))
}

// Handler returns the mux serving /metrics and /status.
func Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/status", statusHandler)
	return mux
}

func statusHandler(w http.ResponseWriter, _ *http.Request) {
	checksMu.Lock()
	defer checksMu.Unlock()

	healthy := true
	body := make([]byte, 0, 64)
	for _, hc := range checks {
		state := "OK"
		if !hc.HealthCheck() {
			state = "FAIL"
			healthy = false
		}
		body = append(body, hc.HealthCheckName()+": "+state+"\n"...)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if !healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	_, _ = w.Write(body)
}

// Serve runs the metrics server on addr until ctx is cancelled. An empty
// addr returns immediately.
func Serve(ctx context.Context, addr string) error {
	if addr == "" {
		return nil
	}
	logger := log.With().Str("section", "monitoring").Logger()

	srv := &http.Server{
		Addr:              addr,
		Handler:           Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", addr).Msg("Serving metrics")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
