// Package metrics exposes validator admission counters as Prometheus
// gauges and counters over HTTP, replacing the hand-rolled text exporter
// the validator's domain originally shipped with.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hourcoin/hourcoin/pkg/validator"
)

// Collector implements validator.Metrics against a Prometheus registry.
type Collector struct {
	submissions    *prometheus.CounterVec
	activeLockouts prometheus.Gauge
	chainHeight    prometheus.Gauge
}

// NewCollector registers the validator's metric series on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		submissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hourcoin",
			Subsystem: "validator",
			Name:      "block_submissions_total",
			Help:      "Block submissions by outcome.",
		}, []string{"result"}),
		activeLockouts: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hourcoin",
			Subsystem: "validator",
			Name:      "active_lockouts",
			Help:      "Miners currently serving a lockout.",
		}),
		chainHeight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "hourcoin",
			Subsystem: "validator",
			Name:      "chain_height",
			Help:      "Number of blocks admitted onto the chain, including genesis.",
		}),
	}
}

// ObserveSubmission implements validator.Metrics.
func (c *Collector) ObserveSubmission(kind validator.Kind) {
	c.submissions.WithLabelValues(string(kind)).Inc()
}

// SetActiveLockouts implements validator.Metrics.
func (c *Collector) SetActiveLockouts(n int) {
	c.activeLockouts.Set(float64(n))
}

// SetChainHeight implements validator.Metrics.
func (c *Collector) SetChainHeight(n int) {
	c.chainHeight.Set(float64(n))
}

// Server serves /metrics for scraping alongside the validator's TCP port.
type Server struct {
	http *http.Server
}

// NewServer wraps promhttp's handler in a standard http.Server bound to
// addr, e.g. "127.0.0.1:9090".
func NewServer(addr string, reg *prometheus.Registry) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &Server{http: &http.Server{Addr: addr, Handler: mux}}
}

// ListenAndServe blocks serving /metrics until the server is shut down.
func (s *Server) ListenAndServe() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("metrics: serve: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the metrics server.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
