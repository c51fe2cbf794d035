// Package metrics exposes the analyzer's Prometheus metrics and the
// /metrics and /healthz HTTP endpoints.
package metrics

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	FramesClassified = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "centrifuge_frames_classified_total",
		Help: "Frames classified, by top-level verdict (ether, tun, unknown)",
	}, []string{"kind"})

	MediaPacketsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "centrifuge_media_packets_total",
		Help: "UDP payloads classified as RTP or RTCP",
	}, []string{"kind"})

	QueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "centrifuge_worker_queue_depth",
		Help: "Current depth of the worker-to-formatter channel",
	})

	ConnectionsFormed = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "centrifuge_connections_formed",
		Help: "Connections present in the connection map at shutdown",
	})

	CallsFormed = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "centrifuge_calls_formed",
		Help: "Calls paired from connections at shutdown",
	})

	goroutines = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "centrifuge_goroutines",
		Help: "Current number of goroutines",
	})

	memoryBytes = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "centrifuge_memory_bytes",
		Help: "Current resident heap allocation in bytes",
	})

	registerOnce sync.Once
)

// Register registers every metric with the default Prometheus registry.
// It is idempotent so tests and repeated CLI invocations within a single
// process don't panic on double registration.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			FramesClassified,
			MediaPacketsTotal,
			QueueDepth,
			ConnectionsFormed,
			CallsFormed,
			goroutines,
			memoryBytes,
		)
		go collectSystemMetrics()
	})
}

func collectSystemMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		goroutines.Set(float64(runtime.NumGoroutine()))
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)
		memoryBytes.Set(float64(mem.Alloc))
	}
}

// Server wraps the /metrics and /healthz HTTP server.
type Server struct {
	http *http.Server
}

// NewServer builds a Server bound to addr, defaulting to :9091 to match
// the metrics port convention this analyzer inherited.
func NewServer(addr string) *Server {
	if addr == "" {
		addr = ":9091"
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", healthzHandler)
	return &Server{http: &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}}
}

// Start runs the HTTP server in a background goroutine.
func (s *Server) Start() {
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("starting metrics server")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return s.http.Shutdown(shutdownCtx)
}
