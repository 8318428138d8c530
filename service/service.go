// Package service hosts the sidecar HTTP servers the demo runs next to the
// mock API: a health endpoint and a Prometheus metrics endpoint.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/qainfra/bdd-demo/config"
	"github.com/qainfra/bdd-demo/metrics"
)

const shutdownGrace = 5 * time.Second

// Service owns the two sidecar listeners. Each runs on its own port so the
// mock API stays free to bind the main one.
type Service struct {
	cfg *config.Config
	log *slog.Logger

	healthz *http.Server
	metricz *http.Server
}

func New(cfg *config.Config, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	s := &Service{cfg: cfg, log: log}

	s.healthz = &http.Server{
		Addr:    net.JoinHostPort(cfg.APIHost, strconv.Itoa(cfg.HealthzPort)),
		Handler: cors.AllowAll().Handler(s.healthHandler()),
	}
	s.metricz = &http.Server{
		Addr:    net.JoinHostPort(cfg.APIHost, strconv.Itoa(cfg.MetricsPort)),
		Handler: s.metricsHandler(),
	}
	return s
}

// healthHandler reports liveness as a small JSON document.
func (s *Service) healthHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug("health check", "remote", r.RemoteAddr)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
			"time":   time.Now().UTC().Format(time.RFC3339),
		})
	})
	return mux
}

func (s *Service) metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Start brings both sidecars up in the background. Listen failures are
// logged and counted, not fatal: the demo keeps working without sidecars.
func (s *Service) Start(_ context.Context) {
	go s.serve("healthz", s.healthz)
	go s.serve("metrics", s.metricz)
}

func (s *Service) serve(name string, srv *http.Server) {
	s.log.Info("sidecar listening", "name", name, "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.log.Error("sidecar stopped", "name", name, "err", err)
		metrics.RecordError(name + "_server")
	}
}

// Shutdown drains both sidecars, waiting at most shutdownGrace for each.
func (s *Service) Shutdown() {
	for name, srv := range map[string]*http.Server{"healthz": s.healthz, "metrics": s.metricz} {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		if err := srv.Shutdown(ctx); err != nil {
			s.log.Warn("sidecar shutdown failed", "name", name, "err", err)
		}
		cancel()
	}
	s.log.Info("sidecars stopped")
}
