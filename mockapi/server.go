// Package mockapi serves a synthetic client API plus a small HTML dashboard,
// standing in for the upstream system the BDD suites exercise.
package mockapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/qainfra/bdd-demo/config"
	"github.com/qainfra/bdd-demo/metrics"
	"github.com/qainfra/bdd-demo/storage"
)

// Server is the mock API HTTP server.
type Server struct {
	cfg    *config.Config
	log    *slog.Logger
	server *http.Server
	// jitter applies a small random wobble to revenue figures so repeated
	// calls look live. Tests disable it for determinism.
	jitter bool
}

// NewServer builds the server with its routes registered.
func NewServer(cfg *config.Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{cfg: cfg, log: log, jitter: true}

	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/clients", s.handleClients).Methods(http.MethodGet)
	r.HandleFunc("/clients/{id:[0-9]+}", s.handleClient).Methods(http.MethodGet)
	r.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)
	r.HandleFunc("/api/test-data", s.handleTestData).Methods(http.MethodGet)
	r.Use(s.metricsMiddleware)

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}).Handler(r)

	s.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.APIHost, strconv.Itoa(cfg.APIPort)),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Start serves until the listener fails or Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("mock API listening", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("mock API server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down mock API")
	return s.server.Shutdown(ctx)
}

// Handler exposes the routed handler for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, req)
		metrics.RecordAPIRequest(req.URL.Path, rec.status)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "mock client API",
		"status":  "running",
		"endpoints": []string{
			"/health", "/clients", "/clients/{id}", "/dashboard", "/api/test-data",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleClients(w http.ResponseWriter, req *http.Request) {
	activeOnly := req.URL.Query().Get("active_only") == "true"

	var clients []storage.Client
	for _, c := range storage.SampleClients {
		if activeOnly && !c.Active {
			continue
		}
		clients = append(clients, s.withJitter(c))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"clients": clients,
		"count":   len(clients),
	})
}

func (s *Server) handleClient(w http.ResponseWriter, req *http.Request) {
	id, err := strconv.Atoi(mux.Vars(req)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid client id"})
		return
	}
	for _, c := range storage.SampleClients {
		if c.ClientID == id {
			writeJSON(w, http.StatusOK, s.withJitter(c))
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"error": fmt.Sprintf("client %d not found", id)})
}

// handleTestData returns a synthetic dataset with two known-bad rows so the
// data-quality checks have something to catch.
func (s *Server) handleTestData(w http.ResponseWriter, _ *http.Request) {
	records := make([]map[string]any, 0, 10)
	for i := 0; i < 10; i++ {
		value := float64(10000 * (i + 1))
		switch i {
		case 8:
			value = 1500000 // exceeds the monetary upper bound
		case 9:
			value = -100 // negative revenue
		}
		records = append(records, map[string]any{
			"record_id": i + 1,
			"name":      fmt.Sprintf("Record %d", i+1),
			"revenue":   value,
			"category":  []string{"standard", "premium"}[i%2],
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

// withJitter wobbles revenue by up to 5 percent either way.
func (s *Server) withJitter(c storage.Client) storage.Client {
	if !s.jitter {
		return c
	}
	c.Revenue = c.Revenue * (0.95 + rand.Float64()*0.1)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
