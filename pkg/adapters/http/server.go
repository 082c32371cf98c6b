package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/aretw0/midirelay/internal/logging"
	"github.com/aretw0/midirelay/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatusSource is the read side of a running router.
type StatusSource interface {
	State() domain.RouterState
	Status() []domain.RouteStatus
}

// Server serves the router status.
type Server struct {
	Source   StatusSource
	Gatherer prometheus.Gatherer
	Signal   *domain.ShutdownSignal
	Logger   *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithGatherer selects the metrics exposed on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.Gatherer = g
	}
}

// WithShutdownSignal enables POST /shutdown, which sets sig.
func WithShutdownSignal(sig *domain.ShutdownSignal) Option {
	return func(s *Server) {
		s.Signal = sig
	}
}

// WithLogger configures request error logging.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.Logger = logger
	}
}

type healthResponse struct {
	State  domain.RouterState `json:"state"`
	Routes int                `json:"routes"`
}

// NewHandler creates the HTTP handler for src.
func NewHandler(src StatusSource, opts ...Option) http.Handler {
	s := &Server{
		Source:   src,
		Gatherer: prometheus.DefaultGatherer,
		Logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/routes", s.Routes)
	r.Get("/healthz", s.Health)
	r.Handle("/metrics", promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{}))
	if s.Signal != nil {
		r.Post("/shutdown", s.Shutdown)
	}
	return enableCORS(r)
}

// enableCORS lets browser dashboards read the status routes. POST responses
// carry no CORS headers and POST is not allowed by the preflight.
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Routes handles GET /routes.
func (s *Server) Routes(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Source.Status())
}

// Health handles GET /healthz. It answers 503 unless the router is running.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	state := s.Source.State()
	code := http.StatusOK
	if state != domain.StateRunning {
		code = http.StatusServiceUnavailable
	}
	s.writeJSON(w, code, healthResponse{State: state, Routes: len(s.Source.Status())})
}

// Shutdown handles POST /shutdown. Browser requests (any Origin header) are
// refused, and the body type must be JSON so a plain form post cannot reach it.
func (s *Server) Shutdown(w http.ResponseWriter, r *http.Request) {
	if origin := r.Header.Get("Origin"); origin != "" {
		s.Logger.Warn("Refused cross-origin shutdown", "origin", origin, "remote", r.RemoteAddr)
		http.Error(w, "cross-origin shutdown refused", http.StatusForbidden)
		return
	}
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return
	}
	if s.Signal.Trigger() {
		s.Logger.Info("Shutdown requested over HTTP", "remote", r.RemoteAddr)
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("Response encode failed", "error", err)
	}
}

// Serve listens on addr until ctx is done, then shuts the server down.
func Serve(ctx context.Context, addr string, handler http.Handler, logger *slog.Logger) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Status server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
