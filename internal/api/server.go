package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"catalogsync/internal/auth"
	"catalogsync/internal/bulk"
	"catalogsync/internal/cache"
	"catalogsync/internal/config"
	"catalogsync/internal/importer"
	"catalogsync/internal/logging"
	"catalogsync/internal/metrics"
	"catalogsync/internal/services"
	"catalogsync/internal/store"
)

// BatchRunner runs bulk imports.
type BatchRunner interface {
	Run(ctx context.Context, req bulk.Request) (*bulk.Report, error)
}

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the server routes to.
type Deps struct {
	Importer importer.Importer
	Bulk     BatchRunner
	Reader   store.Reader
	Cache    *cache.Cache
	Metrics  *metrics.Metrics
	Auth     *auth.Authenticator
	Health   Pinger
}

// Server is the HTTP front end.
type Server struct {
	bind   string
	deps   Deps
	logger *slog.Logger

	listener net.Listener
	server   *http.Server
}

const maxRequestBytes = 1 << 20

// NewServer wires routes and timeouts. The write timeout is sized so a full
// bulk batch can finish on one connection.
func NewServer(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	if deps.Auth == nil {
		deps.Auth = auth.New("", nil)
	}
	s := &Server{
		bind:   strings.TrimSpace(cfg.Server.Bind),
		deps:   deps,
		logger: logging.NewComponentLogger(logger, "api-server"),
	}
	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.BulkWriteTimeout(),
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, wrapped with request correlation.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /import", s.deps.Auth.Middleware(s.handleImport))
	mux.HandleFunc("POST /bulk-import", s.deps.Auth.Middleware(s.handleBulkImport))
	mux.HandleFunc("GET /titles", s.handleListTitles(store.OrderTitle))
	mux.HandleFunc("GET /titles/latest", s.handleListTitles(store.OrderLatest))
	mux.HandleFunc("GET /titles/trending", s.handleListTitles(store.OrderTrending))
	mux.HandleFunc("GET /titles/{imdbID}", s.handleTitle)
	mux.HandleFunc("GET /titles/{imdbID}/similar", s.handleSimilar)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", s.deps.Metrics.Handler())
	return s.withRequestID(mux)
}

// Start listens on the configured bind and serves until ctx is done.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr is the bound listener address, once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down gracefully.
func (s *Server) Stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(services.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		if err := s.deps.Health.Ping(r.Context()); err != nil {
			s.writeError(w, http.StatusServiceUnavailable, "database unavailable", err.Error())
			return
		}
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, message, detail string) {
	s.writeJSON(w, status, errorResponse{Error: message, Detail: detail})
}
