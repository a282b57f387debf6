// Package server exposes the company version history and the tailoring engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/jonathan/resume-versions/internal/generation"
	"github.com/jonathan/resume-versions/internal/history"
	"github.com/jonathan/resume-versions/internal/logger"
	"github.com/jonathan/resume-versions/internal/server/middleware"
	"github.com/jonathan/resume-versions/internal/server/ratelimit"
	"github.com/jonathan/resume-versions/internal/types"
)

const (
	// maxBodyBytes caps request bodies; a resume snapshot is a few tens of kilobytes
	maxBodyBytes = 4 << 20
	// ShutdownGrace is how long in-flight requests get to finish after shutdown starts
	ShutdownGrace = 30 * time.Second
)

// Generator is the part of the orchestrator the API calls
type Generator interface {
	TailorNew(ctx context.Context, req types.TailorRequest) (*generation.Result, error)
	Modify(ctx context.Context, req types.ModifyRequest) (*generation.Result, error)
}

// Config holds server dependencies. Generator may be nil, in which case the generation routes
// answer 503.
type Config struct {
	Addr         string
	Manager      *history.Manager
	Generator    Generator
	RateLimiter  *ratelimit.Limiter
	Logger       *logger.Logger
	WriteTimeout time.Duration
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	manager    *history.Manager
	generator  Generator
	limiter    *ratelimit.Limiter
	log        *logger.Logger
	handler    http.Handler
}

// New wires routes and middleware
func New(cfg Config) (*Server, error) {
	if cfg.Manager == nil {
		return nil, fmt.Errorf("history manager is required")
	}
	log := cfg.Logger
	if log == nil {
		log = logger.NewNop()
	}
	limiter := cfg.RateLimiter
	if limiter == nil {
		limiter = ratelimit.NewLimiter(&ratelimit.Config{Enabled: false})
	}

	s := &Server{
		manager:   cfg.Manager,
		generator: cfg.Generator,
		limiter:   limiter,
		log:       log.With("component", "http"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("GET /company-versions", s.handleListCompanies)
	mux.HandleFunc("POST /company-versions", s.handleCreateCompany)
	mux.HandleFunc("POST /company-versions/generate", s.handleGenerate)
	mux.HandleFunc("GET /company-versions/{companyId}", s.handleGetHistory)
	mux.HandleFunc("PATCH /company-versions/{companyId}", s.handleUpdateMeta)
	mux.HandleFunc("DELETE /company-versions/{companyId}", s.handleDeleteCompany)
	mux.HandleFunc("POST /company-versions/{companyId}/versions", s.handleAddVersion)
	mux.HandleFunc("GET /company-versions/{companyId}/versions/{versionId}", s.handleGetVersion)
	mux.HandleFunc("GET /company-versions/{companyId}/current", s.handleCurrentVersion)
	mux.HandleFunc("POST /company-versions/{companyId}/switch", s.handleSwitchVersion)
	mux.HandleFunc("POST /company-versions/{companyId}/modify", s.handleModify)

	s.handler = middleware.RequestID(
		middleware.AccessLog(s.log)(
			middleware.Recover(s.log)(
				s.withRateLimit(s.withCORS(mux)))))

	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = generation.DefaultTimeout + ShutdownGrace
	}
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped handler, for tests and embedding
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is cancelled, then drains in-flight requests
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownGrace)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.limiter.Stop()
	s.log.Info("server stopped")
	return nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit rejects requests over the client's budget with 429
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.limiter.Allow(clientID(r), r.URL.Path, r.Method)
		if info.Limit > 0 {
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
		}
		if allowed {
			next.ServeHTTP(w, r)
			return
		}

		retry := int(info.RetryAfter.Round(time.Second).Seconds())
		if retry < 1 {
			retry = 1
		}
		w.Header().Set("Retry-After", strconv.Itoa(retry))
		s.log.Warn("rate limit exceeded", "client", clientID(r), "path", r.URL.Path, "limit", info.Limit)
		s.jsonResponse(w, http.StatusTooManyRequests, map[string]any{
			"error":       "rate limit exceeded",
			"retry_after": retry,
		})
	})
}

// clientID is the remote IP. Forwarding headers are ignored since the server is not deployed
// behind a trusted proxy.
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("failed to encode response", "error", err)
	}
}

// errorResponse maps err onto a status and JSON body
func (s *Server) errorResponse(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "path", r.URL.Path, "status", status, "error", err,
			"request_id", middleware.RequestIDFromContext(r.Context()))
	}
	s.jsonResponse(w, status, describeError(err, status))
}

// decodeJSON reads a bounded JSON body into dst
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &types.ValidationError{Field: "body", Message: "request body too large"}
		}
		return &types.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}
