// Package httpapi binds the diary's query and mutation surfaces to
// JSON over HTTP.
//
// Reads are unauthenticated. Mutations run as the caller named by the
// bearer token when an IdentityResolver is configured, otherwise as the
// configured local identity.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/diary/internal/frontend"
	"github.com/roach88/diary/internal/projection"
)

// IdentityResolver maps a bearer token to a caller identity.
// Implemented by *auth.Authority.
type IdentityResolver interface {
	Identity(token string) (string, error)
}

// Config wires the handler's collaborators.
type Config struct {
	Queries   *projection.Service
	Mutations *frontend.Service

	// Resolver authenticates mutation requests. Nil disables auth and every
	// mutation runs as Identity.
	Resolver IdentityResolver
	Identity string

	Logger *slog.Logger
}

type server struct {
	queries   *projection.Service
	mutations *frontend.Service
	resolver  IdentityResolver
	identity  string
	logger    *slog.Logger
}

// NewHandler creates the HTTP router.
func NewHandler(cfg Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &server{
		queries:   cfg.Queries,
		mutations: cfg.Mutations,
		resolver:  cfg.Resolver,
		identity:  cfg.Identity,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/health", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/diary", s.handleStatus)
		r.Get("/entries", s.handleEntries)
		r.Get("/entries/{id}", s.handleEntry)

		r.Group(func(r chi.Router) {
			r.Use(s.requireCaller)
			r.Post("/initialize", s.handleInitialize)
			r.Post("/entries", s.handleAddEntry)
			r.Post("/entries/batch", s.handleAddEntries)
			r.Patch("/entries/{id}", s.handleUpdateEntry)
			r.Delete("/entries/{id}", s.handleDeleteEntry)
		})
	})

	return r
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type callerKey struct{}

// callerFromContext returns the caller identity set by requireCaller.
func callerFromContext(ctx context.Context) string {
	caller, _ := ctx.Value(callerKey{}).(string)
	return caller
}

// requireCaller resolves the caller identity for mutation routes.
func (s *server) requireCaller(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller := s.identity
		if s.resolver != nil {
			header := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if header == "" || token == "" || token == header {
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing bearer token")
				return
			}
			id, err := s.resolver.Identity(token)
			if err != nil || id == "" {
				s.logger.Debug("token rejected", "error", err)
				writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "invalid bearer token")
				return
			}
			caller = id
		}

		ctx := context.WithValue(r.Context(), callerKey{}, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// logRequests logs one line per request.
func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
