// Package web provides the HTTP API for the card catalog.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/llocg/internal/config"
	"github.com/JonMunkholm/llocg/internal/core"
	"github.com/JonMunkholm/llocg/internal/web/middleware"
)

// Catalog is the set of catalog operations the API exposes.
// Satisfied by *core.Service.
type Catalog interface {
	GetCard(ctx context.Context, id int64) (core.FullCard, error)
	CreateCard(ctx context.Context, card core.NewCard) (core.FullCard, error)
	CreateCards(ctx context.Context, cards []core.NewCard) ([]core.FullCard, error)

	ListSets() []core.Set
	AddSet(ctx context.Context, set core.Set) error
	DeleteSet(ctx context.Context, code string) (bool, error)

	ListGroups() []string
	AddGroup(ctx context.Context, name string) error
	DeleteGroup(ctx context.Context, name string) (bool, error)

	ListUnits() []string
	AddUnit(ctx context.Context, name string) error
	DeleteUnit(ctx context.Context, name string) (bool, error)

	ListNames() []string

	ListRarities() map[string]core.RarityType
	GetRarity(code string) core.RarityType
	AddRarity(ctx context.Context, code string, t core.RarityType) error
	DeleteRarity(ctx context.Context, code string) (bool, error)

	ListNameVariants() map[string]string
	AddNameVariant(ctx context.Context, variant, canonical string) error
	DeleteNameVariant(ctx context.Context, variant string) (bool, error)

	ListGroupVariants() map[string]string
	AddGroupVariant(ctx context.Context, variant, canonical string) error
	DeleteGroupVariant(ctx context.Context, variant string) (bool, error)
}

// HealthFunc reports whether storage is reachable.
type HealthFunc func(ctx context.Context) error

// Server is the HTTP server for the catalog API.
type Server struct {
	catalog  Catalog
	health   HealthFunc
	cfg      *config.Config
	router   *chi.Mux
	server   *http.Server
	limiters []*middleware.RateLimiter
}

// NewServer wires routes and middleware. health may be nil.
func NewServer(catalog Catalog, cfg *config.Config, health HealthFunc) *Server {
	if health == nil {
		health = func(context.Context) error { return nil }
	}
	s := &Server{
		catalog: catalog,
		health:  health,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.RequestMetadata)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	}
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newLimiter(s.cfg.Rate.RequestsPerMinute))
	}
}

func (s *Server) newLimiter(perMinute int) func(http.Handler) http.Handler {
	rl := middleware.NewRateLimiter(perMinute)
	s.limiters = append(s.limiters, rl)
	return rl.Middleware
}

func (s *Server) setupRoutes() {
	r := s.router

	r.Get("/healthz", s.handleHealth)

	r.Get("/cards/{id}", s.handleGetCard)
	r.Get("/sets", s.handleListSets)
	r.Get("/groups", s.handleListGroups)
	r.Get("/units", s.handleListUnits)
	r.Get("/names", s.handleListNames)
	r.Get("/rarities", s.handleListRarities)
	r.Get("/rarities/{code}", s.handleGetRarity)
	r.Get("/variants/names", s.handleListNameVariants)
	r.Get("/variants/groups", s.handleListGroupVariants)

	// Mutations
	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(s.cfg.Security))
		if s.cfg.Rate.Enabled {
			r.Use(s.newLimiter(s.cfg.Rate.WriteLimit))
		}

		r.Post("/cards", s.handleCreateCard)
		r.Post("/cards/bulk", s.handleCreateCards)

		r.Post("/sets", s.handleAddSet)
		r.Delete("/sets/{setCode}", s.handleDeleteSet)
		r.Post("/groups", s.handleAddGroup)
		r.Delete("/groups/{name}", s.handleDeleteGroup)
		r.Post("/units", s.handleAddUnit)
		r.Delete("/units/{name}", s.handleDeleteUnit)
		r.Post("/rarities", s.handleAddRarity)
		r.Delete("/rarities/{code}", s.handleDeleteRarity)
		r.Post("/variants/names", s.handleAddNameVariant)
		r.Delete("/variants/names/{variant}", s.handleDeleteNameVariant)
		r.Post("/variants/groups", s.handleAddGroupVariant)
		r.Delete("/variants/groups/{variant}", s.handleDeleteGroupVariant)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.Stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.health(ctx); err != nil {
		slog.Warn("health check failed", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		w.Header().Set("Referrer-Policy", "no-referrer")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v with status. Encoding errors are only logged since
// headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
