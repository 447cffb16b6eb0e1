package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterConfig wires handlers into the router. Nil handlers leave their
// routes unmounted.
type RouterConfig struct {
	Auth     *AuthHandler
	Tokens   *TokenHandler
	Access   *AccessHandler
	Rooms    *RoomHandler
	Resolver PrincipalResolver
	Health   Pinger
	Logger   *zap.Logger
	// CORSOrigins lists allowed browser origins. Empty disables CORS headers.
	CORSOrigins []string
	Middleware  []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	if len(cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(corsOptions(cfg.CORSOrigins)))
	}
	for _, mw := range cfg.Middleware {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get("/healthz", healthHandler(cfg.Health))

	if cfg.Auth != nil {
		r.Post("/sessions", cfg.Auth.CreateSession)
		r.Post("/sessions/refresh", cfg.Auth.RefreshSession)
		r.Delete("/sessions/current", cfg.Auth.DeleteCurrentSession)
	}

	if cfg.Resolver == nil {
		return r
	}

	if cfg.Access != nil {
		r.With(OptionalPrincipal(cfg.Resolver, cfg.Logger)).Get("/rooms/{uuid}/access", cfg.Access.Check)
	}

	r.Group(func(r chi.Router) {
		r.Use(RequireSession(cfg.Resolver, cfg.Logger))
		if cfg.Tokens != nil {
			r.Post("/tokens", cfg.Tokens.Create)
		}
		if cfg.Rooms != nil {
			r.Post("/rooms", cfg.Rooms.Create)
			r.Get("/rooms/{uuid}", cfg.Rooms.Get)
			r.Put("/rooms/{uuid}/status", cfg.Rooms.UpdateStatus)
		}
	})

	return r
}

func corsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Session-Token", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

func healthHandler(store Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store != nil {
			if err := store.Ping(r.Context()); err != nil {
				http.Error(w, "store unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}
