// Package httpapi is the thin HTTP layer over the authentication core:
// request/response marshaling, the bearer-token gate, and operational
// endpoints. Business rules live in the services package.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/go-chi/chi/v5"
)

// Pinger is the health-check slice of *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// RouterDeps bundles everything NewRouter wires together.
type RouterDeps struct {
	Logger            logging.Logger
	AuthService       AuthService
	Metrics           *MetricsCollector
	DB                Pinger
	CORSAllowedOrigin string
}

// NewRouter builds the full route table and middleware chain.
//
// Middleware order: recovery -> logging -> metrics -> CORS. The credential
// endpoints are open; profile and dashboard sit behind the bearer-token
// middleware.
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(NewRecoveryMiddleware(deps.Logger))
	r.Use(NewLoggingMiddleware(deps.Logger))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
	}
	r.Use(NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.Logger)
	userHandler := NewUserHandler(deps.Logger)

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(NewAuthMiddleware(deps.AuthService, deps.Logger))
		r.Get("/api/profile", userHandler.Profile)
		r.Get("/api/dashboard", userHandler.Dashboard)
	})

	r.Get("/healthz", healthHandler(deps.DB))
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	return r
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			if err := db.PingContext(r.Context()); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
	}
}
