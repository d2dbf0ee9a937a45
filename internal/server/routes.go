// Package server wires the HTTP surface: the websocket endpoint, the auth
// and room catalog APIs, health, and metrics.
package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/parley-chat/parley/internal/auth"
	"github.com/parley-chat/parley/internal/catalog"
	"github.com/parley-chat/parley/internal/config"
)

// NewRouter assembles the application routes.
func NewRouter(logger zerolog.Logger, cfg *config.Config, hub *Hub, authService *auth.Service, rooms *catalog.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	authHandler := auth.NewHandler(authService)
	roomHandler := catalog.NewHandler(rooms)

	r.Get("/healthz", HealthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(api chi.Router) {
		api.Post("/auth/register", authHandler.Register)
		api.Post("/auth/login", authHandler.Login)

		api.Route("/rooms", func(rr chi.Router) {
			rr.Get("/", roomHandler.List)
			rr.With(auth.Middleware(authService)).Post("/", roomHandler.Create)
		})
	})

	r.Get("/ws", WebSocketHandler(hub, NewOriginChecker(cfg.AllowedOrigins, logger)))

	return r
}
