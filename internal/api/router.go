package api

import (
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kidolearn/kidolearn-api/internal/api/handlers"
	"github.com/kidolearn/kidolearn-api/internal/api/middleware"
	"github.com/kidolearn/kidolearn-api/internal/config"
	"github.com/kidolearn/kidolearn-api/internal/ratelimit"
	"github.com/kidolearn/kidolearn-api/internal/service"
	"github.com/kidolearn/kidolearn-api/internal/websocket"
)

// NewRouter assembles the full HTTP surface. The ready flag is flipped
// by main at shutdown so /ready fails before the listener drains.
func NewRouter(services *service.Services, hub *websocket.Hub, limiter *ratelimit.Limiter, cfg *config.Config, ready *atomic.Bool) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(middleware.RequestLogger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if ready != nil && !ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"shutting_down"}`))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Initialize handlers
	parentHandler := handlers.NewParentHandler(services.Auth)
	childHandler := handlers.NewChildHandler(services.Auth, services.Child, services.Session)
	videoHandler := handlers.NewVideoHandler(services.Auth, services.Video)
	sessionHandler := handlers.NewSessionHandler(services.Auth, services.Session, services.Notify, hub)
	notificationHandler := handlers.NewNotificationHandler(services.Auth, services.Notify)
	wsHandler := handlers.NewWebSocketHandler(hub, services.Auth)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RateLimit(limiter))

		// WebSocket carries its token in the query string and
		// authenticates in the handler
		r.Get("/ws", wsHandler.Handle)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(services.Auth))

			r.Get("/me", parentHandler.Me)
			r.Post("/me/pin", parentHandler.SetPIN)
			r.Post("/me/pin/verify", parentHandler.VerifyPIN)

			r.Route("/children", func(r chi.Router) {
				r.Post("/", childHandler.Create)
				r.Get("/", childHandler.List)
				r.Get("/{id}", childHandler.Get)
				r.Put("/{id}", childHandler.Update)
				r.Delete("/{id}", childHandler.Delete)
				r.Get("/{id}/usage", childHandler.Usage)
			})

			r.Route("/scheduled-videos", func(r chi.Router) {
				r.Post("/", videoHandler.Create)
				r.Get("/", videoHandler.List)
				r.Delete("/{id}", videoHandler.Delete)
			})

			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", sessionHandler.Open)
				r.Put("/", sessionHandler.Close)
				r.Get("/", sessionHandler.List)
			})

			r.Get("/videos/url", videoHandler.GetVideoURL)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/vapid-key", notificationHandler.VAPIDKey)
				r.Post("/subscriptions", notificationHandler.Subscribe)
				r.Delete("/subscriptions", notificationHandler.Unsubscribe)
			})
		})
	})

	return r
}
