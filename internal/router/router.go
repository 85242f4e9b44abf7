package router

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"go-file-organizer/internal/config"
	"go-file-organizer/internal/handler"
	"go-file-organizer/internal/metrics"
	"go-file-organizer/internal/middleware"
)

// Handlers groups everything New mounts.
type Handlers struct {
	Auth     *handler.AuthHandler
	Backup   *handler.BackupHandler
	Classify *handler.ClassifyHandler
	Organize *handler.OrganizeHandler
	Watch    *handler.WatchHandler
	Audit    *handler.AuditHandler
	Docs     *handler.DocsHandler
	Events   http.Handler
	// Health reports dependency failures; nil means always healthy.
	Health func(ctx context.Context) error
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, m *metrics.Metrics, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(cfg.CORSOrigins))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		if h.Health != nil {
			if err := h.Health(req.Context()); err != nil {
				slog.Warn("health check failed", "error", err)
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/openapi.yaml", h.Docs.OpenAPI)
	r.Get("/swagger", h.Docs.SwaggerUI)
	if cfg.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}
	if h.Events != nil {
		r.With(authMiddleware.RequireAuth).Method(http.MethodGet, "/ws", h.Events)
	}

	r.Route("/api/v1", func(api chi.Router) {
		api.Use(rateLimitMiddleware.Handler)
		api.Use(middleware.Timeout(cfg.RequestTimeout))
		api.Use(authMiddleware.RequireAuth)

		if authMiddleware.Enabled() {
			api.Get("/auth/me", h.Auth.Me)
			api.Post("/auth/renew", h.Auth.Renew)
		}

		api.Route("/backup", func(backup chi.Router) {
			backup.Post("/flatten-directory", h.Backup.Flatten)
			backup.Post("/undo/{operation_id}", h.Backup.Undo)
			backup.Get("/operations", h.Backup.ListOperations)
			backup.Get("/operations/{operation_id}", h.Backup.GetOperation)
		})

		api.Get("/classify", h.Classify.Classify)
		api.Get("/analyze", h.Classify.Analyze)
		api.Get("/files/category/{category}", h.Classify.ListByCategory)
		api.Post("/organize", h.Organize.Organize)

		api.Get("/watch", h.Watch.Status)
		api.Post("/watch", h.Watch.Setup)
		api.Delete("/watch", h.Watch.Stop)

		api.Get("/audit", h.Audit.List)
	})

	return r
}
