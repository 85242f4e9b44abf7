package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"go-file-organizer/internal/config"
	"go-file-organizer/internal/handler"
	"go-file-organizer/internal/middleware"
	"go-file-organizer/internal/router"
	"go-file-organizer/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	server   *http.Server
	services *Services
	hub      *websocket.Hub
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	services, err := NewServices(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var authMiddleware *middleware.AuthMiddleware
	if services.Auth != nil {
		authMiddleware = middleware.NewAuthMiddleware(services.Auth)
	} else {
		authMiddleware = middleware.NewAuthMiddleware(nil)
		slog.Warn("AUTH_SECRET not set; API is unauthenticated")
	}

	hub := websocket.NewHub(services.Bus)

	appRouter := router.New(cfg, authMiddleware, services.Metrics, router.Handlers{
		Auth:     handler.NewAuthHandler(services.Auth),
		Backup:   handler.NewBackupHandler(services.Flatten, services.Undo),
		Classify: handler.NewClassifyHandler(services.Organize),
		Organize: handler.NewOrganizeHandler(services.Organize),
		Watch:    handler.NewWatchHandler(services.Watch),
		Audit:    handler.NewAuditHandler(services.Audit),
		Docs:     handler.NewDocsHandler(),
		Events:   websocket.Handler(hub, cfg.CORSOrigins),
		Health:   services.Health,
	})

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{server: server, services: services, hub: hub}, nil
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go a.hub.Run(hubCtx)

	cfg := a.services.Config
	if cfg.WatchDir != "" {
		if _, err := a.services.Watch.Setup(ctx, cfg.WatchDir, cfg.WatchOrganizationDir); err != nil {
			a.services.Close()
			return fmt.Errorf("failed to start configured watch: %w", err)
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", a.server.Addr, "allowed_roots", cfg.AllowedRoots, "backup_dir", a.services.Backups.Dir())
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		a.services.Close()
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.services.Watch.Close()
	err := a.server.Shutdown(shutdownCtx)
	a.services.Close()
	if err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
