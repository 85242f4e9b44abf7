package app

import (
	"context"
	"fmt"
	"log/slog"

	"go-file-organizer/internal/classifier"
	"go-file-organizer/internal/config"
	"go-file-organizer/internal/database"
	"go-file-organizer/internal/event"
	"go-file-organizer/internal/metrics"
	"go-file-organizer/internal/repository"
	"go-file-organizer/internal/service"
	"go-file-organizer/internal/storage"
)

// Services is the object graph shared by the HTTP server and the CLI.
type Services struct {
	Config     *config.Config
	Storage    *storage.Storage
	Backups    *repository.BackupRepository
	Classifier *classifier.Engine
	Bus        *event.InMemoryBus
	Metrics    *metrics.Metrics

	Audit    *service.AuditService
	Auth     *service.AuthService
	Flatten  *service.FlattenService
	Undo     *service.UndoService
	Organize *service.OrganizeService
	Watch    *service.WatchService

	db *database.DB
}

func NewServices(ctx context.Context, cfg *config.Config) (*Services, error) {
	store, err := storage.New(cfg.AllowedRoots)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	backups, err := repository.NewBackupRepository(cfg.BackupDir, slog.Default())
	if err != nil {
		return nil, fmt.Errorf("failed to open backup store: %w", err)
	}

	rules := classifier.DefaultRules()
	if cfg.ClassifierRulesFile != "" {
		rules, err = classifier.LoadRules(cfg.ClassifierRulesFile)
		if err != nil {
			return nil, err
		}
		slog.Info("classifier rules loaded", "file", cfg.ClassifierRulesFile)
	}
	engine := classifier.New(rules, classifier.WithExcerptBytes(cfg.ClassifierExcerptBytes))

	s := &Services{
		Config:     cfg,
		Storage:    store,
		Backups:    backups,
		Classifier: engine,
		Bus:        event.NewBus(),
		Metrics:    metrics.New(nil),
	}

	auditStore, err := s.openAuditStore(ctx)
	if err != nil {
		return nil, err
	}
	s.Audit = service.NewAuditService(auditStore)

	if cfg.AuthEnabled() {
		s.Auth, err = service.NewAuthService(cfg.AuthSecret, cfg.AuthTokenTTL)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to initialize auth service: %w", err)
		}
	}

	s.Flatten = service.NewFlattenService(store, backups, s.Audit, s.Bus, s.Metrics)
	s.Undo = service.NewUndoService(store, backups, s.Audit, s.Bus, s.Metrics)
	s.Organize = service.NewOrganizeService(store, engine, cfg.OrganizeRoot, s.Audit, s.Bus, s.Metrics)
	s.Watch = service.NewWatchService(store, s.Flatten, s.Organize, s.Bus, s.Metrics, cfg.WatchSettleDelay)

	return s, nil
}

// openAuditStore prefers Postgres when DATABASE_URL is set and falls back to
// the JSON-lines file.
func (s *Services) openAuditStore(ctx context.Context) (repository.AuditStore, error) {
	cfg := s.Config
	if cfg.DatabaseURL == "" {
		store, err := repository.NewAuditFileRepository(cfg.AuditLogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit log: %w", err)
		}
		return store, nil
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.Open(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = db
	slog.Info("database ready")

	return repository.NewAuditRepository(db.Pool), nil
}

// Health pings Postgres when the audit trail lives there.
func (s *Services) Health(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Health(ctx)
}

// Close stops the watch and releases the database pool.
func (s *Services) Close() {
	if s.Watch != nil {
		s.Watch.Close()
	}
	s.db.Close()
}
