package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/notes-api/internal/config"
	"github.com/phrazzld/notes-api/internal/platform/memory"
	"github.com/phrazzld/notes-api/internal/platform/postgres"
	"github.com/phrazzld/notes-api/internal/platform/rediscache"
	"github.com/phrazzld/notes-api/internal/service"
	"github.com/phrazzld/notes-api/internal/service/auth"
	"github.com/phrazzld/notes-api/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// External connections, nil when not configured
	db    *sql.DB
	redis *redis.Client

	registry *prometheus.Registry

	userStore store.UserStore

	jwtService auth.JWTService
	hasher     auth.PasswordHasher
	directory  service.UserDirectory
	validation service.InputValidator
}

// newApplication creates a new application instance with all dependencies initialized.
// The connections in deps must already be established; the application
// takes ownership of them and closes them in cleanup.
func newApplication(cfg *config.Config, logger *slog.Logger, deps storageDeps) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		db:       deps.db,
		redis:    deps.redis,
		registry: prometheus.NewRegistry(),
	}

	app.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.hasher = auth.NewBcryptHasher(cfg.Auth.BCryptCost)

	if app.db != nil {
		app.userStore = postgres.NewPostgresUserStore(app.db, logger)
	} else {
		app.userStore = memory.NewUserStore(logger)
	}

	if app.redis != nil {
		cache := rediscache.NewUserCache(app.redis, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
		app.userStore = store.NewCachingUserStore(app.userStore, cache, logger)
	}

	app.directory, err = service.NewUserDirectory(app.userStore, app.hasher, app.jwtService, app.db, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create user directory: %w", err)
	}

	app.validation, err = service.NewRegistrationValidator(app.userStore, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create registration validator: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	storageDeps{db: app.db, redis: app.redis}.close(app.logger)
	app.logger.Info("Application shutdown completed")
}
