package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	"github.com/phrazzld/notes-api/internal/config"
	"github.com/phrazzld/notes-api/internal/platform/postgres"
	"github.com/phrazzld/notes-api/internal/platform/rediscache"
	"github.com/redis/go-redis/v9"
)

// storageDeps holds the optional external connections. Nil fields mean the
// corresponding backend is not configured.
type storageDeps struct {
	db    *sql.DB
	redis *redis.Client
}

func (d storageDeps) close(logger *slog.Logger) {
	if d.redis != nil {
		if err := d.redis.Close(); err != nil {
			logger.Error("Error closing redis connection", "error", err)
		}
	}
	if d.db != nil {
		if err := d.db.Close(); err != nil {
			logger.Error("Error closing database connection", "error", err)
		}
	}
}

// setupAppStorage connects to PostgreSQL and Redis when they are configured.
func setupAppStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storageDeps, error) {
	var deps storageDeps

	if cfg.Database.URL == "" {
		logger.Warn("No database URL configured, using in-memory user store")
	} else {
		db, err := setupAppDatabase(ctx, cfg, logger)
		if err != nil {
			return deps, err
		}
		deps.db = db

		if cfg.Database.AutoMigrate {
			if err := postgres.Migrate(ctx, db, logger); err != nil {
				deps.close(logger)
				return storageDeps{}, fmt.Errorf("failed to apply migrations: %w", err)
			}
		}
	}

	if cfg.Cache.RedisAddr != "" {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		rdb, err := rediscache.NewClient(pingCtx, cfg.Cache.RedisAddr, cfg.Cache.RedisPassword)
		if err != nil {
			deps.close(logger)
			return storageDeps{}, fmt.Errorf("failed to connect to redis: %w", err)
		}
		deps.redis = rdb
		logger.Info("Redis user cache enabled", "ttl_seconds", cfg.Cache.TTLSeconds)
	}

	return deps, nil
}

// setupAppDatabase establishes a connection to the database and configures connection pools.
// Returns the database connection if successful, or an error if the connection fails.
func setupAppDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	// Configure connection pool with reasonable defaults
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established")
	return db, nil
}
