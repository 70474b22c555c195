package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/notes-api/internal/config"
)

// loadAppConfig loads the application configuration from environment variables or config file.
// Returns the loaded config and any loading error.
func loadAppConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	if cfg.Database.URL != "" {
		slog.Debug("Database configuration", "url_present", true, "auto_migrate", cfg.Database.AutoMigrate)
	}
	if cfg.Cache.RedisAddr != "" {
		slog.Debug("Cache configuration", "redis_addr", cfg.Cache.RedisAddr, "ttl_seconds", cfg.Cache.TTLSeconds)
	}

	return cfg, nil
}
