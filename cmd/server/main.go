// Package main implements the entry point for the notes API server,
// which manages user accounts and exposes their notes over HTTP.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
)

// main loads configuration, wires the dependencies and serves until
// SIGINT or SIGTERM.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("notes-api: %v", err)
		os.Exit(1)
	}
}

// run is main without the process exit, so failures still run deferred cleanup.
func run(ctx context.Context) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}

	logger, err := setupAppLogger(cfg)
	if err != nil {
		return err
	}

	deps, err := setupAppStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}

	app, err := newApplication(cfg, logger, deps)
	if err != nil {
		deps.close(logger)
		return err
	}
	defer app.cleanup()

	return app.Run(ctx)
}
