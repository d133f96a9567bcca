// Package main is the entry point for the todo CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"todo/internal/backend/azuretables"
	"todo/internal/backend/googletasks"
	"todo/internal/backend/memory"
	"todo/internal/backend/postgres"
	"todo/internal/backend/redisstore"
	"todo/internal/cli"
	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/logging"
	"todo/internal/repository"
	"todo/internal/service"
)

func main() {
	// Create context that cancels on interrupt
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, newRepository)

	code := dispatcher.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}

// newRepository opens the local PostgreSQL store and the configured remote
// store and combines them in a Repository.
func newRepository(ctx context.Context, cfg *config.Config) (service.DataSource, error) {
	log := logging.FromContext(ctx, nil)

	db, err := postgres.Open(ctx, cfg.Settings.Database)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, db, log); err != nil {
		db.Close()
		return nil, err
	}
	local := postgres.New(db, log)

	remote, err := newRemote(ctx, cfg, local)
	if err != nil {
		local.Close()
		return nil, err
	}

	return repository.New(remote, local, repository.WithLogger(log)), nil
}

func newRemote(ctx context.Context, cfg *config.Config, local service.DataSource) (service.DataSource, error) {
	rc := cfg.Settings.Remote
	switch rc.Backend {
	case config.BackendMemory:
		seed, err := memory.SeedFrom(ctx, local)
		if err != nil {
			return nil, err
		}
		return memory.New(memory.WithLatency(rc.Latency), memory.WithTasks(seed...)), nil

	case config.BackendRedis:
		client, err := redisstore.Connect(ctx, rc.Redis)
		if err != nil {
			return nil, err
		}
		return redisstore.New(client, redisstore.WithPrefix(rc.Redis.Prefix), redisstore.WithLatency(rc.Latency)), nil

	case config.BackendGoogleTasks:
		return googletasks.New(ctx, cfg)

	case config.BackendAzureTables:
		store, err := azuretables.New(rc.Azure.ConnectionString, rc.Azure.Table)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureTable(ctx); err != nil {
			return nil, err
		}
		return store, nil

	default:
		return nil, fmt.Errorf("unknown remote backend: %s", rc.Backend)
	}
}
