package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Apurer/storefront-core/internal/app/storefront"
	identitypostgres "github.com/Apurer/storefront-core/internal/domains/identity/adapters/persistence/postgres"
	platformobservability "github.com/Apurer/storefront-core/internal/platform/observability"
	platformpostgres "github.com/Apurer/storefront-core/internal/platform/postgres"
)

func main() {
	cfg, err := storefront.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.Settings{
		ServiceName: "storefront-storage-purger",
		Environment: cfg.Environment,
		LogLevel:    cfg.LogLevel,
		Exporter:    cfg.TraceExporter,
	})
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	logger := instruments.Logger
	os.Exit(run(ctx, cfg, logger, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}))
}

func run(ctx context.Context, cfg storefront.Config, logger *slog.Logger, flush func()) int {
	defer flush()
	db, cleanup := platformpostgres.Open(ctx, cfg.PostgresDSN, logger, platformpostgres.Pool{MaxOpen: 1, MaxIdle: 1})
	defer cleanup()
	if db == nil {
		logger.Error("cannot purge local storage without postgres")
		return 1
	}

	cutoff := time.Now().Add(-cfg.StorageRetention)
	purged, err := identitypostgres.NewLocalStorage(db).PurgeStale(ctx, cutoff)
	if err != nil {
		logger.Error("failed to purge local storage", slog.String("error", err.Error()))
		return 1
	}
	logger.Info("local storage purge completed", slog.Int64("purged", purged), slog.Time("cutoff", cutoff))
	return 0
}
