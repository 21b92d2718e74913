package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Apurer/storefront-core/internal/app/storefront"
	platformobservability "github.com/Apurer/storefront-core/internal/platform/observability"
	"github.com/Apurer/storefront-core/internal/platform/sandbox"
)

func main() {
	issueFor := flag.String("issue-token", "", "print a bearer token for this user id and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of tokens printed by -issue-token")
	flag.Parse()

	cfg, err := storefront.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	key := sandbox.DevSigningKey
	if cfg.SandboxSigningKey != "" {
		key = []byte(cfg.SandboxSigningKey)
	}
	if *issueFor != "" {
		token, err := sandbox.IssueToken(key, *issueFor, *tokenTTL)
		if err != nil {
			log.Fatalf("failed to issue token: %v", err)
		}
		fmt.Println(token)
		return
	}

	ctx := context.Background()
	const serviceName = "commerce-sandbox"
	instruments, shutdown, err := platformobservability.Init(ctx, platformobservability.Settings{
		ServiceName: serviceName,
		Environment: cfg.Environment,
		LogLevel:    cfg.LogLevel,
		Exporter:    cfg.TraceExporter,
	})
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	server := sandbox.New(
		sandbox.WithSigningKey(key),
		sandbox.WithLogger(logger),
		sandbox.WithServiceName(serviceName),
	)
	addr := ":" + cfg.SandboxPort
	logger.Info("commerce sandbox listening", slog.String("addr", addr), slog.String("base_path", sandbox.BasePath))
	if err := server.Router().Run(addr); err != nil {
		logger.Error("commerce sandbox exited", slog.String("addr", addr), slog.String("error", err.Error()))
		os.Exit(1)
	}
}
