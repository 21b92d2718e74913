package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/storefront-core/internal/app/storefront"
	"github.com/Apurer/storefront-core/internal/clients/http/commerce"
	checkoutapp "github.com/Apurer/storefront-core/internal/domains/checkout/application"
	platformobservability "github.com/Apurer/storefront-core/internal/platform/observability"
	checkoutactivities "github.com/Apurer/storefront-core/internal/platform/temporal/activities/checkout"
	checkoutworkflows "github.com/Apurer/storefront-core/internal/platform/temporal/workflows/checkout"
)

func main() {
	cfg, err := storefront.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	ctx := context.Background()
	const serviceName = "storefront-order-worker"
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

	// Activities act for the bearer pinned on each workflow input, never a local identity.
	remote, err := commerce.NewClient(cfg.CommerceBaseURL, commerce.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
	if err != nil {
		logger.Error("failed to build commerce client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	placer := checkoutapp.NewPlacer(remote)
	placementActivities := checkoutactivities.NewActivities(placer)

	temporalClient, err := storefront.DialTemporal(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, checkoutworkflows.OrderPlacementTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(checkoutworkflows.OrderPlacementWorkflow, workflow.RegisterOptions{Name: checkoutworkflows.OrderPlacementWorkflowName})
	w.RegisterActivityWithOptions(placementActivities.ListAddresses, activity.RegisterOptions{Name: checkoutactivities.ListAddressesActivityName})
	w.RegisterActivityWithOptions(placementActivities.ResolveAddresses, activity.RegisterOptions{Name: checkoutactivities.ResolveAddressesActivityName})
	w.RegisterActivityWithOptions(placementActivities.CreateOrder, activity.RegisterOptions{Name: checkoutactivities.CreateOrderActivityName})

	logger.Info("worker listening", slog.String("taskQueue", checkoutworkflows.OrderPlacementTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
