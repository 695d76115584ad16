package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/farmasync/internal/app/api"
	inventarioclient "github.com/Apurer/farmasync/internal/clients/http/inventario"
	pedidosinventario "github.com/Apurer/farmasync/internal/domains/pedidos/adapters/external/inventario"
	pedidoworkflows "github.com/Apurer/farmasync/internal/durable/temporal/workflows/pedidos"
	platformobservability "github.com/Apurer/farmasync/internal/platform/observability"
	pedidoactivities "github.com/Apurer/farmasync/internal/platform/temporal/activities/pedidos"
)

func main() {
	ctx := context.Background()
	const serviceName = "farmasync-pedidos-worker"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
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

	cfg, err := api.LoadConfig(api.ServicePedidos)
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}
	inventory, err := inventarioclient.NewClient(cfg.InventoryBaseURL, &http.Client{
		Timeout:   cfg.InventoryTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
	if err != nil {
		logger.Error("failed to configure inventory client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	stockActivities := pedidoactivities.NewActivities(pedidosinventario.NewInventory(inventory))

	temporalClient, err := api.ConnectTemporal(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, pedidoworkflows.StockInTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(pedidoworkflows.StockInWorkflow, workflow.RegisterOptions{Name: pedidoworkflows.StockInWorkflowName})
	w.RegisterActivityWithOptions(stockActivities.RegisterStockIn, activity.RegisterOptions{Name: pedidoactivities.RegisterStockInActivityName})

	logger.Info("worker listening", slog.String("taskQueue", pedidoworkflows.StockInTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
