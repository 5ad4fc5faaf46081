// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"procedure-assistant/internal/api"
	"procedure-assistant/internal/app"
	"procedure-assistant/internal/common/camunda"
	"procedure-assistant/internal/common/config"
	"procedure-assistant/internal/common/logger"
	"procedure-assistant/internal/common/observability"

	addprocedure "procedure-assistant/internal/workers/billing/add-procedure"
	getquote "procedure-assistant/internal/workers/billing/get-quote"
	resolveintent "procedure-assistant/internal/workers/billing/resolve-intent"
	showhistory "procedure-assistant/internal/workers/billing/show-history"
)

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{"service": "worker-manager"})

	zapLog.Info("Starting worker manager...", zap.String("storeBackend", cfg.Store.Backend))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("failed to build application", zap.Error(err))
	}
	defer a.Close()

	zeebeClient, err := camunda.NewClient(ctx, cfg.Camunda, camunda.DefaultRetryConfig, log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	var workers []worker.JobWorker
	register := func(taskType string, handle camunda.JobHandler) {
		wcfg := config.GetWorkerConfig(cfg, taskType)
		if w := camunda.StartWorker(zeebeClient, taskType, wcfg, instrument(a.Observability, handle), log); w != nil {
			workers = append(workers, w)
		}
	}

	ri := resolveintent.NewHandler(resolveintent.LoadConfig(config.GetWorkerConfig(cfg, resolveintent.TaskType)), a.Resolver, log)
	register(resolveintent.TaskType, ri.Handle)

	gq := getquote.NewHandler(getquote.LoadConfig(config.GetWorkerConfig(cfg, getquote.TaskType)), a.Service, log)
	register(getquote.TaskType, gq.Handle)

	sh := showhistory.NewHandler(showhistory.LoadConfig(config.GetWorkerConfig(cfg, showhistory.TaskType)), a.Service, log)
	register(showhistory.TaskType, sh.Handle)

	ap := addprocedure.NewHandler(addprocedure.LoadConfig(config.GetWorkerConfig(cfg, addprocedure.TaskType)), a.Service, log)
	register(addprocedure.TaskType, ap.Handle)

	zapLog.Info("Workers registered", zap.Int("count", len(workers)))

	// --- Health, readiness & metrics ---
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:    cfg.Server.Addr(),
		Handler: api.NewServer(a.Services(), log, api.WithReadiness(a.Ready)).Router(),
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping workers...")

	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := zeebeClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

// instrument records job count and duration in the OpenTelemetry meters.
func instrument(obs *observability.Observability, handle camunda.JobHandler) camunda.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		start := time.Now()
		handle(client, job)
		obs.RecordJobProcessed(context.Background(), job.Type)
		obs.RecordJobDuration(context.Background(), time.Since(start), job.Type)
	}
}
