// cmd/intent-api/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"procedure-assistant/internal/api"
	"procedure-assistant/internal/app"
	"procedure-assistant/internal/common/config"
	"procedure-assistant/internal/common/logger"
)

func main() {
	bootLog := logger.New("info", "console")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{"service": "intent-api"})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("failed to build application", zap.Error(err))
	}
	defer a.Close()

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	server := api.NewServer(a.Services(), log,
		api.WithReadiness(a.Ready),
		api.WithRequestTimeout(config.GetDuration(cfg.Server.RequestTimeout)),
	)

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLog.Info("Intent API listening", zap.String("addr", srv.Addr), zap.String("storeBackend", cfg.Store.Backend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("Intent API failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLog.Info("Shutdown signal received, draining requests...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Graceful shutdown failed", zap.Error(err))
	}
	zapLog.Info("Intent API stopped")
}
