// cmd/intent-lambda/main.go
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"procedure-assistant/internal/api"
	"procedure-assistant/internal/app"
	"procedure-assistant/internal/common/config"
	"procedure-assistant/internal/common/logger"
)

// The application is built once per cold start and reused across invocations.
func main() {
	zapLog := logger.New("info", "json")
	defer zapLog.Sync()

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}
	log := logger.NewZapAdapter(logger.NewWithOutput(cfg.Logging.Level, "json", "stdout")).
		WithFields(map[string]interface{}{"service": "intent-lambda"})

	a, err := app.Build(context.Background(), cfg, log)
	if err != nil {
		zapLog.Fatal("failed to build application", zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewLambdaHandler(api.NewServer(a.Services(), log))
	lambda.Start(handler.Invoke)
}
