// internal/workers/billing/get-quote/handler.go
package getquote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"procedure-assistant/internal/common/camunda"
	apperrors "procedure-assistant/internal/common/errors"
	"procedure-assistant/internal/common/logger"
	"procedure-assistant/internal/common/metrics"
	"procedure-assistant/internal/models"
)

const (
	TaskType = "get-quote"
)

type QuoteService interface {
	GetQuote(ctx context.Context, req models.QuoteRequest) (*models.QuoteResult, error)
}

type Handler struct {
	config  *Config
	service QuoteService
	errors  *apperrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, service QuoteService, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		service: service,
		errors:  apperrors.NewErrorHandler(log),
		logger:  log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, apperrors.NewValidationError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	camunda.CompleteJob(ctx, client, job, output, h.logger)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := h.service.GetQuote(ctx, models.QuoteRequest{
		DoctorName:    input.DoctorName,
		ProcedureCode: input.ProcedureCode,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("quote computed", map[string]interface{}{
		"doctorName":    result.DoctorName,
		"procedureCode": result.ProcedureCode,
		"sampleCount":   result.SampleCount,
	})

	return &Output{
		Message:     result.Message,
		MedianCost:  result.MedianCost.StringFixed(2),
		AverageCost: result.AverageCost.StringFixed(2),
		SampleCount: result.SampleCount,
		Quote:       *result,
	}, nil
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.AsStandardError(err).Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, err)
}
