// internal/workers/billing/resolve-intent/handler.go
package resolveintent

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
	"procedure-assistant/internal/intent"
	"procedure-assistant/internal/models"
)

const (
	TaskType = "resolve-intent"
)

type IntentResolver interface {
	Resolve(ctx context.Context, req models.IntentRequest) (*intent.Result, error)
}

type Handler struct {
	config   *Config
	resolver IntentResolver
	errors   *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, resolver IntentResolver, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		resolver: resolver,
		errors:   apperrors.NewErrorHandler(log),
		logger:   log,
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
	metrics.IntentResolutionDuration.WithLabelValues("zeebe").Observe(time.Since(start).Seconds())
}

// Execute resolves one utterance. Rate limiting without a fallback answer is
// reported through StatusCode, not as a job failure.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.resolver.Resolve(ctx, models.IntentRequest{
		Text:                input.Text,
		SessionID:           input.SessionID,
		ConversationHistory: input.ConversationHistory,
	})
	if err != nil {
		return nil, err
	}

	resp := res.Response
	return &Output{
		Message:      resp.Message,
		SessionID:    resp.SessionID,
		Intent:       resp.ExtractedParams.Intent,
		IntentMapped: resp.IntentMapped,
		FallbackUsed: resp.FallbackUsed,
		StatusCode:   res.StatusCode,
		Response:     resp,
	}, nil
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.AsStandardError(err).Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, err)
}
