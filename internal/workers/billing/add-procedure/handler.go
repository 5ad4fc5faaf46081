// internal/workers/billing/add-procedure/handler.go
package addprocedure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/shopspring/decimal"

	"procedure-assistant/internal/common/camunda"
	apperrors "procedure-assistant/internal/common/errors"
	"procedure-assistant/internal/common/logger"
	"procedure-assistant/internal/common/metrics"
	"procedure-assistant/internal/models"
)

const (
	TaskType = "add-procedure"
)

type ProcedureAdder interface {
	AddProcedure(ctx context.Context, req models.AddProcedureRequest) (*models.AddProcedureResult, error)
}

type Handler struct {
	config  *Config
	service ProcedureAdder
	errors  *apperrors.ErrorHandler
	logger  logger.Logger
}

func NewHandler(config *Config, service ProcedureAdder, log logger.Logger) *Handler {
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

// Execute records the procedure. A low-confidence name match surfaces as a
// CONFIRMATION_REQUIRED business error so the process can ask the user.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	cost, err := parseCost(input.Cost)
	if err != nil {
		return nil, err
	}

	result, err := h.service.AddProcedure(ctx, models.AddProcedureRequest{
		DoctorName:    input.DoctorName,
		ProcedureCode: input.ProcedureCode,
		ProcedureName: input.ProcedureName,
		Cost:          cost,
		ProcedureTime: input.Time,
		Confirmed:     input.Confirmed,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("procedure recorded", map[string]interface{}{
		"doctorName":      result.Record.DoctorName,
		"procedureCode":   result.Record.ProcedureCode,
		"matchedExisting": result.MatchedExisting,
	})

	return &Output{
		Message:         result.Message,
		DoctorName:      result.Record.DoctorName,
		ProcedureTime:   models.FormatProcedureTime(result.Record.ProcedureTime),
		MatchedExisting: result.MatchedExisting,
		Result:          *result,
	}, nil
}

// parseCost accepts the JSON number or numeric string a process variable carries.
func parseCost(raw json.RawMessage) (*decimal.Decimal, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var cost decimal.Decimal
	if err := cost.UnmarshalJSON(raw); err != nil {
		return nil, apperrors.NewFieldValidationError("Cost must be a valid number.", []string{"cost"})
	}
	return &cost, nil
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(apperrors.AsStandardError(err).Code)).Inc()
	h.errors.HandleJobError(ctx, client, job, err)
}
