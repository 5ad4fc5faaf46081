// Package fallback decides between the primary router's reply, a direct
// backend dispatch and synthesized guidance.
package fallback

import (
	"context"
	"fmt"
	"sort"

	"procedure-assistant/internal/common/logger"
	"procedure-assistant/internal/common/metrics"
	"procedure-assistant/internal/models"
)

const defaultExampleCount = 3

// Dispatcher runs the deterministic backend operations.
type Dispatcher interface {
	GetQuote(ctx context.Context, req models.QuoteRequest) (*models.QuoteResult, error)
	ShowHistory(ctx context.Context, q models.HistoryQuery) (*models.HistoryResult, error)
}

// NameSource lists canonical doctor names for guidance examples.
type NameSource interface {
	ListDistinctNames(ctx context.Context) ([]string, error)
}

type Orchestrator struct {
	dispatcher   Dispatcher
	names        NameSource
	defaultNames []string
	exampleCount int
	logger       logger.Logger
}

// NewOrchestrator builds an orchestrator. names may be nil, in which case
// defaultNames are used for examples.
func NewOrchestrator(dispatcher Dispatcher, names NameSource, defaultNames []string, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		dispatcher:   dispatcher,
		names:        names,
		defaultNames: defaultNames,
		exampleCount: defaultExampleCount,
		logger:       log.WithFields(map[string]interface{}{"component": "fallback-orchestrator"}),
	}
}

// Resolve applies the decision policy to one request. It never returns an
// empty message. When dispatch fails the router reply is kept unless it is
// empty or asks the user to specify something; those end in guidance.
func (o *Orchestrator) Resolve(ctx context.Context, req models.ResolvedRequest, out models.RouterOutcome) models.FinalResponse {
	final := models.FinalResponse{
		ContextUsed:     req.HasHistory,
		ExtractedParams: req.Slots,
		RateLimited:     out.RateLimited,
		RouterAttempts:  out.Attempts,
		Path:            []models.ResolutionState{models.StateStart, models.StatePrimaryAttempted},
	}

	if o.shouldDispatch(req, out) {
		final.Path = append(final.Path, models.StateFallbackAttempted)
		op, msg := o.dispatch(ctx, req.Slots)
		final.DispatchedOperation = op
		switch {
		case msg != "":
			final.Message = msg
			final.FallbackUsed = true
			final.Path = append(final.Path, models.StateAccepted)
		case out.Text != "" && !AsksToSpecify(out.Text):
			// the router's own reply stands when dispatch has nothing better
			final.Message = out.Text
			final.Path = append(final.Path, models.StateAccepted)
		}
	} else {
		final.Message = out.Text
		final.Path = append(final.Path, models.StateAccepted)
	}

	if final.Message == "" || AsksToSpecify(final.Message) {
		examples := o.examples(ctx)
		if out.RateLimited {
			final.Message = rateLimitGuidance(req.Slots, examples)
		} else {
			final.Message = guidance(req.Slots, examples)
		}
		if n := len(final.Path); final.Path[n-1] == models.StateAccepted {
			final.Path = final.Path[:n-1]
		}
		final.Path = append(final.Path, models.StateGuidanceSynthesized)
	}

	final.IntentMapped = Understood(final.Message)
	final.Path = append(final.Path, models.StateDone)

	o.logger.Info("Resolution finished", map[string]interface{}{
		"intent":       string(req.Intent),
		"fallbackUsed": final.FallbackUsed,
		"rateLimited":  final.RateLimited,
		"finalState":   string(final.Path[len(final.Path)-2]),
	})
	return final
}

func (o *Orchestrator) shouldDispatch(req models.ResolvedRequest, out models.RouterOutcome) bool {
	switch {
	case out.RateLimited, out.Text == "":
		return true
	case IsBoilerplate(out.Text):
		return true
	case req.FullySpecified() && hasPlaceholder(out.Text):
		return true
	}
	return false
}

// dispatch returns the operation tried and its message, or "" when the
// operation failed, found nothing or could not be attempted.
func (o *Orchestrator) dispatch(ctx context.Context, s models.Slots) (models.Intent, string) {
	if o.dispatcher == nil {
		return models.IntentNone, ""
	}

	switch s.Intent {
	case models.IntentGetQuote:
		if s.DoctorName == "" && s.ProcedureCode == "" {
			return models.IntentNone, ""
		}
		res, err := o.dispatcher.GetQuote(ctx, models.QuoteRequest{
			DoctorName:    s.DoctorName,
			ProcedureCode: s.ProcedureCode,
		})
		if err != nil || res == nil || res.SampleCount == 0 {
			o.dispatchMissed(s.Intent, err)
			return s.Intent, ""
		}
		metrics.FallbackDispatches.WithLabelValues(string(s.Intent), "answered").Inc()
		return s.Intent, quoteMessage(res)

	case models.IntentShowHistory:
		if s.DoctorName == "" {
			return models.IntentNone, ""
		}
		res, err := o.dispatcher.ShowHistory(ctx, models.HistoryQuery{DoctorName: s.DoctorName})
		if err != nil || res == nil || len(res.History) == 0 {
			o.dispatchMissed(s.Intent, err)
			return s.Intent, ""
		}
		metrics.FallbackDispatches.WithLabelValues(string(s.Intent), "answered").Inc()
		return s.Intent, historyMessage(res)
	}
	return models.IntentNone, ""
}

func (o *Orchestrator) dispatchMissed(op models.Intent, err error) {
	result := "empty"
	fields := map[string]interface{}{"operation": string(op)}
	if err != nil {
		result = "error"
		fields["error"] = err.Error()
	}
	metrics.FallbackDispatches.WithLabelValues(string(op), result).Inc()
	o.logger.Warn("Direct dispatch produced no answer", fields)
}

func (o *Orchestrator) examples(ctx context.Context) []string {
	var names []string
	if o.names != nil {
		stored, err := o.names.ListDistinctNames(ctx)
		if err != nil {
			o.logger.Warn("Failed to list names for guidance", map[string]interface{}{"error": err.Error()})
		}
		names = append(names, stored...)
		sort.Strings(names)
	}
	if len(names) == 0 {
		names = o.defaultNames
	}
	if len(names) > o.exampleCount {
		names = names[:o.exampleCount]
	}
	return names
}

func quoteMessage(res *models.QuoteResult) string {
	if res.Message != "" {
		return res.Message
	}
	subject := "procedure " + res.ProcedureCode
	if res.DoctorName != "" {
		subject = "Dr. " + res.DoctorName
	}
	return fmt.Sprintf("The median cost for %s is $%s based on %d procedures.",
		subject, res.MedianCost.StringFixed(2), res.SampleCount)
}

func historyMessage(res *models.HistoryResult) string {
	if res.Message != "" {
		return res.Message
	}
	return fmt.Sprintf("Found %d procedures for Dr. %s totalling $%s.",
		len(res.History), res.DoctorName, res.TotalCost.StringFixed(2))
}
