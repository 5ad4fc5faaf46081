// Package intent wires the resolution pipeline: slot extraction, the primary
// router, the fallback orchestrator and the response composer.
package intent

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	apperrors "procedure-assistant/internal/common/errors"
	"procedure-assistant/internal/common/logger"
	"procedure-assistant/internal/common/metrics"
	"procedure-assistant/internal/common/observability"
	"procedure-assistant/internal/intent/namematch"
	"procedure-assistant/internal/intent/response"
	"procedure-assistant/internal/intent/slots"
	"procedure-assistant/internal/models"
	"procedure-assistant/internal/session"
)

// Router is the primary language-understanding router.
type Router interface {
	Invoke(ctx context.Context, prompt, sessionID string) (models.RouterOutcome, error)
}

// Finalizer turns a router outcome into the final response.
type Finalizer interface {
	Resolve(ctx context.Context, req models.ResolvedRequest, out models.RouterOutcome) models.FinalResponse
}

type NameSource interface {
	ListDistinctNames(ctx context.Context) ([]string, error)
}

// Result is a composed response and the status transports should report.
type Result struct {
	Response   models.IntentResponse
	StatusCode int
}

type Resolver struct {
	extractor *slots.Extractor
	matcher   *namematch.Matcher
	names     NameSource
	router    Router
	finalizer Finalizer
	history   session.History
	obs       *observability.Observability
	logger    logger.Logger
	newID     func() string
}

type Option func(*Resolver)

// WithHistory loads and records turns for requests that carry no history.
func WithHistory(h session.History) Option {
	return func(r *Resolver) { r.history = h }
}

func WithObservability(o *observability.Observability) Option {
	return func(r *Resolver) { r.obs = o }
}

func NewResolver(extractor *slots.Extractor, matcher *namematch.Matcher, names NameSource, router Router, finalizer Finalizer, log logger.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		extractor: extractor,
		matcher:   matcher,
		names:     names,
		router:    router,
		finalizer: finalizer,
		logger:    log.WithFields(map[string]interface{}{"component": "intent-resolver"}),
		newID:     func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve runs one request through the pipeline. The only errors returned are
// validation failures; router, store and session problems degrade to a
// fallback or guidance message.
func (r *Resolver) Resolve(ctx context.Context, req models.IntentRequest) (*Result, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, apperrors.NewFieldValidationError("Text input is required in the request body.", []string{"text"})
	}

	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "intent.resolve")
	defer span.End()

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = r.newID()
	}
	log := r.logger.WithFields(map[string]interface{}{"sessionId": sessionID})

	history := req.ConversationHistory
	if len(history) == 0 && r.history != nil {
		loaded, err := r.history.Load(ctx, sessionID)
		if err != nil {
			log.Warn("Session history unavailable", map[string]interface{}{"error": err.Error()})
		} else {
			history = loaded
		}
	}

	names, err := r.names.ListDistinctNames(ctx)
	if err != nil {
		log.Warn("Candidate names unavailable, extracting from vocabulary only", map[string]interface{}{
			"error": err.Error(),
		})
	}

	extracted, prov := r.extractor.ExtractWithCandidates(text, history, names)
	resolved := models.ResolvedRequest{
		Slots:      extracted,
		Text:       text,
		SessionID:  sessionID,
		HasHistory: len(history) > 0,
	}
	if resolved.DoctorName != "" {
		if m := r.matcher.Match(resolved.DoctorName, names); m.Found() {
			if m.MatchedName != resolved.DoctorName {
				resolved.DoctorName = m.MatchedName
				resolved.EnhancedPrompt = r.extractor.Prompt(text, resolved.Slots, prov)
			}
			resolved.NameConfidence = m.Confidence
		}
	}

	log.Debug("Slots extracted", map[string]interface{}{
		"intent":        string(resolved.Intent),
		"doctorName":    resolved.DoctorName,
		"procedureCode": resolved.ProcedureCode,
		"provenance":    prov,
	})

	prompt := resolved.EnhancedPrompt
	if prompt == "" {
		prompt = text
	}

	out, err := r.router.Invoke(ctx, prompt, sessionID)
	if err != nil {
		// a failed router is treated like one that said nothing
		log.Error("Primary router failed, falling back", map[string]interface{}{"error": err.Error()})
		span.RecordError(err)
		out.Text = ""
		out.Responded = false
		if out.Error == "" {
			out.Error = err.Error()
		}
	}

	final := r.finalizer.Resolve(ctx, resolved, out)
	resp := response.Compose(req, sessionID, final)

	if r.history != nil {
		params := resolved.Slots
		userTurn := models.ConversationTurn{Role: models.RoleUser, Content: text, ExtractedParams: &params}
		if err := r.history.Append(ctx, sessionID, userTurn, response.AssistantTurn(resp)); err != nil {
			log.Warn("Failed to record conversation turns", map[string]interface{}{"error": err.Error()})
		}
	}

	status := http.StatusOK
	if final.RateLimited && !final.FallbackUsed {
		status = http.StatusTooManyRequests
	}

	finalState := string(models.StateAccepted)
	if n := len(final.Path); n >= 2 {
		finalState = string(final.Path[n-2])
	}
	metrics.IntentRequests.WithLabelValues(finalState, string(resolved.Intent)).Inc()
	r.obs.RecordResolution(ctx, time.Since(start), finalState, final.FallbackUsed)

	span.SetAttributes(
		attribute.String("intent", string(resolved.Intent)),
		attribute.String("final_state", finalState),
		attribute.Bool("fallback_used", final.FallbackUsed),
		attribute.Bool("rate_limited", final.RateLimited),
	)
	if status != http.StatusOK {
		span.SetStatus(codes.Error, "rate limited")
	}

	log.Info("Intent resolved", map[string]interface{}{
		"intent":       string(resolved.Intent),
		"finalState":   finalState,
		"fallbackUsed": final.FallbackUsed,
		"intentMapped": final.IntentMapped,
		"durationMs":   time.Since(start).Milliseconds(),
	})

	return &Result{Response: resp, StatusCode: status}, nil
}
