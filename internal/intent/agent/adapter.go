package agent

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "procedure-assistant/internal/common/errors"
	"procedure-assistant/internal/common/logger"
	"procedure-assistant/internal/common/metrics"
	"procedure-assistant/internal/models"
)

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = time.Second
)

// RetryConfig bounds retries after a rate-limit signal.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Adapter turns an Agent call into a RouterOutcome.
type Adapter struct {
	agent  Agent
	retry  RetryConfig
	sleep  SleepFunc
	logger logger.Logger
}

func NewAdapter(agent Agent, retry RetryConfig, log logger.Logger) *Adapter {
	if retry.MaxAttempts <= 0 {
		retry.MaxAttempts = DefaultMaxAttempts
	}
	if retry.BaseDelay <= 0 {
		retry.BaseDelay = DefaultBaseDelay
	}
	return &Adapter{
		agent:  agent,
		retry:  retry,
		sleep:  sleepContext,
		logger: log.WithFields(map[string]interface{}{"component": "router-adapter"}),
	}
}

// WithSleep replaces the backoff wait, mainly for tests.
func (a *Adapter) WithSleep(fn SleepFunc) *Adapter {
	a.sleep = fn
	return a
}

// Invoke calls the agent, retrying throttled calls with delays of base, 2*base,
// 4*base... Exhausted retries give RateLimited rather than an error. Any other
// failure is returned immediately.
func (a *Adapter) Invoke(ctx context.Context, prompt, sessionID string) (models.RouterOutcome, error) {
	delay := a.retry.BaseDelay

	for attempt := 1; attempt <= a.retry.MaxAttempts; attempt++ {
		fragments, err := a.agent.InvokeAgent(ctx, sessionID, prompt)
		if err == nil {
			text := strings.Join(fragments, "")
			outcome := "responded"
			if text == "" {
				outcome = "empty"
			}
			metrics.RouterInvocations.WithLabelValues(outcome).Inc()
			return models.RouterOutcome{
				Text:      text,
				Responded: text != "",
				Attempts:  attempt,
			}, nil
		}

		if !IsThrottled(err) {
			metrics.RouterInvocations.WithLabelValues("error").Inc()
			a.logger.Error("Router invocation failed", map[string]interface{}{
				"attempt": attempt,
				"error":   err.Error(),
			})
			if errors.Is(err, context.DeadlineExceeded) {
				return models.RouterOutcome{Error: err.Error(), Attempts: attempt}, apperrors.NewAgentTimeoutError(err)
			}
			return models.RouterOutcome{Error: err.Error(), Attempts: attempt}, apperrors.NewAgentInvocationError(err)
		}

		if attempt == a.retry.MaxAttempts {
			break
		}

		a.logger.Warn("Router throttled, backing off", map[string]interface{}{
			"attempt": attempt,
			"delay":   delay.String(),
		})
		metrics.RouterRetries.Inc()
		if err := a.sleep(ctx, delay); err != nil {
			return models.RouterOutcome{Error: err.Error(), Attempts: attempt}, apperrors.NewAgentTimeoutError(err)
		}
		delay *= 2
	}

	metrics.RouterInvocations.WithLabelValues("rate_limited").Inc()
	a.logger.Warn("Router rate limit retries exhausted", map[string]interface{}{
		"attempts": a.retry.MaxAttempts,
	})
	return models.RouterOutcome{RateLimited: true, Attempts: a.retry.MaxAttempts}, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
