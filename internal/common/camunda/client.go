// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"procedure-assistant/internal/common/config"
	"procedure-assistant/internal/common/logger"
)

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

// NewClient connects to the gateway and checks the topology, retrying
// transient failures with exponential backoff.
func NewClient(ctx context.Context, cfg config.CamundaConfig, retry RetryConfig, log logger.Logger) (zbc.Client, error) {
	var client zbc.Client
	err := RetryWithBackoff(ctx, retry, log, "Zeebe client initialization", func(ctx context.Context) error {
		c, err := zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.BrokerAddress,
			UsePlaintextConnection: true,
		})
		if err != nil {
			return err
		}

		tctx, cancel := context.WithTimeout(ctx, time.Duration(cfg.RequestTimeout)*time.Millisecond)
		defer cancel()
		if _, err := c.NewTopologyCommand().Send(tctx); err != nil {
			_ = c.Close()
			return fmt.Errorf("failed to reach Zeebe broker at %s: %w", cfg.BrokerAddress, err)
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// RetryWithBackoff runs op until it succeeds, a non-transient error occurs,
// retries run out or ctx is done.
func RetryWithBackoff(ctx context.Context, retry RetryConfig, log logger.Logger, operation string, op func(context.Context) error) error {
	delay := retry.BaseDelay
	var err error

	for attempt := 1; attempt <= retry.MaxRetries; attempt++ {
		if err = op(ctx); err == nil {
			return nil
		}
		if !IsRetryable(err) || attempt == retry.MaxRetries {
			break
		}

		log.Warn(fmt.Sprintf("%s failed, retrying", operation), map[string]interface{}{
			"error":       err.Error(),
			"attempt":     attempt,
			"maxRetries":  retry.MaxRetries,
			"nextRetryIn": delay.String(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s cancelled after %d attempts: %w", operation, attempt, ctx.Err())
		}

		delay *= 2
		if retry.MaxDelay > 0 && delay > retry.MaxDelay {
			delay = retry.MaxDelay
		}
	}
	return fmt.Errorf("%s failed: %w", operation, err)
}

// IsRetryable reports whether err looks like a transient connection problem.
func IsRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
		"no such host",
	} {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
