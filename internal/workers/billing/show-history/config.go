// internal/workers/billing/show-history/config.go
package showhistory

import (
	"time"

	"procedure-assistant/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// LoadConfig takes the job timeout from the worker entry, defaulting to 30s.
func LoadConfig(wcfg config.WorkerConfig) *Config {
	timeout := 30 * time.Second
	if wcfg.Timeout > 0 {
		timeout = time.Duration(wcfg.Timeout) * time.Millisecond
	}
	return &Config{Timeout: timeout}
}
