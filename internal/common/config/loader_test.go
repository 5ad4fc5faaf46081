package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
app:
  name: procedure-assistant
store:
  backend: memory
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "DoctorProcedures", cfg.AWS.DynamoDB.Table)
	assert.Equal(t, 3, cfg.Router.MaxAttempts)
	assert.Equal(t, 1000, cfg.Router.BaseDelay)
	assert.InDelta(t, 0.4, cfg.Resolution.MatchThreshold, 1e-9)
	assert.InDelta(t, 0.8, cfg.Resolution.Add.AutoAccept, 1e-9)
	assert.InDelta(t, 0.5, cfg.Resolution.Add.Confirm, 1e-9)
	assert.InDelta(t, 0.4, cfg.Resolution.Query.MinConfidence, 1e-9)
	assert.Equal(t, 5, cfg.Resolution.HistoryLimit)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("TEST_AGENT_ID", "AGENT123")
	path := writeConfig(t, `
store:
  backend: memory
aws:
  bedrock:
    agent_id: ${TEST_AGENT_ID}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "AGENT123", cfg.AWS.Bedrock.AgentID)
}

func TestLoadFromFile_WorkerDefaults(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: memory
workers:
  resolve-intent:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	w := GetWorkerConfig(cfg, "resolve-intent")
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, 30000, w.Timeout)
	assert.Equal(t, 3, w.MaxRetries)
	assert.True(t, IsWorkerEnabled(cfg, "unknown-worker"))
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "memory store is valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Store.Backend = "cassandra" },
			wantErr: "store.backend",
		},
		{
			name:    "postgres without host",
			mutate:  func(c *Config) { c.Store.Backend = "postgres" },
			wantErr: "database.postgres.host",
		},
		{
			name:    "session without redis",
			mutate:  func(c *Config) { c.Session.Enabled = true },
			wantErr: "database.redis.address",
		},
		{
			name: "confirm above auto accept",
			mutate: func(c *Config) {
				c.Resolution.Add.Confirm = 0.9
			},
			wantErr: "resolution.add.confirm",
		},
		{
			name:    "sns without topic",
			mutate:  func(c *Config) { c.AWS.SNS.Enabled = true },
			wantErr: "aws.sns.topic_arn",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Store: StoreConfig{Backend: "memory"}}
			applyDefaults(cfg)
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}
