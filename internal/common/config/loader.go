// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configs/config.yaml, merges config.<APP_ENVIRONMENT>.yaml on top
// and applies environment overrides.
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath("../../configs")
	v.AddConfigPath(".")

	// AWS_DYNAMODB_TABLE overrides aws.dynamodb.table
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	v.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = v.MergeInConfig() // env overlay is optional

	return build(v)
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return build(v)
}

func build(v *viper.Viper) (*Config, error) {
	bindEnvKeys(v)
	expandEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// bindEnvKeys makes AutomaticEnv see keys that are absent from the yaml files.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"aws.region",
		"aws.dynamodb.table",
		"aws.dynamodb.endpoint",
		"aws.bedrock.agent_id",
		"aws.bedrock.agent_alias_id",
		"aws.sns.topic_arn",
		"store.backend",
		"database.redis.address",
		"database.postgres.host",
		"camunda.broker_address",
	} {
		_ = v.BindEnv(key)
	}
}

func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		strVal, ok := v.Get(key).(string)
		if !ok {
			continue
		}
		if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
			expanded := os.ExpandEnv(strVal)
			if expanded != strVal && expanded != "" {
				v.Set(key, expanded)
			}
		}
	}
}

// overrideEmptyConfig fills values that the lambda runtime passes as plain
// environment variables.
func overrideEmptyConfig(cfg *Config) {
	if cfg.AWS.DynamoDB.Table == "" {
		if val := os.Getenv("DYNAMODB_TABLE_NAME"); val != "" {
			cfg.AWS.DynamoDB.Table = val
		}
	}
	if cfg.AWS.Bedrock.AgentID == "" {
		if val := os.Getenv("BEDROCK_AGENT_ID"); val != "" {
			cfg.AWS.Bedrock.AgentID = val
		}
	}
	if cfg.AWS.Bedrock.AgentAliasID == "" {
		if val := os.Getenv("BEDROCK_AGENT_ALIAS_ID"); val != "" {
			cfg.AWS.Bedrock.AgentAliasID = val
		}
	}
	if cfg.AWS.Region == "" {
		if val := os.Getenv("AWS_REGION"); val != "" {
			cfg.AWS.Region = val
		}
	}

	if cfg.Database.Postgres.User == "" {
		if val := os.Getenv("DB_USER"); val != "" {
			cfg.Database.Postgres.User = val
		}
	}
	if cfg.Database.Postgres.Password == "" {
		if val := os.Getenv("DB_PASSWORD"); val != "" {
			cfg.Database.Postgres.Password = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "procedure-assistant"
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 30000
	}

	if cfg.Camunda.MaxJobsActive == 0 {
		cfg.Camunda.MaxJobsActive = 10
	}
	if cfg.Camunda.Timeout == 0 {
		cfg.Camunda.Timeout = 30000
	}
	if cfg.Camunda.RequestTimeout == 0 {
		cfg.Camunda.RequestTimeout = 30000
	}

	if cfg.AWS.Region == "" {
		cfg.AWS.Region = "us-east-1"
	}
	if cfg.AWS.DynamoDB.Table == "" {
		cfg.AWS.DynamoDB.Table = "DoctorProcedures"
	}

	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "dynamodb"
	}

	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.MaxConnections == 0 {
		cfg.Database.Postgres.MaxConnections = 25
	}
	if cfg.Database.Postgres.MaxIdle == 0 {
		cfg.Database.Postgres.MaxIdle = 5
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Postgres.ConnLifetime == 0 {
		cfg.Database.Postgres.ConnLifetime = 300000
	}
	if cfg.Database.Redis.PoolSize == 0 {
		cfg.Database.Redis.PoolSize = 10
	}
	if cfg.Database.Redis.Timeout == 0 {
		cfg.Database.Redis.Timeout = 3000
	}

	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = 86400000
	}
	if cfg.Session.MaxTurns == 0 {
		cfg.Session.MaxTurns = 20
	}
	if cfg.Session.KeyPrefix == "" {
		cfg.Session.KeyPrefix = "conversation"
	}

	if cfg.Router.MaxAttempts == 0 {
		cfg.Router.MaxAttempts = 3
	}
	if cfg.Router.BaseDelay == 0 {
		cfg.Router.BaseDelay = 1000
	}
	if cfg.Router.Timeout == 0 {
		cfg.Router.Timeout = 60000
	}

	if cfg.Resolution.MatchThreshold == 0 {
		cfg.Resolution.MatchThreshold = 0.4
	}
	if cfg.Resolution.Add.AutoAccept == 0 {
		cfg.Resolution.Add.AutoAccept = 0.8
	}
	if cfg.Resolution.Add.Confirm == 0 {
		cfg.Resolution.Add.Confirm = 0.5
	}
	if cfg.Resolution.Query.MinConfidence == 0 {
		cfg.Resolution.Query.MinConfidence = cfg.Resolution.MatchThreshold
	}
	if cfg.Resolution.HistoryLimit == 0 {
		cfg.Resolution.HistoryLimit = 5
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stdout"
	}

	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = 1.0
	}

	for key, worker := range cfg.Workers {
		if worker.MaxJobsActive == 0 {
			worker.MaxJobsActive = 5
		}
		if worker.Timeout == 0 {
			worker.Timeout = 30000
		}
		if worker.MaxRetries == 0 {
			worker.MaxRetries = 3
		}
		cfg.Workers[key] = worker
	}
}

// validateConfig validates critical configuration fields
func validateConfig(cfg *Config) error {
	switch cfg.Store.Backend {
	case "dynamodb":
		if cfg.AWS.DynamoDB.Table == "" {
			return fmt.Errorf("aws.dynamodb.table is required for the dynamodb store")
		}
	case "postgres":
		if cfg.Database.Postgres.Host == "" {
			return fmt.Errorf("database.postgres.host is required")
		}
		if cfg.Database.Postgres.Database == "" {
			return fmt.Errorf("database.postgres.database is required")
		}
		if cfg.Database.Postgres.User == "" {
			return fmt.Errorf("database.postgres.user is required")
		}
	case "memory":
	default:
		return fmt.Errorf("store.backend must be one of dynamodb, postgres, memory: got %q", cfg.Store.Backend)
	}

	if cfg.Session.Enabled && cfg.Database.Redis.Address == "" {
		return fmt.Errorf("database.redis.address is required when session.enabled is set")
	}

	if cfg.Camunda.Enabled && cfg.Camunda.BrokerAddress == "" {
		return fmt.Errorf("camunda.broker_address is required")
	}

	if cfg.AWS.SNS.Enabled && cfg.AWS.SNS.TopicARN == "" {
		return fmt.Errorf("aws.sns.topic_arn is required when aws.sns.enabled is set")
	}

	r := cfg.Resolution
	if r.MatchThreshold < 0 || r.MatchThreshold > 1 {
		return fmt.Errorf("resolution.match_threshold must be within [0,1]")
	}
	if r.Add.Confirm > r.Add.AutoAccept {
		return fmt.Errorf("resolution.add.confirm (%.2f) must not exceed resolution.add.auto_accept (%.2f)", r.Add.Confirm, r.Add.AutoAccept)
	}

	if cfg.Router.MaxAttempts < 1 {
		return fmt.Errorf("router.max_attempts must be at least 1")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}

// GetWorkerConfig retrieves worker-specific configuration with fallback to defaults
func GetWorkerConfig(cfg *Config, workerName string) WorkerConfig {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker
	}

	return WorkerConfig{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30000,
		MaxRetries:    3,
	}
}

// IsWorkerEnabled checks if a specific worker is enabled
func IsWorkerEnabled(cfg *Config, workerName string) bool {
	if worker, exists := cfg.Workers[workerName]; exists {
		return worker.Enabled
	}
	return true
}
