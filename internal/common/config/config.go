// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig               `mapstructure:"app"`
	Server     ServerConfig            `mapstructure:"server"`
	Camunda    CamundaConfig           `mapstructure:"camunda"`
	AWS        AWSConfig               `mapstructure:"aws"`
	Store      StoreConfig             `mapstructure:"store"`
	Database   DatabaseConfig          `mapstructure:"database"`
	Session    SessionConfig           `mapstructure:"session"`
	Router     RouterConfig            `mapstructure:"router"`
	Resolution ResolutionConfig        `mapstructure:"resolution"`
	Vocabulary VocabularyConfig        `mapstructure:"vocabulary"`
	Workers    map[string]WorkerConfig `mapstructure:"workers"`
	Logging    LoggingConfig           `mapstructure:"logging"`
	Tracing    TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	RequestTimeout int `mapstructure:"request_timeout"` // milliseconds
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// AWSConfig groups the AWS services the assistant talks to.
type AWSConfig struct {
	Region   string `mapstructure:"region"`
	DynamoDB struct {
		Table    string `mapstructure:"table"`
		Endpoint string `mapstructure:"endpoint"` // local dynamodb, optional
	} `mapstructure:"dynamodb"`
	Bedrock struct {
		AgentID      string `mapstructure:"agent_id"`
		AgentAliasID string `mapstructure:"agent_alias_id"`
	} `mapstructure:"bedrock"`
	SNS struct {
		Enabled  bool   `mapstructure:"enabled"`
		TopicARN string `mapstructure:"topic_arn"`
	} `mapstructure:"sns"`
}

// StoreConfig selects the procedure store backend: dynamodb, postgres or memory.
type StoreConfig struct {
	Backend  string `mapstructure:"backend"`
	SeedFile string `mapstructure:"seed_file"` // memory backend only
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	ConnLifetime   int    `mapstructure:"conn_lifetime"` // milliseconds
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
	Timeout  int    `mapstructure:"timeout"` // milliseconds
}

// SessionConfig controls server-side conversation history.
type SessionConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	TTL       int    `mapstructure:"ttl"` // milliseconds
	MaxTurns  int    `mapstructure:"max_turns"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// RouterConfig holds the primary router retry policy.
type RouterConfig struct {
	MaxAttempts int `mapstructure:"max_attempts"`
	BaseDelay   int `mapstructure:"base_delay"` // milliseconds
	Timeout     int `mapstructure:"timeout"`    // milliseconds
}

// ResolutionConfig carries the name-match confidence policy per operation.
type ResolutionConfig struct {
	MatchThreshold float64 `mapstructure:"match_threshold"`
	Add            struct {
		AutoAccept float64 `mapstructure:"auto_accept"`
		Confirm    float64 `mapstructure:"confirm"`
	} `mapstructure:"add"`
	Query struct {
		MinConfidence float64 `mapstructure:"min_confidence"`
	} `mapstructure:"query"`
	HistoryLimit int `mapstructure:"history_limit"`
}

// VocabularyConfig overrides the built-in reference vocabulary when set.
type VocabularyConfig struct {
	Doctors    []string          `mapstructure:"doctors"`
	Procedures []ProcedureConfig `mapstructure:"procedures"`
}

type ProcedureConfig struct {
	Code    string   `mapstructure:"code"`
	Name    string   `mapstructure:"name"`
	Aliases []string `mapstructure:"aliases"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TracingConfig enables the jaeger trace exporter.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}
