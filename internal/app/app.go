// Package app builds the shared dependency graph used by every entry point.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"

	"procedure-assistant/internal/api"
	awsclients "procedure-assistant/internal/common/aws"
	"procedure-assistant/internal/common/config"
	"procedure-assistant/internal/common/database"
	"procedure-assistant/internal/common/logger"
	"procedure-assistant/internal/common/observability"
	"procedure-assistant/internal/intent"
	"procedure-assistant/internal/intent/agent"
	"procedure-assistant/internal/intent/conversation"
	"procedure-assistant/internal/intent/fallback"
	"procedure-assistant/internal/intent/namematch"
	"procedure-assistant/internal/intent/slots"
	"procedure-assistant/internal/intent/vocabulary"
	"procedure-assistant/internal/models"
	"procedure-assistant/internal/procedures"
	"procedure-assistant/internal/session"
	"procedure-assistant/internal/store"
)

var errRouterNotConfigured = errors.New("primary router not configured")

type App struct {
	Config        *config.Config
	Logger        logger.Logger
	Vocabulary    *vocabulary.Vocabulary
	Store         store.Store
	Service       *procedures.Service
	Resolver      *intent.Resolver
	Observability *observability.Observability

	checks  map[string]func(context.Context) error
	closers []func() error
}

// Build connects every backend named in cfg. Close releases them.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{
		Config:        cfg,
		Logger:        log,
		Vocabulary:    NewVocabulary(cfg.Vocabulary),
		Observability: observability.New(cfg.App.Name),
		checks:        make(map[string]func(context.Context) error),
	}

	if cfg.Tracing.Enabled {
		if err := a.Observability.EnableTracing(cfg.App.Name, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio); err != nil {
			log.Warn("tracing disabled", map[string]interface{}{"error": err.Error()})
		}
	}

	var awsCfg *awssdk.Config
	loadAWS := func() (awssdk.Config, error) {
		if awsCfg != nil {
			return *awsCfg, nil
		}
		c, err := awsclients.LoadConfig(ctx, cfg.AWS.Region)
		if err != nil {
			return awssdk.Config{}, fmt.Errorf("failed to load AWS config: %w", err)
		}
		awsCfg = &c
		return c, nil
	}

	st, err := a.newStore(ctx, loadAWS)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Store = st

	var notifier procedures.Notifier
	if cfg.AWS.SNS.Enabled {
		c, err := loadAWS()
		if err != nil {
			a.Close()
			return nil, err
		}
		notifier = procedures.NewSNSNotifier(awsclients.NewSNSClient(c), cfg.AWS.SNS.TopicARN)
		log.Info("procedure notifications enabled", map[string]interface{}{"topicArn": cfg.AWS.SNS.TopicARN})
	}

	a.Service = procedures.NewService(st, a.Vocabulary, PolicyFrom(cfg.Resolution), notifier, log)

	var primary agent.Agent = unconfiguredAgent{}
	if cfg.AWS.Bedrock.AgentID != "" {
		c, err := loadAWS()
		if err != nil {
			a.Close()
			return nil, err
		}
		primary = agent.NewBedrockAgent(awsclients.NewBedrockAgentRuntimeClient(c), cfg.AWS.Bedrock.AgentID, cfg.AWS.Bedrock.AgentAliasID)
	} else {
		log.Warn("no bedrock agent configured, every request will use the fallback path", nil)
	}

	opts := []intent.Option{intent.WithObservability(a.Observability)}
	if cfg.Session.Enabled {
		rc, err := database.OpenRedis(ctx, cfg.Database.Redis)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, rc.Close)
		a.checks["redis"] = rc.Check
		opts = append(opts, intent.WithHistory(session.NewRedisHistory(rc.Client, session.Options{
			KeyPrefix: cfg.Session.KeyPrefix,
			TTL:       config.GetDuration(cfg.Session.TTL),
			MaxTurns:  cfg.Session.MaxTurns,
		})))
	}

	a.Resolver = NewResolver(cfg, a.Vocabulary, a.Service, primary, log, opts...)
	return a, nil
}

// NewResolver assembles the resolution pipeline around a primary agent.
func NewResolver(cfg *config.Config, vocab *vocabulary.Vocabulary, svc *procedures.Service, primary agent.Agent, log logger.Logger, opts ...intent.Option) *intent.Resolver {
	router := agent.NewAdapter(primary, agent.RetryConfig{
		MaxAttempts: cfg.Router.MaxAttempts,
		BaseDelay:   config.GetDuration(cfg.Router.BaseDelay),
	}, log)

	return intent.NewResolver(
		slots.NewExtractor(vocab, conversation.NewTracker(vocab, conversation.DefaultWindow)),
		namematch.New(cfg.Resolution.MatchThreshold),
		svc,
		timeoutRouter{router: router, timeout: config.GetDuration(cfg.Router.Timeout)},
		fallback.NewOrchestrator(svc, svc, vocab.Doctors(), log),
		log,
		opts...,
	)
}

func (a *App) newStore(ctx context.Context, loadAWS func() (awssdk.Config, error)) (store.Store, error) {
	cfg := a.Config
	switch cfg.Store.Backend {
	case "dynamodb":
		c, err := loadAWS()
		if err != nil {
			return nil, err
		}
		a.Logger.Info("using dynamodb procedure store", map[string]interface{}{"table": cfg.AWS.DynamoDB.Table})
		return store.NewDynamoStore(awsclients.NewDynamoDBClient(c, cfg.AWS.DynamoDB.Endpoint), cfg.AWS.DynamoDB.Table), nil

	case "postgres":
		pg, err := database.OpenPostgres(ctx, cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		a.checks["postgres"] = pg.Check
		st := store.NewPostgresStore(pg.DB)
		if err := st.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("failed to migrate procedure table: %w", err)
		}
		a.Logger.Info("using postgres procedure store", map[string]interface{}{"host": cfg.Database.Postgres.Host})
		return st, nil

	case "memory":
		var records []models.ProcedureRecord
		if cfg.Store.SeedFile != "" {
			loaded, err := store.LoadSeedFile(cfg.Store.SeedFile)
			if err != nil {
				return nil, err
			}
			records = loaded
		}
		a.Logger.Info("using in-memory procedure store", map[string]interface{}{"records": len(records)})
		return store.NewMemoryStore(records...), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
}

// Services exposes the resolver and backend operations to the transports.
func (a *App) Services() api.Services {
	return api.Services{Resolver: a.Resolver, Quotes: a.Service, History: a.Service, Adder: a.Service}
}

// Ready runs the connection checks of every backend that has one.
func (a *App) Ready(ctx context.Context) map[string]error {
	out := make(map[string]error, len(a.checks))
	for name, check := range a.checks {
		out[name] = check(ctx)
	}
	return out
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.Logger.Warn("close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	a.closers = nil
	a.Observability.Shutdown()
}

// NewVocabulary uses the configured vocabulary, or the default one when the
// config lists no procedures.
func NewVocabulary(cfg config.VocabularyConfig) *vocabulary.Vocabulary {
	if len(cfg.Procedures) == 0 && len(cfg.Doctors) == 0 {
		return vocabulary.Default()
	}
	doctors := cfg.Doctors
	if len(doctors) == 0 {
		doctors = vocabulary.DefaultDoctors
	}
	procs := vocabulary.DefaultProcedures
	if len(cfg.Procedures) > 0 {
		procs = make([]vocabulary.Procedure, 0, len(cfg.Procedures))
		for _, p := range cfg.Procedures {
			procs = append(procs, vocabulary.Procedure{Code: p.Code, Name: p.Name, Aliases: p.Aliases})
		}
	}
	return vocabulary.New(doctors, procs)
}

func PolicyFrom(cfg config.ResolutionConfig) procedures.Policy {
	return procedures.Policy{
		MatchThreshold:     cfg.MatchThreshold,
		AutoAccept:         cfg.Add.AutoAccept,
		Confirm:            cfg.Add.Confirm,
		QueryMinConfidence: cfg.Query.MinConfidence,
		HistoryLimit:       cfg.HistoryLimit,
	}
}

type unconfiguredAgent struct{}

func (unconfiguredAgent) InvokeAgent(context.Context, string, string) ([]string, error) {
	return nil, errRouterNotConfigured
}

// timeoutRouter bounds a whole router call, retries included.
type timeoutRouter struct {
	router  intent.Router
	timeout time.Duration
}

func (t timeoutRouter) Invoke(ctx context.Context, prompt, sessionID string) (models.RouterOutcome, error) {
	if t.timeout <= 0 {
		return t.router.Invoke(ctx, prompt, sessionID)
	}
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.router.Invoke(ctx, prompt, sessionID)
}
