// Package api exposes the resolver and the backend operations over HTTP,
// API Gateway proxy events and Bedrock action-group events.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"procedure-assistant/internal/common/logger"
	"procedure-assistant/internal/intent"
	"procedure-assistant/internal/models"
)

type IntentResolver interface {
	Resolve(ctx context.Context, req models.IntentRequest) (*intent.Result, error)
}

type QuoteService interface {
	GetQuote(ctx context.Context, req models.QuoteRequest) (*models.QuoteResult, error)
}

type HistoryService interface {
	ShowHistory(ctx context.Context, q models.HistoryQuery) (*models.HistoryResult, error)
}

type ProcedureAdder interface {
	AddProcedure(ctx context.Context, req models.AddProcedureRequest) (*models.AddProcedureResult, error)
}

// Services is what the transports dispatch to. procedures.Service satisfies
// the three backend interfaces.
type Services struct {
	Resolver IntentResolver
	Quotes   QuoteService
	History  HistoryService
	Adder    ProcedureAdder
}

// ReadyFunc reports per-dependency connection errors.
type ReadyFunc func(ctx context.Context) map[string]error

type Server struct {
	svc     Services
	ready   ReadyFunc
	timeout time.Duration
	logger  logger.Logger
}

type Option func(*Server)

func WithReadiness(fn ReadyFunc) Option {
	return func(s *Server) { s.ready = fn }
}

// WithRequestTimeout bounds each request's context.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *Server) { s.timeout = d }
}

func NewServer(svc Services, log logger.Logger, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine. Callers set gin's mode beforehand.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger(), cors(), s.deadline())

	r.POST("/intent-mapper", s.mapIntent)
	r.POST("/add-doctor-procedure", s.addProcedure)
	r.GET("/get-quote", s.getQuote)
	r.GET("/show-history", s.showHistory)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	r.GET("/ready", s.readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

func (s *Server) readiness(c *gin.Context) {
	if s.ready == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
		return
	}
	checks := gin.H{}
	status := http.StatusOK
	for name, err := range s.ready(c.Request.Context()) {
		if err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		h.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Next()
	}
}

func (s *Server) deadline() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.timeout <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), s.timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics" {
			return
		}
		s.logger.Info("request handled", map[string]interface{}{
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"durationMs": time.Since(start).Milliseconds(),
		})
	}
}
