package intent

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "procedure-assistant/internal/common/errors"
	"procedure-assistant/internal/common/logger"
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

type MockAgent struct {
	InvokeFunc func(ctx context.Context, sessionID, text string) ([]string, error)
	Prompts    []string
}

func (m *MockAgent) InvokeAgent(ctx context.Context, sessionID, text string) ([]string, error) {
	m.Prompts = append(m.Prompts, text)
	return m.InvokeFunc(ctx, sessionID, text)
}

func replies(fragments ...string) *MockAgent {
	return &MockAgent{InvokeFunc: func(context.Context, string, string) ([]string, error) {
		return fragments, nil
	}}
}

type countingNames struct {
	NameSource
	calls int
}

func (c *countingNames) ListDistinctNames(ctx context.Context) ([]string, error) {
	c.calls++
	return c.NameSource.ListDistinctNames(ctx)
}

type harness struct {
	resolver *Resolver
	agent    *MockAgent
	names    *countingNames
	redis    *miniredis.Miniredis
}

func newHarness(t *testing.T, ag *MockAgent) *harness {
	t.Helper()
	log := logger.NewTestLogger(t)
	at := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)

	st := store.NewMemoryStore(
		record("Sarah Johnson", at, "CONS001", "150"),
		record("Sarah Johnson", at.Add(time.Hour), "CONS001", "210"),
		record("Sarah Johnson", at.Add(2*time.Hour), "CONS001", "180"),
		record("Sarah Johnson", at.Add(3*time.Hour), "LAB001", "45.50"),
		record("Robert Brown", at, "XRAY001", "120"),
		record("Jennifer Lee-Park", at, "LAB002", "62.25"),
	)
	vocab := vocabulary.Default()
	svc := procedures.NewService(st, vocab, procedures.DefaultPolicy(), nil, log)
	names := &countingNames{NameSource: svc}

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	adapter := agent.NewAdapter(ag, agent.RetryConfig{}, log).
		WithSleep(func(context.Context, time.Duration) error { return nil })

	r := NewResolver(
		slots.NewExtractor(vocab, conversation.NewTracker(vocab, conversation.DefaultWindow)),
		namematch.New(namematch.DefaultThreshold),
		names,
		adapter,
		fallback.NewOrchestrator(svc, svc, vocab.Doctors(), log),
		log,
		WithHistory(session.NewRedisHistory(client, session.Options{})),
	)
	return &harness{resolver: r, agent: ag, names: names, redis: mr}
}

func record(doctor string, at time.Time, code, cost string) models.ProcedureRecord {
	return models.ProcedureRecord{
		DoctorName:    doctor,
		ProcedureTime: at,
		ProcedureCode: code,
		Cost:          decimal.RequireFromString(cost),
		TimeLogged:    at,
	}
}

func TestResolver_QuoteViaFallback(t *testing.T) {
	h := newHarness(t, replies("Please specify which doctor ", "you would like a quote for."))

	res, err := h.resolver.Resolve(context.Background(), models.IntentRequest{
		Text:      "Get quote for Sarah Johnson procedure CONS001",
		SessionID: "session-1",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	resp := res.Response
	assert.Contains(t, resp.Message, "180.00")
	assert.Equal(t, resp.Message, resp.Response)
	assert.True(t, resp.FallbackUsed)
	assert.True(t, resp.IntentMapped)
	assert.False(t, resp.ContextUsed)
	assert.Equal(t, "session-1", resp.SessionID)
	assert.Equal(t, models.IntentGetQuote, resp.ExtractedParams.Intent)
	assert.Equal(t, []models.ResolutionState{
		models.StateStart, models.StatePrimaryAttempted, models.StateFallbackAttempted,
		models.StateAccepted, models.StateDone,
	}, resp.Metadata.ResolutionPath)

	require.Len(t, h.agent.Prompts, 1)
	assert.Contains(t, h.agent.Prompts[0], "performed by Dr. Sarah Johnson")

	stored, err := h.redis.List("conversation:session-1")
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestResolver_PromptUsesStoredSpelling(t *testing.T) {
	h := newHarness(t, replies("Please specify which doctor you mean."))

	res, err := h.resolver.Resolve(context.Background(), models.IntentRequest{
		Text: "Get quote for Jennifer Lee procedure LAB002",
	})
	require.NoError(t, err)

	assert.Equal(t, "Jennifer Lee-Park", res.Response.ExtractedParams.DoctorName)
	require.Len(t, h.agent.Prompts, 1)
	assert.Contains(t, h.agent.Prompts[0], "performed by Dr. Jennifer Lee-Park.")
	assert.Equal(t, h.agent.Prompts[0], res.Response.ExtractedParams.EnhancedPrompt)
	assert.True(t, res.Response.FallbackUsed)
	assert.Contains(t, res.Response.Message, "$62.25")
}

func TestResolver_EmptyTextIsRejected(t *testing.T) {
	for _, text := range []string{"", "   \n\t"} {
		t.Run(fmt.Sprintf("%q", text), func(t *testing.T) {
			h := newHarness(t, replies("unused"))

			res, err := h.resolver.Resolve(context.Background(), models.IntentRequest{Text: text})
			require.Error(t, err)
			assert.Nil(t, res)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
			assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(apperrors.AsStandardError(err).Code))

			assert.Empty(t, h.agent.Prompts)
			assert.Zero(t, h.names.calls)
		})
	}
}

func TestResolver_RateLimitedGuidance(t *testing.T) {
	throttled := &MockAgent{InvokeFunc: func(context.Context, string, string) ([]string, error) {
		return nil, fmt.Errorf("invoke: %w", agent.ErrThrottled)
	}}
	h := newHarness(t, throttled)

	res, err := h.resolver.Resolve(context.Background(), models.IntentRequest{Text: "can you help me out"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	resp := res.Response
	assert.False(t, resp.FallbackUsed)
	assert.True(t, resp.Metadata.RateLimited)
	assert.Equal(t, agent.DefaultMaxAttempts, resp.Metadata.RouterAttempts)
	assert.Contains(t, resp.Message, "too many requests")
	assert.NotEmpty(t, resp.SessionID, "a session id is generated")
	assert.Len(t, throttled.Prompts, agent.DefaultMaxAttempts)
	assert.Equal(t, models.StateGuidanceSynthesized, resp.Metadata.ResolutionPath[len(resp.Metadata.ResolutionPath)-2])
}

func TestResolver_RateLimitedButDispatchAnswers(t *testing.T) {
	h := newHarness(t, &MockAgent{InvokeFunc: func(context.Context, string, string) ([]string, error) {
		return nil, agent.ErrThrottled
	}})

	res, err := h.resolver.Resolve(context.Background(), models.IntentRequest{
		Text: "show history for Robert Brown",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, res.Response.FallbackUsed)
	assert.Contains(t, res.Response.Message, "Found 1 procedures for Dr. Robert Brown.")
}

func TestResolver_RouterErrorFallsBack(t *testing.T) {
	h := newHarness(t, &MockAgent{InvokeFunc: func(context.Context, string, string) ([]string, error) {
		return nil, errors.New("dependencyFailedException")
	}})

	res, err := h.resolver.Resolve(context.Background(), models.IntentRequest{
		Text: "Get quote for Sarah Johnson procedure CONS001",
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.True(t, res.Response.FallbackUsed)
	assert.Contains(t, res.Response.Message, "$180.00")
}

func TestResolver_AcceptsRouterAnswer(t *testing.T) {
	h := newHarness(t, replies("Dr. Robert Brown charged $120.00 for a chest x-ray."))

	res, err := h.resolver.Resolve(context.Background(), models.IntentRequest{
		Text: "how much for a chest x-ray with Robert Brown",
	})
	require.NoError(t, err)

	assert.False(t, res.Response.FallbackUsed)
	assert.Equal(t, "Dr. Robert Brown charged $120.00 for a chest x-ray.", res.Response.Message)
}

func TestResolver_UsesStoredSessionHistory(t *testing.T) {
	h := newHarness(t, replies("Please specify which procedure."))
	ctx := context.Background()

	_, err := h.resolver.Resolve(ctx, models.IntentRequest{
		Text:      "Get quote for Sarah Johnson procedure CONS001",
		SessionID: "s-ctx",
	})
	require.NoError(t, err)

	res, err := h.resolver.Resolve(ctx, models.IntentRequest{
		Text:      "what about LAB001",
		SessionID: "s-ctx",
	})
	require.NoError(t, err)

	resp := res.Response
	assert.True(t, resp.ContextUsed)
	assert.Equal(t, models.IntentGetQuote, resp.ExtractedParams.Intent)
	assert.Equal(t, "Sarah Johnson", resp.ExtractedParams.DoctorName)
	assert.Equal(t, "LAB001", resp.ExtractedParams.ProcedureCode)
	assert.True(t, resp.FallbackUsed)
	assert.Contains(t, resp.Message, "$45.50")
}

func TestResolver_CallerHistoryWins(t *testing.T) {
	h := newHarness(t, replies("Please specify which doctor."))

	res, err := h.resolver.Resolve(context.Background(), models.IntentRequest{
		Text: "show history for that doctor",
		ConversationHistory: []models.ConversationTurn{
			{Role: models.RoleUser, Content: "How much does Robert Brown charge?"},
		},
	})
	require.NoError(t, err)

	assert.True(t, res.Response.ContextUsed)
	assert.Equal(t, "Robert Brown", res.Response.ExtractedParams.DoctorName)
	assert.True(t, res.Response.FallbackUsed)
}
