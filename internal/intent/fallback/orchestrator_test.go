package fallback

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"procedure-assistant/internal/common/logger"
	"procedure-assistant/internal/models"
)

type MockDispatcher struct {
	GetQuoteFunc    func(ctx context.Context, req models.QuoteRequest) (*models.QuoteResult, error)
	ShowHistoryFunc func(ctx context.Context, q models.HistoryQuery) (*models.HistoryResult, error)
	Calls           int
}

func (m *MockDispatcher) GetQuote(ctx context.Context, req models.QuoteRequest) (*models.QuoteResult, error) {
	m.Calls++
	if m.GetQuoteFunc == nil {
		return nil, errors.New("unexpected GetQuote")
	}
	return m.GetQuoteFunc(ctx, req)
}

func (m *MockDispatcher) ShowHistory(ctx context.Context, q models.HistoryQuery) (*models.HistoryResult, error) {
	m.Calls++
	if m.ShowHistoryFunc == nil {
		return nil, errors.New("unexpected ShowHistory")
	}
	return m.ShowHistoryFunc(ctx, q)
}

type MockNameSource struct {
	Names []string
	Err   error
}

func (m *MockNameSource) ListDistinctNames(context.Context) ([]string, error) {
	return m.Names, m.Err
}

var defaultNames = []string{"Sarah Johnson", "Michael Chen", "Emily Rodriguez", "James Wilson"}

func quoteSlots() models.ResolvedRequest {
	return models.ResolvedRequest{
		Slots: models.Slots{
			Intent:        models.IntentGetQuote,
			DoctorName:    "Sarah Johnson",
			ProcedureCode: "CONS001",
		},
		Text: "Get quote for Sarah Johnson procedure CONS001",
	}
}

func answeringQuote(t *testing.T) *MockDispatcher {
	return &MockDispatcher{GetQuoteFunc: func(_ context.Context, req models.QuoteRequest) (*models.QuoteResult, error) {
		assert.Equal(t, "Sarah Johnson", req.DoctorName)
		assert.Equal(t, "CONS001", req.ProcedureCode)
		return &models.QuoteResult{
			DoctorName:    "Sarah Johnson",
			ProcedureCode: "CONS001",
			MedianCost:    decimal.RequireFromString("180"),
			SampleCount:   5,
		}, nil
	}}
}

func TestOrchestrator_BoilerplateTriggersDispatch(t *testing.T) {
	dispatcher := answeringQuote(t)
	o := NewOrchestrator(dispatcher, nil, defaultNames, logger.NewTestLogger(t))

	final := o.Resolve(context.Background(), quoteSlots(), models.RouterOutcome{
		Text:      "Please specify which doctor you are asking about.",
		Responded: true,
		Attempts:  1,
	})

	assert.True(t, final.FallbackUsed)
	assert.True(t, final.IntentMapped)
	assert.NotContains(t, final.Message, "Please specify")
	assert.Contains(t, final.Message, "180.00")
	assert.Equal(t, models.IntentGetQuote, final.DispatchedOperation)
	assert.Equal(t, []models.ResolutionState{
		models.StateStart, models.StatePrimaryAttempted, models.StateFallbackAttempted,
		models.StateAccepted, models.StateDone,
	}, final.Path)
}

func TestOrchestrator_EmptyReplyDispatches(t *testing.T) {
	o := NewOrchestrator(answeringQuote(t), nil, defaultNames, logger.NewTestLogger(t))

	final := o.Resolve(context.Background(), quoteSlots(), models.RouterOutcome{})

	assert.True(t, final.FallbackUsed)
	assert.True(t, final.IntentMapped)
	assert.Contains(t, final.Message, "180.00")
}

func TestOrchestrator_AcceptsRouterReply(t *testing.T) {
	dispatcher := &MockDispatcher{}
	o := NewOrchestrator(dispatcher, nil, defaultNames, logger.NewTestLogger(t))

	reply := "The median cost for Initial Consultation with Dr. Sarah Johnson is $180.00."
	req := quoteSlots()
	req.HasHistory = true

	final := o.Resolve(context.Background(), req, models.RouterOutcome{Text: reply, Responded: true, Attempts: 2})

	assert.Equal(t, reply, final.Message)
	assert.False(t, final.FallbackUsed)
	assert.True(t, final.ContextUsed)
	assert.Equal(t, 2, final.RouterAttempts)
	assert.Equal(t, 0, dispatcher.Calls)
	assert.Equal(t, req.Slots, final.ExtractedParams)
	assert.Equal(t, []models.ResolutionState{
		models.StateStart, models.StatePrimaryAttempted, models.StateAccepted, models.StateDone,
	}, final.Path)
}

func TestOrchestrator_Placeholder(t *testing.T) {
	reply := "I found several doctors, try: [doctor name]"

	t.Run("fully specified dispatches", func(t *testing.T) {
		o := NewOrchestrator(answeringQuote(t), nil, defaultNames, logger.NewTestLogger(t))
		final := o.Resolve(context.Background(), quoteSlots(), models.RouterOutcome{Text: reply, Responded: true})
		assert.True(t, final.FallbackUsed)
	})

	t.Run("partial slots keep the reply", func(t *testing.T) {
		dispatcher := &MockDispatcher{}
		o := NewOrchestrator(dispatcher, nil, defaultNames, logger.NewTestLogger(t))
		req := quoteSlots()
		req.ProcedureCode = ""

		final := o.Resolve(context.Background(), req, models.RouterOutcome{Text: reply, Responded: true})

		assert.Equal(t, reply, final.Message)
		assert.Equal(t, 0, dispatcher.Calls)
	})
}

func TestOrchestrator_DispatchFailureSynthesizesGuidance(t *testing.T) {
	tests := []struct {
		name       string
		dispatcher *MockDispatcher
	}{
		{
			name: "backend error",
			dispatcher: &MockDispatcher{GetQuoteFunc: func(context.Context, models.QuoteRequest) (*models.QuoteResult, error) {
				return nil, errors.New("store unavailable")
			}},
		},
		{
			name: "empty result",
			dispatcher: &MockDispatcher{GetQuoteFunc: func(context.Context, models.QuoteRequest) (*models.QuoteResult, error) {
				return &models.QuoteResult{}, nil
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrchestrator(tt.dispatcher, nil, defaultNames, logger.NewTestLogger(t))

			final := o.Resolve(context.Background(), quoteSlots(), models.RouterOutcome{Text: "Please specify which doctor you mean."})

			assert.False(t, final.FallbackUsed)
			assert.NotEmpty(t, final.Message)
			assert.Contains(t, final.Message, "Dr. Sarah Johnson")
			assert.Contains(t, final.Message, "Known doctors include: Sarah Johnson, Michael Chen, Emily Rodriguez.")
			assert.Equal(t, []models.ResolutionState{
				models.StateStart, models.StatePrimaryAttempted, models.StateFallbackAttempted,
				models.StateGuidanceSynthesized, models.StateDone,
			}, final.Path)
		})
	}
}

func TestOrchestrator_DispatchFailureKeepsRouterReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		req   models.ResolvedRequest
	}{
		{
			name:  "refusal is kept over guidance",
			reply: "I cannot share pricing for that procedure right now.",
			req:   quoteSlots(),
		},
		{
			name:  "placeholder reply with fully specified slots",
			reply: "Here is what I found. Try: [doctor name] for more.",
			req:   quoteSlots(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher := &MockDispatcher{GetQuoteFunc: func(context.Context, models.QuoteRequest) (*models.QuoteResult, error) {
				return nil, errors.New("store unavailable")
			}}
			o := NewOrchestrator(dispatcher, nil, defaultNames, logger.NewTestLogger(t))

			final := o.Resolve(context.Background(), tt.req, models.RouterOutcome{Text: tt.reply, Responded: true})

			assert.Equal(t, 1, dispatcher.Calls)
			assert.False(t, final.FallbackUsed)
			assert.Equal(t, tt.reply, final.Message)
			assert.Equal(t, []models.ResolutionState{
				models.StateStart, models.StatePrimaryAttempted, models.StateFallbackAttempted,
				models.StateAccepted, models.StateDone,
			}, final.Path)
		})
	}
}

func TestOrchestrator_ApologeticAnswerIsAccepted(t *testing.T) {
	dispatcher := &MockDispatcher{}
	o := NewOrchestrator(dispatcher, nil, defaultNames, logger.NewTestLogger(t))
	reply := "Sorry for the delay! Dr. Sarah Johnson has performed 4 consultations, median $180.00."

	req := models.ResolvedRequest{Slots: models.Slots{DoctorName: "Sarah Johnson"}, Text: "anything on Sarah Johnson"}
	final := o.Resolve(context.Background(), req, models.RouterOutcome{Text: reply, Responded: true})

	assert.Equal(t, reply, final.Message)
	assert.True(t, final.IntentMapped)
	assert.False(t, final.FallbackUsed)
	assert.Equal(t, 0, dispatcher.Calls)
	assert.Equal(t, []models.ResolutionState{
		models.StateStart, models.StatePrimaryAttempted, models.StateAccepted, models.StateDone,
	}, final.Path)
}

func TestOrchestrator_RateLimitedWithoutSlots(t *testing.T) {
	dispatcher := &MockDispatcher{}
	o := NewOrchestrator(dispatcher, nil, defaultNames, logger.NewTestLogger(t))

	final := o.Resolve(context.Background(), models.ResolvedRequest{Text: "hello"}, models.RouterOutcome{RateLimited: true, Attempts: 3})

	assert.False(t, final.FallbackUsed)
	assert.True(t, final.RateLimited)
	assert.True(t, len(final.Message) > len(rateLimitMessage))
	assert.Equal(t, rateLimitMessage, final.Message[:len(rateLimitMessage)])
	assert.Equal(t, 0, dispatcher.Calls)
	assert.Equal(t, models.StateGuidanceSynthesized, final.Path[len(final.Path)-2])
}

func TestOrchestrator_RateLimitedHistoryDispatch(t *testing.T) {
	dispatcher := &MockDispatcher{ShowHistoryFunc: func(_ context.Context, q models.HistoryQuery) (*models.HistoryResult, error) {
		assert.Equal(t, "Robert Brown", q.DoctorName)
		return &models.HistoryResult{
			DoctorName: "Robert Brown",
			History: []models.HistoryEntry{
				{Procedure: "Colonoscopy", ProcedureCode: "ENDO001", Time: "2025-01-10T10:00:00Z", Cost: decimal.RequireFromString("950")},
			},
			TotalCost: decimal.RequireFromString("950"),
			Message:   "Found 1 procedures for Dr. Robert Brown.",
		}, nil
	}}
	o := NewOrchestrator(dispatcher, nil, defaultNames, logger.NewTestLogger(t))

	req := models.ResolvedRequest{Slots: models.Slots{Intent: models.IntentShowHistory, DoctorName: "Robert Brown"}}
	final := o.Resolve(context.Background(), req, models.RouterOutcome{RateLimited: true, Attempts: 3})

	assert.True(t, final.FallbackUsed)
	assert.True(t, final.RateLimited)
	assert.Equal(t, "Found 1 procedures for Dr. Robert Brown.", final.Message)
	assert.Equal(t, models.IntentShowHistory, final.DispatchedOperation)
}

func TestOrchestrator_UnknownIntentIsNotMapped(t *testing.T) {
	o := NewOrchestrator(&MockDispatcher{}, nil, defaultNames, logger.NewTestLogger(t))

	final := o.Resolve(context.Background(), models.ResolvedRequest{Text: "hmm"}, models.RouterOutcome{
		Text:      "Could you clarify what you need?",
		Responded: true,
	})

	assert.False(t, final.IntentMapped)
	assert.Contains(t, final.Message, "get a cost quote")
}

func TestOrchestrator_Examples(t *testing.T) {
	tests := []struct {
		name     string
		source   NameSource
		expected []string
	}{
		{name: "no source", source: nil, expected: []string{"Sarah Johnson", "Michael Chen", "Emily Rodriguez"}},
		{name: "stored names sorted", source: &MockNameSource{Names: []string{"Zoe Park", "Amy Ng", "Li Wei", "Bo Diaz"}}, expected: []string{"Amy Ng", "Bo Diaz", "Li Wei"}},
		{name: "source error", source: &MockNameSource{Err: errors.New("scan failed")}, expected: []string{"Sarah Johnson", "Michael Chen", "Emily Rodriguez"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrchestrator(nil, tt.source, defaultNames, logger.NewNoOpLogger())
			assert.Equal(t, tt.expected, o.examples(context.Background()))
		})
	}
}

func TestMarkers(t *testing.T) {
	require.True(t, IsBoilerplate("I'm unable to find that doctor"))
	require.False(t, IsBoilerplate("The median cost is $120.00"))
	require.False(t, IsBoilerplate("Sorry for the wait, the median cost is $120.00"))
	require.False(t, IsBoilerplate("I apologize for the delay. Found 3 procedures."))
	require.True(t, AsksToSpecify("Which procedure do you mean?"))
	require.False(t, Understood("Sorry, I don't understand the request"))
	require.True(t, Understood("Found 3 procedures for Dr. Mark Davis."))
	require.True(t, hasPlaceholder("Try: [Dr. name]"))
}
