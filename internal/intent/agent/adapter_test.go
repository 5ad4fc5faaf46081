package agent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "procedure-assistant/internal/common/errors"
	"procedure-assistant/internal/common/logger"
)

type MockAgent struct {
	InvokeFunc func(ctx context.Context, sessionID, text string) ([]string, error)
	Calls      int
}

func (m *MockAgent) InvokeAgent(ctx context.Context, sessionID, text string) ([]string, error) {
	m.Calls++
	return m.InvokeFunc(ctx, sessionID, text)
}

type recordedSleep struct {
	delays []time.Duration
}

func (r *recordedSleep) sleep(_ context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return nil
}

func newTestAdapter(t *testing.T, agent Agent) (*Adapter, *recordedSleep) {
	rec := &recordedSleep{}
	a := NewAdapter(agent, RetryConfig{}, logger.NewTestLogger(t)).WithSleep(rec.sleep)
	return a, rec
}

func TestAdapter_Invoke_ConcatenatesFragments(t *testing.T) {
	mock := &MockAgent{InvokeFunc: func(_ context.Context, sessionID, text string) ([]string, error) {
		assert.Equal(t, "session-1", sessionID)
		assert.Equal(t, "quote please", text)
		return []string{"The median ", "cost is ", "$180.00."}, nil
	}}
	a, rec := newTestAdapter(t, mock)

	out, err := a.Invoke(context.Background(), "quote please", "session-1")

	require.NoError(t, err)
	assert.Equal(t, "The median cost is $180.00.", out.Text)
	assert.True(t, out.Responded)
	assert.False(t, out.RateLimited)
	assert.Equal(t, 1, out.Attempts)
	assert.Empty(t, rec.delays)
}

func TestAdapter_Invoke_NoFragments(t *testing.T) {
	mock := &MockAgent{InvokeFunc: func(context.Context, string, string) ([]string, error) {
		return nil, nil
	}}
	a, _ := newTestAdapter(t, mock)

	out, err := a.Invoke(context.Background(), "hi", "s")

	require.NoError(t, err)
	assert.Equal(t, "", out.Text)
	assert.False(t, out.Responded)
}

func TestAdapter_Invoke_RetriesThrottling(t *testing.T) {
	tests := []struct {
		name        string
		throttleErr error
	}{
		{name: "sentinel", throttleErr: ErrThrottled},
		{name: "typed exception", throttleErr: &types.ThrottlingException{Message: strPtr("slow down")}},
		{name: "generic api error", throttleErr: &smithy.GenericAPIError{Code: "ThrottlingException", Message: "rate exceeded"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &MockAgent{}
			mock.InvokeFunc = func(context.Context, string, string) ([]string, error) {
				if mock.Calls < 3 {
					return nil, tt.throttleErr
				}
				return []string{"ok"}, nil
			}
			a, rec := newTestAdapter(t, mock)

			out, err := a.Invoke(context.Background(), "p", "s")

			require.NoError(t, err)
			assert.Equal(t, "ok", out.Text)
			assert.Equal(t, 3, out.Attempts)
			assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.delays)
		})
	}
}

func TestAdapter_Invoke_ExhaustedIsRateLimited(t *testing.T) {
	mock := &MockAgent{InvokeFunc: func(context.Context, string, string) ([]string, error) {
		return nil, ErrThrottled
	}}
	a, rec := newTestAdapter(t, mock)

	out, err := a.Invoke(context.Background(), "p", "s")

	require.NoError(t, err)
	assert.True(t, out.RateLimited)
	assert.False(t, out.Responded)
	assert.Equal(t, 3, mock.Calls)
	assert.Equal(t, 3, out.Attempts)
	assert.Len(t, rec.delays, 2)
}

func TestAdapter_Invoke_HardErrorNotRetried(t *testing.T) {
	mock := &MockAgent{InvokeFunc: func(context.Context, string, string) ([]string, error) {
		return nil, errors.New("access denied")
	}}
	a, rec := newTestAdapter(t, mock)

	out, err := a.Invoke(context.Background(), "p", "s")

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAgentInvocationFailed))
	assert.Equal(t, 1, mock.Calls)
	assert.Empty(t, rec.delays)
	assert.Equal(t, "access denied", out.Error)
}

func TestAdapter_Invoke_CancelledDuringBackoff(t *testing.T) {
	mock := &MockAgent{InvokeFunc: func(context.Context, string, string) ([]string, error) {
		return nil, ErrThrottled
	}}
	a := NewAdapter(mock, RetryConfig{MaxAttempts: 3, BaseDelay: time.Hour}, logger.NewNoOpLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Invoke(ctx, "p", "s")

	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAgentTimeout))
	assert.Equal(t, 1, mock.Calls)
}

func TestIsThrottled(t *testing.T) {
	assert.False(t, IsThrottled(nil))
	assert.False(t, IsThrottled(errors.New("boom")))
	assert.False(t, IsThrottled(&smithy.GenericAPIError{Code: "ValidationException"}))
	assert.True(t, IsThrottled(classify(&types.ThrottlingException{})))
}

func strPtr(s string) *string { return &s }
