package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeValidationFailed, http.StatusBadRequest},
		{ErrCodeDoctorNotFound, http.StatusNotFound},
		{ErrCodeNoMatchingRecords, http.StatusNotFound},
		{ErrCodeConfirmationRequired, http.StatusConflict},
		{ErrCodeRateLimited, http.StatusTooManyRequests},
		{ErrCodeAgentInvocationFailed, http.StatusBadGateway},
		{ErrCodeAgentTimeout, http.StatusGatewayTimeout},
		{ErrCodeStoreQueryFailed, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.code))
		})
	}
}

func TestAsStandardError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, AsStandardError(nil))
	})

	t.Run("wrapped standard error is found", func(t *testing.T) {
		wrapped := fmt.Errorf("get quote: %w", NewDoctorNotFoundError("Dr. Nobody"))
		got := AsStandardError(wrapped)
		require.NotNil(t, got)
		assert.Equal(t, ErrCodeDoctorNotFound, got.Code)
	})

	t.Run("plain error becomes internal", func(t *testing.T) {
		got := AsStandardError(stderrors.New("boom"))
		assert.Equal(t, ErrCodeInternal, got.Code)
		assert.Equal(t, "boom", got.Details)
	})
}

func TestStandardError_Unwrap(t *testing.T) {
	cause := stderrors.New("dynamodb unavailable")
	err := NewStoreQueryError("QueryByName", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.True(t, HasCode(err, ErrCodeStoreQueryFailed))
	assert.False(t, HasCode(err, ErrCodeStoreWriteFailed))
}

func TestConvertToBPMNError(t *testing.T) {
	t.Run("retryable store error keeps retries", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewStoreWriteError(stderrors.New("throttled")))
		assert.Equal(t, "STORE_WRITE_FAILED", bpmn.Code)
		assert.Equal(t, 3, bpmn.Retries)
		assert.True(t, bpmn.Retryable)
	})

	t.Run("business error has no retries and carries metadata", func(t *testing.T) {
		bpmn := ConvertToBPMNError(NewConfirmationRequiredError("Sara Jonson", "Sarah Johnson", 0.64))
		assert.Equal(t, "CONFIRMATION_REQUIRED", bpmn.Code)
		assert.Equal(t, 0, bpmn.Retries)

		vars := bpmn.ToErrorVariables()
		assert.Equal(t, "Sarah Johnson", vars["suggestedName"])
		assert.Equal(t, "CONFIRMATION_REQUIRED", vars["originalErrorCode"])
	})
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeValidationFailed))
	assert.Equal(t, "LOOKUP", GetErrorCategory(ErrCodeDoctorNotFound))
	assert.Equal(t, "ROUTER", GetErrorCategory(ErrCodeRateLimited))
	assert.Equal(t, "STORAGE", GetErrorCategory(ErrCodeStoreQueryFailed))
	assert.Equal(t, "FALLBACK", GetErrorCategory(ErrCodeBackendDispatchFailed))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
	assert.True(t, IsRetryableErrorCode(ErrCodeStoreQueryFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeValidationFailed))
}
