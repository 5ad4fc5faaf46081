package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "procedure-assistant/internal/common/errors"
)

func TestIntentRequestSchema(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantValid  bool
		wantFields []string
	}{
		{"text only", `{"text": "quote for Sarah Johnson"}`, true, nil},
		{"with history", `{"text": "and her history", "sessionId": "abc",
			"conversationHistory": [{"role": "user", "content": "hi", "extractedParams": {"intent": "getQuote"}}]}`, true, nil},
		{"empty text passes the schema", `{"text": ""}`, true, nil},
		{"missing text", `{"sessionId": "abc"}`, false, []string{"text"}},
		{"text not a string", `{"text": 42}`, false, []string{"text"}},
		{"bad role", `{"text": "x", "conversationHistory": [{"role": "system"}]}`, false,
			[]string{"conversationHistory.0.role"}},
		{"malformed json", `{"text": `, false, []string{"(root)"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IntentRequest.ValidateJSON([]byte(tt.body))
			assert.Equal(t, tt.wantValid, result.Valid, result.GetErrorMessages())
			if tt.wantFields != nil {
				assert.Equal(t, tt.wantFields, result.Fields())
			}
		})
	}
}

func TestAddProcedureSchema(t *testing.T) {
	tests := []struct {
		name      string
		input     map[string]interface{}
		wantValid bool
		wantField string
	}{
		{"numeric cost", map[string]interface{}{"doctorName": "Sarah Johnson", "procedureCode": "CONS001", "cost": 150.5}, true, ""},
		{"string cost", map[string]interface{}{"doctorName": "Sarah Johnson", "procedureCode": "CONS001", "cost": "150.50"}, true, ""},
		{"missing cost", map[string]interface{}{"doctorName": "Sarah Johnson", "procedureCode": "CONS001"}, false, "cost"},
		{"non-numeric cost", map[string]interface{}{"doctorName": "Sarah Johnson", "procedureCode": "CONS001", "cost": "abc"}, false, "cost"},
		{"negative cost", map[string]interface{}{"doctorName": "Sarah Johnson", "procedureCode": "CONS001", "cost": -1}, false, "cost"},
		{"empty doctor", map[string]interface{}{"doctorName": "", "procedureCode": "CONS001", "cost": 1}, false, "doctorName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AddProcedureRequest.ValidateInput(tt.input)
			assert.Equal(t, tt.wantValid, result.Valid, result.GetErrorMessages())
			if tt.wantField != "" {
				assert.True(t, result.HasErrors(tt.wantField), result.GetErrorMessages())
			}
		})
	}
}

func TestValidationResult_Err(t *testing.T) {
	ok := IntentRequest.ValidateJSON([]byte(`{"text": "hi"}`))
	assert.NoError(t, ok.Err("unused"))

	bad := AddProcedureRequest.ValidateInput(map[string]interface{}{"procedureCode": "CONS001"})
	require.True(t, bad.HasCode("REQUIRED"))

	err := bad.Err("Missing required parameters: doctorName, procedureCode, and cost.")
	require.Error(t, err)
	stdErr := apperrors.AsStandardError(err)
	assert.Equal(t, apperrors.ErrCodeValidationFailed, stdErr.Code)
	assert.Equal(t, []string{"cost", "doctorName"}, stdErr.Metadata["fields"])
}
