// Package response builds the caller-facing payload.
package response

import "procedure-assistant/internal/models"

// Compose merges final into the payload returned to the caller. Response and
// Message both carry the final text for clients that read either field.
func Compose(req models.IntentRequest, sessionID string, final models.FinalResponse) models.IntentResponse {
	path := make([]models.ResolutionState, len(final.Path))
	copy(path, final.Path)

	return models.IntentResponse{
		Response:        final.Message,
		Message:         final.Message,
		SessionID:       sessionID,
		OriginalText:    req.Text,
		IntentMapped:    final.IntentMapped,
		ContextUsed:     final.ContextUsed,
		FallbackUsed:    final.FallbackUsed,
		ExtractedParams: final.ExtractedParams,
		Metadata: models.ResponseMetadata{
			ResolutionPath:      path,
			RateLimited:         final.RateLimited,
			RouterAttempts:      final.RouterAttempts,
			DispatchedOperation: final.DispatchedOperation,
		},
	}
}

// AssistantTurn is the history entry recorded for a composed response.
func AssistantTurn(resp models.IntentResponse) models.ConversationTurn {
	params := resp.ExtractedParams
	return models.ConversationTurn{
		Role:            models.RoleAssistant,
		Content:         resp.Message,
		ExtractedParams: &params,
	}
}
