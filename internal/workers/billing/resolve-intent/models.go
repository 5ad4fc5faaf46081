// internal/workers/billing/resolve-intent/models.go
package resolveintent

import "procedure-assistant/internal/models"

type Input struct {
	Text                string                    `json:"text"`
	SessionID           string                    `json:"sessionId,omitempty"`
	ConversationHistory []models.ConversationTurn `json:"conversationHistory,omitempty"`
}

type Output struct {
	Message      string                `json:"message"`
	SessionID    string                `json:"sessionId"`
	Intent       models.Intent         `json:"intent"`
	IntentMapped bool                  `json:"intentMapped"`
	FallbackUsed bool                  `json:"fallbackUsed"`
	StatusCode   int                   `json:"statusCode"`
	Response     models.IntentResponse `json:"intentResponse"`
}
