package models

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ConversationTurn is one message of a conversation, oldest first.
type ConversationTurn struct {
	Role            Role   `json:"role"`
	Content         string `json:"content"`
	ExtractedParams *Slots `json:"extractedParams,omitempty"`
}

// IntentRequest is the canonical caller request after transport normalization.
type IntentRequest struct {
	Text                string             `json:"text"`
	SessionID           string             `json:"sessionId,omitempty"`
	ConversationHistory []ConversationTurn `json:"conversationHistory,omitempty"`
}
