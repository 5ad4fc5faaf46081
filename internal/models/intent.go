package models

// Intent names the backend operation a request maps to.
type Intent string

const (
	IntentNone         Intent = ""
	IntentAddProcedure Intent = "addProcedure"
	IntentGetQuote     Intent = "getQuote"
	IntentShowHistory  Intent = "showHistory"
)

// Slots are the values extracted from one request. Empty strings mean unknown.
type Slots struct {
	Intent         Intent `json:"intent,omitempty"`
	DoctorName     string `json:"doctorName,omitempty"`
	ProcedureCode  string `json:"procedureCode,omitempty"`
	EnhancedPrompt string `json:"enhancedPrompt"`
}

// FullySpecified reports whether intent and both entities are known.
func (s Slots) FullySpecified() bool {
	return s.Intent != IntentNone && s.DoctorName != "" && s.ProcedureCode != ""
}

// ResolvedRequest is Slots after context resolution, plus the request it came from.
type ResolvedRequest struct {
	Slots
	Text       string `json:"text"`
	SessionID  string `json:"sessionId"`
	HasHistory bool   `json:"hasHistory"`
	// NameConfidence is the matcher confidence for DoctorName against stored names.
	NameConfidence float64 `json:"nameConfidence,omitempty"`
}

// RouterOutcome is the primary router result. Responded is false when no text came back.
type RouterOutcome struct {
	Text        string `json:"text,omitempty"`
	Responded   bool   `json:"responded"`
	RateLimited bool   `json:"rateLimited"`
	Error       string `json:"error,omitempty"`
	Attempts    int    `json:"attempts"`
}

// ResolutionState is a step of the per-request fallback state machine.
type ResolutionState string

const (
	StateStart               ResolutionState = "START"
	StatePrimaryAttempted    ResolutionState = "PRIMARY_ATTEMPTED"
	StateAccepted            ResolutionState = "ACCEPTED"
	StateFallbackAttempted   ResolutionState = "FALLBACK_ATTEMPTED"
	StateGuidanceSynthesized ResolutionState = "GUIDANCE_SYNTHESIZED"
	StateDone                ResolutionState = "DONE"
)

// FinalResponse is built once per request and not modified afterwards.
type FinalResponse struct {
	Message         string            `json:"message"`
	IntentMapped    bool              `json:"intentMapped"`
	ContextUsed     bool              `json:"contextUsed"`
	FallbackUsed    bool              `json:"fallbackUsed"`
	ExtractedParams Slots             `json:"extractedParams"`
	RateLimited     bool              `json:"rateLimited"`
	Path            []ResolutionState `json:"path"`
	// DispatchedOperation is the direct operation attempted, if any.
	DispatchedOperation Intent `json:"dispatchedOperation,omitempty"`
	RouterAttempts      int    `json:"routerAttempts"`
}

type ResponseMetadata struct {
	ResolutionPath      []ResolutionState `json:"resolutionPath"`
	RateLimited         bool              `json:"rateLimited"`
	RouterAttempts      int               `json:"routerAttempts"`
	DispatchedOperation Intent            `json:"dispatchedOperation,omitempty"`
}

// IntentResponse is the caller-facing payload. Response and Message carry the same text.
type IntentResponse struct {
	Response        string           `json:"response"`
	Message         string           `json:"message"`
	SessionID       string           `json:"sessionId"`
	OriginalText    string           `json:"originalText"`
	IntentMapped    bool             `json:"intentMapped"`
	ContextUsed     bool             `json:"contextUsed"`
	FallbackUsed    bool             `json:"fallbackUsed"`
	ExtractedParams Slots            `json:"extractedParams"`
	Metadata        ResponseMetadata `json:"metadata"`
}
