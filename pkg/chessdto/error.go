package chessdto

// Error codes returned in API error responses.
const (
	ErrSessionNotFound      = "SESSION_NOT_FOUND"
	ErrInvalidMove          = "INVALID_MOVE"
	ErrInvalidRequest       = "INVALID_REQUEST"
	ErrTranscriptionFailed  = "TRANSCRIPTION_FAILED"
	ErrTranscriptionTimeout = "TRANSCRIPTION_TIMEOUT"
	ErrInterpretationFailed = "INTERPRETATION_FAILED"
	ErrEngineFailure        = "ENGINE_FAILURE"
	ErrSpeechFailed         = "SPEECH_FAILED"
	ErrNotConfigured        = "NOT_CONFIGURED"
	ErrInternalError        = "INTERNAL_ERROR"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}
