package fault

import (
	"errors"
	"fmt"
)

// Kind classifies where in the turn pipeline a failure originated.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindTranscription
	KindInterpretation
	KindInvalidMove
	KindEngine
	KindSpeech
	KindConfiguration
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindTranscription:
		return "transcription"
	case KindInterpretation:
		return "interpretation"
	case KindInvalidMove:
		return "invalid_move"
	case KindEngine:
		return "engine"
	case KindSpeech:
		return "speech"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Reasons refine a kind. Transport layers map kind+reason to status codes;
// nothing below the transport carries an HTTP status.
const (
	ReasonTimeout       = "timeout"
	ReasonUpstream      = "upstream"
	ReasonNetwork       = "network"
	ReasonEmptyAudio    = "empty_audio"
	ReasonNotConfigured = "not_configured"
	ReasonNoText        = "no_text"
	ReasonNoMove        = "no_move"
	ReasonUnparseable   = "unparseable"
	ReasonIllegal       = "illegal"
)

// Error is the single error shape crossing collaborator boundaries.
type Error struct {
	Kind    Kind
	Reason  string
	Message string

	// LegalMoves is populated for illegal-move failures so callers can
	// report what was actually playable.
	LegalMoves []string

	Err error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s failure", e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, reason, message string) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message}
}

func Wrap(kind Kind, reason, message string, err error) *Error {
	return &Error{Kind: kind, Reason: reason, Message: message, Err: err}
}

// KindOf extracts the kind from err, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

// ReasonOf extracts the reason from err, or "" for foreign errors.
func ReasonOf(err error) string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Reason
	}
	return ""
}

// As is a convenience wrapper around errors.As for *Error.
func As(err error) (*Error, bool) {
	var fe *Error
	ok := errors.As(err, &fe)
	return fe, ok
}
