package turn

import "github.com/kapu/voice-chess-go/internal/domain"

// Status identifies a streaming turn stage.
type Status string

const (
	StatusTranscribing   Status = "transcribing"
	StatusTranscribed    Status = "transcribed"
	StatusInterpreting   Status = "interpreting"
	StatusPlayerMoved    Status = "player_moved"
	StatusEngineThinking Status = "engine_thinking"
	StatusComplete       Status = "complete"
	StatusError          Status = "error"
)

// Event is one progress update on the streaming turn path. A stage event is
// only emitted after the state change it reports has been committed; every
// stream ends with exactly one terminal event.
type Event struct {
	Status     Status
	Transcript string
	Move       *domain.MoveResult  // set for player_moved
	Outcome    *domain.TurnOutcome // set for complete
	Err        error               // set for error
}

// Terminal reports whether the event ends the stream.
func (e Event) Terminal() bool {
	return e.Status == StatusComplete || e.Status == StatusError
}
