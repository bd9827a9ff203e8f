package chess

import (
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// TerminalState is the subset of game endings this service reports on.
// Other draw methods are treated as ongoing.
type TerminalState int

const (
	Ongoing TerminalState = iota
	CheckmateState
	StalemateState
)

func (t TerminalState) String() string {
	switch t {
	case CheckmateState:
		return "checkmate"
	case StalemateState:
		return "stalemate"
	default:
		return "ongoing"
	}
}

// Classify inspects the game after the latest applied move.
func Classify(game *nchess.Game) TerminalState {
	if game.Outcome() == nchess.NoOutcome {
		return Ongoing
	}
	switch game.Method() {
	case nchess.Checkmate:
		return CheckmateState
	case nchess.Stalemate:
		return StalemateState
	default:
		return Ongoing
	}
}

// Annotate suffixes a move's display notation with its terminal marker.
// It owns the suffixing for both player and engine moves so callers never
// format notation themselves. Already-annotated input passes through.
func Annotate(san string, state TerminalState) string {
	switch state {
	case CheckmateState:
		if strings.HasSuffix(san, "#") {
			return san
		}
		return strings.TrimSuffix(san, "+") + "#"
	case StalemateState:
		if strings.HasSuffix(san, " (Stalemate)") {
			return san
		}
		return san + " (Stalemate)"
	default:
		return san
	}
}
