package domain

import "time"

type Actor string

const (
	ActorPlayer Actor = "player"
	ActorEngine Actor = "engine"
)

// MoveRecord is one applied half-move in a session's history.
// Transcript is only set for player moves.
type MoveRecord struct {
	Ply        int
	Actor      Actor
	UCI        string
	SAN        string
	Transcript string
	Timestamp  time.Time
}

type MoveResult struct {
	UCI string
	SAN string
}

// TurnOutcome is the result of one fully resolved voice turn.
type TurnOutcome struct {
	Transcript string
	PlayerMove MoveResult
	EngineMove MoveResult
	FEN        string
	Moves      []MoveRecord
	Finished   bool
}
