package chessdto

type MoveResult struct {
	UCI string `json:"uci"`
	SAN string `json:"san"`
}

type TurnResponse struct {
	Transcript string       `json:"transcript"`
	UserMove   MoveResult   `json:"user_move"`
	EngineMove MoveResult   `json:"engine_move"`
	FEN        string       `json:"fen"`
	Moves      []MoveRecord `json:"moves"`
}

// StreamFrame is one server-sent event on the turn-stream endpoint.
// Stage frames carry status plus at most one payload field; the terminal
// frame is either a complete frame or an error frame.
type StreamFrame struct {
	Status     string      `json:"status,omitempty"`
	Transcript string      `json:"transcript,omitempty"`
	Move       *MoveResult `json:"move,omitempty"`
	UserMove   *MoveResult `json:"user_move,omitempty"`
	EngineMove *MoveResult `json:"engine_move,omitempty"`
	FEN        string      `json:"fen,omitempty"`
	Error      string      `json:"error,omitempty"`
}
