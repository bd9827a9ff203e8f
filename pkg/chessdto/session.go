package chessdto

import "time"

type MoveRecord struct {
	Ply        int       `json:"ply"`
	Actor      string    `json:"actor"`
	UCI        string    `json:"uci"`
	SAN        string    `json:"san"`
	Transcript string    `json:"transcript,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type SessionCreateResponse struct {
	SessionID string       `json:"session_id"`
	FEN       string       `json:"fen"`
	Moves     []MoveRecord `json:"moves"`
}

type SessionStateResponse struct {
	SessionID  string       `json:"session_id"`
	FEN        string       `json:"fen"`
	Moves      []MoveRecord `json:"moves"`
	SkillLevel int          `json:"skill_level"`
}

type SkillLevelRequest struct {
	SkillLevel int `json:"skill_level"`
}

type SkillLevelResponse struct {
	SkillLevel int `json:"skill_level"`
}
