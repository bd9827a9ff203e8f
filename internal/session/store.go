package session

import (
	"sync"
	"time"

	nchess "github.com/corentings/chess/v2"
	"github.com/google/uuid"

	"github.com/kapu/voice-chess-go/internal/domain"
	"github.com/kapu/voice-chess-go/internal/fault"
)

const (
	MinSkillLevel     = 0
	MaxSkillLevel     = 20
	DefaultSkillLevel = 5
)

// ClampSkill forces a skill level into the supported range. Out-of-range
// values are clamped, never rejected.
func ClampSkill(n int) int {
	if n < MinSkillLevel {
		return MinSkillLevel
	}
	if n > MaxSkillLevel {
		return MaxSkillLevel
	}
	return n
}

// Session is one game between a player and the engine. The embedded mutex
// serializes whole turns: the orchestrator holds it across transcription,
// interpretation and the engine reply.
type Session struct {
	sync.Mutex

	ID         string
	Game       *nchess.Game
	Moves      []domain.MoveRecord
	SkillLevel int
	CreatedAt  time.Time
}

// State is a point-in-time copy of a session, safe to hand out after the
// session lock is released.
type State struct {
	ID         string
	FEN        string
	Moves      []domain.MoveRecord
	SkillLevel int
}

func (s *Session) snapshotLocked() State {
	return State{
		ID:         s.ID,
		FEN:        s.Game.FEN(),
		Moves:      append([]domain.MoveRecord(nil), s.Moves...),
		SkillLevel: s.SkillLevel,
	}
}

// Snapshot acquires the session lock and copies out the current state.
func (s *Session) Snapshot() State {
	s.Lock()
	defer s.Unlock()
	return s.snapshotLocked()
}

// SnapshotLocked copies state for a caller that already holds the lock.
func (s *Session) SnapshotLocked() State {
	return s.snapshotLocked()
}

// AppendMove records an applied half-move. Caller must hold the session lock.
func (s *Session) AppendMove(rec domain.MoveRecord) {
	s.Moves = append(s.Moves, rec)
}

// UCIHistory returns the applied moves in order, for engine replay.
// Caller must hold the session lock.
func (s *Session) UCIHistory() []string {
	out := make([]string, 0, len(s.Moves))
	for _, rec := range s.Moves {
		out = append(out, rec.UCI)
	}
	return out
}

// Store holds all live sessions in memory. Sessions live for the process
// lifetime; there is no eviction.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

func (st *Store) Create(skillLevel int) *Session {
	sess := &Session{
		ID:         uuid.New().String(),
		Game:       nchess.NewGame(),
		SkillLevel: ClampSkill(skillLevel),
		CreatedAt:  time.Now().UTC(),
	}

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()
	return sess
}

func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	sess, ok := st.sessions[id]
	st.mu.RUnlock()
	if !ok {
		return nil, fault.New(fault.KindNotFound, "", "session not found")
	}
	return sess, nil
}

// SetSkillLevel clamps and applies a new difficulty, returning the value
// actually stored.
func (st *Store) SetSkillLevel(id string, skillLevel int) (int, error) {
	sess, err := st.Get(id)
	if err != nil {
		return 0, err
	}
	clamped := ClampSkill(skillLevel)

	sess.Lock()
	sess.SkillLevel = clamped
	sess.Unlock()
	return clamped, nil
}

func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
