package turn

import (
	"context"
	"strings"
	"time"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	vchess "github.com/kapu/voice-chess-go/internal/chess"
	"github.com/kapu/voice-chess-go/internal/domain"
	"github.com/kapu/voice-chess-go/internal/fault"
	"github.com/kapu/voice-chess-go/internal/interpret"
	"github.com/kapu/voice-chess-go/internal/msgcat"
	"github.com/kapu/voice-chess-go/internal/session"
	"github.com/kapu/voice-chess-go/internal/transcribe"
)

// MoveSearcher picks the engine's reply for a move history.
type MoveSearcher interface {
	BestMove(ctx context.Context, moves []string, skillLevel int) (string, error)
}

// Resolver runs the voice turn pipeline: transcribe, interpret, normalize,
// apply, engine reply. It holds the session lock for the whole pipeline so
// concurrent turns against one session serialize; different sessions only
// contend on the shared engine.
type Resolver struct {
	store       *session.Store
	transcriber transcribe.Transcriber
	interpreter interpret.Interpreter
	engine      MoveSearcher
	catalog     *msgcat.Catalog
	logger      *zap.Logger
}

func NewResolver(
	store *session.Store,
	transcriber transcribe.Transcriber,
	interpreter interpret.Interpreter,
	engine MoveSearcher,
	catalog *msgcat.Catalog,
	logger *zap.Logger,
) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		store:       store,
		transcriber: transcriber,
		interpreter: interpreter,
		engine:      engine,
		catalog:     catalog,
		logger:      logger,
	}
}

// Resolve runs one turn to completion and returns the combined outcome.
func (r *Resolver) Resolve(ctx context.Context, sessionID string, clip transcribe.AudioClip) (*domain.TurnOutcome, error) {
	sess, err := r.store.Get(sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	return r.runTurn(ctx, sess, clip, func(Event) {})
}

// ResolveStream runs one turn and reports stage progress on the returned
// channel. The channel buffer covers the maximum event count, so the
// pipeline goroutine never blocks on a slow consumer; the session lock is
// released only after the terminal event is queued.
func (r *Resolver) ResolveStream(ctx context.Context, sessionID string, clip transcribe.AudioClip) <-chan Event {
	ch := make(chan Event, 8)
	go func() {
		defer close(ch)
		emit := func(ev Event) { ch <- ev }

		sess, err := r.store.Get(sessionID)
		if err != nil {
			emit(Event{Status: StatusError, Err: err})
			return
		}

		sess.Lock()
		defer sess.Unlock()
		if _, err := r.runTurn(ctx, sess, clip, emit); err != nil {
			emit(Event{Status: StatusError, Err: err})
		}
	}()
	return ch
}

// runTurn executes the pipeline against a locked session. emit is called
// for each committed stage; the caller owns terminal error events.
func (r *Resolver) runTurn(ctx context.Context, sess *session.Session, clip transcribe.AudioClip, emit func(Event)) (*domain.TurnOutcome, error) {
	started := time.Now()
	logger := r.logger.With(zap.String("session_id", sess.ID))

	emit(Event{Status: StatusTranscribing})
	transcribeStart := time.Now()
	transcript, err := r.transcriber.Transcribe(ctx, clip)
	if err != nil {
		return nil, err
	}
	transcribeElapsed := time.Since(transcribeStart)
	emit(Event{Status: StatusTranscribed, Transcript: transcript})

	emit(Event{Status: StatusInterpreting})
	interpretStart := time.Now()
	pos := sess.Game.Position()
	cand, err := r.interpreter.Interpret(ctx, transcript, pos)
	if err != nil {
		return nil, err
	}
	interpretElapsed := time.Since(interpretStart)

	mv, err := vchess.Normalize(pos, cand.UCI)
	if err != nil {
		logger.Warn("move candidate rejected",
			zap.String("transcript", transcript),
			zap.String("candidate", cand.UCI),
			zap.String("fen", pos.String()),
			zap.Error(err),
		)
		return nil, r.composeMoveError(err, transcript, cand.UCI)
	}

	notationSAN := nchess.AlgebraicNotation{}
	notationUCI := nchess.UCINotation{}
	playerSAN := notationSAN.Encode(pos, mv)
	playerUCI := strings.ToLower(notationUCI.Encode(pos, mv))
	if err := sess.Game.Move(mv, nil); err != nil {
		return nil, fault.Wrap(fault.KindInvalidMove, fault.ReasonIllegal, "apply player move", err)
	}

	state := vchess.Classify(sess.Game)
	playerSAN = vchess.Annotate(playerSAN, state)

	now := time.Now().UTC()
	sess.AppendMove(domain.MoveRecord{
		Ply:        len(sess.Moves) + 1,
		Actor:      domain.ActorPlayer,
		UCI:        playerUCI,
		SAN:        playerSAN,
		Transcript: transcript,
		Timestamp:  now,
	})
	playerResult := domain.MoveResult{UCI: playerUCI, SAN: playerSAN}
	emit(Event{Status: StatusPlayerMoved, Move: &playerResult})

	if state != vchess.Ongoing {
		outcome := &domain.TurnOutcome{
			Transcript: transcript,
			PlayerMove: playerResult,
			EngineMove: terminalPlaceholder(state),
			FEN:        sess.Game.FEN(),
			Moves:      append([]domain.MoveRecord(nil), sess.Moves...),
			Finished:   true,
		}
		logger.Info("player move ended the game",
			zap.String("move", playerUCI),
			zap.String("result", state.String()),
			zap.Duration("elapsed", time.Since(started)),
		)
		emit(Event{Status: StatusComplete, Outcome: outcome})
		return outcome, nil
	}

	emit(Event{Status: StatusEngineThinking})
	engineStart := time.Now()
	engineUCI, err := r.engine.BestMove(ctx, sess.UCIHistory(), sess.SkillLevel)
	if err != nil {
		// Player move stays committed; the client may retry for the reply.
		return nil, err
	}
	engineElapsed := time.Since(engineStart)

	posBeforeEngine := sess.Game.Position()
	engineMove, err := notationUCI.Decode(posBeforeEngine, engineUCI)
	if err != nil {
		return nil, fault.Wrap(fault.KindEngine, "", "decode engine move "+engineUCI, err)
	}
	engineSAN := notationSAN.Encode(posBeforeEngine, engineMove)
	if err := sess.Game.Move(engineMove, nil); err != nil {
		return nil, fault.Wrap(fault.KindEngine, "", "apply engine move "+engineUCI, err)
	}

	state = vchess.Classify(sess.Game)
	engineSAN = vchess.Annotate(engineSAN, state)

	sess.AppendMove(domain.MoveRecord{
		Ply:       len(sess.Moves) + 1,
		Actor:     domain.ActorEngine,
		UCI:       engineUCI,
		SAN:       engineSAN,
		Timestamp: time.Now().UTC(),
	})

	outcome := &domain.TurnOutcome{
		Transcript: transcript,
		PlayerMove: playerResult,
		EngineMove: domain.MoveResult{UCI: engineUCI, SAN: engineSAN},
		FEN:        sess.Game.FEN(),
		Moves:      append([]domain.MoveRecord(nil), sess.Moves...),
		Finished:   state != vchess.Ongoing,
	}

	logger.Info("turn resolved",
		zap.String("transcript", transcript),
		zap.String("player_move", playerUCI),
		zap.String("engine_move", engineUCI),
		zap.Int("skill_level", sess.SkillLevel),
		zap.Duration("transcription", transcribeElapsed),
		zap.Duration("interpretation", interpretElapsed),
		zap.Duration("engine", engineElapsed),
		zap.Duration("total", time.Since(started)),
	)

	emit(Event{Status: StatusComplete, Outcome: outcome})
	return outcome, nil
}

func terminalPlaceholder(state vchess.TerminalState) domain.MoveResult {
	if state == vchess.CheckmateState {
		return domain.MoveResult{SAN: "Checkmate!"}
	}
	return domain.MoveResult{SAN: "Stalemate"}
}

// composeMoveError rewrites a normalizer failure with the user-facing text
// that names what was heard.
func (r *Resolver) composeMoveError(err error, transcript, candidate string) error {
	fe, ok := fault.As(err)
	if !ok {
		return err
	}

	var key string
	data := map[string]any{"Transcript": transcript}
	switch fe.Reason {
	case fault.ReasonIllegal:
		key = "move.illegal"
		data["UCI"] = strings.ToLower(strings.TrimSpace(candidate))
	default:
		key = "move.unparseable"
	}

	msg, rerr := r.catalog.Render(key, data)
	if rerr != nil {
		return fe
	}
	return &fault.Error{
		Kind:       fe.Kind,
		Reason:     fe.Reason,
		Message:    msg,
		LegalMoves: fe.LegalMoves,
		Err:        fe,
	}
}
