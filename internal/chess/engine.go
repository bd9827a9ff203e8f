package chess

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/voice-chess-go/internal/chess/uci"
	"github.com/kapu/voice-chess-go/internal/fault"
)

const (
	DefaultMoveTime = 100 * time.Millisecond
	defaultHashMB   = 128
	defaultThreads  = 2
)

// Engine wraps a single long-lived UCI process shared by every session.
// The mutex serializes searches; difficulty is applied per search so
// concurrent sessions at different levels never bleed into each other.
type Engine struct {
	mu       sync.Mutex
	session  *uci.Session
	moveTime time.Duration
	logger   *zap.Logger
}

type EngineConfig struct {
	BinaryPath string
	MoveTime   time.Duration
	HashMB     int
	Threads    int
}

func NewEngine(cfg EngineConfig, logger *zap.Logger) (*Engine, error) {
	if strings.TrimSpace(cfg.BinaryPath) == "" {
		return nil, fault.New(fault.KindConfiguration, "", "engine binary path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MoveTime <= 0 {
		cfg.MoveTime = DefaultMoveTime
	}
	if cfg.HashMB <= 0 {
		cfg.HashMB = defaultHashMB
	}
	if cfg.Threads <= 0 {
		cfg.Threads = defaultThreads
	}

	sess, err := uci.NewSession(context.Background(), cfg.BinaryPath, uci.Options{
		Threads: cfg.Threads,
		HashMB:  cfg.HashMB,
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindConfiguration, "", fmt.Sprintf("start engine %q", cfg.BinaryPath), err)
	}

	logger.Info("chess engine started",
		zap.String("binary", cfg.BinaryPath),
		zap.Duration("move_time", cfg.MoveTime),
		zap.Int("hash_mb", cfg.HashMB),
		zap.Int("threads", cfg.Threads),
	)

	return &Engine{session: sess, moveTime: cfg.MoveTime, logger: logger}, nil
}

// BestMove searches the position reached by moves from the start position.
// The think-time budget is fixed; skill level alone controls difficulty.
func (e *Engine) BestMove(ctx context.Context, moves []string, skillLevel int) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	started := time.Now()
	if err := e.session.SetSkillLevel(skillLevel); err != nil {
		return "", fault.Wrap(fault.KindEngine, "", "set skill level", err)
	}

	best, err := e.session.BestMove(ctx, moves, int(e.moveTime.Milliseconds()))
	if err != nil {
		e.logger.Warn("engine search failed",
			zap.Error(err),
			zap.Int("skill_level", skillLevel),
			zap.Int("move_count", len(moves)),
		)
		return "", mapEngineError(err)
	}

	e.logger.Debug("engine move chosen",
		zap.String("move", best),
		zap.Int("skill_level", skillLevel),
		zap.Duration("elapsed", time.Since(started)),
	)
	return best, nil
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session.Close()
}

func mapEngineError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fault.Wrap(fault.KindEngine, fault.ReasonTimeout, "engine search timed out", err)
	}
	return fault.Wrap(fault.KindEngine, "", "engine search failed", err)
}
