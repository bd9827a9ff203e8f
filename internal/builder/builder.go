package builder

import (
	"time"

	"go.uber.org/zap"

	"github.com/kapu/voice-chess-go/internal/chess"
	"github.com/kapu/voice-chess-go/internal/config"
	"github.com/kapu/voice-chess-go/internal/fault"
	"github.com/kapu/voice-chess-go/internal/interpret"
	"github.com/kapu/voice-chess-go/internal/msgcat"
	"github.com/kapu/voice-chess-go/internal/service/turn"
	"github.com/kapu/voice-chess-go/internal/session"
	"github.com/kapu/voice-chess-go/internal/speech"
	"github.com/kapu/voice-chess-go/internal/transcribe"
)

// Deps holds every long-lived component the server needs. Build wires them
// once at startup; Close tears down the ones that own processes.
type Deps struct {
	Config      *config.AppConfig
	Store       *session.Store
	Engine      *chess.Engine
	Transcriber transcribe.Transcriber
	Interpreter interpret.Interpreter
	Speaker     speech.Speaker
	Catalog     *msgcat.Catalog
	Resolver    *turn.Resolver
	Logger      *zap.Logger
}

func Build(cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StockfishPath == "" {
		return nil, fault.New(fault.KindConfiguration, "", "STOCKFISH_PATH is required")
	}

	engine, err := chess.NewEngine(chess.EngineConfig{
		BinaryPath: cfg.StockfishPath,
		MoveTime:   time.Duration(cfg.EngineMoveTimeMillis) * time.Millisecond,
		HashMB:     cfg.EngineHashMB,
		Threads:    cfg.EngineThreads,
	}, logger)
	if err != nil {
		return nil, err
	}

	catalog, err := msgcat.New(cfg.MessageOverrideDir)
	if err != nil {
		engine.Close()
		return nil, fault.Wrap(fault.KindConfiguration, "", "load message catalog", err)
	}

	interpreter, err := interpret.New(cfg, logger)
	if err != nil {
		engine.Close()
		return nil, err
	}

	transcriber := transcribe.NewGroqClient(
		cfg.GroqAPIKey,
		cfg.GroqTranscriptionModel,
		logger,
		transcribe.WithTimeout(time.Duration(cfg.TranscribeTimeoutSec)*time.Second),
	)
	speaker := speech.NewOpenAIClient(cfg.OpenAIAPIKey, logger)

	store := session.NewStore()
	resolver := turn.NewResolver(store, transcriber, interpreter, engine, catalog, logger)

	return &Deps{
		Config:      cfg,
		Store:       store,
		Engine:      engine,
		Transcriber: transcriber,
		Interpreter: interpreter,
		Speaker:     speaker,
		Catalog:     catalog,
		Resolver:    resolver,
		Logger:      logger,
	}, nil
}

func (d *Deps) Close() {
	if d.Engine != nil {
		if err := d.Engine.Close(); err != nil {
			d.Logger.Warn("engine shutdown failed", zap.Error(err))
		}
	}
}
