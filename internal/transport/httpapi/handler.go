package httpapi

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/kapu/voice-chess-go/internal/domain"
	"github.com/kapu/voice-chess-go/internal/fault"
	"github.com/kapu/voice-chess-go/internal/msgcat"
	"github.com/kapu/voice-chess-go/internal/service/turn"
	"github.com/kapu/voice-chess-go/internal/session"
	"github.com/kapu/voice-chess-go/internal/speech"
	"github.com/kapu/voice-chess-go/internal/transcribe"
	"github.com/kapu/voice-chess-go/pkg/chessdto"
)

// TurnService is the orchestration surface the transport depends on.
type TurnService interface {
	Resolve(ctx context.Context, sessionID string, clip transcribe.AudioClip) (*domain.TurnOutcome, error)
	ResolveStream(ctx context.Context, sessionID string, clip transcribe.AudioClip) <-chan turn.Event
}

type Handler struct {
	store        *session.Store
	turns        TurnService
	speaker      speech.Speaker
	catalog      *msgcat.Catalog
	defaultSkill int
	logger       *zap.Logger
}

func NewHandler(store *session.Store, turns TurnService, speaker speech.Speaker, catalog *msgcat.Catalog, defaultSkill int, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		store:        store,
		turns:        turns,
		speaker:      speaker,
		catalog:      catalog,
		defaultSkill: defaultSkill,
		logger:       logger,
	}
}

// NewFiberApp wires all routes. Error-kind to status-code mapping lives
// here and nowhere else.
func NewFiberApp(h *Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	app.Get("/", h.Health)
	app.Post("/sessions", h.CreateSession)
	app.Get("/sessions/:sessionId", h.GetSession)
	app.Put("/sessions/:sessionId/skill-level", h.UpdateSkillLevel)
	app.Get("/sessions/:sessionId/tts/:move", h.MoveSpeech)
	app.Post("/sessions/:sessionId/turn", h.TakeTurn)
	app.Post("/sessions/:sessionId/turn-stream", h.TakeTurnStream)

	return app
}

func (h *Handler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

func (h *Handler) CreateSession(c *fiber.Ctx) error {
	skill := c.QueryInt("skill_level", h.defaultSkill)
	sess := h.store.Create(skill)
	state := sess.Snapshot()

	h.logger.Info("session created",
		zap.String("session_id", state.ID),
		zap.Int("skill_level", state.SkillLevel),
	)
	return c.Status(fiber.StatusCreated).JSON(chessdto.SessionCreateResponse{
		SessionID: state.ID,
		FEN:       state.FEN,
		Moves:     dtoMoves(state.Moves),
	})
}

func (h *Handler) GetSession(c *fiber.Ctx) error {
	sess, err := h.store.Get(c.Params("sessionId"))
	if err != nil {
		return h.respondError(c, err)
	}
	state := sess.Snapshot()
	return c.JSON(chessdto.SessionStateResponse{
		SessionID:  state.ID,
		FEN:        state.FEN,
		Moves:      dtoMoves(state.Moves),
		SkillLevel: state.SkillLevel,
	})
}

func (h *Handler) UpdateSkillLevel(c *fiber.Ctx) error {
	var req chessdto.SkillLevelRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(chessdto.ErrorResponse{
			Error:   "invalid request body",
			Code:    chessdto.ErrInvalidRequest,
			Details: err.Error(),
		})
	}

	applied, err := h.store.SetSkillLevel(c.Params("sessionId"), req.SkillLevel)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(chessdto.SkillLevelResponse{SkillLevel: applied})
}

func (h *Handler) MoveSpeech(c *fiber.Ctx) error {
	if _, err := h.store.Get(c.Params("sessionId")); err != nil {
		return h.respondError(c, err)
	}

	moveText := c.Params("move")
	if decoded, err := url.PathUnescape(moveText); err == nil {
		moveText = decoded
	}

	audio, err := h.speaker.Synthesize(c.UserContext(), moveText)
	if err != nil {
		return h.respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.Send(audio)
}

func (h *Handler) TakeTurn(c *fiber.Ctx) error {
	clip, err := h.audioClip(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(chessdto.ErrorResponse{
			Error:   "audio file is required",
			Code:    chessdto.ErrInvalidRequest,
			Details: err.Error(),
		})
	}

	outcome, err := h.turns.Resolve(c.UserContext(), c.Params("sessionId"), clip)
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(turnResponse(outcome))
}

func (h *Handler) TakeTurnStream(c *fiber.Ctx) error {
	clip, err := h.audioClip(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(chessdto.ErrorResponse{
			Error:   "audio file is required",
			Code:    chessdto.ErrInvalidRequest,
			Details: err.Error(),
		})
	}

	sessionID := c.Params("sessionId")
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set("Connection", "keep-alive")

	// The stream writer runs after this handler returns, so the pipeline
	// gets a fresh context rather than the request's.
	events := h.turns.ResolveStream(context.Background(), sessionID, clip)
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		for ev := range events {
			frame := h.streamFrame(ev)
			payload, err := json.Marshal(frame)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", payload)
			if err := w.Flush(); err != nil {
				// Client went away; drain so the pipeline can finish.
				for range events {
				}
				return
			}
		}
	}))
	return nil
}

func (h *Handler) audioClip(c *fiber.Ctx) (transcribe.AudioClip, error) {
	fh, err := c.FormFile("audio")
	if err != nil {
		return transcribe.AudioClip{}, err
	}
	f, err := fh.Open()
	if err != nil {
		return transcribe.AudioClip{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return transcribe.AudioClip{}, err
	}
	return transcribe.AudioClip{
		Data:        data,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
	}, nil
}

func (h *Handler) streamFrame(ev turn.Event) chessdto.StreamFrame {
	switch ev.Status {
	case turn.StatusError:
		return chessdto.StreamFrame{Error: h.messageFor(ev.Err)}
	case turn.StatusComplete:
		user := dtoMoveResult(ev.Outcome.PlayerMove)
		engine := dtoMoveResult(ev.Outcome.EngineMove)
		return chessdto.StreamFrame{
			Status:     string(ev.Status),
			Transcript: ev.Outcome.Transcript,
			UserMove:   &user,
			EngineMove: &engine,
			FEN:        ev.Outcome.FEN,
		}
	case turn.StatusTranscribed:
		return chessdto.StreamFrame{Status: string(ev.Status), Transcript: ev.Transcript}
	case turn.StatusPlayerMoved:
		mv := dtoMoveResult(*ev.Move)
		return chessdto.StreamFrame{Status: string(ev.Status), Move: &mv}
	default:
		return chessdto.StreamFrame{Status: string(ev.Status)}
	}
}

func turnResponse(outcome *domain.TurnOutcome) chessdto.TurnResponse {
	return chessdto.TurnResponse{
		Transcript: outcome.Transcript,
		UserMove:   dtoMoveResult(outcome.PlayerMove),
		EngineMove: dtoMoveResult(outcome.EngineMove),
		FEN:        outcome.FEN,
		Moves:      dtoMoves(outcome.Moves),
	}
}

func dtoMoveResult(mv domain.MoveResult) chessdto.MoveResult {
	return chessdto.MoveResult{UCI: mv.UCI, SAN: mv.SAN}
}

func dtoMoves(records []domain.MoveRecord) []chessdto.MoveRecord {
	out := make([]chessdto.MoveRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, chessdto.MoveRecord{
			Ply:        rec.Ply,
			Actor:      string(rec.Actor),
			UCI:        rec.UCI,
			SAN:        rec.SAN,
			Transcript: rec.Transcript,
			Timestamp:  rec.Timestamp,
		})
	}
	return out
}

func (h *Handler) respondError(c *fiber.Ctx, err error) error {
	status, code := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err), zap.String("path", c.Path()))
	}
	return c.Status(status).JSON(chessdto.ErrorResponse{
		Error: h.messageFor(err),
		Code:  code,
	})
}

func statusFor(err error) (int, string) {
	fe, ok := fault.As(err)
	if !ok {
		return fiber.StatusInternalServerError, chessdto.ErrInternalError
	}

	switch fe.Kind {
	case fault.KindNotFound:
		return fiber.StatusNotFound, chessdto.ErrSessionNotFound
	case fault.KindInvalidMove:
		return fiber.StatusBadRequest, chessdto.ErrInvalidMove
	case fault.KindTranscription:
		switch fe.Reason {
		case fault.ReasonTimeout:
			return fiber.StatusGatewayTimeout, chessdto.ErrTranscriptionTimeout
		case fault.ReasonEmptyAudio:
			return fiber.StatusBadRequest, chessdto.ErrInvalidRequest
		case fault.ReasonNotConfigured:
			return fiber.StatusInternalServerError, chessdto.ErrNotConfigured
		default:
			return fiber.StatusBadGateway, chessdto.ErrTranscriptionFailed
		}
	case fault.KindInterpretation:
		if fe.Reason == fault.ReasonNoMove {
			return fiber.StatusBadRequest, chessdto.ErrInterpretationFailed
		}
		return fiber.StatusBadGateway, chessdto.ErrInterpretationFailed
	case fault.KindEngine:
		return fiber.StatusInternalServerError, chessdto.ErrEngineFailure
	case fault.KindSpeech:
		if fe.Reason == fault.ReasonNotConfigured {
			return fiber.StatusInternalServerError, chessdto.ErrNotConfigured
		}
		return fiber.StatusBadGateway, chessdto.ErrSpeechFailed
	case fault.KindConfiguration:
		return fiber.StatusInternalServerError, chessdto.ErrNotConfigured
	default:
		return fiber.StatusInternalServerError, chessdto.ErrInternalError
	}
}

// messageFor picks the user-facing text for an error, preferring catalog
// templates keyed by kind and reason. Invalid-move errors arrive with their
// message already composed.
func (h *Handler) messageFor(err error) string {
	fe, ok := fault.As(err)
	if !ok {
		return err.Error()
	}

	key := ""
	data := map[string]any{"Detail": fe.Error()}
	switch fe.Kind {
	case fault.KindNotFound:
		key = "session.not_found"
	case fault.KindTranscription:
		switch fe.Reason {
		case fault.ReasonNotConfigured:
			key = "transcribe.not_configured"
		case fault.ReasonTimeout:
			key = "transcribe.timeout"
		case fault.ReasonNetwork:
			key = "transcribe.network"
		case fault.ReasonNoText:
			key = "transcribe.no_text"
		case fault.ReasonEmptyAudio:
			key = "audio.empty"
		default:
			key = "transcribe.upstream"
		}
	case fault.KindInterpretation:
		if fe.Reason == fault.ReasonNoMove {
			key = "interpret.no_move"
		} else {
			key = "interpret.failed"
		}
	case fault.KindEngine:
		key = "engine.failed"
	case fault.KindSpeech:
		if fe.Reason == fault.ReasonNotConfigured {
			key = "speech.not_configured"
		} else {
			key = "speech.failed"
		}
	}
	if key == "" || h.catalog == nil {
		return fe.Error()
	}
	msg, rerr := h.catalog.Render(key, data)
	if rerr != nil {
		return fe.Error()
	}
	return msg
}
