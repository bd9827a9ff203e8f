package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kapu/voice-chess-go/internal/domain"
	"github.com/kapu/voice-chess-go/internal/fault"
	"github.com/kapu/voice-chess-go/internal/msgcat"
	"github.com/kapu/voice-chess-go/internal/service/turn"
	"github.com/kapu/voice-chess-go/internal/session"
	"github.com/kapu/voice-chess-go/internal/transcribe"
	"github.com/kapu/voice-chess-go/pkg/chessdto"
)

type fakeTurnService struct {
	outcome *domain.TurnOutcome
	err     error
	events  []turn.Event
}

func (f *fakeTurnService) Resolve(ctx context.Context, sessionID string, clip transcribe.AudioClip) (*domain.TurnOutcome, error) {
	return f.outcome, f.err
}

func (f *fakeTurnService) ResolveStream(ctx context.Context, sessionID string, clip transcribe.AudioClip) <-chan turn.Event {
	ch := make(chan turn.Event, len(f.events))
	for _, ev := range f.events {
		ch <- ev
	}
	close(ch)
	return ch
}

type fakeSpeaker struct {
	audio []byte
	err   error
}

func (f *fakeSpeaker) Synthesize(ctx context.Context, text string) ([]byte, error) {
	return f.audio, f.err
}

func newTestApp(t *testing.T, turns TurnService, speaker *fakeSpeaker) (*Handler, *session.Store) {
	t.Helper()
	catalog, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat: %v", err)
	}
	store := session.NewStore()
	if speaker == nil {
		speaker = &fakeSpeaker{audio: []byte("mp3")}
	}
	return NewHandler(store, turns, speaker, catalog, 5, nil), store
}

func audioRequest(t *testing.T, method, target string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("audio", "clip.webm")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write([]byte("audio-bytes")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func decodeJSON(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(body, v); err != nil {
		t.Fatalf("decode %q: %v", body, err)
	}
}

func TestHealth(t *testing.T) {
	h, _ := newTestApp(t, &fakeTurnService{}, nil)
	app := NewFiberApp(h)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestCreateSession(t *testing.T) {
	h, store := newTestApp(t, &fakeTurnService{}, nil)
	app := NewFiberApp(h)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/sessions?skill_level=12", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body chessdto.SessionCreateResponse
	decodeJSON(t, resp, &body)
	if body.SessionID == "" || body.FEN == "" {
		t.Fatalf("body = %+v", body)
	}
	if len(body.Moves) != 0 {
		t.Fatalf("new session has moves: %+v", body.Moves)
	}

	sess, err := store.Get(body.SessionID)
	if err != nil {
		t.Fatalf("created session missing from store: %v", err)
	}
	if sess.SkillLevel != 12 {
		t.Fatalf("skill = %d, want 12", sess.SkillLevel)
	}
}

func TestCreateSessionClampsSkill(t *testing.T) {
	h, store := newTestApp(t, &fakeTurnService{}, nil)
	app := NewFiberApp(h)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/sessions?skill_level=99", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var body chessdto.SessionCreateResponse
	decodeJSON(t, resp, &body)

	sess, _ := store.Get(body.SessionID)
	if sess.SkillLevel != session.MaxSkillLevel {
		t.Fatalf("skill = %d, want %d", sess.SkillLevel, session.MaxSkillLevel)
	}
}

func TestGetSessionNotFound(t *testing.T) {
	h, _ := newTestApp(t, &fakeTurnService{}, nil)
	app := NewFiberApp(h)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sessions/missing", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body chessdto.ErrorResponse
	decodeJSON(t, resp, &body)
	if body.Code != chessdto.ErrSessionNotFound {
		t.Fatalf("code = %q", body.Code)
	}
	if body.Error != "Session not found" {
		t.Fatalf("error = %q", body.Error)
	}
}

func TestGetSession(t *testing.T) {
	h, store := newTestApp(t, &fakeTurnService{}, nil)
	app := NewFiberApp(h)
	sess := store.Create(9)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sessions/"+sess.ID, nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body chessdto.SessionStateResponse
	decodeJSON(t, resp, &body)
	if body.SessionID != sess.ID || body.SkillLevel != 9 {
		t.Fatalf("body = %+v", body)
	}
}

func TestUpdateSkillLevel(t *testing.T) {
	h, store := newTestApp(t, &fakeTurnService{}, nil)
	app := NewFiberApp(h)
	sess := store.Create(5)

	payload := bytes.NewBufferString(`{"skill_level": 33}`)
	req := httptest.NewRequest(http.MethodPut, "/sessions/"+sess.ID+"/skill-level", payload)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body chessdto.SkillLevelResponse
	decodeJSON(t, resp, &body)
	if body.SkillLevel != session.MaxSkillLevel {
		t.Fatalf("skill = %d, want clamp to %d", body.SkillLevel, session.MaxSkillLevel)
	}
}

func TestMoveSpeech(t *testing.T) {
	speaker := &fakeSpeaker{audio: []byte("mp3-bytes")}
	h, store := newTestApp(t, &fakeTurnService{}, speaker)
	app := NewFiberApp(h)
	sess := store.Create(5)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sessions/"+sess.ID+"/tts/Nf3", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "audio/mpeg" {
		t.Fatalf("content type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "mp3-bytes" {
		t.Fatalf("body = %q", body)
	}
}

func TestMoveSpeechUpstreamFailure(t *testing.T) {
	speaker := &fakeSpeaker{err: fault.New(fault.KindSpeech, fault.ReasonUpstream, "speech service returned status 500")}
	h, store := newTestApp(t, &fakeTurnService{}, speaker)
	app := NewFiberApp(h)
	sess := store.Create(5)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sessions/"+sess.ID+"/tts/Nf3", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadGateway)
	}
	var body chessdto.ErrorResponse
	decodeJSON(t, resp, &body)
	if body.Code != chessdto.ErrSpeechFailed {
		t.Fatalf("code = %q, want %q", body.Code, chessdto.ErrSpeechFailed)
	}
	if body.Error != "Speech generation failed" {
		t.Fatalf("error = %q", body.Error)
	}
}

func TestMoveSpeechNotConfigured(t *testing.T) {
	speaker := &fakeSpeaker{err: fault.New(fault.KindSpeech, fault.ReasonNotConfigured, "speech API key is not configured")}
	h, store := newTestApp(t, &fakeTurnService{}, speaker)
	app := NewFiberApp(h)
	sess := store.Create(5)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sessions/"+sess.ID+"/tts/Nf3", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}
	var body chessdto.ErrorResponse
	decodeJSON(t, resp, &body)
	if body.Code != chessdto.ErrNotConfigured {
		t.Fatalf("code = %q, want %q", body.Code, chessdto.ErrNotConfigured)
	}
	if body.Error != "OpenAI API key not configured" {
		t.Fatalf("error = %q", body.Error)
	}
}

func TestMoveSpeechUnknownSession(t *testing.T) {
	h, _ := newTestApp(t, &fakeTurnService{}, nil)
	app := NewFiberApp(h)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sessions/missing/tts/Nf3", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", resp.StatusCode)
	}
}

func TestTakeTurn(t *testing.T) {
	now := time.Now().UTC()
	outcome := &domain.TurnOutcome{
		Transcript: "e4",
		PlayerMove: domain.MoveResult{UCI: "e2e4", SAN: "e4"},
		EngineMove: domain.MoveResult{UCI: "e7e5", SAN: "e5"},
		FEN:        "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2",
		Moves: []domain.MoveRecord{
			{Ply: 1, Actor: domain.ActorPlayer, UCI: "e2e4", SAN: "e4", Transcript: "e4", Timestamp: now},
			{Ply: 2, Actor: domain.ActorEngine, UCI: "e7e5", SAN: "e5", Timestamp: now},
		},
	}
	h, _ := newTestApp(t, &fakeTurnService{outcome: outcome}, nil)
	app := NewFiberApp(h)

	resp, err := app.Test(audioRequest(t, http.MethodPost, "/sessions/any/turn"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body chessdto.TurnResponse
	decodeJSON(t, resp, &body)
	if body.UserMove.UCI != "e2e4" || body.EngineMove.SAN != "e5" {
		t.Fatalf("body = %+v", body)
	}
	if len(body.Moves) != 2 {
		t.Fatalf("moves = %+v", body.Moves)
	}
}

func TestTakeTurnMissingAudio(t *testing.T) {
	h, _ := newTestApp(t, &fakeTurnService{}, nil)
	app := NewFiberApp(h)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/sessions/any/turn", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body chessdto.ErrorResponse
	decodeJSON(t, resp, &body)
	if body.Code != chessdto.ErrInvalidRequest {
		t.Fatalf("code = %q", body.Code)
	}
}

func TestTakeTurnErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			"session not found",
			fault.New(fault.KindNotFound, "", "session not found"),
			http.StatusNotFound, chessdto.ErrSessionNotFound,
		},
		{
			"illegal move",
			fault.New(fault.KindInvalidMove, fault.ReasonIllegal, "e2e5 is not legal"),
			http.StatusBadRequest, chessdto.ErrInvalidMove,
		},
		{
			"transcription timeout",
			fault.New(fault.KindTranscription, fault.ReasonTimeout, "timed out"),
			http.StatusGatewayTimeout, chessdto.ErrTranscriptionTimeout,
		},
		{
			"transcription upstream",
			fault.New(fault.KindTranscription, fault.ReasonUpstream, "boom"),
			http.StatusBadGateway, chessdto.ErrTranscriptionFailed,
		},
		{
			"empty audio",
			fault.New(fault.KindTranscription, fault.ReasonEmptyAudio, "empty audio payload"),
			http.StatusBadRequest, chessdto.ErrInvalidRequest,
		},
		{
			"no move interpreted",
			fault.New(fault.KindInterpretation, fault.ReasonNoMove, "no move"),
			http.StatusBadRequest, chessdto.ErrInterpretationFailed,
		},
		{
			"engine failure",
			fault.New(fault.KindEngine, "", "engine crashed"),
			http.StatusInternalServerError, chessdto.ErrEngineFailure,
		},
		{
			"not configured",
			fault.New(fault.KindConfiguration, fault.ReasonNotConfigured, "no key"),
			http.StatusInternalServerError, chessdto.ErrNotConfigured,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, _ := newTestApp(t, &fakeTurnService{err: tc.err}, nil)
			app := NewFiberApp(h)

			resp, err := app.Test(audioRequest(t, http.MethodPost, "/sessions/any/turn"))
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
			var body chessdto.ErrorResponse
			decodeJSON(t, resp, &body)
			if body.Code != tc.wantCode {
				t.Fatalf("code = %q, want %q", body.Code, tc.wantCode)
			}
			if body.Error == "" {
				t.Fatal("error message is empty")
			}
		})
	}
}

func TestTakeTurnStream(t *testing.T) {
	playerMove := domain.MoveResult{UCI: "e2e4", SAN: "e4"}
	outcome := &domain.TurnOutcome{
		Transcript: "e4",
		PlayerMove: playerMove,
		EngineMove: domain.MoveResult{UCI: "e7e5", SAN: "e5"},
		FEN:        "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 0 2",
	}
	svc := &fakeTurnService{events: []turn.Event{
		{Status: turn.StatusTranscribing},
		{Status: turn.StatusTranscribed, Transcript: "e4"},
		{Status: turn.StatusInterpreting},
		{Status: turn.StatusPlayerMoved, Move: &playerMove},
		{Status: turn.StatusEngineThinking},
		{Status: turn.StatusComplete, Outcome: outcome},
	}}
	h, _ := newTestApp(t, svc, nil)
	app := NewFiberApp(h)

	resp, err := app.Test(audioRequest(t, http.MethodPost, "/sessions/any/turn-stream"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/event-stream") {
		t.Fatalf("content type = %q", ct)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var frames []chessdto.StreamFrame
	for _, line := range strings.Split(string(body), "\n") {
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var frame chessdto.StreamFrame
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &frame); err != nil {
			t.Fatalf("decode frame %q: %v", line, err)
		}
		frames = append(frames, frame)
	}

	if len(frames) != 6 {
		t.Fatalf("got %d frames: %+v", len(frames), frames)
	}
	if frames[1].Transcript != "e4" {
		t.Fatalf("transcribed frame = %+v", frames[1])
	}
	if frames[3].Move == nil || frames[3].Move.UCI != "e2e4" {
		t.Fatalf("player_moved frame = %+v", frames[3])
	}
	final := frames[5]
	if final.Status != string(turn.StatusComplete) || final.UserMove == nil || final.EngineMove == nil {
		t.Fatalf("complete frame = %+v", final)
	}
	if final.EngineMove.SAN != "e5" || final.FEN == "" {
		t.Fatalf("complete frame payload = %+v", final)
	}
}

func TestTakeTurnStreamError(t *testing.T) {
	svc := &fakeTurnService{events: []turn.Event{
		{Status: turn.StatusTranscribing},
		{Status: turn.StatusError, Err: fault.New(fault.KindInvalidMove, fault.ReasonIllegal, "e2e5 is not legal here")},
	}}
	h, _ := newTestApp(t, svc, nil)
	app := NewFiberApp(h)

	resp, err := app.Test(audioRequest(t, http.MethodPost, "/sessions/any/turn-stream"))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "e2e5 is not legal here") {
		t.Fatalf("body = %q", body)
	}
}
