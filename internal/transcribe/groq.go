package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/kapu/voice-chess-go/internal/fault"
)

// AudioClip is one uploaded voice recording.
type AudioClip struct {
	Data        []byte
	Filename    string
	ContentType string
}

// Transcriber turns a voice recording into text.
type Transcriber interface {
	Transcribe(ctx context.Context, clip AudioClip) (string, error)
}

const groqTranscriptionEndpoint = "https://api.groq.com/openai/v1/audio/transcriptions"

// chessPrompt steers the speech model toward chess vocabulary.
const chessPrompt = "Chess move notation: pawn, knight, bishop, rook, queen, king, " +
	"castle, castles, check, checkmate, capture, captures, takes, " +
	"files a through h, ranks 1 through 8, " +
	"e4, d4, Nf3, Nc3, Bc4, O-O, queenside, kingside"

type GroqClient struct {
	apiKey   string
	model    string
	endpoint string
	http     *fasthttp.Client
	timeout  time.Duration
	logger   *zap.Logger
}

type GroqOption func(*GroqClient)

func WithTimeout(d time.Duration) GroqOption {
	return func(c *GroqClient) { c.timeout = d }
}

func WithEndpoint(url string) GroqOption {
	return func(c *GroqClient) { c.endpoint = strings.TrimSpace(url) }
}

func NewGroqClient(apiKey, model string, logger *zap.Logger, opts ...GroqOption) *GroqClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &GroqClient{
		apiKey:   strings.TrimSpace(apiKey),
		model:    model,
		endpoint: groqTranscriptionEndpoint,
		http:     &fasthttp.Client{ReadTimeout: 15 * time.Second, WriteTimeout: 15 * time.Second, MaxConnsPerHost: 16},
		timeout:  12 * time.Second,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *GroqClient) Transcribe(ctx context.Context, clip AudioClip) (string, error) {
	if c.apiKey == "" {
		return "", fault.New(fault.KindTranscription, fault.ReasonNotConfigured, "transcription API key is not configured")
	}
	if len(clip.Data) == 0 {
		return "", fault.New(fault.KindTranscription, fault.ReasonEmptyAudio, "empty audio payload")
	}

	body, contentType, err := c.buildForm(clip)
	if err != nil {
		return "", fault.Wrap(fault.KindTranscription, "", "build transcription request", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(c.endpoint)
	req.Header.SetContentType(contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.SetBody(body)

	c.logger.Debug("sending audio for transcription",
		zap.Int("bytes", len(clip.Data)),
		zap.String("content_type", clip.ContentType),
		zap.String("model", c.model),
	)

	started := time.Now()
	if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
		if isTimeout(err) {
			c.logger.Error("transcription request timed out", zap.Duration("timeout", c.timeout))
			return "", fault.Wrap(fault.KindTranscription, fault.ReasonTimeout, "transcription timed out", err)
		}
		c.logger.Error("transcription request failed", zap.Error(err))
		return "", fault.Wrap(fault.KindTranscription, fault.ReasonNetwork, "network error during transcription", err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		bodyText := truncate(string(resp.Body()), 512)
		c.logger.Error("transcription API error",
			zap.Int("status", status),
			zap.String("body", bodyText),
		)
		return "", fault.New(fault.KindTranscription, fault.ReasonUpstream,
			fmt.Sprintf("transcription service returned status %d: %s", status, truncate(bodyText, 200)))
	}

	var payload struct {
		Text       string `json:"text"`
		Transcript string `json:"transcript"`
	}
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		return "", fault.Wrap(fault.KindTranscription, fault.ReasonUpstream, "decode transcription response", err)
	}
	transcript := payload.Text
	if transcript == "" {
		transcript = payload.Transcript
	}
	if strings.TrimSpace(transcript) == "" {
		return "", fault.New(fault.KindTranscription, fault.ReasonNoText, "transcription service returned no text")
	}

	transcript = strings.TrimSpace(transcript)
	c.logger.Info("transcribed audio",
		zap.String("transcript", transcript),
		zap.Duration("elapsed", time.Since(started)),
	)
	return transcript, nil
}

func (c *GroqClient) buildForm(clip AudioClip) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fw, err := w.CreateFormFile("file", "audio."+extensionFor(clip.ContentType))
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(clip.Data); err != nil {
		return nil, "", err
	}

	fields := map[string]string{
		"model":           c.model,
		"response_format": "json",
		"language":        "en",
		"prompt":          chessPrompt,
		"temperature":     "0",
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// extensionFor maps an upload content type to the filename extension the
// transcription API expects. Unknown types fall back to webm.
func extensionFor(contentType string) string {
	switch {
	case strings.Contains(contentType, "mp3"):
		return "mp3"
	case strings.Contains(contentType, "mp4"), strings.Contains(contentType, "m4a"):
		return "m4a"
	case strings.Contains(contentType, "wav"):
		return "wav"
	case strings.Contains(contentType, "ogg"):
		return "ogg"
	default:
		return "webm"
	}
}

func (c *GroqClient) computeDeadline(ctx context.Context) time.Time {
	if dl, ok := ctx.Deadline(); ok {
		clientDL := time.Now().Add(c.timeout)
		if dl.Before(clientDL) {
			return dl
		}
		return clientDL
	}
	return time.Now().Add(c.timeout)
}

func isTimeout(err error) bool {
	return err == fasthttp.ErrTimeout || strings.Contains(err.Error(), "timeout") || strings.Contains(err.Error(), "deadline")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
