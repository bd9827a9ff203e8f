package speech

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/kapu/voice-chess-go/internal/fault"
)

// Speaker renders text as spoken audio.
type Speaker interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

const (
	openAISpeechEndpoint = "https://api.openai.com/v1/audio/speech"
	speechModel          = "gpt-4o-mini-tts"
	speechVoice          = "coral"
)

type OpenAIClient struct {
	apiKey   string
	endpoint string
	http     *fasthttp.Client
	timeout  time.Duration
	logger   *zap.Logger
}

type Option func(*OpenAIClient)

func WithTimeout(d time.Duration) Option {
	return func(c *OpenAIClient) { c.timeout = d }
}

func WithEndpoint(url string) Option {
	return func(c *OpenAIClient) { c.endpoint = strings.TrimSpace(url) }
}

func NewOpenAIClient(apiKey string, logger *zap.Logger, opts ...Option) *OpenAIClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &OpenAIClient{
		apiKey:   strings.TrimSpace(apiKey),
		endpoint: openAISpeechEndpoint,
		http:     &fasthttp.Client{ReadTimeout: 30 * time.Second, WriteTimeout: 30 * time.Second, MaxConnsPerHost: 16},
		timeout:  20 * time.Second,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Synthesize returns MP3 audio for the given move text. Chess notation is
// rewritten for pronunciation before synthesis.
func (c *OpenAIClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, fault.New(fault.KindSpeech, fault.ReasonNotConfigured, "speech API key is not configured")
	}

	formatted := FormatMoveForSpeech(text)
	c.logger.Debug("synthesizing speech", zap.String("input", text), zap.String("formatted", formatted))

	payload, err := json.Marshal(map[string]string{
		"model":           speechModel,
		"voice":           speechVoice,
		"input":           formatted,
		"response_format": "mp3",
	})
	if err != nil {
		return nil, fault.Wrap(fault.KindSpeech, "", "marshal speech request", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(c.endpoint)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.SetBody(payload)

	deadline := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		c.logger.Error("speech request failed", zap.Error(err))
		return nil, fault.Wrap(fault.KindSpeech, fault.ReasonNetwork, "speech generation failed", err)
	}

	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		body := string(resp.Body())
		if len(body) > 200 {
			body = body[:200]
		}
		c.logger.Error("speech API error", zap.Int("status", status), zap.String("body", body))
		return nil, fault.New(fault.KindSpeech, fault.ReasonUpstream,
			fmt.Sprintf("speech service returned status %d", status))
	}

	audio := append([]byte(nil), resp.Body()...)
	return audio, nil
}
