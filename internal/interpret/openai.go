package interpret

import (
	"context"
	"encoding/json"
	"strings"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"github.com/kapu/voice-chess-go/internal/fault"
)

// OpenAIProvider speaks the chat-completions tool-calling protocol. With a
// base URL override it also covers Groq, DeepSeek, Ollama and other
// OpenAI-compatible backends.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	name   string
}

func NewOpenAIProvider(name, apiKey, model, baseURL string) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		model:  model,
		name:   name,
	}
}

func (p *OpenAIProvider) Name() string { return p.name }

func (p *OpenAIProvider) Invoke(ctx context.Context, req Request) (Candidate, error) {
	temperature := float32(0)
	chatReq := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(req)},
		},
		Tools: []openai.Tool{{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        moveToolName,
				Description: moveToolDescription,
				Parameters:  moveToolSchema(),
			},
		}},
		ToolChoice:  "auto",
		Temperature: &temperature,
	}

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Candidate{}, fault.Wrap(fault.KindInterpretation, fault.ReasonUpstream, "chat completion failed", err)
	}
	if len(resp.Choices) == 0 {
		return Candidate{}, fault.New(fault.KindInterpretation, fault.ReasonUpstream, "empty completion response")
	}

	message := resp.Choices[0].Message
	for _, tc := range message.ToolCalls {
		if tc.Function.Name != moveToolName {
			continue
		}
		var args struct {
			UCI string `json:"uci"`
			SAN string `json:"san"`
		}
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			continue
		}
		if uci := strings.TrimSpace(args.UCI); uci != "" {
			return Candidate{UCI: uci, SANHint: args.SAN}, nil
		}
	}

	if cand, ok := extractFromContent(message.Content); ok {
		return cand, nil
	}
	return Candidate{}, fault.New(fault.KindInterpretation, fault.ReasonNoMove, "unable to interpret move from transcript")
}
