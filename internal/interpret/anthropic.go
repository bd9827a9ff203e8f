package interpret

import (
	"context"
	"encoding/json"
	"strings"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/kapu/voice-chess-go/internal/fault"
)

type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	return &AnthropicProvider{
		client: anthropic.NewClient(apiKey),
		model:  model,
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic" }

func (p *AnthropicProvider) Invoke(ctx context.Context, req Request) (Candidate, error) {
	temperature := float32(0)
	msgReq := anthropic.MessagesRequest{
		Model: anthropic.Model(p.model),
		MultiSystem: []anthropic.MessageSystemPart{
			{Type: "text", Text: systemPrompt},
		},
		Messages: []anthropic.Message{
			{
				Role:    anthropic.RoleUser,
				Content: []anthropic.MessageContent{anthropic.NewTextMessageContent(userPrompt(req))},
			},
		},
		MaxTokens:   1024,
		Temperature: &temperature,
		Tools: []anthropic.ToolDefinition{
			{
				Name:        moveToolName,
				Description: moveToolDescription,
				InputSchema: moveToolSchema(),
			},
		},
	}

	resp, err := p.client.CreateMessages(ctx, msgReq)
	if err != nil {
		return Candidate{}, fault.Wrap(fault.KindInterpretation, fault.ReasonUpstream, "messages request failed", err)
	}

	var textContent string
	for _, block := range resp.Content {
		switch block.Type {
		case "tool_use":
			if block.MessageContentToolUse == nil || block.Name != moveToolName {
				continue
			}
			var args struct {
				UCI string `json:"uci"`
				SAN string `json:"san"`
			}
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					continue
				}
			}
			if uci := strings.TrimSpace(args.UCI); uci != "" {
				return Candidate{UCI: uci, SANHint: args.SAN}, nil
			}
		case anthropic.MessagesContentTypeText:
			if block.Text != nil {
				textContent += *block.Text
			}
		}
	}

	if cand, ok := extractFromContent(textContent); ok {
		return cand, nil
	}
	return Candidate{}, fault.New(fault.KindInterpretation, fault.ReasonNoMove, "unable to interpret move from transcript")
}
