package interpret

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kapu/voice-chess-go/internal/config"
	"github.com/kapu/voice-chess-go/internal/fault"
)

const groqBaseURL = "https://api.groq.com/openai/v1"

// New builds the interpreter selected by configuration. Provider choice is
// fixed at construction; requests never switch backends.
func New(cfg *config.AppConfig, logger *zap.Logger) (*Service, error) {
	provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}
	return NewService(provider, logger), nil
}

func newProvider(cfg *config.AppConfig) (Provider, error) {
	switch cfg.LLMProvider {
	case "", "groq":
		if cfg.GroqAPIKey == "" {
			return nil, fault.New(fault.KindConfiguration, "", "GROQ_API_KEY is required for the groq provider")
		}
		model := cfg.LLMModel
		if model == "" {
			model = "llama-3.1-70b-versatile"
		}
		return NewOpenAIProvider("groq", cfg.GroqAPIKey, model, groqBaseURL), nil

	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fault.New(fault.KindConfiguration, "", "OPENAI_API_KEY is required for the openai provider")
		}
		model := cfg.LLMModel
		if model == "" {
			model = "gpt-4o-mini"
		}
		return NewOpenAIProvider("openai", cfg.OpenAIAPIKey, model, cfg.LLMBaseURL), nil

	case "ollama":
		baseURL := cfg.LLMBaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
		model := cfg.LLMModel
		if model == "" {
			model = "llama3.1"
		}
		return NewOpenAIProvider("ollama", "ollama", model, baseURL), nil

	case "anthropic":
		if cfg.AnthropicAPIKey == "" {
			return nil, fault.New(fault.KindConfiguration, "", "ANTHROPIC_API_KEY is required for the anthropic provider")
		}
		model := cfg.LLMModel
		if model == "" {
			model = "claude-3-5-haiku-20241022"
		}
		return NewAnthropicProvider(cfg.AnthropicAPIKey, model), nil

	default:
		return nil, fault.New(fault.KindConfiguration, "",
			fmt.Sprintf("unknown LLM_PROVIDER %q (supported: groq, openai, ollama, anthropic)", cfg.LLMProvider))
	}
}
