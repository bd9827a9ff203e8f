package config

import (
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	ListenAddr string

	GroqAPIKey             string
	GroqTranscriptionModel string

	LLMProvider     string
	LLMModel        string
	LLMBaseURL      string
	OpenAIAPIKey    string
	AnthropicAPIKey string

	StockfishPath        string
	EngineMoveTimeMillis int
	EngineHashMB         int
	EngineThreads        int

	DefaultSkillLevel int

	TranscribeTimeoutSec int

	MessageOverrideDir string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:             ":8000",
		GroqTranscriptionModel: "whisper-large-v3",
		LLMProvider:            "groq",
		EngineMoveTimeMillis:   100,
		EngineHashMB:           128,
		EngineThreads:          2,
		DefaultSkillLevel:      5,
		TranscribeTimeoutSec:   12,
	}

	if v := strings.TrimSpace(os.Getenv("LISTEN_ADDR")); v != "" {
		cfg.ListenAddr = v
	}

	cfg.GroqAPIKey = strings.TrimSpace(os.Getenv("GROQ_API_KEY"))
	if v := strings.TrimSpace(os.Getenv("GROQ_TRANSCRIPTION_MODEL")); v != "" {
		cfg.GroqTranscriptionModel = v
	}

	if v := strings.TrimSpace(os.Getenv("LLM_PROVIDER")); v != "" {
		cfg.LLMProvider = strings.ToLower(v)
	}
	cfg.LLMModel = strings.TrimSpace(os.Getenv("LLM_MODEL"))
	cfg.LLMBaseURL = strings.TrimSpace(os.Getenv("LLM_BASE_URL"))
	cfg.OpenAIAPIKey = strings.TrimSpace(os.Getenv("OPENAI_API_KEY"))
	cfg.AnthropicAPIKey = strings.TrimSpace(os.Getenv("ANTHROPIC_API_KEY"))

	cfg.StockfishPath = strings.TrimSpace(os.Getenv("STOCKFISH_PATH"))
	if v := strings.TrimSpace(os.Getenv("ENGINE_MOVE_TIME_MS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EngineMoveTimeMillis = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_HASH_MB")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EngineHashMB = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("ENGINE_THREADS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EngineThreads = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("DEFAULT_SKILL_LEVEL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.DefaultSkillLevel = n
		}
	}

	if v := strings.TrimSpace(os.Getenv("TRANSCRIBE_TIMEOUT_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TranscribeTimeoutSec = n
		}
	}

	cfg.MessageOverrideDir = strings.TrimSpace(os.Getenv("MESSAGE_OVERRIDE_DIR"))

	return cfg, nil
}
