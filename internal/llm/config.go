package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Default endpoints for OpenAI-compatible providers.
const (
	defaultDeepSeekBaseURL = "https://api.deepseek.com/v1"
	defaultQwenBaseURL     = "https://dashscope.aliyuncs.com/compatible-mode/v1"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "anthropic" (alias "claude"), "openai", "deepseek", "qwen",
	// "gemini", "openrouter", "langchain", "mock"
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	DeepSeek   OpenAIConfig
	Qwen       OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Langchain  LangchainConfig
	Retry      RetryConfig

	// Timeout is the maximum duration for a single LLM request
	// (including retries). Default: 60s.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// OpenAIConfig holds configuration for OpenAI and OpenAI-compatible APIs.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for compatible APIs.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.0-flash-exp"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// LangchainConfig configures the langchaingo-backed provider.
type LangchainConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: "anthropic",
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		DeepSeek: OpenAIConfig{
			Model:   "deepseek-chat",
			BaseURL: defaultDeepSeekBaseURL,
		},
		Qwen: OpenAIConfig{
			Model:   "qwen-plus",
			BaseURL: defaultQwenBaseURL,
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.0-flash-exp",
		},
		Langchain: LangchainConfig{
			Model: "gpt-4o-mini",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from environment variables, falling back
// to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	setString(&cfg.Provider, "MENTOR_LLM_PROVIDER")

	setString(&cfg.Anthropic.APIKey, "MENTOR_ANTHROPIC_API_KEY")
	setString(&cfg.Anthropic.Model, "MENTOR_ANTHROPIC_MODEL")

	setString(&cfg.OpenAI.APIKey, "MENTOR_OPENAI_API_KEY")
	setString(&cfg.OpenAI.Model, "MENTOR_OPENAI_MODEL")
	setString(&cfg.OpenAI.BaseURL, "MENTOR_OPENAI_BASE_URL")

	setString(&cfg.DeepSeek.APIKey, "MENTOR_DEEPSEEK_API_KEY")
	setString(&cfg.DeepSeek.Model, "MENTOR_DEEPSEEK_MODEL")
	setString(&cfg.DeepSeek.BaseURL, "MENTOR_DEEPSEEK_BASE_URL")

	setString(&cfg.Qwen.APIKey, "MENTOR_QWEN_API_KEY")
	setString(&cfg.Qwen.Model, "MENTOR_QWEN_MODEL")
	setString(&cfg.Qwen.BaseURL, "MENTOR_QWEN_BASE_URL")

	setString(&cfg.Gemini.APIKey, "MENTOR_GEMINI_API_KEY")
	setString(&cfg.Gemini.Model, "MENTOR_GEMINI_MODEL")

	setString(&cfg.OpenRouter.APIKey, "MENTOR_OPENROUTER_API_KEY")
	setString(&cfg.OpenRouter.Model, "MENTOR_OPENROUTER_MODEL")

	setString(&cfg.Langchain.APIKey, "MENTOR_LANGCHAIN_API_KEY")
	setString(&cfg.Langchain.Model, "MENTOR_LANGCHAIN_MODEL")
	setString(&cfg.Langchain.BaseURL, "MENTOR_LANGCHAIN_BASE_URL")

	if v := os.Getenv("MENTOR_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	if v := os.Getenv("MENTOR_LLM_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Retry.MaxAttempts = n
		}
	}

	return cfg
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// DiscoverConfig probes standard API key env vars in priority order
// (Gemini → OpenAI → Anthropic → OpenRouter → DeepSeek) and returns a
// Config for the first provider whose key is found. Returns
// (Config{}, false) if none found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = "gemini"
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = "openai"
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = "anthropic"
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = "openrouter"
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("DEEPSEEK_API_KEY"); k != "" {
		cfg.Provider = "deepseek"
		cfg.DeepSeek.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case "anthropic", "claude":
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("MENTOR_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case "openai":
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("MENTOR_OPENAI_API_KEY is required for the openai provider")
		}
	case "deepseek":
		if c.DeepSeek.APIKey == "" {
			return fmt.Errorf("MENTOR_DEEPSEEK_API_KEY is required for the deepseek provider")
		}
	case "qwen":
		if c.Qwen.APIKey == "" {
			return fmt.Errorf("MENTOR_QWEN_API_KEY is required for the qwen provider")
		}
	case "gemini":
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("MENTOR_GEMINI_API_KEY is required for the gemini provider")
		}
	case "openrouter":
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("MENTOR_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case "langchain":
		if c.Langchain.APIKey == "" {
			return fmt.Errorf("MENTOR_LANGCHAIN_API_KEY is required for the langchain provider")
		}
	case "mock":
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
