package llm

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/abhisek/mentor/internal/store"
)

// Observer is told about every finished generation, after retries.
type Observer func(purpose string, err error)

type factoryOptions struct {
	logger   zerolog.Logger
	observer Observer
}

// Option customises NewProvider.
type Option func(*factoryOptions)

// WithLogger sets the logger used by the middleware.
func WithLogger(l zerolog.Logger) Option {
	return func(o *factoryOptions) { o.logger = l }
}

// WithObserver registers a callback invoked once per generation.
func WithObserver(fn Observer) Option {
	return func(o *factoryOptions) { o.observer = fn }
}

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with timeout, retry and logging
// middleware.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, opts ...Option) (Provider, error) {
	o := factoryOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	base, err := newBaseProvider(ctx, cfg)
	if err != nil {
		return nil, err
	}

	// Wrap with middleware: caller → timeout → observe → retry → logging → base
	var p Provider = base
	if eventRepo != nil {
		p = WithLogging(p, eventRepo, o.logger)
	}
	if cfg.Retry.MaxAttempts > 0 {
		p = withRetryLogger(p, cfg.Retry, o.logger)
	}
	if o.observer != nil {
		p = &observedProvider{inner: p, observe: o.observer}
	}
	return WithTimeout(p, cfg.Timeout), nil
}

func newBaseProvider(ctx context.Context, cfg Config) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case "anthropic", "claude":
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case "openai":
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case "deepseek":
		base, err = newOpenAICompatible("deepseek", withBaseURL(cfg.DeepSeek, defaultDeepSeekBaseURL))
	case "qwen":
		base, err = newOpenAICompatible("qwen", withBaseURL(cfg.Qwen, defaultQwenBaseURL))
	case "gemini":
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case "openrouter":
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case "langchain":
		base, err = NewLangchainProvider(cfg.Langchain)
	case "mock":
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}
	return base, nil
}

func withBaseURL(cfg OpenAIConfig, fallback string) OpenAIConfig {
	if cfg.BaseURL == "" {
		cfg.BaseURL = fallback
	}
	return cfg
}

// observedProvider reports the outcome of each generation to an Observer.
type observedProvider struct {
	inner   Provider
	observe Observer
}

func (o *observedProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	resp, err := o.inner.Generate(ctx, req)
	o.observe(PurposeFrom(ctx), err)
	return resp, err
}

func (o *observedProvider) ModelID() string {
	return o.inner.ModelID()
}
