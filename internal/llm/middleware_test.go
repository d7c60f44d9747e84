package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mentor/internal/store"
)

type recordingEventRepo struct {
	store.EventRepo

	mu     sync.Mutex
	events []store.LLMRequestEventData
	err    error
}

func (r *recordingEventRepo) AppendLLMRequest(_ context.Context, data store.LLMRequestEventData) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, data)
	return r.err
}

func TestLogging_RecordsEvent(t *testing.T) {
	repo := &recordingEventRepo{}
	mock := NewMockProvider(MockResponse{Text: "hello", Usage: Usage{InputTokens: 7, OutputTokens: 3}})
	p := WithLogging(mock, repo, zerolog.Nop())

	ctx := WithRequestID(WithPurpose(context.Background(), PurposeAssessment), "req-42")
	resp, err := p.Generate(ctx, Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hi"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Text)

	require.Len(t, repo.events, 1)
	ev := repo.events[0]
	assert.Equal(t, "req-42", ev.RequestID)
	assert.Equal(t, "mock", ev.Provider)
	assert.Equal(t, "mock", ev.Model)
	assert.Equal(t, "assessment", ev.Purpose)
	assert.Equal(t, 7, ev.InputTokens)
	assert.Equal(t, 3, ev.OutputTokens)
	assert.True(t, ev.Success)
	assert.Equal(t, "hello", ev.ResponseBody)
	assert.Contains(t, ev.RequestBody, "[system]\nsys")
	assert.Contains(t, ev.RequestBody, "[user]\nhi")
}

func TestLogging_RecordsFailure(t *testing.T) {
	repo := &recordingEventRepo{}
	mock := NewMockProvider(MockResponse{Err: errors.New("boom")})
	p := WithLogging(mock, repo, zerolog.Nop())

	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)

	require.Len(t, repo.events, 1)
	assert.False(t, repo.events[0].Success)
	assert.Equal(t, "boom", repo.events[0].ErrorMessage)
	assert.NotEmpty(t, repo.events[0].RequestID, "a request id is generated when absent")
}

func TestLogging_AppendFailureDoesNotFailRequest(t *testing.T) {
	repo := &recordingEventRepo{err: errors.New("disk full")}
	mock := NewMockProvider(MockResponse{Text: "ok"})
	p := WithLogging(mock, repo, zerolog.Nop())

	resp, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
}

func TestTimeout_SharesRequestIDAcrossRetries(t *testing.T) {
	repo := &recordingEventRepo{}
	mock := NewMockProvider(
		MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("503")}},
		MockResponse{Text: "ok"},
	)
	p := WithTimeout(WithRetry(WithLogging(mock, repo, zerolog.Nop()), fastRetry(3)), time.Second)

	_, err := p.Generate(context.Background(), Request{})
	require.NoError(t, err)

	require.Len(t, repo.events, 2)
	assert.NotEmpty(t, repo.events[0].RequestID)
	assert.Equal(t, repo.events[0].RequestID, repo.events[1].RequestID)
}

type blockingProvider struct{}

func (blockingProvider) Generate(ctx context.Context, _ Request) (*Response, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (blockingProvider) ModelID() string { return "blocking" }

func TestTimeout_BoundsGeneration(t *testing.T) {
	p := WithTimeout(blockingProvider{}, 20*time.Millisecond)

	_, err := p.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "blocking", p.ModelID())
}

func TestNewProvider_Mock(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "mock"

	p, err := NewProvider(context.Background(), cfg, &recordingEventRepo{})
	require.NoError(t, err)
	assert.Equal(t, "mock", p.ModelID())
}

func TestNewProvider_Unknown(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Provider = "nope"

	_, err := NewProvider(context.Background(), cfg, nil)
	assert.Error(t, err)
}

func TestNewProvider_CompatibleBackends(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DeepSeek.APIKey = "sk-test"
	cfg.Qwen.APIKey = "sk-test"
	cfg.Langchain.APIKey = "sk-test"
	cfg.Anthropic.APIKey = "sk-test"

	tests := []struct {
		provider string
		model    string
	}{
		{"deepseek", "deepseek-chat"},
		{"qwen", "qwen-plus"},
		{"langchain", "gpt-4o-mini"},
		{"claude", "claude-haiku-4-5-20251001"},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			c := cfg
			c.Provider = tt.provider
			p, err := NewProvider(context.Background(), c, &recordingEventRepo{})
			require.NoError(t, err)
			assert.Equal(t, tt.model, p.ModelID())
		})
	}
}

func TestNewProvider_CompatibleBackendName(t *testing.T) {
	base, err := newBaseProvider(context.Background(), Config{
		Provider: "deepseek",
		DeepSeek: OpenAIConfig{APIKey: "sk-test", Model: "deepseek-chat"},
	})
	require.NoError(t, err)
	assert.Equal(t, "deepseek", providerName(base))
}

func TestObserver_CalledOncePerGeneration(t *testing.T) {
	mock := NewMockProvider(MockResponse{Text: "a"}, MockResponse{Err: errors.New("x")})

	var mu sync.Mutex
	var seen []string
	p := &observedProvider{inner: mock, observe: func(purpose string, err error) {
		mu.Lock()
		defer mu.Unlock()
		status := "ok"
		if err != nil {
			status = "error"
		}
		seen = append(seen, purpose+":"+status)
	}}

	ctx := WithPurpose(context.Background(), PurposePlan)
	_, _ = p.Generate(ctx, Request{})
	_, _ = p.Generate(ctx, Request{})

	assert.Equal(t, []string{"plan:ok", "plan:error"}, seen)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("MENTOR_LLM_PROVIDER", "deepseek")
	t.Setenv("MENTOR_DEEPSEEK_API_KEY", "sk-ds")
	t.Setenv("MENTOR_QWEN_MODEL", "qwen-max")
	t.Setenv("MENTOR_LLM_TIMEOUT", "15s")
	t.Setenv("MENTOR_LLM_MAX_ATTEMPTS", "5")

	cfg := ConfigFromEnv()
	assert.Equal(t, "deepseek", cfg.Provider)
	assert.Equal(t, "sk-ds", cfg.DeepSeek.APIKey)
	assert.Equal(t, defaultDeepSeekBaseURL, cfg.DeepSeek.BaseURL)
	assert.Equal(t, "qwen-max", cfg.Qwen.Model)
	assert.Equal(t, 15*time.Second, cfg.Timeout)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.NoError(t, cfg.Validate())
}

func TestConfigFromEnv_IgnoresBadNumbers(t *testing.T) {
	t.Setenv("MENTOR_LLM_TIMEOUT", "soon")
	t.Setenv("MENTOR_LLM_MAX_ATTEMPTS", "-1")

	cfg := ConfigFromEnv()
	assert.Equal(t, DefaultConfig().Timeout, cfg.Timeout)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
}
