package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type anthropicWireRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	System    []struct {
		Text string `json:"text"`
	} `json:"system"`
	Messages []struct {
		Role    string `json:"role"`
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
	} `json:"messages"`
}

func newTestAnthropicProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := anthropic.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)
	return &AnthropicProvider{client: &client, model: "claude-haiku-4-5-20251001"}
}

func anthropicReply(text, stop string) map[string]any {
	return map[string]any{
		"id":          "msg_test",
		"type":        "message",
		"role":        "assistant",
		"content":     []map[string]any{{"type": "text", "text": text}},
		"model":       "claude-haiku-4-5-20251001",
		"stop_reason": stop,
		"usage":       map[string]any{"input_tokens": 60, "output_tokens": 20},
	}
}

func TestAnthropicProvider_TextReply(t *testing.T) {
	var got anthropicWireRequest
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicReply("你最近在学什么？", "end_turn"))
	})

	resp, err := p.Generate(context.Background(), Request{
		System: "你是一位学习顾问",
		Messages: []Message{
			{Role: RoleAssistant, Content: "你好，我是你的学习顾问。"},
			{Role: RoleUser, Content: "我想学数学"},
			{Role: RoleUser, Content: "尤其是几何"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "你最近在学什么？", resp.Text)
	assert.Nil(t, resp.Content)
	assert.Equal(t, Usage{InputTokens: 60, OutputTokens: 20, TotalTokens: 80}, resp.Usage)
	assert.Equal(t, StopEnd, resp.StopReason)

	assert.Equal(t, DefaultMaxTokens, got.MaxTokens)
	require.Len(t, got.System, 1)
	assert.Equal(t, "你是一位学习顾问", got.System[0].Text)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Equal(t, openingTurn, got.Messages[0].Content[0].Text)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Equal(t, "我想学数学\n\n尤其是几何", got.Messages[2].Content[0].Text)
}

func TestAnthropicProvider_StructuredReply(t *testing.T) {
	schema := &Schema{
		Name: "anthropic-summary",
		Definition: map[string]any{
			"type":       "object",
			"properties": map[string]any{"summary": map[string]any{"type": "string"}},
			"required":   []any{"summary"},
		},
	}
	reply := `{"summary":"目标明确"}`
	stop := "end_turn"
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicReply(reply, stop))
	})
	req := Request{Schema: schema, Messages: []Message{{Role: RoleUser, Content: "总结"}}}

	resp, err := p.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.JSONEq(t, reply, string(resp.Content))

	reply = `{"topic":"几何"}`
	_, err = p.Generate(context.Background(), req)
	var invalid *ErrInvalidResponse
	require.ErrorAs(t, err, &invalid)
	assert.JSONEq(t, reply, string(invalid.Content))

	reply, stop = `{"summary":"目标`, "max_tokens"
	_, err = p.Generate(context.Background(), req)
	var truncated *ErrMaxTokensExceeded
	require.ErrorAs(t, err, &truncated)
	assert.Equal(t, reply, string(truncated.Content))
}

func TestAnthropicProvider_TruncatedTextIsKept(t *testing.T) {
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(anthropicReply("我们先从", "max_tokens"))
	})

	resp, err := p.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "讲讲勾股定理"}}})
	require.NoError(t, err)
	assert.Equal(t, "我们先从", resp.Text)
	assert.Equal(t, StopMaxTokens, resp.StopReason)
}

func TestAnthropicProvider_ErrorMapping(t *testing.T) {
	errorBody := func(status int, header map[string]string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			for k, v := range header {
				w.Header().Set(k, v)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]any{
				"type":  "error",
				"error": map[string]any{"type": "api_error", "message": "nope"},
			})
		}
	}
	req := Request{Messages: []Message{{Role: RoleUser, Content: "test"}}}

	t.Run("rate limit carries retry-after", func(t *testing.T) {
		p := newTestAnthropicProvider(t, errorBody(http.StatusTooManyRequests, map[string]string{"Retry-After": "7"}))
		_, err := p.Generate(context.Background(), req)
		var rl *ErrRateLimit
		require.ErrorAs(t, err, &rl)
		assert.Equal(t, 7*time.Second, rl.RetryAfter)
	})

	t.Run("server error is unavailable", func(t *testing.T) {
		p := newTestAnthropicProvider(t, errorBody(http.StatusInternalServerError, nil))
		_, err := p.Generate(context.Background(), req)
		var unavail *ErrProviderUnavailable
		assert.ErrorAs(t, err, &unavail)
	})

	t.Run("bad key is rejected", func(t *testing.T) {
		p := newTestAnthropicProvider(t, errorBody(http.StatusUnauthorized, nil))
		_, err := p.Generate(context.Background(), req)
		var rejected *ErrRequestRejected
		require.ErrorAs(t, err, &rejected)
		assert.Equal(t, http.StatusUnauthorized, rejected.Status)
		assert.Equal(t, retryNever, classify(err))
	})
}

func TestNewAnthropicProvider(t *testing.T) {
	_, err := NewAnthropicProvider(AnthropicConfig{Model: "claude-haiku"})
	assert.Error(t, err)

	p, err := NewAnthropicProvider(AnthropicConfig{APIKey: "k", Model: "claude-sonnet"})
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-20250514", p.ModelID())
	assert.Equal(t, "anthropic", p.Name())

	p, err = NewAnthropicProvider(AnthropicConfig{APIKey: "k", Model: "claude-opus-4-1"})
	require.NoError(t, err)
	assert.Equal(t, "claude-opus-4-1", p.ModelID())
}
