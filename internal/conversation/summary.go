package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/mentor/internal/llm"
	"github.com/abhisek/mentor/internal/store"
	"github.com/abhisek/mentor/internal/tutor"
)

// maxTranscriptRunes bounds the transcript sent for compression. Older
// turns are dropped first.
const maxTranscriptRunes = 8000

const summaryTimeout = 60 * time.Second

// SummaryConfig holds settings for transcript compression.
type SummaryConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultSummaryConfig returns the compression settings used by the server.
func DefaultSummaryConfig() SummaryConfig {
	return SummaryConfig{
		MaxTokens:   512,
		Temperature: 0.3,
	}
}

// WithSummaries compresses a conversation's transcript into its summary
// once a plan has been generated. Compression runs in the background;
// Close waits for it.
func WithSummaries(cfg SummaryConfig) Option {
	return func(s *Service) { s.summaries = &cfg }
}

// SummarySchema constrains the compression response.
var SummarySchema = &llm.Schema{
	Name:        "conversation-summary",
	Description: "A compressed summary of an assessment conversation",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "2-4 sentences covering goals, background, level, available time and the agreed plan",
			},
		},
		"required":             []any{"summary"},
		"additionalProperties": false,
	},
}

const summarySystemPrompt = `你是一位教育顾问助手。请把下面这段学习评估对话压缩成简短的摘要（2到4句话），
说明学生的学习目标、学习背景、当前水平、可用学习时间，以及最终确定的学习计划方向。
只陈述对话中出现过的信息，不要编造。`

type summaryOutput struct {
	Summary string `json:"summary"`
}

// Close waits for background summaries to finish.
func (s *Service) Close() {
	s.pending.Wait()
}

func (s *Service) summarizeAsync(ctx context.Context, conversationID int) {
	if s.summaries == nil {
		return
	}
	cfg := *s.summaries

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), summaryTimeout)
		defer cancel()

		if err := s.summarize(ctx, conversationID, cfg); err != nil {
			s.zlog.Warn().Err(err).Int("conversation_id", conversationID).Msg("conversation summary failed")
			return
		}
		s.zlog.Debug().Int("conversation_id", conversationID).Msg("conversation summarized")
	}()
}

func (s *Service) summarize(ctx context.Context, conversationID int, cfg SummaryConfig) error {
	msgs, err := s.repos.Conversations().Messages(ctx, conversationID)
	if err != nil {
		return fmt.Errorf("load transcript: %w", err)
	}
	if len(msgs) == 0 {
		return nil
	}

	resp, err := s.provider.Generate(llm.WithPurpose(ctx, llm.PurposeSummary), llm.Request{
		System: summarySystemPrompt,
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: buildTranscript(msgs)},
		},
		Schema:      SummarySchema,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return fmt.Errorf("summary generation: %w", err)
	}

	var out summaryOutput
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return fmt.Errorf("parse summary response: %w", err)
	}
	summary := strings.TrimSpace(out.Summary)
	if summary == "" {
		return errors.New("empty summary")
	}

	return s.repos.Conversations().SetSummary(ctx, conversationID, summary)
}

// buildTranscript renders messages as speaker-prefixed lines, keeping the
// most recent maxTranscriptRunes runes.
func buildTranscript(msgs []*store.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		speaker := "老师"
		if m.Role == tutor.RoleUser {
			speaker = "学生"
		}
		fmt.Fprintf(&b, "%s：%s\n", speaker, strings.TrimSpace(m.Content))
	}

	r := []rune(b.String())
	if len(r) > maxTranscriptRunes {
		r = r[len(r)-maxTranscriptRunes:]
	}
	return string(r)
}
