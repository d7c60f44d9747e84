package llm

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
	StopError     = "error"
)

// openingTurn stands in for the student when a replayed transcript starts
// with the tutor speaking. Anthropic and Gemini reject such histories.
const openingTurn = "（对话开始）"

// normalizeTurns makes a transcript acceptable to providers that require
// strictly alternating roles starting with the user: blank messages are
// dropped and consecutive messages from one speaker are joined.
func normalizeTurns(msgs []Message) []Message {
	out := make([]Message, 0, len(msgs)+1)
	for _, m := range msgs {
		text := strings.TrimSpace(m.Content)
		if text == "" {
			continue
		}
		role := RoleUser
		if m.Role == RoleAssistant {
			role = RoleAssistant
		}
		if len(out) == 0 && role == RoleAssistant {
			out = append(out, Message{Role: RoleUser, Content: openingTurn})
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content += "\n\n" + text
			continue
		}
		out = append(out, Message{Role: role, Content: text})
	}
	return out
}

func maxTokensOr(n, fallback int) int {
	if n > 0 {
		return n
	}
	return fallback
}

// finish turns the text a backend produced into a Response. Schema
// requests get their JSON validated; a truncated structured reply cannot
// be valid and becomes *ErrMaxTokensExceeded. Plain text is returned even
// when truncated.
func finish(req Request, text string, usage Usage, model, stop string) (*Response, error) {
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	resp := &Response{
		Text:       text,
		Usage:      usage,
		Model:      model,
		StopReason: stop,
	}
	if req.Schema == nil {
		return resp, nil
	}

	content := json.RawMessage(bytes.TrimSpace(stripCodeFence([]byte(text))))
	if stop == StopMaxTokens {
		return nil, &ErrMaxTokensExceeded{Content: content}
	}
	if err := validateResponse(req.Schema, content); err != nil {
		return nil, err
	}
	resp.Content = content
	return resp, nil
}
