package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// LLMRequestEvent is an append-only record of one provider call, kept for
// cost reporting and for replaying prompts with `mentor llm view`.
type LLMRequestEvent struct {
	ent.Schema
}

func (LLMRequestEvent) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("sequence").
			Unique().
			Immutable().
			Comment("Global append order, assigned from the sequence counter"),
		field.Time("timestamp").
			Default(time.Now).
			Immutable(),
		field.String("request_id").
			Default("").
			Comment("Shared by every attempt of one logical generation"),
		field.String("provider").
			Comment("anthropic, openai, deepseek, qwen, gemini, openrouter, langchain or mock"),
		field.String("model"),
		field.String("purpose").
			Comment("assessment, plan, teaching or summary"),
		field.Int("input_tokens").
			Default(0),
		field.Int("output_tokens").
			Default(0),
		field.Int64("latency_ms").
			Default(0),
		field.Bool("success"),
		field.String("error_message").
			Default(""),
		field.Text("request_body").
			Default("").
			Comment("System prompt, transcript and schema as rendered for logging"),
		field.Text("response_body").
			Default(""),
	}
}

func (LLMRequestEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("sequence"),
		index.Fields("timestamp"),
		index.Fields("purpose"),
		index.Fields("success"),
		index.Fields("request_id"),
	}
}
