package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Conversation is one assessment dialogue between a student and the tutor.
type Conversation struct {
	ent.Schema
}

func (Conversation) Mixin() []ent.Mixin {
	return []ent.Mixin{TimeMixin{}}
}

func (Conversation) Fields() []ent.Field {
	return []ent.Field{
		field.Int("student_id"),
		field.Enum("status").
			Values("active", "planning", "completed", "archived").
			Default("active").
			Comment("Dialogue phase; only moves forward"),
		field.Int("turn_count").
			Default(0).
			NonNegative().
			Comment("Incremented exactly once per continuation"),
		field.Bool("has_learning_plan").
			Default(false),
		field.String("topic").
			Optional().
			MaxLen(200),
		field.Text("summary").
			Optional(),
	}
}

func (Conversation) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("student", Student.Type).
			Ref("conversations").
			Field("student_id").
			Unique().
			Required(),
		edge.To("messages", Message.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

func (Conversation) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("student_id", "created_at"),
		index.Fields("status"),
	}
}
