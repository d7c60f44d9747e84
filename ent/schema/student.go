package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Student holds the learner profile collected at sign-up and refined later.
type Student struct {
	ent.Schema
}

func (Student) Mixin() []ent.Mixin {
	return []ent.Mixin{TimeMixin{}}
}

func (Student) Fields() []ent.Field {
	return []ent.Field{
		field.String("name").
			NotEmpty().
			MaxLen(100),
		field.Int("age").
			Optional().
			Nillable().
			NonNegative(),
		field.String("grade").
			Optional().
			MaxLen(50).
			Comment("Free-form grade label, also used as the material level filter"),
		field.JSON("interests", []string{}).
			Optional(),
		field.Text("background").
			Optional(),
		field.Text("learning_goals").
			Optional(),
		field.String("learning_style").
			Optional().
			MaxLen(50).
			Comment("e.g. 视觉型, 听觉型"),
		field.JSON("knowledge_level", map[string]any{}).
			Optional(),
	}
}

func (Student) Edges() []ent.Edge {
	return []ent.Edge{
		edge.To("conversations", Conversation.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("learning_plans", LearningPlan.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
		edge.To("progress", LearningProgress.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

func (Student) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("name"),
	}
}
