package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/dialect/entsql"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// LearningPlan is a generated, personalised study plan.
type LearningPlan struct {
	ent.Schema
}

func (LearningPlan) Mixin() []ent.Mixin {
	return []ent.Mixin{TimeMixin{}}
}

func (LearningPlan) Fields() []ent.Field {
	return []ent.Field{
		field.Int("student_id"),
		field.String("title").
			NotEmpty().
			MaxLen(200),
		field.Text("description").
			Optional(),
		field.JSON("objectives", []string{}).
			Optional(),
		field.JSON("content", map[string]any{}).
			Optional().
			Comment("Stages, resources and assessment as returned by the model"),
		field.Int("estimated_days").
			Default(30).
			Positive(),
		field.Int("difficulty_level").
			Default(3).
			Range(1, 5),
		field.Bool("is_active").
			Default(true),
		field.Bool("is_completed").
			Default(false),
		field.Time("completed_at").
			Optional().
			Nillable(),
	}
}

func (LearningPlan) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("student", Student.Type).
			Ref("learning_plans").
			Field("student_id").
			Unique().
			Required(),
		edge.To("progress", LearningProgress.Type).
			Annotations(entsql.OnDelete(entsql.Cascade)),
	}
}

func (LearningPlan) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("student_id", "is_active"),
	}
}
