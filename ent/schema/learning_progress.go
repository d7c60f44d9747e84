package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// LearningProgress tracks how far a student is through a plan.
type LearningProgress struct {
	ent.Schema
}

func (LearningProgress) Mixin() []ent.Mixin {
	return []ent.Mixin{TimeMixin{}}
}

func (LearningProgress) Fields() []ent.Field {
	return []ent.Field{
		field.Int("student_id"),
		field.Int("learning_plan_id"),
		field.String("current_module").
			Optional().
			MaxLen(200),
		field.Float("progress_percentage").
			Default(0).
			Range(0, 100),
		field.Text("notes").
			Optional(),
		field.JSON("challenges", []string{}).
			Optional(),
		field.Int("mastery_level").
			Optional().
			Nillable().
			Range(1, 5),
		field.Int("study_duration_minutes").
			Default(0).
			NonNegative(),
	}
}

func (LearningProgress) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("student", Student.Type).
			Ref("progress").
			Field("student_id").
			Unique().
			Required(),
		edge.From("learning_plan", LearningPlan.Type).
			Ref("progress").
			Field("learning_plan_id").
			Unique().
			Required(),
	}
}

func (LearningProgress) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("student_id", "learning_plan_id"),
	}
}
