package store

import (
	"context"
	"fmt"

	"github.com/abhisek/mentor/ent"
	"github.com/abhisek/mentor/ent/learningplan"
)

type planRepo struct {
	client *ent.Client
}

// Create stores a new active plan. Zero EstimatedDays and DifficultyLevel
// fall back to the schema defaults.
func (r *planRepo) Create(ctx context.Context, p *LearningPlan) (*LearningPlan, error) {
	create := r.client.LearningPlan.Create().
		SetStudentID(p.StudentID).
		SetTitle(p.Title).
		SetDescription(p.Description).
		SetObjectives(nonNilStrings(p.Objectives)).
		SetContent(nonNilMap(p.Content)).
		SetIsActive(true)
	if p.EstimatedDays > 0 {
		create.SetEstimatedDays(p.EstimatedDays)
	}
	if p.DifficultyLevel != 0 {
		create.SetDifficultyLevel(p.DifficultyLevel)
	}

	row, err := create.Save(ctx)
	if err != nil {
		return nil, wrap("create learning plan", err)
	}
	return entPlanToPlan(row), nil
}

func (r *planRepo) Get(ctx context.Context, id int) (*LearningPlan, error) {
	row, err := r.client.LearningPlan.Get(ctx, id)
	if err != nil {
		return nil, wrap(fmt.Sprintf("get learning plan %d", id), err)
	}
	return entPlanToPlan(row), nil
}

func (r *planRepo) ListByStudent(ctx context.Context, studentID int) ([]*LearningPlan, error) {
	rows, err := r.client.LearningPlan.Query().
		Where(learningplan.StudentID(studentID)).
		Order(ent.Desc(learningplan.FieldCreatedAt), ent.Desc(learningplan.FieldID)).
		All(ctx)
	if err != nil {
		return nil, wrap("list learning plans", err)
	}

	out := make([]*LearningPlan, 0, len(rows))
	for _, row := range rows {
		out = append(out, entPlanToPlan(row))
	}
	return out, nil
}

func (r *planRepo) Active(ctx context.Context, studentID int) (*LearningPlan, error) {
	row, err := r.client.LearningPlan.Query().
		Where(
			learningplan.StudentID(studentID),
			learningplan.IsActive(true),
		).
		Order(ent.Desc(learningplan.FieldCreatedAt), ent.Desc(learningplan.FieldID)).
		First(ctx)
	if err != nil {
		return nil, wrap(fmt.Sprintf("active plan for student %d", studentID), err)
	}
	return entPlanToPlan(row), nil
}

func entPlanToPlan(p *ent.LearningPlan) *LearningPlan {
	return &LearningPlan{
		ID:              p.ID,
		StudentID:       p.StudentID,
		Title:           p.Title,
		Description:     p.Description,
		Objectives:      nonNilStrings(p.Objectives),
		Content:         nonNilMap(p.Content),
		EstimatedDays:   p.EstimatedDays,
		DifficultyLevel: p.DifficultyLevel,
		IsActive:        p.IsActive,
		IsCompleted:     p.IsCompleted,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
		CompletedAt:     p.CompletedAt,
	}
}
