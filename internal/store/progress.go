package store

import (
	"context"
	"fmt"

	"github.com/abhisek/mentor/ent"
	"github.com/abhisek/mentor/ent/learningprogress"
)

type progressRepo struct {
	client *ent.Client
}

func (r *progressRepo) Latest(ctx context.Context, studentID, planID int) (*LearningProgress, error) {
	row, err := r.client.LearningProgress.Query().
		Where(
			learningprogress.StudentID(studentID),
			learningprogress.LearningPlanID(planID),
		).
		Order(ent.Desc(learningprogress.FieldCreatedAt), ent.Desc(learningprogress.FieldID)).
		First(ctx)
	if err != nil {
		return nil, wrap(fmt.Sprintf("latest progress for plan %d", planID), err)
	}
	return entProgressToProgress(row), nil
}

func (r *progressRepo) ListByStudent(ctx context.Context, studentID int) ([]*LearningProgress, error) {
	rows, err := r.client.LearningProgress.Query().
		Where(learningprogress.StudentID(studentID)).
		Order(ent.Asc(learningprogress.FieldID)).
		All(ctx)
	if err != nil {
		return nil, wrap("list progress", err)
	}

	out := make([]*LearningProgress, 0, len(rows))
	for _, row := range rows {
		out = append(out, entProgressToProgress(row))
	}
	return out, nil
}

func (r *progressRepo) Save(ctx context.Context, p *LearningProgress) (*LearningProgress, error) {
	var mastery *int
	if p.MasteryLevel > 0 {
		m := p.MasteryLevel
		mastery = &m
	}

	if p.ID == 0 {
		row, err := r.client.LearningProgress.Create().
			SetStudentID(p.StudentID).
			SetLearningPlanID(p.LearningPlanID).
			SetCurrentModule(p.CurrentModule).
			SetProgressPercentage(p.ProgressPercentage).
			SetNotes(p.Notes).
			SetChallenges(nonNilStrings(p.Challenges)).
			SetNillableMasteryLevel(mastery).
			SetStudyDurationMinutes(p.StudyDurationMinutes).
			Save(ctx)
		if err != nil {
			return nil, wrap("create progress", err)
		}
		return entProgressToProgress(row), nil
	}

	upd := r.client.LearningProgress.UpdateOneID(p.ID).
		SetCurrentModule(p.CurrentModule).
		SetProgressPercentage(p.ProgressPercentage).
		SetNotes(p.Notes).
		SetChallenges(nonNilStrings(p.Challenges)).
		SetStudyDurationMinutes(p.StudyDurationMinutes)
	if mastery != nil {
		upd.SetMasteryLevel(*mastery)
	} else {
		upd.ClearMasteryLevel()
	}

	row, err := upd.Save(ctx)
	if err != nil {
		return nil, wrap(fmt.Sprintf("update progress %d", p.ID), err)
	}
	return entProgressToProgress(row), nil
}

func entProgressToProgress(p *ent.LearningProgress) *LearningProgress {
	out := &LearningProgress{
		ID:                   p.ID,
		StudentID:            p.StudentID,
		LearningPlanID:       p.LearningPlanID,
		CurrentModule:        p.CurrentModule,
		ProgressPercentage:   p.ProgressPercentage,
		Notes:                p.Notes,
		Challenges:           nonNilStrings(p.Challenges),
		StudyDurationMinutes: p.StudyDurationMinutes,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
	if p.MasteryLevel != nil {
		out.MasteryLevel = *p.MasteryLevel
	}
	return out
}
