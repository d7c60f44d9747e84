package store

import (
	"context"
	"fmt"

	"github.com/abhisek/mentor/ent"
	"github.com/abhisek/mentor/ent/student"
)

type studentRepo struct {
	client *ent.Client
}

func (r *studentRepo) Create(ctx context.Context, s *Student) (*Student, error) {
	row, err := r.client.Student.Create().
		SetName(s.Name).
		SetNillableAge(s.Age).
		SetGrade(s.Grade).
		SetInterests(nonNilStrings(s.Interests)).
		SetBackground(s.Background).
		SetLearningGoals(s.LearningGoals).
		SetLearningStyle(s.LearningStyle).
		SetKnowledgeLevel(nonNilMap(s.KnowledgeLevel)).
		Save(ctx)
	if err != nil {
		return nil, wrap("create student", err)
	}
	return entStudentToStudent(row), nil
}

func (r *studentRepo) Get(ctx context.Context, id int) (*Student, error) {
	row, err := r.client.Student.Get(ctx, id)
	if err != nil {
		return nil, wrap(fmt.Sprintf("get student %d", id), err)
	}
	return entStudentToStudent(row), nil
}

func (r *studentRepo) List(ctx context.Context, skip, limit int) ([]*Student, int, error) {
	total, err := r.client.Student.Query().Count(ctx)
	if err != nil {
		return nil, 0, wrap("count students", err)
	}

	rows, err := r.client.Student.Query().
		Order(ent.Asc(student.FieldID)).
		Offset(skip).
		Limit(limit).
		All(ctx)
	if err != nil {
		return nil, 0, wrap("list students", err)
	}
	return mapStudents(rows), total, nil
}

func (r *studentRepo) All(ctx context.Context) ([]*Student, error) {
	rows, err := r.client.Student.Query().
		Order(ent.Asc(student.FieldID)).
		All(ctx)
	if err != nil {
		return nil, wrap("list students", err)
	}
	return mapStudents(rows), nil
}

func (r *studentRepo) Update(ctx context.Context, id int, u StudentUpdate) (*Student, error) {
	upd := r.client.Student.UpdateOneID(id)
	if u.Name != nil {
		upd.SetName(*u.Name)
	}
	if u.Age != nil {
		upd.SetAge(*u.Age)
	}
	if u.Grade != nil {
		upd.SetGrade(*u.Grade)
	}
	if u.Interests != nil {
		upd.SetInterests(u.Interests)
	}
	if u.Background != nil {
		upd.SetBackground(*u.Background)
	}
	if u.LearningGoals != nil {
		upd.SetLearningGoals(*u.LearningGoals)
	}
	if u.LearningStyle != nil {
		upd.SetLearningStyle(*u.LearningStyle)
	}
	if u.KnowledgeLevel != nil {
		upd.SetKnowledgeLevel(u.KnowledgeLevel)
	}

	row, err := upd.Save(ctx)
	if err != nil {
		return nil, wrap(fmt.Sprintf("update student %d", id), err)
	}
	return entStudentToStudent(row), nil
}

func (r *studentRepo) Delete(ctx context.Context, id int) error {
	if err := r.client.Student.DeleteOneID(id).Exec(ctx); err != nil {
		return wrap(fmt.Sprintf("delete student %d", id), err)
	}
	return nil
}

func mapStudents(rows []*ent.Student) []*Student {
	out := make([]*Student, 0, len(rows))
	for _, row := range rows {
		out = append(out, entStudentToStudent(row))
	}
	return out
}

func entStudentToStudent(s *ent.Student) *Student {
	return &Student{
		ID:             s.ID,
		Name:           s.Name,
		Age:            s.Age,
		Grade:          s.Grade,
		Interests:      nonNilStrings(s.Interests),
		Background:     s.Background,
		LearningGoals:  s.LearningGoals,
		LearningStyle:  s.LearningStyle,
		KnowledgeLevel: nonNilMap(s.KnowledgeLevel),
		CreatedAt:      s.CreatedAt,
		UpdatedAt:      s.UpdatedAt,
	}
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilMap(v map[string]any) map[string]any {
	if v == nil {
		return map[string]any{}
	}
	return v
}
