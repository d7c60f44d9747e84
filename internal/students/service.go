// Package students manages learner profiles and keeps their similarity
// embeddings in step with the relational record.
package students

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/abhisek/mentor/internal/rag"
	"github.com/abhisek/mentor/internal/store"
)

// Paging and similarity limits.
const (
	DefaultLimit = 10
	MaxLimit     = 100

	DefaultSimilarK = 3
	MaxSimilarK     = 10
)

// ProfileIndex is the subset of the retrieval service that tracks profile
// embeddings.
type ProfileIndex interface {
	UpdateStudentProfile(ctx context.Context, st *store.Student) error
	RemoveStudentProfile(ctx context.Context, studentID int) error
	FindSimilarStudents(ctx context.Context, st *store.Student, k int) ([]rag.SimilarStudent, error)
}

// Page is one page of a student listing.
type Page struct {
	Students []*store.Student `json:"students"`
	Total    int              `json:"total"`
	Skip     int              `json:"skip"`
	Limit    int              `json:"limit"`
}

// Service wraps the student repository.
type Service struct {
	repos  store.Repos
	index  ProfileIndex
	logger zerolog.Logger
}

// NewService creates a student service. Profile embedding failures are
// logged and never fail the write that triggered them.
func NewService(repos store.Repos, index ProfileIndex, logger zerolog.Logger) *Service {
	return &Service{repos: repos, index: index, logger: logger}
}

func (s *Service) Create(ctx context.Context, st *store.Student) (*store.Student, error) {
	if strings.TrimSpace(st.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", store.ErrInvalid)
	}
	if st.Age != nil && *st.Age < 0 {
		return nil, fmt.Errorf("%w: age must not be negative", store.ErrInvalid)
	}

	created, err := s.repos.Students().Create(ctx, st)
	if err != nil {
		return nil, err
	}
	s.refreshProfile(ctx, created)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int) (*store.Student, error) {
	return s.repos.Students().Get(ctx, id)
}

// List returns a page ordered by id. A zero limit selects DefaultLimit.
func (s *Service) List(ctx context.Context, skip, limit int) (*Page, error) {
	if limit == 0 {
		limit = DefaultLimit
	}
	if skip < 0 {
		return nil, fmt.Errorf("%w: skip must be >= 0", store.ErrInvalid)
	}
	if limit < 1 || limit > MaxLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", store.ErrInvalid, MaxLimit)
	}

	rows, total, err := s.repos.Students().List(ctx, skip, limit)
	if err != nil {
		return nil, err
	}
	return &Page{Students: rows, Total: total, Skip: skip, Limit: limit}, nil
}

// Update applies a partial update and refreshes the profile embedding.
func (s *Service) Update(ctx context.Context, id int, u store.StudentUpdate) (*store.Student, error) {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return nil, fmt.Errorf("%w: name must not be empty", store.ErrInvalid)
	}
	if u.Age != nil && *u.Age < 0 {
		return nil, fmt.Errorf("%w: age must not be negative", store.ErrInvalid)
	}

	updated, err := s.repos.Students().Update(ctx, id, u)
	if err != nil {
		return nil, err
	}
	s.refreshProfile(ctx, updated)
	return updated, nil
}

// Delete removes the student with their conversations, plans and progress.
func (s *Service) Delete(ctx context.Context, id int) error {
	if err := s.repos.Students().Delete(ctx, id); err != nil {
		return err
	}
	if s.index != nil {
		if err := s.index.RemoveStudentProfile(ctx, id); err != nil {
			s.logger.Warn().Err(err).Int("student_id", id).Msg("remove student profile")
		}
	}
	return nil
}

// Similar returns up to k students with the closest profiles. A zero k
// selects DefaultSimilarK.
func (s *Service) Similar(ctx context.Context, id, k int) ([]rag.SimilarStudent, error) {
	if k == 0 {
		k = DefaultSimilarK
	}
	if k < 1 || k > MaxSimilarK {
		return nil, fmt.Errorf("%w: k must be between 1 and %d", store.ErrInvalid, MaxSimilarK)
	}

	st, err := s.repos.Students().Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.index == nil {
		return []rag.SimilarStudent{}, nil
	}
	return s.index.FindSimilarStudents(ctx, st, k)
}

// Plans lists the student's learning plans, newest first.
func (s *Service) Plans(ctx context.Context, id int) ([]*store.LearningPlan, error) {
	if _, err := s.repos.Students().Get(ctx, id); err != nil {
		return nil, err
	}
	return s.repos.Plans().ListByStudent(ctx, id)
}

func (s *Service) refreshProfile(ctx context.Context, st *store.Student) {
	if s.index == nil {
		return
	}
	if err := s.index.UpdateStudentProfile(ctx, st); err != nil {
		s.logger.Warn().Err(err).Int("student_id", st.ID).Msg("update student profile")
	}
}
