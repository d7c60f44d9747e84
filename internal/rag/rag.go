// Package rag indexes learning plans, teaching materials and student
// profiles for similarity search.
package rag

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/tmc/langchaingo/textsplitter"

	"github.com/abhisek/mentor/internal/store"
	"github.com/abhisek/mentor/internal/vector"
)

// Namespaces in the vector index.
const (
	NamespacePlans     = "learning_plans"
	NamespaceMaterials = "teaching_materials"
	NamespaceProfiles  = "student_profiles"
)

// Chunking parameters for plans and materials.
const (
	ChunkSize    = 500
	ChunkOverlap = 50
)

// separators split on paragraphs, lines, then CJK and Latin sentence ends.
var separators = []string{"\n\n", "\n", "。", "！", "？", ".", "!", "?", " ", ""}

// PlanHit is a learning plan chunk returned by search.
type PlanHit struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
}

// MaterialHit is a teaching material chunk returned by search.
type MaterialHit struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
}

// SimilarStudent is a peer whose profile resembles the query student's.
type SimilarStudent struct {
	StudentID       int     `json:"student_id"`
	Name            string  `json:"name"`
	Grade           string  `json:"grade"`
	SimilarityScore float64 `json:"similarity_score"`
}

// Service wraps a vector.Index with the domain's document conventions.
type Service struct {
	index    vector.Index
	splitter textsplitter.RecursiveCharacter
	logger   zerolog.Logger
}

// New creates a retrieval service over index.
func New(index vector.Index, logger zerolog.Logger) *Service {
	return &Service{
		index: index,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(ChunkSize),
			textsplitter.WithChunkOverlap(ChunkOverlap),
			textsplitter.WithSeparators(separators),
		),
		logger: logger,
	}
}

// Enabled reports whether a real vector backend is configured.
func (s *Service) Enabled() bool {
	return s.index.Enabled()
}

func (s *Service) split(text string) ([]string, error) {
	chunks, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, fmt.Errorf("split text: %w", err)
	}
	return lo.Filter(chunks, func(c string, _ int) bool { return c != "" }), nil
}

func chunkDocs(prefix string, chunks []string, md map[string]any) []vector.Document {
	return lo.Map(chunks, func(c string, i int) vector.Document {
		return vector.Document{
			ID:       fmt.Sprintf("%s_%d", prefix, i),
			Text:     c,
			Metadata: md,
		}
	})
}

// StoreLearningPlan indexes a plan's text in chunks.
func (s *Service) StoreLearningPlan(ctx context.Context, plan *store.LearningPlan) error {
	chunks, err := s.split(FormatPlan(plan))
	if err != nil {
		return err
	}
	md := map[string]any{
		"student_id": strconv.Itoa(plan.StudentID),
		"plan_id":    strconv.Itoa(plan.ID),
		"type":       "learning_plan",
		"title":      plan.Title,
		"created_at": plan.CreatedAt.UTC().Format(time.RFC3339),
	}
	docs := chunkDocs(fmt.Sprintf("plan_%d", plan.ID), chunks, md)
	if err := s.index.Upsert(ctx, NamespacePlans, docs); err != nil {
		return fmt.Errorf("store learning plan %d: %w", plan.ID, err)
	}
	s.logger.Debug().Int("plan_id", plan.ID).Int("chunks", len(docs)).Msg("indexed learning plan")
	return nil
}

// SearchLearningPlans finds plan chunks similar to query. A zero studentID
// searches every student's plans.
func (s *Service) SearchLearningPlans(ctx context.Context, query string, studentID, k int) ([]PlanHit, error) {
	var filter vector.Filter
	if studentID > 0 {
		filter = vector.Filter{"student_id": strconv.Itoa(studentID)}
	}
	matches, err := s.index.Query(ctx, NamespacePlans, query, k, filter)
	if err != nil {
		return nil, fmt.Errorf("search learning plans: %w", err)
	}
	return lo.Map(matches, func(m vector.Match, _ int) PlanHit {
		return PlanHit{Content: m.Text, Metadata: m.Metadata, Score: m.Score}
	}), nil
}

// StoreTeachingMaterial indexes a material in chunks and returns its id
// and chunk count. An empty id gets a fresh uuid.
func (s *Service) StoreTeachingMaterial(ctx context.Context, id, content string, metadata map[string]string) (string, int, error) {
	if id == "" {
		id = uuid.NewString()
	}
	chunks, err := s.split(content)
	if err != nil {
		return "", 0, err
	}
	md := make(map[string]any, len(metadata)+2)
	for k, v := range metadata {
		md[k] = v
	}
	md["material_id"] = id
	md["type"] = "teaching_material"

	docs := chunkDocs("material_"+id, chunks, md)
	if err := s.index.Upsert(ctx, NamespaceMaterials, docs); err != nil {
		return "", 0, fmt.Errorf("store teaching material %s: %w", id, err)
	}
	return id, len(docs), nil
}

// SearchTeachingMaterials finds material chunks similar to query,
// optionally restricted to a subject and level.
func (s *Service) SearchTeachingMaterials(ctx context.Context, query, subject, level string, k int) ([]MaterialHit, error) {
	filter := vector.Filter{}
	if subject != "" {
		filter["subject"] = subject
	}
	if level != "" {
		filter["level"] = level
	}
	matches, err := s.index.Query(ctx, NamespaceMaterials, query, k, filter)
	if err != nil {
		return nil, fmt.Errorf("search teaching materials: %w", err)
	}
	return lo.Map(matches, func(m vector.Match, _ int) MaterialHit {
		return MaterialHit{Content: m.Text, Metadata: m.Metadata, Score: m.Score}
	}), nil
}

// UpdateStudentProfile replaces the student's profile embedding.
func (s *Service) UpdateStudentProfile(ctx context.Context, st *store.Student) error {
	if err := s.RemoveStudentProfile(ctx, st.ID); err != nil {
		return err
	}
	doc := vector.Document{
		ID:   fmt.Sprintf("profile_%d", st.ID),
		Text: FormatProfile(st),
		Metadata: map[string]any{
			"student_id": strconv.Itoa(st.ID),
			"type":       "student_profile",
			"name":       st.Name,
			"grade":      st.Grade,
			"updated_at": st.UpdatedAt.UTC().Format(time.RFC3339),
		},
	}
	if err := s.index.Upsert(ctx, NamespaceProfiles, []vector.Document{doc}); err != nil {
		return fmt.Errorf("store student profile %d: %w", st.ID, err)
	}
	return nil
}

// RemoveStudentProfile deletes the student's profile embedding.
func (s *Service) RemoveStudentProfile(ctx context.Context, studentID int) error {
	err := s.index.DeleteByFilter(ctx, NamespaceProfiles, vector.Filter{"student_id": strconv.Itoa(studentID)})
	if err != nil {
		return fmt.Errorf("remove student profile %d: %w", studentID, err)
	}
	return nil
}

// FindSimilarStudents returns up to k other students whose profiles are
// closest to st's, best first.
func (s *Service) FindSimilarStudents(ctx context.Context, st *store.Student, k int) ([]SimilarStudent, error) {
	if k <= 0 {
		return []SimilarStudent{}, nil
	}
	matches, err := s.index.Query(ctx, NamespaceProfiles, FormatProfile(st), k+1, nil)
	if err != nil {
		return nil, fmt.Errorf("find similar students: %w", err)
	}

	self := strconv.Itoa(st.ID)
	similar := make([]SimilarStudent, 0, k)
	for _, m := range matches {
		sid := fmt.Sprint(m.Metadata["student_id"])
		if sid == self {
			continue
		}
		id, err := strconv.Atoi(sid)
		if err != nil {
			s.logger.Warn().Str("vector_id", m.ID).Msg("profile vector without a numeric student_id")
			continue
		}
		name, _ := m.Metadata["name"].(string)
		grade, _ := m.Metadata["grade"].(string)
		similar = append(similar, SimilarStudent{
			StudentID:       id,
			Name:            name,
			Grade:           grade,
			SimilarityScore: m.Score,
		})
		if len(similar) >= k {
			break
		}
	}
	return similar, nil
}
