// Package teaching runs Socratic teaching sessions that adapt to each
// student reply and track progress against the active learning plan.
package teaching

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/abhisek/mentor/internal/llm"
	"github.com/abhisek/mentor/internal/metrics"
	"github.com/abhisek/mentor/internal/rag"
	"github.com/abhisek/mentor/internal/store"
	"github.com/abhisek/mentor/internal/tutor"
)

// Retrieval constants.
const (
	materialsK = 3
	peersK     = 3

	objectivesShown = 3
	materialsShown  = 2

	progressStep = 10.0
)

const sessionPrefix = "teach"

// Retriever is the subset of the retrieval service teaching depends on.
type Retriever interface {
	SearchTeachingMaterials(ctx context.Context, query, subject, level string, k int) ([]rag.MaterialHit, error)
	FindSimilarStudents(ctx context.Context, st *store.Student, k int) ([]rag.SimilarStudent, error)
}

// Config holds generation settings for teaching turns.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the settings used for teaching turns.
func DefaultConfig() Config {
	return Config{MaxTokens: 2000, Temperature: 0.7}
}

// Service runs teaching sessions.
type Service struct {
	repos     store.Transactor
	provider  llm.Provider
	retriever Retriever
	rules     tutor.Rules
	cfg       Config
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithConfig overrides the generation settings.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// WithMetrics records selected strategies.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a teaching service.
func NewService(repos store.Transactor, provider llm.Provider, retriever Retriever, rules tutor.Rules, opts ...Option) *Service {
	s := &Service{
		repos:     repos,
		provider:  provider,
		retriever: retriever,
		rules:     rules,
		cfg:       DefaultConfig(),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SessionID encodes the student and topic of a teaching session.
func SessionID(studentID int, topic string) string {
	return fmt.Sprintf("%s_%d_%s", sessionPrefix, studentID, topic)
}

// ParseSessionID reverses SessionID. Topics may contain underscores.
func ParseSessionID(id string) (int, string, error) {
	parts := strings.SplitN(id, "_", 3)
	if len(parts) != 3 || parts[0] != sessionPrefix || parts[2] == "" {
		return 0, "", fmt.Errorf("%w: malformed session id %q", store.ErrInvalid, id)
	}
	studentID, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, "", fmt.Errorf("%w: malformed session id %q", store.ErrInvalid, id)
	}
	return studentID, parts[2], nil
}

// Start opens a teaching session on topic. A plan that does not belong to
// the student is ignored.
func (s *Service) Start(ctx context.Context, studentID int, topic string, planID int) (*Session, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("%w: topic is required", store.ErrInvalid)
	}

	st, err := s.repos.Students().Get(ctx, studentID)
	if err != nil {
		return nil, err
	}

	var plan *store.LearningPlan
	if planID > 0 {
		p, err := s.repos.Plans().Get(ctx, planID)
		switch {
		case err == nil && p.StudentID == studentID:
			plan = p
		case err != nil && !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
	}

	materials := s.searchMaterials(ctx, topic, st.Grade)

	var progress *store.LearningProgress
	if plan != nil {
		p, err := s.repos.Progress().Latest(ctx, studentID, plan.ID)
		switch {
		case err == nil:
			progress = p
		case !errors.Is(err, store.ErrNotFound):
			return nil, err
		}
	}

	tc := buildContext(st, topic, plan, progress, materials)

	resp, err := s.provider.Generate(llm.WithPurpose(ctx, llm.PurposeTeaching), llm.Request{
		System:      buildTeachingPrompt(topic, st.Grade, st.LearningStyle, tc.PreviousLearning),
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: openingMessage(topic)}},
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, &tutor.GenerationError{Op: "teaching start", Err: err}
	}

	s.logger.Info().
		Int("student_id", studentID).
		Str("topic", topic).
		Int("materials", len(materials)).
		Msg("teaching session started")

	return &Session{
		SessionID:     SessionID(studentID, topic),
		Response:      resp.Text,
		Context:       tc,
		MaterialsUsed: len(materials),
	}, nil
}

func (s *Service) searchMaterials(ctx context.Context, topic, level string) []rag.MaterialHit {
	if s.retriever == nil {
		return nil
	}
	hits, err := s.retriever.SearchTeachingMaterials(ctx, topic, "", level, materialsK)
	if err != nil {
		s.logger.Warn().Err(err).Str("topic", topic).Msg("search teaching materials")
		return nil
	}
	return hits
}

func buildContext(st *store.Student, topic string, plan *store.LearningPlan, progress *store.LearningProgress, materials []rag.MaterialHit) Context {
	tc := Context{
		StudentName:   st.Name,
		StudentLevel:  st.Grade,
		LearningStyle: st.LearningStyle,
		Topic:         topic,
	}

	if plan != nil {
		objectives := plan.Objectives
		if len(objectives) > objectivesShown {
			objectives = objectives[:objectivesShown]
		}
		tc.LearningPlan = &PlanContext{
			Title:             plan.Title,
			CurrentObjectives: append([]string{}, objectives...),
		}
	}

	if progress != nil {
		tc.PreviousLearning = &PreviousLearning{
			LastModule: progress.CurrentModule,
			Progress:   progress.ProgressPercentage,
			Challenges: progress.Challenges,
		}
	}

	if len(materials) > 0 {
		tc.ReferenceMaterials = lo.Map(lo.Slice(materials, 0, materialsShown), func(m rag.MaterialHit, _ int) Reference {
			source, _ := m.Metadata["source"].(string)
			if source == "" {
				source = defaultSource
			}
			return Reference{Content: excerpt(m.Content), Source: source}
		})
	}

	return tc
}

// Continue answers a student reply with a strategy picked from the
// heuristic analysis. A mastery estimate of 4 or more advances progress on
// the student's active plan.
func (s *Service) Continue(ctx context.Context, sessionID, reply string, history []Turn) (*Continuation, error) {
	studentID, topic, err := ParseSessionID(sessionID)
	if err != nil {
		return nil, err
	}
	st, err := s.repos.Students().Get(ctx, studentID)
	if err != nil {
		return nil, err
	}

	analysis := tutor.Analyze(reply, topic, s.rules.Analyzer)
	strategy := tutor.SelectStrategy(analysis)
	s.metrics.RecordStrategy(string(strategy))

	msgs := toLLMMessages(history)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: reply})

	resp, err := s.provider.Generate(llm.WithPurpose(ctx, llm.PurposeTeaching), llm.Request{
		System:      tutor.AssemblePrompt(st.Name, topic, strategy),
		Messages:    msgs,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return nil, &tutor.GenerationError{Op: "teaching continue", Err: err}
	}

	if analysis.MasteryLevel >= 4 {
		if err := s.advanceProgress(ctx, studentID, topic, analysis.MasteryLevel); err != nil {
			s.logger.Warn().Err(err).Int("student_id", studentID).Msg("update learning progress")
		}
	}

	return &Continuation{
		Response:     resp.Text,
		Analysis:     analysis,
		Strategy:     strategy,
		MasteryLevel: analysis.MasteryLevel,
	}, nil
}

// advanceProgress records mastery of topic on the active plan. Students
// without an active plan are left alone.
func (s *Service) advanceProgress(ctx context.Context, studentID int, topic string, mastery int) error {
	return s.repos.InTx(ctx, func(r store.Repos) error {
		plan, err := r.Plans().Active(ctx, studentID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		p, err := r.Progress().Latest(ctx, studentID, plan.ID)
		switch {
		case errors.Is(err, store.ErrNotFound):
			p = &store.LearningProgress{StudentID: studentID, LearningPlanID: plan.ID}
		case err != nil:
			return err
		}

		p.CurrentModule = topic
		p.MasteryLevel = mastery
		p.ProgressPercentage = min(100, p.ProgressPercentage+progressStep)

		_, err = r.Progress().Save(ctx, p)
		return err
	})
}

// Recommendations suggests topics to review or extend, similar peers and
// study tips for the student's learning style.
func (s *Service) Recommendations(ctx context.Context, studentID int) (*Recommendations, error) {
	st, err := s.repos.Students().Get(ctx, studentID)
	if err != nil {
		return nil, err
	}

	records, err := s.repos.Progress().ListByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}

	rec := &Recommendations{
		NextTopics:   []Recommendation{},
		ReviewTopics: []Recommendation{},
		PeerLearning: []rag.SimilarStudent{},
		StudyTips:    []string{},
	}

	for _, p := range records {
		switch {
		case p.MasteryLevel == 0:
			// not assessed yet
		case p.MasteryLevel < 3:
			rec.ReviewTopics = append(rec.ReviewTopics, Recommendation{Topic: p.CurrentModule, Reason: "需要加强理解"})
		case p.MasteryLevel >= 4:
			rec.NextTopics = append(rec.NextTopics, Recommendation{Topic: p.CurrentModule + " - 进阶", Reason: "已掌握基础"})
		}
	}

	if s.retriever != nil {
		peers, err := s.retriever.FindSimilarStudents(ctx, st, peersK)
		if err != nil {
			s.logger.Warn().Err(err).Int("student_id", studentID).Msg("find similar students")
		} else if peers != nil {
			rec.PeerLearning = peers
		}
	}

	switch st.LearningStyle {
	case "视觉型":
		rec.StudyTips = append(rec.StudyTips, "建议使用图表和思维导图辅助学习")
	case "听觉型":
		rec.StudyTips = append(rec.StudyTips, "建议通过讲解和讨论来加深理解")
	}

	return rec, nil
}

func toLLMMessages(history []Turn) []llm.Message {
	out := make([]llm.Message, 0, len(history)+1)
	for _, t := range history {
		switch tutor.Role(t.Role) {
		case tutor.RoleUser:
			out = append(out, llm.Message{Role: llm.RoleUser, Content: t.Content})
		case tutor.RoleAssistant:
			out = append(out, llm.Message{Role: llm.RoleAssistant, Content: t.Content})
		}
	}
	return out
}
