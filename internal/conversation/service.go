// Package conversation runs the assessment dialogue that gets to know a
// student and ends with a generated learning plan.
package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/abhisek/mentor/internal/llm"
	"github.com/abhisek/mentor/internal/logger"
	"github.com/abhisek/mentor/internal/metrics"
	"github.com/abhisek/mentor/internal/store"
	"github.com/abhisek/mentor/internal/tutor"
)

// PlanIndexer stores generated plans for similarity search.
type PlanIndexer interface {
	StoreLearningPlan(ctx context.Context, plan *store.LearningPlan) error
}

// Service drives assessment conversations through the phase controller.
type Service struct {
	repos    store.Transactor
	provider llm.Provider
	ctrl     *tutor.Controller
	rules    tutor.Rules
	cfg      Config
	locks    *keyedMutex

	indexer   PlanIndexer
	summaries *SummaryConfig
	pending   sync.WaitGroup
	metrics   *metrics.Metrics
	log       *logger.Logger
	zlog      zerolog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithConfig overrides the generation settings.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.cfg = cfg }
}

// WithIndexer indexes every generated plan.
func WithIndexer(ix PlanIndexer) Option {
	return func(s *Service) { s.indexer = ix }
}

// WithMetrics records phase transitions and plan counts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the service logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a conversation service.
func NewService(repos store.Transactor, provider llm.Provider, rules tutor.Rules, opts ...Option) *Service {
	s := &Service{
		repos:    repos,
		provider: provider,
		ctrl:     tutor.NewController(rules),
		rules:    rules,
		cfg:      DefaultConfig(),
		locks:    newKeyedMutex(),
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.zlog = s.log.Component("conversation")
	return s
}

// Start opens a conversation with the student's first message and the
// model's assessment reply. Nothing is stored if generation fails.
func (s *Service) Start(ctx context.Context, studentID int, initialMessage, topic string) (*Reply, error) {
	if strings.TrimSpace(initialMessage) == "" {
		return nil, fmt.Errorf("%w: initial message is required", store.ErrInvalid)
	}

	st, err := s.repos.Students().Get(ctx, studentID)
	if err != nil {
		return nil, err
	}

	resp, err := s.chat(llm.WithPurpose(ctx, llm.PurposeAssessment), buildAssessmentPrompt(st),
		[]llm.Message{{Role: llm.RoleUser, Content: initialMessage}})
	if err != nil {
		return nil, &tutor.GenerationError{Op: "assessment", Err: err}
	}

	var conv *store.Conversation
	err = s.repos.InTx(ctx, func(r store.Repos) error {
		c, err := r.Conversations().Create(ctx, studentID, topic)
		if err != nil {
			return err
		}
		if _, err := r.Conversations().AppendMessage(ctx, &store.Message{
			ConversationID: c.ID,
			Role:           tutor.RoleUser,
			Content:        initialMessage,
		}); err != nil {
			return err
		}
		if _, err := r.Conversations().AppendMessage(ctx, &store.Message{
			ConversationID: c.ID,
			Role:           tutor.RoleAssistant,
			Content:        resp.Text,
			Metadata:       s.usageMetadata(resp),
		}); err != nil {
			return err
		}
		conv, err = r.Conversations().IncrementTurn(ctx, c.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("start conversation: %w", err)
	}

	s.zlog.Info().
		Int("conversation_id", conv.ID).
		Int("student_id", studentID).
		Msg("conversation started")

	return replyFor(conv, resp.Text), nil
}

// turnState is what the first transaction of a continuation hands to the
// generation step.
type turnState struct {
	conv    *store.Conversation
	student *store.Student
	history []*store.Message
	info    tutor.KeyInfo
	from    tutor.Phase
	next    tutor.Phase
	effects []tutor.Effect
}

// Continue records a student reply and advances the conversation by one
// turn. Calls for the same conversation id run one at a time.
func (s *Service) Continue(ctx context.Context, conversationID int, message string) (*Reply, error) {
	unlock, err := s.locks.Lock(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var ts turnState
	err = s.repos.InTx(ctx, func(r store.Repos) error {
		conv, err := r.Conversations().IncrementTurn(ctx, conversationID)
		if err != nil {
			return err
		}
		if _, err := r.Conversations().AppendMessage(ctx, &store.Message{
			ConversationID: conversationID,
			Role:           tutor.RoleUser,
			Content:        message,
		}); err != nil {
			return err
		}

		ts = turnState{conv: conv, from: conv.Status}
		if conv.Status.Terminal() {
			ts.next, ts.effects = s.ctrl.Step(conv.Status, tutor.Event{Kind: tutor.EventReply, Turn: conv.TurnCount})
			_, err := r.Conversations().AppendMessage(ctx, &store.Message{
				ConversationID: conversationID,
				Role:           tutor.RoleAssistant,
				Content:        finishedReply,
			})
			return err
		}

		if ts.student, err = r.Students().Get(ctx, conv.StudentID); err != nil {
			return err
		}
		if ts.history, err = r.Conversations().Messages(ctx, conversationID); err != nil {
			return err
		}
		ts.info = tutor.DeriveKeyInfo(toTutorMessages(ts.history), s.rules.KeyInfo)
		ts.next, ts.effects = s.ctrl.Step(conv.Status, tutor.Event{
			Kind:  tutor.EventReply,
			Turn:  conv.TurnCount,
			Info:  ts.info,
			Reply: message,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("continue conversation %d: %w", conversationID, err)
	}

	if tutor.HasEffect(ts.effects, tutor.EffectSessionFinished) {
		out := replyFor(ts.conv, finishedReply)
		out.Finished = true
		return out, nil
	}

	return s.respond(ctx, ts)
}

// respond performs the controller's effects and commits the assistant turn.
func (s *Service) respond(ctx context.Context, ts turnState) (*Reply, error) {
	var (
		text     string
		metadata map[string]any
		plan     *store.LearningPlan
	)

	switch {
	case tutor.HasEffect(ts.effects, tutor.EffectGeneratePlan):
		draft, usage, err := s.generatePlan(ctx, ts.student, ts.info)
		if err != nil {
			return nil, err
		}
		plan = draft
		metadata = usageInfo(usage, llm.EstimateCost(s.provider.ModelID(), usage))

	default:
		var system string
		switch {
		case tutor.HasEffect(ts.effects, tutor.EffectSummarize):
			system = buildSummaryPrompt(ts.info)
		case tutor.HasEffect(ts.effects, tutor.EffectConfirmReadiness):
			system = confirmReadinessPrompt
		default:
			system = buildNextQuestionPrompt(ts.student, ts.info)
		}
		resp, err := s.chat(llm.WithPurpose(ctx, llm.PurposeAssessment), system, toLLMMessages(ts.history))
		if err != nil {
			return nil, &tutor.GenerationError{Op: "continue", Err: err}
		}
		text = resp.Text
		metadata = s.usageMetadata(resp)
	}

	conv := ts.conv
	err := s.repos.InTx(ctx, func(r store.Repos) error {
		if plan != nil {
			created, err := r.Plans().Create(ctx, plan)
			if err != nil {
				return err
			}
			plan = created
			text = planAnnouncement(plan)
			metadata["plan_id"] = plan.ID
		}
		if _, err := r.Conversations().AppendMessage(ctx, &store.Message{
			ConversationID: conv.ID,
			Role:           tutor.RoleAssistant,
			Content:        text,
			Metadata:       metadata,
		}); err != nil {
			return err
		}
		if ts.next == ts.from {
			return nil
		}
		updated, err := r.Conversations().SetPhase(ctx, conv.ID, ts.next,
			tutor.HasEffect(ts.effects, tutor.EffectMarkPlanned))
		if err != nil {
			return err
		}
		conv = updated
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save turn %d of conversation %d: %w", conv.TurnCount, conv.ID, err)
	}

	if ts.next != ts.from {
		s.metrics.RecordPhaseTransition(string(ts.from), string(ts.next))
		s.log.LogPhaseTransition(conv.ID, string(ts.from), string(ts.next), conv.TurnCount)
	}
	if plan != nil {
		s.metrics.RecordPlanGenerated()
		s.indexPlan(ctx, plan)
		s.summarizeAsync(ctx, conv.ID)
	}

	out := replyFor(conv, text)
	out.Plan = plan
	return out, nil
}

func (s *Service) indexPlan(ctx context.Context, plan *store.LearningPlan) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.StoreLearningPlan(ctx, plan); err != nil {
		s.zlog.Warn().Err(err).Int("plan_id", plan.ID).Msg("index learning plan")
	}
}

// Archive shelves an active or planning conversation. Archiving a finished
// conversation leaves it unchanged.
func (s *Service) Archive(ctx context.Context, conversationID int) (*store.Conversation, error) {
	unlock, err := s.locks.Lock(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	conv, err := s.repos.Conversations().Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	next, effects := s.ctrl.Step(conv.Status, tutor.Event{Kind: tutor.EventArchive, Turn: conv.TurnCount})
	if !tutor.HasEffect(effects, tutor.EffectArchive) {
		return conv, nil
	}

	updated, err := s.repos.Conversations().SetPhase(ctx, conversationID, next, false)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordPhaseTransition(string(conv.Status), string(next))
	s.log.LogPhaseTransition(conv.ID, string(conv.Status), string(next), conv.TurnCount)
	return updated, nil
}

// History returns the transcript in creation order.
func (s *Service) History(ctx context.Context, conversationID int) (*History, error) {
	if _, err := s.repos.Conversations().Get(ctx, conversationID); err != nil {
		return nil, err
	}
	msgs, err := s.repos.Conversations().Messages(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	return &History{ConversationID: conversationID, Messages: msgs, Total: len(msgs)}, nil
}

// ListForStudent returns the student's conversations, newest first.
func (s *Service) ListForStudent(ctx context.Context, studentID int) ([]*store.Conversation, error) {
	if _, err := s.repos.Students().Get(ctx, studentID); err != nil {
		return nil, err
	}
	return s.repos.Conversations().ListByStudent(ctx, studentID)
}

func (s *Service) chat(ctx context.Context, system string, msgs []llm.Message) (*llm.Response, error) {
	return s.provider.Generate(ctx, llm.Request{
		System:      system,
		Messages:    msgs,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
}

func (s *Service) usageMetadata(resp *llm.Response) map[string]any {
	cost := llm.EstimateCost(resp.Model, resp.Usage)
	if cost == 0 {
		cost = llm.EstimateCost(s.provider.ModelID(), resp.Usage)
	}
	return usageInfo(resp.Usage, cost)
}

// usageInfo is the token accounting stored on assistant messages.
func usageInfo(u llm.Usage, cost float64) map[string]any {
	total := u.TotalTokens
	if total == 0 {
		total = u.InputTokens + u.OutputTokens
	}
	return map[string]any{
		"total_tokens":      total,
		"prompt_tokens":     u.InputTokens,
		"completion_tokens": u.OutputTokens,
		"total_cost":        cost,
	}
}

func replyFor(c *store.Conversation, text string) *Reply {
	return &Reply{
		ConversationID:  c.ID,
		Response:        text,
		Status:          c.Status,
		TurnCount:       c.TurnCount,
		HasLearningPlan: c.HasLearningPlan,
	}
}

func toTutorMessages(msgs []*store.Message) []tutor.Message {
	out := make([]tutor.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, tutor.Message{Role: m.Role, Content: m.Content})
	}
	return out
}

// toLLMMessages replays the transcript. System messages are carried in the
// request's System field instead.
func toLLMMessages(msgs []*store.Message) []llm.Message {
	out := make([]llm.Message, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case tutor.RoleUser:
			out = append(out, llm.Message{Role: llm.RoleUser, Content: m.Content})
		case tutor.RoleAssistant:
			out = append(out, llm.Message{Role: llm.RoleAssistant, Content: m.Content})
		}
	}
	return out
}
