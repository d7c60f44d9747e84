package store

import (
	"context"
	"errors"
	"time"

	"github.com/abhisek/mentor/internal/tutor"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalid is returned when a record fails schema validation.
	ErrInvalid = errors.New("invalid record")
)

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	After   int64     // sequence > After
	Before  int64     // sequence < Before
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
	Purpose string    // exact purpose match when set
}

// Student is a learner profile.
type Student struct {
	ID             int            `json:"id"`
	Name           string         `json:"name"`
	Age            *int           `json:"age,omitempty"`
	Grade          string         `json:"grade,omitempty"`
	Interests      []string       `json:"interests"`
	Background     string         `json:"background,omitempty"`
	LearningGoals  string         `json:"learning_goals,omitempty"`
	LearningStyle  string         `json:"learning_style,omitempty"`
	KnowledgeLevel map[string]any `json:"knowledge_level"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// StudentUpdate carries a partial update. Nil fields are left unchanged.
type StudentUpdate struct {
	Name           *string        `json:"name"`
	Age            *int           `json:"age"`
	Grade          *string        `json:"grade"`
	Interests      []string       `json:"interests"`
	Background     *string        `json:"background"`
	LearningGoals  *string        `json:"learning_goals"`
	LearningStyle  *string        `json:"learning_style"`
	KnowledgeLevel map[string]any `json:"knowledge_level"`
}

// Conversation is an assessment dialogue and its phase.
type Conversation struct {
	ID              int         `json:"id"`
	StudentID       int         `json:"student_id"`
	Status          tutor.Phase `json:"status"`
	TurnCount       int         `json:"turn_count"`
	HasLearningPlan bool        `json:"has_learning_plan"`
	Topic           string      `json:"topic,omitempty"`
	Summary         string      `json:"summary,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// Message is one entry of a conversation transcript.
type Message struct {
	ID             int            `json:"id"`
	ConversationID int            `json:"conversation_id"`
	Role           tutor.Role     `json:"role"`
	Content        string         `json:"content"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

// LearningPlan is a generated study plan.
type LearningPlan struct {
	ID              int            `json:"id"`
	StudentID       int            `json:"student_id"`
	Title           string         `json:"title"`
	Description     string         `json:"description,omitempty"`
	Objectives      []string       `json:"objectives"`
	Content         map[string]any `json:"content"`
	EstimatedDays   int            `json:"estimated_days"`
	DifficultyLevel int            `json:"difficulty_level"`
	IsActive        bool           `json:"is_active"`
	IsCompleted     bool           `json:"is_completed"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

// LearningProgress records progress through a plan. A zero MasteryLevel
// means the student has not been assessed yet.
type LearningProgress struct {
	ID                   int       `json:"id"`
	StudentID            int       `json:"student_id"`
	LearningPlanID       int       `json:"learning_plan_id"`
	CurrentModule        string    `json:"current_module"`
	ProgressPercentage   float64   `json:"progress_percentage"`
	Notes                string    `json:"notes,omitempty"`
	Challenges           []string  `json:"challenges"`
	MasteryLevel         int       `json:"mastery_level"`
	StudyDurationMinutes int       `json:"study_duration_minutes"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// StudentRepo manages student profiles.
type StudentRepo interface {
	Create(ctx context.Context, s *Student) (*Student, error)
	Get(ctx context.Context, id int) (*Student, error)

	// List returns one page ordered by id plus the total row count.
	List(ctx context.Context, skip, limit int) ([]*Student, int, error)

	// All returns every student; used for in-process name search.
	All(ctx context.Context) ([]*Student, error)

	Update(ctx context.Context, id int, u StudentUpdate) (*Student, error)

	// Delete removes the student and cascades to conversations, plans
	// and progress.
	Delete(ctx context.Context, id int) error
}

// ConversationRepo manages conversations and their messages.
type ConversationRepo interface {
	Create(ctx context.Context, studentID int, topic string) (*Conversation, error)
	Get(ctx context.Context, id int) (*Conversation, error)

	// ListByStudent returns the student's conversations, newest first.
	ListByStudent(ctx context.Context, studentID int) ([]*Conversation, error)

	// IncrementTurn adds exactly one to turn_count and returns the result.
	IncrementTurn(ctx context.Context, id int) (*Conversation, error)

	// SetPhase stores the new phase. hasPlan is only ever raised, never
	// cleared.
	SetPhase(ctx context.Context, id int, phase tutor.Phase, hasPlan bool) (*Conversation, error)

	SetSummary(ctx context.Context, id int, summary string) error

	// AppendMessage adds a message to the transcript.
	AppendMessage(ctx context.Context, m *Message) (*Message, error)

	// Messages returns the transcript in creation order.
	Messages(ctx context.Context, conversationID int) ([]*Message, error)
}

// PlanRepo manages learning plans.
type PlanRepo interface {
	Create(ctx context.Context, p *LearningPlan) (*LearningPlan, error)
	Get(ctx context.Context, id int) (*LearningPlan, error)

	// ListByStudent returns the student's plans, newest first.
	ListByStudent(ctx context.Context, studentID int) ([]*LearningPlan, error)

	// Active returns the student's newest active plan, or ErrNotFound.
	Active(ctx context.Context, studentID int) (*LearningPlan, error)
}

// ProgressRepo manages learning progress records.
type ProgressRepo interface {
	// Latest returns the newest record for the plan, or ErrNotFound.
	Latest(ctx context.Context, studentID, planID int) (*LearningProgress, error)

	ListByStudent(ctx context.Context, studentID int) ([]*LearningProgress, error)

	// Save creates the record when ID is zero and updates it otherwise.
	Save(ctx context.Context, p *LearningProgress) (*LearningProgress, error)
}

// Repos groups the domain repositories.
type Repos interface {
	Students() StudentRepo
	Conversations() ConversationRepo
	Plans() PlanRepo
	Progress() ProgressRepo
}

// Transactor is Repos plus the ability to run several writes atomically.
type Transactor interface {
	Repos
	InTx(ctx context.Context, fn func(Repos) error) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	RequestID    string
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM usage for one purpose label.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM usage for one model.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns a single event, or nil if it does not exist.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}
