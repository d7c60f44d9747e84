package teaching

import (
	"github.com/abhisek/mentor/internal/rag"
	"github.com/abhisek/mentor/internal/tutor"
)

// Session is the opening turn of a teaching session.
type Session struct {
	SessionID     string  `json:"session_id"`
	Response      string  `json:"response"`
	Context       Context `json:"context"`
	MaterialsUsed int     `json:"materials_used"`
}

// Context is what the tutor knows about the student going into a session.
type Context struct {
	StudentName        string            `json:"student_name"`
	StudentLevel       string            `json:"student_level"`
	LearningStyle      string            `json:"learning_style"`
	Topic              string            `json:"topic"`
	LearningPlan       *PlanContext      `json:"learning_plan,omitempty"`
	PreviousLearning   *PreviousLearning `json:"previous_learning,omitempty"`
	ReferenceMaterials []Reference       `json:"reference_materials,omitempty"`
}

// PlanContext summarises the plan a session is attached to.
type PlanContext struct {
	Title             string   `json:"title"`
	CurrentObjectives []string `json:"current_objectives"`
}

// PreviousLearning is the latest progress record for the plan.
type PreviousLearning struct {
	LastModule string   `json:"last_module"`
	Progress   float64  `json:"progress"`
	Challenges []string `json:"challenges"`
}

// Reference is a truncated teaching material excerpt.
type Reference struct {
	Content string `json:"content"`
	Source  string `json:"source"`
}

// Turn is one entry of the client-held teaching transcript.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Continuation is the tutor's adaptive reply to a student answer.
type Continuation struct {
	Response     string         `json:"response"`
	Analysis     tutor.Analysis `json:"analysis"`
	Strategy     tutor.Strategy `json:"strategy"`
	MasteryLevel int            `json:"mastery_level"`
}

// Recommendation is a suggested topic and why.
type Recommendation struct {
	Topic  string `json:"topic"`
	Reason string `json:"reason"`
}

// Recommendations groups what a student should study next.
type Recommendations struct {
	NextTopics   []Recommendation     `json:"next_topics"`
	ReviewTopics []Recommendation     `json:"review_topics"`
	PeerLearning []rag.SimilarStudent `json:"peer_learning"`
	StudyTips    []string             `json:"study_tips"`
}
