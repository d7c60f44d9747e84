package tutor

// Phase is the lifecycle stage of an assessment conversation.
type Phase string

const (
	PhaseActive    Phase = "active"
	PhasePlanning  Phase = "planning"
	PhaseCompleted Phase = "completed"
	PhaseArchived  Phase = "archived"
)

// AllPhases lists every phase in lifecycle order.
var AllPhases = []Phase{PhaseActive, PhasePlanning, PhaseCompleted, PhaseArchived}

// Terminal reports whether the phase accepts no further progress.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseArchived
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	switch p {
	case PhaseActive, PhasePlanning, PhaseCompleted, PhaseArchived:
		return true
	}
	return false
}

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is the minimal view of a conversation message the core needs.
type Message struct {
	Role    Role
	Content string
}

// Analysis is the heuristic read of a single student reply.
type Analysis struct {
	ResponseLength       int      `json:"response_length"`
	ContainsQuestion     bool     `json:"contains_question"`
	ConfidenceIndicators []string `json:"confidence_indicators"`
	ConfusionIndicators  []string `json:"confusion_indicators"`
	MasteryLevel         int      `json:"mastery_level"`
	NeedsEncouragement   bool     `json:"needs_encouragement"`
}

// Strategy is the tutoring move chosen for the next assistant turn.
type Strategy string

const (
	StrategyClarify        Strategy = "clarify"
	StrategyAnswerQuestion Strategy = "answer_question"
	StrategyAdvance        Strategy = "advance"
	StrategyEncourage      Strategy = "encourage"
	StrategyElaborate      Strategy = "elaborate"
)
