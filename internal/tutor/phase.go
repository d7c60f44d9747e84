package tutor

import (
	"strings"

	"github.com/samber/lo"
)

// EventKind distinguishes the inputs the phase controller reacts to.
type EventKind int

const (
	// EventReply is a student continuation turn.
	EventReply EventKind = iota
	// EventArchive is an explicit request to shelve the conversation.
	EventArchive
)

// Event is one input to the controller. Turn is the turn count after the
// current call's increment.
type Event struct {
	Kind  EventKind
	Turn  int
	Info  KeyInfo
	Reply string
}

// Effect is an instruction for the caller to carry out after a step.
type Effect string

const (
	// EffectAskNext asks the student about whatever is still missing.
	EffectAskNext Effect = "ask_next"
	// EffectSummarize recaps what was learned and asks for plan readiness.
	EffectSummarize Effect = "summarize"
	// EffectConfirmReadiness re-asks whether the student is ready for a plan.
	EffectConfirmReadiness Effect = "confirm_readiness"
	// EffectGeneratePlan builds and stores a learning plan.
	EffectGeneratePlan Effect = "generate_plan"
	// EffectMarkPlanned sets has_learning_plan on the conversation.
	EffectMarkPlanned Effect = "mark_planned"
	// EffectSessionFinished replies with the static closing message.
	EffectSessionFinished Effect = "session_finished"
	// EffectArchive records that the conversation was shelved.
	EffectArchive Effect = "archive"
)

// Controller is the explicit ACTIVE -> PLANNING -> COMPLETED state machine.
// It is pure: Step performs no I/O and holds no per-conversation state.
type Controller struct {
	minTurns     int
	affirmations []string
	required     []Field
}

// NewController builds a controller from the phase and key-info rules.
func NewController(rules Rules) *Controller {
	return &Controller{
		minTurns:     rules.Phase.MinTurns,
		affirmations: rules.Phase.Affirmations,
		required:     rules.KeyInfo.Required,
	}
}

// Step returns the next phase and the effects the caller must perform.
// Phases never move backwards, and completed or archived conversations
// never leave their phase.
func (c *Controller) Step(phase Phase, ev Event) (Phase, []Effect) {
	if ev.Kind == EventArchive {
		if phase.Terminal() {
			return phase, []Effect{EffectSessionFinished}
		}
		return PhaseArchived, []Effect{EffectArchive}
	}

	switch phase {
	case PhaseActive:
		if c.ReadyToPlan(ev.Turn, ev.Info) {
			return PhasePlanning, []Effect{EffectSummarize}
		}
		return PhaseActive, []Effect{EffectAskNext}

	case PhasePlanning:
		if c.Affirmed(ev.Reply) {
			return PhaseCompleted, []Effect{EffectGeneratePlan, EffectMarkPlanned}
		}
		return PhasePlanning, []Effect{EffectConfirmReadiness}

	default:
		return phase, []Effect{EffectSessionFinished}
	}
}

// ReadyToPlan is the sufficient-info predicate gated on the minimum turns.
func (c *Controller) ReadyToPlan(turn int, info KeyInfo) bool {
	return turn >= c.minTurns && info.Sufficient(c.required)
}

// Affirmed reports whether a reply contains an affirmation marker.
func (c *Controller) Affirmed(reply string) bool {
	for _, a := range c.affirmations {
		if a != "" && strings.Contains(reply, a) {
			return true
		}
	}
	return false
}

// Required returns the fields the sufficiency predicate checks.
func (c *Controller) Required() []Field {
	return c.required
}

// HasEffect reports whether effects contains e.
func HasEffect(effects []Effect, e Effect) bool {
	return lo.Contains(effects, e)
}
