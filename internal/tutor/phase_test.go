package tutor

import (
	"reflect"
	"testing"
)

func sufficientInfo() KeyInfo {
	return KeyInfo{
		LearningGoals: []string{"我的目标是学好代数"},
		Background:    "初中学过方程 ",
		CurrentLevel:  "入门水平 ",
	}
}

func TestController_ActiveStaysBelowMinTurns(t *testing.T) {
	c := NewController(DefaultRules())

	for turn := 0; turn < 3; turn++ {
		next, effects := c.Step(PhaseActive, Event{Kind: EventReply, Turn: turn, Info: sufficientInfo()})
		if next != PhaseActive {
			t.Fatalf("turn %d: expected active, got %q", turn, next)
		}
		if !HasEffect(effects, EffectAskNext) {
			t.Fatalf("turn %d: expected ask_next effect, got %v", turn, effects)
		}
	}
}

func TestController_ActiveToPlanning(t *testing.T) {
	c := NewController(DefaultRules())

	next, effects := c.Step(PhaseActive, Event{Kind: EventReply, Turn: 3, Info: sufficientInfo()})
	if next != PhasePlanning {
		t.Fatalf("expected planning, got %q", next)
	}
	if !reflect.DeepEqual(effects, []Effect{EffectSummarize}) {
		t.Fatalf("expected [summarize], got %v", effects)
	}
}

func TestController_ActiveNeedsAllRequiredFields(t *testing.T) {
	c := NewController(DefaultRules())

	for _, missing := range []Field{FieldLearningGoals, FieldBackground, FieldCurrentLevel} {
		info := sufficientInfo()
		switch missing {
		case FieldLearningGoals:
			info.LearningGoals = nil
		case FieldBackground:
			info.Background = ""
		case FieldCurrentLevel:
			info.CurrentLevel = ""
		}

		next, _ := c.Step(PhaseActive, Event{Kind: EventReply, Turn: 10, Info: info})
		if next != PhaseActive {
			t.Errorf("missing %s: expected active, got %q", missing, next)
		}
	}
}

func TestController_PlanningAffirmed(t *testing.T) {
	c := NewController(DefaultRules())

	next, effects := c.Step(PhasePlanning, Event{Kind: EventReply, Turn: 5, Reply: "好的，我们开始吧"})
	if next != PhaseCompleted {
		t.Fatalf("expected completed, got %q", next)
	}
	if !HasEffect(effects, EffectGeneratePlan) || !HasEffect(effects, EffectMarkPlanned) {
		t.Fatalf("expected generate_plan and mark_planned, got %v", effects)
	}
}

func TestController_PlanningNotAffirmed(t *testing.T) {
	c := NewController(DefaultRules())

	next, effects := c.Step(PhasePlanning, Event{Kind: EventReply, Turn: 5, Reply: "我还想再想想"})
	if next != PhasePlanning {
		t.Fatalf("expected planning, got %q", next)
	}
	if !reflect.DeepEqual(effects, []Effect{EffectConfirmReadiness}) {
		t.Fatalf("expected [confirm_readiness], got %v", effects)
	}
}

func TestController_TerminalPhasesNeverMove(t *testing.T) {
	c := NewController(DefaultRules())

	for _, p := range []Phase{PhaseCompleted, PhaseArchived} {
		for _, kind := range []EventKind{EventReply, EventArchive} {
			next, effects := c.Step(p, Event{Kind: kind, Turn: 99, Info: sufficientInfo(), Reply: "好的"})
			if next != p {
				t.Errorf("%s kind=%d: expected to stay, got %q", p, kind, next)
			}
			if !reflect.DeepEqual(effects, []Effect{EffectSessionFinished}) {
				t.Errorf("%s kind=%d: expected [session_finished], got %v", p, kind, effects)
			}
		}
	}
}

func TestController_Archive(t *testing.T) {
	c := NewController(DefaultRules())

	for _, p := range []Phase{PhaseActive, PhasePlanning} {
		next, effects := c.Step(p, Event{Kind: EventArchive})
		if next != PhaseArchived {
			t.Errorf("%s: expected archived, got %q", p, next)
		}
		if !HasEffect(effects, EffectArchive) {
			t.Errorf("%s: expected archive effect, got %v", p, effects)
		}
	}
}

func TestController_NeverRegresses(t *testing.T) {
	c := NewController(DefaultRules())
	order := map[Phase]int{PhaseActive: 0, PhasePlanning: 1, PhaseCompleted: 2, PhaseArchived: 2}

	replies := []string{"", "好的", "不确定", "开始吧"}
	infos := []KeyInfo{{}, sufficientInfo()}

	for _, p := range AllPhases {
		for turn := 0; turn < 6; turn++ {
			for _, r := range replies {
				for _, info := range infos {
					next, _ := c.Step(p, Event{Kind: EventReply, Turn: turn, Info: info, Reply: r})
					if order[next] < order[p] {
						t.Fatalf("phase regressed from %s to %s", p, next)
					}
					if p.Terminal() && next != p {
						t.Fatalf("terminal phase %s moved to %s", p, next)
					}
				}
			}
		}
	}
}

func TestController_CustomMinTurns(t *testing.T) {
	rules := DefaultRules()
	rules.Phase.MinTurns = 1
	c := NewController(rules)

	next, _ := c.Step(PhaseActive, Event{Kind: EventReply, Turn: 1, Info: sufficientInfo()})
	if next != PhasePlanning {
		t.Fatalf("expected planning with min_turns=1, got %q", next)
	}
}
