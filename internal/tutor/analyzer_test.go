package tutor

import (
	"strings"
	"testing"
)

func TestAnalyze_Scenarios(t *testing.T) {
	rules := DefaultRules().Analyzer

	tests := []struct {
		name          string
		reply         string
		wantMastery   int
		wantQuestion  bool
		wantConfusion bool
		wantEncourage bool
		wantStrategy  Strategy
	}{
		{"confused question", "我不懂，为什么？", 1, true, true, true, StrategyClarify},
		{"short understanding", "明白了", 4, false, false, true, StrategyAdvance},
		{"empty reply", "", 3, false, false, true, StrategyEncourage},
		{"plain question", "这个公式可以用在三角形里吗?", 3, true, false, false, StrategyAnswerQuestion},
		{"long neutral", "我觉得这个例子和上一个例子有点像", 3, false, false, false, StrategyElaborate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Analyze(tt.reply, "分数", rules)
			if a.MasteryLevel != tt.wantMastery {
				t.Errorf("expected mastery %d, got %d", tt.wantMastery, a.MasteryLevel)
			}
			if a.ContainsQuestion != tt.wantQuestion {
				t.Errorf("expected contains_question=%v, got %v", tt.wantQuestion, a.ContainsQuestion)
			}
			if (len(a.ConfusionIndicators) > 0) != tt.wantConfusion {
				t.Errorf("expected confusion=%v, got indicators %v", tt.wantConfusion, a.ConfusionIndicators)
			}
			if a.NeedsEncouragement != tt.wantEncourage {
				t.Errorf("expected needs_encouragement=%v, got %v", tt.wantEncourage, a.NeedsEncouragement)
			}
			if got := SelectStrategy(a); got != tt.wantStrategy {
				t.Errorf("expected strategy %q, got %q", tt.wantStrategy, got)
			}
		})
	}
}

func TestAnalyze_LengthCountsRunes(t *testing.T) {
	a := Analyze("明白了", "", DefaultRules().Analyzer)
	if a.ResponseLength != 3 {
		t.Fatalf("expected length 3, got %d", a.ResponseLength)
	}

	a = Analyze(strings.Repeat("好", 10), "", DefaultRules().Analyzer)
	if a.NeedsEncouragement {
		t.Fatal("expected a 10-rune reply to not need encouragement")
	}
}

func TestAnalyze_MasteryClamped(t *testing.T) {
	rules := DefaultRules().Analyzer

	high := Analyze("明白 懂了 原来如此 我知道 理解", "", rules)
	if high.MasteryLevel != MaxMastery {
		t.Fatalf("expected mastery clamped to %d, got %d", MaxMastery, high.MasteryLevel)
	}
	if len(high.ConfidenceIndicators) != 5 {
		t.Fatalf("expected 5 confidence indicators, got %v", high.ConfidenceIndicators)
	}

	low := Analyze("不懂 不明白 为什么 怎么 能再解释", "", rules)
	if low.MasteryLevel != MinMastery {
		t.Fatalf("expected mastery clamped to %d, got %d", MinMastery, low.MasteryLevel)
	}
}

func TestAnalyze_MasteryAlwaysInRange(t *testing.T) {
	rules := AnalyzerRules{
		Signals: []SignalRule{
			{Signal: SignalConfidence, Keywords: []string{"a", "b", "c"}, Delta: 3},
			{Signal: SignalConfusion, Keywords: []string{"x", "y", "z"}, Delta: -4},
		},
		ShortReplyRunes: 10,
	}

	for _, reply := range []string{"", "a", "abc", "xyz", "abcxyz", "axbycz", "zzz"} {
		a := Analyze(reply, "", rules)
		if a.MasteryLevel < MinMastery || a.MasteryLevel > MaxMastery {
			t.Errorf("reply %q: mastery %d out of range", reply, a.MasteryLevel)
		}
	}
}

func TestAnalyze_CustomSignals(t *testing.T) {
	rules := AnalyzerRules{
		Signals: []SignalRule{
			{Signal: SignalConfidence, Keywords: []string{"got it"}, Delta: 1},
			{Signal: SignalConfusion, Keywords: []string{"lost"}, Delta: -1},
		},
		ShortReplyRunes: 5,
	}

	a := Analyze("ok got it now", "", rules)
	if a.MasteryLevel != 4 {
		t.Fatalf("expected mastery 4, got %d", a.MasteryLevel)
	}
	if len(a.ConfidenceIndicators) != 1 || a.ConfidenceIndicators[0] != "got it" {
		t.Fatalf("unexpected confidence indicators: %v", a.ConfidenceIndicators)
	}
}

func TestSelectStrategy_ConfusionBeatsQuestionAndMastery(t *testing.T) {
	a := Analysis{
		ContainsQuestion:    true,
		ConfusionIndicators: []string{"为什么"},
		MasteryLevel:        5,
		NeedsEncouragement:  true,
	}
	if got := SelectStrategy(a); got != StrategyClarify {
		t.Fatalf("expected clarify, got %q", got)
	}
}

func TestSelectStrategy_MasteryBeatsEncouragement(t *testing.T) {
	a := Analysis{MasteryLevel: 4, NeedsEncouragement: true}
	if got := SelectStrategy(a); got != StrategyAdvance {
		t.Fatalf("expected advance, got %q", got)
	}
}
