package tutor

import (
	"encoding/json"
	"fmt"
	"os"
)

// Signal names a class of evidence found in a student reply.
type Signal string

const (
	SignalConfidence Signal = "confidence"
	SignalConfusion  Signal = "confusion"
)

// SignalRule matches keywords in a reply and moves the mastery estimate.
type SignalRule struct {
	Signal   Signal   `json:"signal"`
	Keywords []string `json:"keywords"`
	Delta    int      `json:"delta"`
}

// AnalyzerRules configures Analyze.
type AnalyzerRules struct {
	// Signals are applied in order; mastery is clamped after every hit.
	Signals []SignalRule `json:"signals"`

	// ShortReplyRunes is the length below which a reply needs encouragement.
	ShortReplyRunes int `json:"short_reply_runes"`
}

// KeyInfoRules configures DeriveKeyInfo and the sufficiency predicate.
type KeyInfoRules struct {
	Keywords map[Field][]string `json:"keywords"`
	Required []Field            `json:"required"`
}

// PhaseRules configures the Controller.
type PhaseRules struct {
	MinTurns     int      `json:"min_turns"`
	Affirmations []string `json:"affirmations"`
}

// Rules bundles all keyword tables. A deployment can override them with a
// JSON file (see LoadRules).
type Rules struct {
	Analyzer AnalyzerRules `json:"analyzer"`
	KeyInfo  KeyInfoRules  `json:"key_info"`
	Phase    PhaseRules    `json:"phase"`
}

// Mastery bounds and baseline.
const (
	MinMastery      = 1
	MaxMastery      = 5
	BaselineMastery = 3
)

// DefaultRules returns the stock Chinese keyword tables.
func DefaultRules() Rules {
	return Rules{
		Analyzer: AnalyzerRules{
			Signals: []SignalRule{
				{
					Signal:   SignalConfidence,
					Keywords: []string{"明白", "懂了", "原来如此", "我知道", "理解"},
					Delta:    1,
				},
				{
					Signal:   SignalConfusion,
					Keywords: []string{"不懂", "不明白", "为什么", "怎么", "能再解释"},
					Delta:    -1,
				},
			},
			ShortReplyRunes: 10,
		},
		KeyInfo: KeyInfoRules{
			Keywords: map[Field][]string{
				FieldLearningGoals:  {"目标", "想学"},
				FieldBackground:     {"基础", "学过"},
				FieldPreferredStyle: {"喜欢", "偏好"},
				FieldCurrentLevel:   {"水平", "程度", "入门", "初级", "中级", "高级"},
				FieldAvailableTime:  {"每天", "每周", "小时", "分钟", "周末"},
				FieldChallenges:     {"困难", "难点", "挑战", "头疼"},
			},
			Required: []Field{FieldLearningGoals, FieldBackground, FieldCurrentLevel},
		},
		Phase: PhaseRules{
			MinTurns:     3,
			Affirmations: []string{"好的", "可以", "开始"},
		},
	}
}

// LoadRules reads a JSON rules file and overlays it on DefaultRules.
// Empty sections in the file keep their defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("read rules file: %w", err)
	}

	var overlay Rules
	if err := json.Unmarshal(raw, &overlay); err != nil {
		return rules, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	rules.merge(overlay)
	if err := rules.Validate(); err != nil {
		return rules, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rules, nil
}

func (r *Rules) merge(o Rules) {
	if len(o.Analyzer.Signals) > 0 {
		r.Analyzer.Signals = o.Analyzer.Signals
	}
	if o.Analyzer.ShortReplyRunes > 0 {
		r.Analyzer.ShortReplyRunes = o.Analyzer.ShortReplyRunes
	}
	for f, kws := range o.KeyInfo.Keywords {
		if len(kws) > 0 {
			r.KeyInfo.Keywords[f] = kws
		}
	}
	if len(o.KeyInfo.Required) > 0 {
		r.KeyInfo.Required = o.KeyInfo.Required
	}
	if o.Phase.MinTurns > 0 {
		r.Phase.MinTurns = o.Phase.MinTurns
	}
	if len(o.Phase.Affirmations) > 0 {
		r.Phase.Affirmations = o.Phase.Affirmations
	}
}

// Validate rejects rule sets the controller cannot run with.
func (r Rules) Validate() error {
	for _, s := range r.Analyzer.Signals {
		if s.Signal != SignalConfidence && s.Signal != SignalConfusion {
			return fmt.Errorf("unknown signal %q", s.Signal)
		}
	}
	for f := range r.KeyInfo.Keywords {
		if !f.Valid() {
			return fmt.Errorf("unknown key info field %q", f)
		}
	}
	for _, f := range r.KeyInfo.Required {
		if !f.Valid() {
			return fmt.Errorf("unknown required field %q", f)
		}
	}
	if r.Phase.MinTurns < 0 {
		return fmt.Errorf("min_turns must be >= 0, got %d", r.Phase.MinTurns)
	}
	if len(r.Phase.Affirmations) == 0 {
		return fmt.Errorf("at least one affirmation marker is required")
	}
	return nil
}
