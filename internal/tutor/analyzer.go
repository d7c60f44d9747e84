package tutor

import (
	"strings"
	"unicode/utf8"
)

// Analyze classifies a student reply into confidence and confusion signals
// and a 1-5 mastery estimate. The topic is carried for context only and
// does not affect scoring.
func Analyze(reply, topic string, rules AnalyzerRules) Analysis {
	length := utf8.RuneCountInString(reply)
	a := Analysis{
		ResponseLength:       length,
		ContainsQuestion:     strings.ContainsAny(reply, "?？"),
		ConfidenceIndicators: []string{},
		ConfusionIndicators:  []string{},
		MasteryLevel:         BaselineMastery,
		NeedsEncouragement:   length < rules.ShortReplyRunes,
	}

	for _, rule := range rules.Signals {
		for _, kw := range rule.Keywords {
			if kw == "" || !strings.Contains(reply, kw) {
				continue
			}
			switch rule.Signal {
			case SignalConfidence:
				a.ConfidenceIndicators = append(a.ConfidenceIndicators, kw)
			case SignalConfusion:
				a.ConfusionIndicators = append(a.ConfusionIndicators, kw)
			}
			a.MasteryLevel = clampMastery(a.MasteryLevel + rule.Delta)
		}
	}

	return a
}

func clampMastery(level int) int {
	return max(MinMastery, min(MaxMastery, level))
}
