package tutor

import (
	"strings"

	"github.com/samber/lo"
)

// Field names one slot of KeyInfo.
type Field string

const (
	FieldLearningGoals  Field = "learning_goals"
	FieldBackground     Field = "background"
	FieldPreferredStyle Field = "preferred_style"
	FieldAvailableTime  Field = "available_time"
	FieldCurrentLevel   Field = "current_level"
	FieldChallenges     Field = "challenges"
)

// AllFields lists every KeyInfo slot in a stable scan order.
var AllFields = []Field{
	FieldLearningGoals,
	FieldBackground,
	FieldPreferredStyle,
	FieldAvailableTime,
	FieldCurrentLevel,
	FieldChallenges,
}

// Valid reports whether f is a known field.
func (f Field) Valid() bool {
	return lo.Contains(AllFields, f)
}

// Label returns the Chinese display name used in prompts.
func (f Field) Label() string {
	switch f {
	case FieldLearningGoals:
		return "学习目标"
	case FieldBackground:
		return "学习背景"
	case FieldPreferredStyle:
		return "学习偏好"
	case FieldAvailableTime:
		return "可用学习时间"
	case FieldCurrentLevel:
		return "当前水平"
	case FieldChallenges:
		return "学习困难"
	}
	return string(f)
}

// KeyInfo is the structured summary of what a student has told us so far.
type KeyInfo struct {
	LearningGoals  []string `json:"learning_goals"`
	Background     string   `json:"background"`
	PreferredStyle string   `json:"preferred_style"`
	AvailableTime  string   `json:"available_time"`
	CurrentLevel   string   `json:"current_level"`
	Challenges     []string `json:"challenges"`
}

// Has reports whether the field has a non-empty value.
func (k KeyInfo) Has(f Field) bool {
	switch f {
	case FieldLearningGoals:
		return len(k.LearningGoals) > 0
	case FieldBackground:
		return k.Background != ""
	case FieldPreferredStyle:
		return k.PreferredStyle != ""
	case FieldAvailableTime:
		return k.AvailableTime != ""
	case FieldCurrentLevel:
		return k.CurrentLevel != ""
	case FieldChallenges:
		return len(k.Challenges) > 0
	}
	return false
}

// Missing returns the fields from want that are still empty.
func (k KeyInfo) Missing(want []Field) []Field {
	return lo.Filter(want, func(f Field, _ int) bool { return !k.Has(f) })
}

// Sufficient reports whether every required field is populated.
func (k KeyInfo) Sufficient(required []Field) bool {
	return len(k.Missing(required)) == 0
}

func (k *KeyInfo) add(f Field, content string) {
	switch f {
	case FieldLearningGoals:
		k.LearningGoals = append(k.LearningGoals, content)
	case FieldChallenges:
		k.Challenges = append(k.Challenges, content)
	case FieldBackground:
		k.Background += content + " "
	case FieldPreferredStyle:
		k.PreferredStyle += content + " "
	case FieldAvailableTime:
		k.AvailableTime += content + " "
	case FieldCurrentLevel:
		k.CurrentLevel += content + " "
	}
}

// DeriveKeyInfo rebuilds KeyInfo from the whole history. It keeps no state
// between calls: the same history always yields the same KeyInfo. Only
// messages written by the student are scanned, so the assistant's own
// questions ("你的学习目标是什么？") never count as answers.
func DeriveKeyInfo(history []Message, rules KeyInfoRules) KeyInfo {
	info := KeyInfo{
		LearningGoals: []string{},
		Challenges:    []string{},
	}

	for _, msg := range history {
		if msg.Role != RoleUser {
			continue
		}
		content := strings.ToLower(msg.Content)
		for _, f := range AllFields {
			if containsAny(content, rules.Keywords[f]) {
				info.add(f, content)
			}
		}
	}

	return info
}

func containsAny(s string, keywords []string) bool {
	return lo.ContainsBy(keywords, func(kw string) bool {
		return kw != "" && strings.Contains(s, strings.ToLower(kw))
	})
}
