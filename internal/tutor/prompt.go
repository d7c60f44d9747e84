package tutor

import (
	"fmt"
	"strings"
)

// StrategyTemplate is an ordered list of teaching directives.
type StrategyTemplate struct {
	Intro string
	Steps []string
}

// strategyTemplates holds the five instructional templates keyed by strategy.
var strategyTemplates = map[Strategy]StrategyTemplate{
	StrategyClarify: {
		Intro: "学生似乎对某些概念感到困惑。请：",
		Steps: []string{
			"用更简单的语言重新解释核心概念",
			"使用生活中的类比帮助理解",
			"将复杂概念分解成小步骤",
			"确认学生理解后再继续",
		},
	},
	StrategyAnswerQuestion: {
		Intro: "学生提出了问题。请：",
		Steps: []string{
			"直接回答学生的具体问题",
			"确保答案清晰易懂",
			"提供相关例子",
			"询问是否还有其他疑问",
		},
	},
	StrategyAdvance: {
		Intro: "学生已经掌握了当前概念。请：",
		Steps: []string{
			"表扬学生的理解",
			"引入相关的更深层次概念",
			"建立新旧知识之间的联系",
			"保持循序渐进",
		},
	},
	StrategyEncourage: {
		Intro: "学生需要更多鼓励和引导。请：",
		Steps: []string{
			"给予积极的反馈",
			"提出引导性的简单问题",
			"降低问题难度",
			"创造轻松的学习氛围",
		},
	},
	StrategyElaborate: {
		Intro: "继续深入讲解。请：",
		Steps: []string{
			"提供更多细节和例子",
			"通过提问检查理解程度",
			"鼓励学生主动思考",
			"保持互动性",
		},
	},
}

// Template returns the directive template for s, falling back to elaborate
// for unknown strategies.
func Template(s Strategy) StrategyTemplate {
	if t, ok := strategyTemplates[s]; ok {
		return t
	}
	return strategyTemplates[StrategyElaborate]
}

// AssemblePrompt builds the directive block for an adaptive teaching turn.
func AssemblePrompt(studentName, topic string, s Strategy) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("你正在教授%s关于%s的知识。\n", studentName, topic))

	t := Template(s)
	b.WriteString(t.Intro)
	b.WriteString("\n")
	for i, step := range t.Steps {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
	}

	return b.String()
}
