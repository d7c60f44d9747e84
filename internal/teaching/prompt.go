package teaching

import (
	"fmt"
	"strings"
)

const (
	defaultLevel  = "初级"
	defaultStyle  = "视觉型"
	defaultSource = "知识库"

	excerptRunes = 200
)

var socraticSteps = []string{
	"不要直接给出答案，而是通过提问引导学生思考",
	"从学生已知的概念出发，逐步引导到新知识",
	"鼓励学生主动思考和提问",
	"适时给予正面反馈和鼓励",
	"根据学生的回答调整教学节奏",
}

func buildTeachingPrompt(topic, level, style string, prev *PreviousLearning) string {
	if level == "" {
		level = defaultLevel
	}
	if style == "" {
		style = defaultStyle
	}

	var b strings.Builder
	b.WriteString("你是一位采用苏格拉底式教学法的优秀教师。\n\n")
	b.WriteString(fmt.Sprintf("教学主题：%s\n", topic))
	b.WriteString(fmt.Sprintf("学生水平：%s\n", level))
	b.WriteString(fmt.Sprintf("学习风格：%s\n", style))
	if prev != nil {
		b.WriteString(fmt.Sprintf("之前的学习内容：%s（进度%.0f%%）", prev.LastModule, prev.Progress))
		if len(prev.Challenges) > 0 {
			b.WriteString(fmt.Sprintf("，遇到的困难：%s", strings.Join(prev.Challenges, "、")))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n请使用启发式教学方法：\n")
	for i, step := range socraticSteps {
		b.WriteString(fmt.Sprintf("%d. %s\n", i+1, step))
	}
	b.WriteString("\n请开始你的教学，记住要循序渐进，保持互动性。")
	return b.String()
}

func openingMessage(topic string) string {
	return fmt.Sprintf("我想学习%s。", topic)
}

func excerpt(s string) string {
	r := []rune(s)
	if len(r) > excerptRunes {
		r = r[:excerptRunes]
	}
	return string(r) + "..."
}
