package conversation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/abhisek/mentor/internal/store"
	"github.com/abhisek/mentor/internal/tutor"
)

// Static replies that do not go through the model.
const (
	finishedReply = "我们的初步评估对话已经完成。如果您想开始学习，请告诉我您想学习的具体内容。"

	confirmReadinessPrompt = "我理解您可能还有疑问。请告诉我您还想了解什么，或者如果您准备好了，我们可以开始制定学习计划。"
)

// askOrder is the order in which missing information is requested.
var askOrder = []tutor.Field{
	tutor.FieldLearningGoals,
	tutor.FieldBackground,
	tutor.FieldCurrentLevel,
	tutor.FieldAvailableTime,
}

func displayName(st *store.Student) string {
	if st == nil || st.Name == "" {
		return "同学"
	}
	return st.Name
}

func orUnknown(s string) string {
	if s == "" {
		return "未知"
	}
	return s
}

func prettyJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func buildAssessmentPrompt(st *store.Student) string {
	age := "未知"
	if st.Age != nil {
		age = fmt.Sprintf("%d", *st.Age)
	}

	var b strings.Builder
	b.WriteString("你是一位经验丰富的教育顾问，正在与一位新学生进行初次对话。\n\n")
	b.WriteString("学生基本信息：\n")
	b.WriteString(fmt.Sprintf("- 姓名：%s\n", displayName(st)))
	b.WriteString(fmt.Sprintf("- 年龄：%s\n", age))
	b.WriteString(fmt.Sprintf("- 年级：%s\n", orUnknown(st.Grade)))
	b.WriteString(fmt.Sprintf("- 兴趣：%s\n\n", strings.Join(st.Interests, ", ")))
	b.WriteString("你的任务是通过友好的对话了解学生的：\n")
	b.WriteString("1. 学习背景和经历\n")
	b.WriteString("2. 学习目标和动机\n")
	b.WriteString("3. 学习风格和偏好\n")
	b.WriteString("4. 当前的知识水平\n")
	b.WriteString("5. 可用的学习时间\n\n")
	b.WriteString("请用温暖、鼓励的语气开始对话，先做简单的自我介绍，然后询问一个开放性问题。\n")
	b.WriteString("记住要循序渐进，不要一次问太多问题。")
	return b.String()
}

func buildNextQuestionPrompt(st *store.Student, info tutor.KeyInfo) string {
	missing := lo.Map(info.Missing(askOrder), func(f tutor.Field, _ int) string {
		return f.Label()
	})

	var b strings.Builder
	b.WriteString(fmt.Sprintf("继续与学生%s的对话。\n\n", displayName(st)))
	b.WriteString("已收集信息：\n")
	b.WriteString(prettyJSON(info))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("还需要了解：%s\n\n", strings.Join(missing, ", ")))
	b.WriteString("请基于之前的对话，自然地询问下一个问题。保持友好和鼓励的语气，一次只问一个问题。\n")
	b.WriteString("如果学生的回答不够具体，可以追问细节。")
	return b.String()
}

func buildSummaryPrompt(info tutor.KeyInfo) string {
	var b strings.Builder
	b.WriteString("基于之前的对话，你已经充分了解了学生的情况。\n\n")
	b.WriteString("学生关键信息总结：\n")
	b.WriteString(prettyJSON(info))
	b.WriteString("\n\n")
	b.WriteString("现在请你：\n")
	b.WriteString("1. 简要总结你对学生情况的理解\n")
	b.WriteString("2. 询问学生是否准备好开始制定个性化的学习计划\n")
	b.WriteString("3. 如果学生同意，告诉他们你将为他们设计一个适合的学习方案")
	return b.String()
}

func buildPlanPrompt(st *store.Student, info tutor.KeyInfo) string {
	var b strings.Builder
	b.WriteString("基于学生信息和对话总结，请创建一个详细的个性化学习计划。\n\n")
	b.WriteString("学生信息：\n")
	b.WriteString(prettyJSON(st))
	b.WriteString("\n\n对话总结：\n")
	b.WriteString(prettyJSON(info))
	b.WriteString("\n\n")
	b.WriteString("请创建一个结构化的学习计划，包含以下内容：\n")
	b.WriteString("1. 学习目标（具体、可衡量）\n")
	b.WriteString("2. 学习路径（分阶段的学习内容）\n")
	b.WriteString("3. 时间安排（每个阶段的预计时长）\n")
	b.WriteString("4. 学习资源推荐\n")
	b.WriteString("5. 评估方式\n\n")
	b.WriteString("请以JSON格式返回学习计划。")
	return b.String()
}

func planAnnouncement(p *store.LearningPlan) string {
	var b strings.Builder
	b.WriteString("太好了！我已经为您制定了个性化的学习计划。\n\n")
	b.WriteString(fmt.Sprintf("计划标题：%s\n", p.Title))
	b.WriteString(fmt.Sprintf("预计学习时长：%d天\n", p.EstimatedDays))
	b.WriteString(fmt.Sprintf("难度级别：%d/5\n\n", p.DifficultyLevel))
	b.WriteString("主要学习目标：\n")
	for _, obj := range p.Objectives {
		b.WriteString(fmt.Sprintf("- %s\n", obj))
	}
	b.WriteString("\n现在您可以开始学习了！如果您需要开始具体的学习内容，请告诉我您想学习哪个部分。")
	return b.String()
}
