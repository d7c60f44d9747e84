package rag

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/abhisek/mentor/internal/store"
)

// FormatPlan renders a learning plan as the text that gets embedded.
func FormatPlan(p *store.LearningPlan) string {
	var parts []string

	title := p.Title
	if title == "" {
		title = "未命名计划"
	}
	parts = append(parts, "学习计划："+title)

	if p.Description != "" {
		parts = append(parts, "描述："+p.Description)
	}

	if len(p.Objectives) > 0 {
		parts = append(parts, "学习目标：")
		for _, obj := range p.Objectives {
			parts = append(parts, "- "+obj)
		}
	}

	if len(p.Content) > 0 {
		parts = append(parts, "学习内容：")
		keys := make([]string, 0, len(p.Content))
		for k := range p.Content {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, renderValue(p.Content[k])))
		}
	}

	return strings.Join(parts, "\n")
}

// FormatProfile renders a student profile as the text that gets embedded.
func FormatProfile(s *store.Student) string {
	var parts []string

	parts = append(parts, "学生姓名："+orUnknown(s.Name))

	age := "未知"
	if s.Age != nil {
		age = strconv.Itoa(*s.Age)
	}
	parts = append(parts, "年龄："+age)
	parts = append(parts, "年级："+orUnknown(s.Grade))

	if len(s.Interests) > 0 {
		parts = append(parts, "兴趣爱好："+strings.Join(s.Interests, ", "))
	}
	if s.LearningGoals != "" {
		parts = append(parts, "学习目标："+s.LearningGoals)
	}
	if s.LearningStyle != "" {
		parts = append(parts, "学习风格："+s.LearningStyle)
	}
	if s.Background != "" {
		parts = append(parts, "背景信息："+s.Background)
	}

	return strings.Join(parts, "\n")
}

func orUnknown(s string) string {
	if s == "" {
		return "未知"
	}
	return s
}

func renderValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
