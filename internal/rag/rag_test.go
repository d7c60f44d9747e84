package rag

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mentor/internal/store"
	"github.com/abhisek/mentor/internal/vector"
)

func newService(t *testing.T) (*Service, *vector.Memory) {
	t.Helper()
	mem := vector.NewMemory(vector.NewHashEmbedder(0))
	return New(mem, zerolog.Nop()), mem
}

func intPtr(i int) *int { return &i }

func TestFormatPlan(t *testing.T) {
	text := FormatPlan(&store.LearningPlan{
		Title:       "分数入门",
		Description: "四周掌握分数",
		Objectives:  []string{"理解分数", "分数加法"},
		Content:     map[string]any{"week2": "加法", "week1": "概念"},
	})
	want := strings.Join([]string{
		"学习计划：分数入门",
		"描述：四周掌握分数",
		"学习目标：",
		"- 理解分数",
		"- 分数加法",
		"学习内容：",
		"week1: 概念",
		"week2: 加法",
	}, "\n")
	assert.Equal(t, want, text)

	assert.Equal(t, "学习计划：未命名计划", FormatPlan(&store.LearningPlan{}))
}

func TestFormatPlan_NestedContent(t *testing.T) {
	text := FormatPlan(&store.LearningPlan{
		Title:   "t",
		Content: map[string]any{"modules": []any{"a", "b"}},
	})
	assert.Contains(t, text, `modules: ["a","b"]`)
}

func TestFormatProfile(t *testing.T) {
	text := FormatProfile(&store.Student{
		Name:          "小明",
		Age:           intPtr(10),
		Interests:     []string{"足球", "画画"},
		LearningGoals: "提高数学",
		LearningStyle: "视觉型",
		Background:    "四年级",
	})
	want := strings.Join([]string{
		"学生姓名：小明",
		"年龄：10",
		"年级：未知",
		"兴趣爱好：足球, 画画",
		"学习目标：提高数学",
		"学习风格：视觉型",
		"背景信息：四年级",
	}, "\n")
	assert.Equal(t, want, text)

	assert.Equal(t, "学生姓名：未知\n年龄：未知\n年级：未知", FormatProfile(&store.Student{}))
}

func TestStoreAndSearchLearningPlans(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	require.NoError(t, svc.StoreLearningPlan(ctx, &store.LearningPlan{
		ID: 1, StudentID: 10, Title: "分数入门", Objectives: []string{"分数加法"}, CreatedAt: time.Now(),
	}))
	require.NoError(t, svc.StoreLearningPlan(ctx, &store.LearningPlan{
		ID: 2, StudentID: 20, Title: "英语语法", Objectives: []string{"过去时"}, CreatedAt: time.Now(),
	}))
	assert.Equal(t, 2, mem.Len(NamespacePlans))

	hits, err := svc.SearchLearningPlans(ctx, "分数", 0, 5)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "1", hits[0].Metadata["plan_id"])
	assert.Equal(t, "learning_plan", hits[0].Metadata["type"])

	hits, err = svc.SearchLearningPlans(ctx, "分数", 20, 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "20", hits[0].Metadata["student_id"])
}

func TestStoreTeachingMaterial_ChunksLongText(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	long := strings.Repeat("分数表示整体的一部分。", 120)
	id, chunks, err := svc.StoreTeachingMaterial(ctx, "", long, map[string]string{"subject": "数学", "level": "初级"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Greater(t, chunks, 1)
	assert.Equal(t, chunks, mem.Len(NamespaceMaterials))

	hits, err := svc.SearchTeachingMaterials(ctx, "分数", "数学", "初级", 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	for _, h := range hits {
		assert.Equal(t, id, h.Metadata["material_id"])
		assert.Equal(t, "teaching_material", h.Metadata["type"])
		assert.LessOrEqual(t, len([]rune(h.Content)), ChunkSize)
	}

	hits, err = svc.SearchTeachingMaterials(ctx, "分数", "英语", "", 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestStoreTeachingMaterial_KeepsGivenID(t *testing.T) {
	svc, _ := newService(t)
	id, chunks, err := svc.StoreTeachingMaterial(context.Background(), "frac-101", "分数基础", nil)
	require.NoError(t, err)
	assert.Equal(t, "frac-101", id)
	assert.Equal(t, 1, chunks)
}

func TestStudentProfiles(t *testing.T) {
	svc, mem := newService(t)
	ctx := context.Background()

	students := []*store.Student{
		{ID: 1, Name: "小明", Grade: "四年级", Interests: []string{"足球", "数学"}, LearningStyle: "视觉型"},
		{ID: 2, Name: "小红", Grade: "四年级", Interests: []string{"足球", "数学"}, LearningStyle: "视觉型"},
		{ID: 3, Name: "Tom", Grade: "Year 9", Interests: []string{"chess"}, LearningStyle: "auditory"},
	}
	for _, s := range students {
		require.NoError(t, svc.UpdateStudentProfile(ctx, s))
	}

	// Updating twice keeps a single profile per student.
	require.NoError(t, svc.UpdateStudentProfile(ctx, students[0]))
	assert.Equal(t, 3, mem.Len(NamespaceProfiles))

	similar, err := svc.FindSimilarStudents(ctx, students[0], 1)
	require.NoError(t, err)
	require.Len(t, similar, 1)
	assert.Equal(t, 2, similar[0].StudentID)
	assert.Equal(t, "小红", similar[0].Name)
	assert.Equal(t, "四年级", similar[0].Grade)

	similar, err = svc.FindSimilarStudents(ctx, students[0], 5)
	require.NoError(t, err)
	assert.Len(t, similar, 2)
	for _, s := range similar {
		assert.NotEqual(t, 1, s.StudentID)
	}

	require.NoError(t, svc.RemoveStudentProfile(ctx, 2))
	assert.Equal(t, 2, mem.Len(NamespaceProfiles))
}

func TestDisabledIndex(t *testing.T) {
	svc := New(vector.Nop{}, zerolog.Nop())
	ctx := context.Background()

	assert.False(t, svc.Enabled())
	require.NoError(t, svc.UpdateStudentProfile(ctx, &store.Student{ID: 1, Name: "a"}))

	similar, err := svc.FindSimilarStudents(ctx, &store.Student{ID: 1}, 3)
	require.NoError(t, err)
	assert.Empty(t, similar)

	hits, err := svc.SearchTeachingMaterials(ctx, "q", "", "", 3)
	require.NoError(t, err)
	assert.Empty(t, hits)
}
