package store

import (
	"context"
	"errors"
	"testing"

	"github.com/abhisek/mentor/internal/tutor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file:" + t.Name() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func createStudent(t *testing.T, s *Store, name string) *Student {
	t.Helper()
	st, err := s.Students().Create(context.Background(), &Student{Name: name, Grade: "初二"})
	if err != nil {
		t.Fatalf("create student: %v", err)
	}
	return st
}

func TestOpenClose(t *testing.T) {
	s := openTestStore(t)
	if s.Client() == nil {
		t.Fatal("expected non-nil ent client")
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestIsPostgresDSN(t *testing.T) {
	assert.True(t, IsPostgresDSN("postgres://u:p@localhost/mentor?sslmode=disable"))
	assert.True(t, IsPostgresDSN("postgresql://localhost/mentor"))
	assert.False(t, IsPostgresDSN("/var/lib/mentor/mentor.db"))
	assert.False(t, IsPostgresDSN("file::memory:?cache=shared"))
}

func TestStudentCRUD(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.Students()

	age := 13
	created, err := repo.Create(ctx, &Student{
		Name:          "小明",
		Age:           &age,
		Grade:         "初一",
		Interests:     []string{"篮球", "编程"},
		LearningStyle: "视觉型",
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, []string{"篮球", "编程"}, created.Interests)
	assert.NotNil(t, created.KnowledgeLevel)

	got, err := repo.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "小明", got.Name)
	require.NotNil(t, got.Age)
	assert.Equal(t, 13, *got.Age)

	grade := "初二"
	updated, err := repo.Update(ctx, created.ID, StudentUpdate{Grade: &grade})
	require.NoError(t, err)
	assert.Equal(t, "初二", updated.Grade)
	assert.Equal(t, "小明", updated.Name, "unset fields must be preserved")
	assert.Equal(t, "视觉型", updated.LearningStyle)

	require.NoError(t, repo.Delete(ctx, created.ID))

	_, err = repo.Get(ctx, created.ID)
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)

	err = repo.Delete(ctx, created.ID)
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound on second delete, got %v", err)
}

func TestStudentCreateRejectsEmptyName(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Students().Create(context.Background(), &Student{Name: ""})
	assert.True(t, errors.Is(err, ErrInvalid), "expected ErrInvalid, got %v", err)
}

func TestStudentListPagination(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c", "d", "e"} {
		createStudent(t, s, name)
	}

	page, total, err := s.Students().List(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, "b", page[0].Name)
	assert.Equal(t, "c", page[1].Name)

	page, _, err = s.Students().List(ctx, 4, 10)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "e", page[0].Name)
}

func TestConversationTurnsAndPhase(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	st := createStudent(t, s, "小红")
	repo := s.Conversations()

	conv, err := repo.Create(ctx, st.ID, "代数")
	require.NoError(t, err)
	assert.Equal(t, tutor.PhaseActive, conv.Status)
	assert.Equal(t, 0, conv.TurnCount)
	assert.False(t, conv.HasLearningPlan)

	for want := 1; want <= 3; want++ {
		conv, err = repo.IncrementTurn(ctx, conv.ID)
		require.NoError(t, err)
		assert.Equal(t, want, conv.TurnCount)
	}

	conv, err = repo.SetPhase(ctx, conv.ID, tutor.PhasePlanning, false)
	require.NoError(t, err)
	assert.Equal(t, tutor.PhasePlanning, conv.Status)
	assert.False(t, conv.HasLearningPlan)

	conv, err = repo.SetPhase(ctx, conv.ID, tutor.PhaseCompleted, true)
	require.NoError(t, err)
	assert.Equal(t, tutor.PhaseCompleted, conv.Status)
	assert.True(t, conv.HasLearningPlan)

	_, err = repo.SetPhase(ctx, conv.ID, tutor.Phase("paused"), false)
	assert.True(t, errors.Is(err, ErrInvalid), "expected ErrInvalid, got %v", err)

	_, err = repo.IncrementTurn(ctx, 9999)
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)
}

func TestConversationListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	st := createStudent(t, s, "小刚")

	first, err := s.Conversations().Create(ctx, st.ID, "一")
	require.NoError(t, err)
	second, err := s.Conversations().Create(ctx, st.ID, "二")
	require.NoError(t, err)

	list, err := s.Conversations().ListByStudent(ctx, st.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestMessagesInOrder(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	st := createStudent(t, s, "小李")
	conv, err := s.Conversations().Create(ctx, st.ID, "")
	require.NoError(t, err)

	contents := []string{"你好", "你好！我是你的学习顾问", "我想学代数"}
	roles := []tutor.Role{tutor.RoleUser, tutor.RoleAssistant, tutor.RoleUser}
	for i := range contents {
		_, err := s.Conversations().AppendMessage(ctx, &Message{
			ConversationID: conv.ID,
			Role:           roles[i],
			Content:        contents[i],
			Metadata:       map[string]any{"index": i},
		})
		require.NoError(t, err)
	}

	msgs, err := s.Conversations().Messages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	for i, m := range msgs {
		assert.Equal(t, contents[i], m.Content)
		assert.Equal(t, roles[i], m.Role)
	}
	assert.EqualValues(t, 1, msgs[1].Metadata["index"])
}

func TestInTxRollsBack(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	st := createStudent(t, s, "小王")
	conv, err := s.Conversations().Create(ctx, st.ID, "")
	require.NoError(t, err)

	boom := errors.New("boom")
	err = s.InTx(ctx, func(r Repos) error {
		if _, err := r.Conversations().IncrementTurn(ctx, conv.ID); err != nil {
			return err
		}
		if _, err := r.Conversations().AppendMessage(ctx, &Message{
			ConversationID: conv.ID,
			Role:           tutor.RoleUser,
			Content:        "will be rolled back",
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := s.Conversations().Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TurnCount)

	msgs, err := s.Conversations().Messages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestInTxCommits(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	st := createStudent(t, s, "小赵")
	conv, err := s.Conversations().Create(ctx, st.ID, "")
	require.NoError(t, err)

	err = s.InTx(ctx, func(r Repos) error {
		if _, err := r.Conversations().IncrementTurn(ctx, conv.ID); err != nil {
			return err
		}
		_, err := r.Conversations().AppendMessage(ctx, &Message{
			ConversationID: conv.ID,
			Role:           tutor.RoleUser,
			Content:        "kept",
		})
		return err
	})
	require.NoError(t, err)

	got, err := s.Conversations().Get(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TurnCount)

	msgs, err := s.Conversations().Messages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestPlansAndProgress(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	st := createStudent(t, s, "小周")

	_, err := s.Plans().Active(ctx, st.ID)
	assert.True(t, errors.Is(err, ErrNotFound), "expected ErrNotFound, got %v", err)

	older, err := s.Plans().Create(ctx, &LearningPlan{StudentID: st.ID, Title: "旧计划"})
	require.NoError(t, err)
	assert.Equal(t, 30, older.EstimatedDays)
	assert.Equal(t, 3, older.DifficultyLevel)
	assert.True(t, older.IsActive)

	newer, err := s.Plans().Create(ctx, &LearningPlan{
		StudentID:       st.ID,
		Title:           "代数入门",
		Objectives:      []string{"掌握一元一次方程"},
		EstimatedDays:   14,
		DifficultyLevel: 2,
	})
	require.NoError(t, err)

	active, err := s.Plans().Active(ctx, st.ID)
	require.NoError(t, err)
	assert.Equal(t, newer.ID, active.ID)

	plans, err := s.Plans().ListByStudent(ctx, st.ID)
	require.NoError(t, err)
	assert.Len(t, plans, 2)

	_, err = s.Progress().Latest(ctx, st.ID, newer.ID)
	assert.True(t, errors.Is(err, ErrNotFound))

	p, err := s.Progress().Save(ctx, &LearningProgress{
		StudentID:      st.ID,
		LearningPlanID: newer.ID,
		CurrentModule:  "方程",
		MasteryLevel:   4,
	})
	require.NoError(t, err)

	p.ProgressPercentage = 10
	p, err = s.Progress().Save(ctx, p)
	require.NoError(t, err)

	latest, err := s.Progress().Latest(ctx, st.ID, newer.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, latest.ID)
	assert.InDelta(t, 10.0, latest.ProgressPercentage, 0.001)
	assert.Equal(t, 4, latest.MasteryLevel)
}

func TestDeleteStudentCascades(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	st := createStudent(t, s, "小孙")

	conv, err := s.Conversations().Create(ctx, st.ID, "")
	require.NoError(t, err)
	_, err = s.Conversations().AppendMessage(ctx, &Message{ConversationID: conv.ID, Role: tutor.RoleUser, Content: "hi"})
	require.NoError(t, err)
	plan, err := s.Plans().Create(ctx, &LearningPlan{StudentID: st.ID, Title: "计划"})
	require.NoError(t, err)
	_, err = s.Progress().Save(ctx, &LearningProgress{StudentID: st.ID, LearningPlanID: plan.ID})
	require.NoError(t, err)

	require.NoError(t, s.Students().Delete(ctx, st.ID))

	_, err = s.Conversations().Get(ctx, conv.ID)
	assert.True(t, errors.Is(err, ErrNotFound), "conversation should be gone, got %v", err)
	_, err = s.Plans().Get(ctx, plan.ID)
	assert.True(t, errors.Is(err, ErrNotFound), "plan should be gone, got %v", err)

	msgs, err := s.Conversations().Messages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestEventRepoLLMEvents(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	repo := s.EventRepo()

	events := []LLMRequestEventData{
		{RequestID: "r1", Provider: "anthropic", Model: "claude-sonnet-4-20250514", Purpose: "assessment", InputTokens: 100, OutputTokens: 50, LatencyMs: 200, Success: true},
		{RequestID: "r2", Provider: "anthropic", Model: "claude-sonnet-4-20250514", Purpose: "teaching", InputTokens: 300, OutputTokens: 150, LatencyMs: 400, Success: true},
		{RequestID: "r3", Provider: "openai", Model: "gpt-4o", Purpose: "teaching", LatencyMs: 100, Success: false, ErrorMessage: "rate limited"},
	}
	for _, e := range events {
		require.NoError(t, repo.AppendLLMRequest(ctx, e))
	}

	recent, err := repo.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "r3", recent[0].RequestID)
	assert.Equal(t, "r2", recent[1].RequestID)
	assert.Greater(t, recent[0].Sequence, recent[1].Sequence)

	teaching, err := repo.QueryLLMEvents(ctx, QueryOpts{Purpose: "teaching"})
	require.NoError(t, err)
	assert.Len(t, teaching, 2)

	got, err := repo.GetLLMEvent(ctx, recent[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "rate limited", got.ErrorMessage)

	missing, err := repo.GetLLMEvent(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	byPurpose, err := repo.LLMUsageByPurpose(ctx)
	require.NoError(t, err)
	require.Len(t, byPurpose, 2)
	assert.Equal(t, "assessment", byPurpose[0].Purpose)
	assert.Equal(t, 1, byPurpose[0].Calls)
	assert.Equal(t, "teaching", byPurpose[1].Purpose)
	assert.Equal(t, 2, byPurpose[1].Calls)
	assert.Equal(t, 300, byPurpose[1].InputTokens)
	assert.EqualValues(t, 250, byPurpose[1].AvgLatencyMs)

	byModel, err := repo.LLMUsageByModel(ctx)
	require.NoError(t, err)
	require.Len(t, byModel, 1, "failed calls are excluded from model usage")
	assert.Equal(t, 2, byModel[0].Calls)
	assert.Equal(t, 400, byModel[0].InputTokens)
}
