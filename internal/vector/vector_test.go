package vector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/embeddings"
)

var _ embeddings.Embedder = (*HashEmbedder)(nil)

func seedMemory(t *testing.T) *Memory {
	t.Helper()
	m := NewMemory(NewHashEmbedder(0))
	err := m.Upsert(context.Background(), "materials", []Document{
		{ID: "a", Text: "分数的加法和减法", Metadata: map[string]any{"subject": "数学", "level": "初级"}},
		{ID: "b", Text: "分数的乘法", Metadata: map[string]any{"subject": "数学", "level": "中级"}},
		{ID: "c", Text: "英语过去时态", Metadata: map[string]any{"subject": "英语", "level": "初级"}},
	})
	require.NoError(t, err)
	return m
}

func TestMemory_QueryRanksBySimilarity(t *testing.T) {
	m := seedMemory(t)

	matches, err := m.Query(context.Background(), "materials", "分数加法", 2, nil)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID)
	assert.Equal(t, "分数的加法和减法", matches[0].Text)
	assert.GreaterOrEqual(t, matches[0].Score, matches[1].Score)
}

func TestMemory_QueryFilter(t *testing.T) {
	m := seedMemory(t)

	matches, err := m.Query(context.Background(), "materials", "分数", 5, Filter{"level": "初级"})
	require.NoError(t, err)
	ids := make([]string, 0, len(matches))
	for _, mm := range matches {
		ids = append(ids, mm.ID)
	}
	assert.ElementsMatch(t, []string{"a", "c"}, ids)
}

func TestMemory_NamespacesAreIsolated(t *testing.T) {
	m := seedMemory(t)

	matches, err := m.Query(context.Background(), "profiles", "分数", 5, nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
	assert.Equal(t, 3, m.Len("materials"))
}

func TestMemory_UpsertReplaces(t *testing.T) {
	m := seedMemory(t)
	ctx := context.Background()

	require.NoError(t, m.Upsert(ctx, "materials", []Document{{ID: "a", Text: "几何图形"}}))
	assert.Equal(t, 3, m.Len("materials"))

	matches, err := m.Query(ctx, "materials", "几何图形", 1, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "a", matches[0].ID)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestMemory_DeleteByFilter(t *testing.T) {
	m := seedMemory(t)
	ctx := context.Background()

	require.NoError(t, m.DeleteByFilter(ctx, "materials", Filter{"subject": "数学"}))
	assert.Equal(t, 1, m.Len("materials"))

	assert.ErrorIs(t, m.DeleteByFilter(ctx, "materials", nil), ErrEmptyFilter)
}

func TestMemory_ZeroK(t *testing.T) {
	m := seedMemory(t)
	matches, err := m.Query(context.Background(), "materials", "分数", 0, nil)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

type failingEmbedder struct{}

func (failingEmbedder) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, errors.New("quota exceeded")
}

func (failingEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, errors.New("quota exceeded")
}

func TestMemory_EmbedderErrors(t *testing.T) {
	m := NewMemory(failingEmbedder{})
	ctx := context.Background()

	assert.Error(t, m.Upsert(ctx, "ns", []Document{{ID: "x", Text: "t"}}))
	_, err := m.Query(ctx, "ns", "t", 1, nil)
	assert.Error(t, err)
}

func TestFilterMatchesByString(t *testing.T) {
	f := Filter{"student_id": "7"}
	assert.True(t, f.matches(map[string]any{"student_id": "7"}))
	assert.True(t, f.matches(map[string]any{"student_id": 7}))
	assert.False(t, f.matches(map[string]any{"student_id": "8"}))
	assert.False(t, f.matches(map[string]any{}))
}

func TestFilterToStruct(t *testing.T) {
	s, err := Filter{"level": "初级"}.toStruct()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"level": map[string]any{"$eq": "初级"}}, s.AsMap())
}

func TestWithTextAndSplit(t *testing.T) {
	md := withText(Document{Text: "hello", Metadata: map[string]any{"tags": []string{"a", "b"}}})
	assert.Equal(t, "hello", md[textKey])
	assert.Equal(t, []any{"a", "b"}, md["tags"])

	text, rest := splitText(md)
	assert.Equal(t, "hello", text)
	assert.NotContains(t, rest, textKey)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, cosine([]float32{1, 2}, []float32{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, cosine([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosine([]float32{0, 0}, []float32{1, 1}))
}

func TestNop(t *testing.T) {
	var idx Index = Nop{}
	assert.False(t, idx.Enabled())
	matches, err := idx.Query(context.Background(), "ns", "q", 3, nil)
	assert.NoError(t, err)
	assert.Empty(t, matches)
}
