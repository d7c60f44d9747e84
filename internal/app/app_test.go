package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mentor/internal/config"
	"github.com/abhisek/mentor/internal/llm"
	"github.com/abhisek/mentor/internal/store"
	"github.com/abhisek/mentor/internal/vector"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Addr:   ":0",
		DB:     "file:" + t.Name() + "?mode=memory&cache=shared",
		Vector: config.VectorConfig{Backend: config.VectorMemory},
		LLM:    llm.Config{Provider: "mock"},
	}
}

func TestNew_WiresServices(t *testing.T) {
	a, err := New(context.Background(), Options{Config: testConfig(t)})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	assert.True(t, a.RAG.Enabled())
	assert.Equal(t, "mock", a.Provider.ModelID())

	st, err := a.Students.Create(context.Background(), &store.Student{Name: "小明"})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/students/1", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), st.Name)

	w = httptest.NewRecorder()
	a.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")

	require.NoError(t, a.Close())
	assert.NoError(t, a.Close())
}

func TestNew_Overrides(t *testing.T) {
	mock := llm.NewMockProvider()
	a, err := New(context.Background(), Options{
		Config:   testConfig(t),
		Provider: mock,
		Index:    vector.Nop{},
	})
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	assert.Same(t, mock, a.Provider)
	assert.False(t, a.RAG.Enabled())
}

func TestNew_Errors(t *testing.T) {
	_, err := New(context.Background(), Options{})
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.RulesFile = "/nonexistent/rules.json"
	_, err = New(context.Background(), Options{Config: cfg})
	assert.ErrorContains(t, err, "load rules")
}

func TestNewIndex(t *testing.T) {
	ctx := context.Background()

	idx, closeFn, err := NewIndex(ctx, config.VectorConfig{Backend: config.VectorNone}, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, closeFn)
	assert.False(t, idx.Enabled())

	idx, _, err = NewIndex(ctx, config.VectorConfig{Backend: config.VectorMemory}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &vector.Memory{}, idx)

	_, _, err = NewIndex(ctx, config.VectorConfig{Backend: "chroma"}, zerolog.Nop())
	assert.Error(t, err)

	_, _, err = NewIndex(ctx, config.VectorConfig{Backend: config.VectorPinecone}, zerolog.Nop())
	assert.Error(t, err)
}
