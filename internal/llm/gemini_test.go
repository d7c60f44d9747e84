package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":            map[string]any{"type": "string", "description": "Short plan title"},
			"objectives":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"difficulty_level": map[string]any{"type": "integer", "minimum": 1.0, "maximum": 5.0},
			"style":            map[string]any{"type": "string", "enum": []any{"视觉型", "听觉型"}},
		},
		"required": []any{"title", "objectives", "difficulty_level"},
	}

	s := geminiSchema(def)

	assert.Equal(t, genai.TypeObject, s.Type)
	require.Len(t, s.Properties, 4)
	assert.Equal(t, "Short plan title", s.Properties["title"].Description)
	assert.Equal(t, genai.TypeArray, s.Properties["objectives"].Type)
	assert.Equal(t, genai.TypeString, s.Properties["objectives"].Items.Type)
	assert.Equal(t, genai.TypeInteger, s.Properties["difficulty_level"].Type)
	assert.Equal(t, 1.0, *s.Properties["difficulty_level"].Minimum)
	assert.Equal(t, 5.0, *s.Properties["difficulty_level"].Maximum)
	assert.Equal(t, []string{"视觉型", "听觉型"}, s.Properties["style"].Enum)
	assert.Equal(t, []string{"title", "objectives", "difficulty_level"}, s.Required)
	assert.Equal(t, []string{"title", "objectives", "difficulty_level"}, s.PropertyOrdering)
}

func TestGeminiSchema_GoLiteralRequired(t *testing.T) {
	s := geminiSchema(map[string]any{
		"type":       "object",
		"properties": map[string]any{"summary": map[string]any{"type": "string"}},
		"required":   []string{"summary", "missing"},
	})
	assert.Equal(t, []string{"summary", "missing"}, s.Required)
	assert.Equal(t, []string{"summary"}, s.PropertyOrdering)
}

func TestGeminiContents(t *testing.T) {
	got := geminiContents([]Message{
		{Role: RoleAssistant, Content: "欢迎"},
		{Role: RoleUser, Content: "谢谢"},
	})
	require.Len(t, got, 3)
	assert.Equal(t, "user", got[0].Role)
	assert.Equal(t, openingTurn, got[0].Parts[0].Text)
	assert.Equal(t, "model", got[1].Role)
	assert.Equal(t, "user", got[2].Role)
}

func TestGeminiStop(t *testing.T) {
	reply := func(r genai.FinishReason) *genai.GenerateContentResponse {
		return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: r}}}
	}
	assert.Equal(t, StopEnd, geminiStop(&genai.GenerateContentResponse{}))
	assert.Equal(t, StopEnd, geminiStop(reply(genai.FinishReasonStop)))
	assert.Equal(t, StopMaxTokens, geminiStop(reply(genai.FinishReasonMaxTokens)))
	assert.Equal(t, StopError, geminiStop(reply(genai.FinishReasonSafety)))
}

func TestNewGeminiProvider_RequiresKey(t *testing.T) {
	_, err := NewGeminiProvider(t.Context(), GeminiConfig{Model: "gemini-flash"})
	assert.Error(t, err)
	assert.Equal(t, "gemini-2.0-flash", resolveModel("gemini-flash", geminiModels))
	assert.Equal(t, "gemini-2.5-pro", resolveModel("gemini-2.5-pro", geminiModels))
}
