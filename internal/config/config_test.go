package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads so the host environment does
// not leak into the test.
func clearEnv(t *testing.T) {
	t.Helper()
	vendorKeys := []string{
		"PINECONE_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY",
		"ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "DEEPSEEK_API_KEY",
	}
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "MENTOR_") || slices.Contains(vendorKeys, key) {
			t.Setenv(key, "")
			os.Unsetenv(key)
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("MENTOR_LLM_PROVIDER", "mock")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "", cfg.DB)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Equal(t, 90*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.Summaries)
	assert.Equal(t, VectorMemory, cfg.Vector.Backend)
	assert.Equal(t, "mock", cfg.LLM.Provider)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MENTOR_LLM_PROVIDER", "mock")
	t.Setenv("MENTOR_ADDR", "127.0.0.1:9000")
	t.Setenv("MENTOR_DB", "postgres://u:p@localhost/mentor")
	t.Setenv("MENTOR_LOG_PRETTY", "yes")
	t.Setenv("MENTOR_MIN_TURNS", "5")
	t.Setenv("MENTOR_REQUEST_TIMEOUT", "2m")
	t.Setenv("MENTOR_VECTOR_BACKEND", "none")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, "postgres://u:p@localhost/mentor", cfg.DB)
	assert.True(t, cfg.LogPretty)
	assert.Equal(t, 5, cfg.MinTurns)
	assert.Equal(t, 2*time.Minute, cfg.RequestTimeout)
	assert.Equal(t, VectorNone, cfg.Vector.Backend)

	rules, err := cfg.Rules()
	require.NoError(t, err)
	assert.Equal(t, 5, rules.Phase.MinTurns)
}

func TestLoad_DiscoversVendorKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.OpenAI.APIKey)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown vector backend", map[string]string{"MENTOR_VECTOR_BACKEND": "chroma"}},
		{"pinecone without key", map[string]string{"MENTOR_VECTOR_BACKEND": "pinecone"}},
		{"negative min turns", map[string]string{"MENTOR_MIN_TURNS": "-1"}},
		{"empty addr", map[string]string{"MENTOR_ADDR": ""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("MENTOR_LLM_PROVIDER", "mock")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoad_LLMWithoutKeyFails(t *testing.T) {
	clearEnv(t)
	t.Setenv("MENTOR_LLM_PROVIDER", "anthropic")

	_, err := Load()
	assert.ErrorContains(t, err, "MENTOR_ANTHROPIC_API_KEY")
}

func TestLoadVector_IgnoresLLM(t *testing.T) {
	clearEnv(t)
	t.Setenv("MENTOR_LLM_PROVIDER", "anthropic")
	t.Setenv("MENTOR_VECTOR_BACKEND", "none")

	v, err := LoadVector()
	require.NoError(t, err)
	assert.Equal(t, VectorNone, v.Backend)

	t.Setenv("MENTOR_VECTOR_BACKEND", "pinecone")
	_, err = LoadVector()
	assert.ErrorContains(t, err, "PINECONE_API_KEY")
}

func TestRules_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"phase":{"affirmations":["ok"]}}`), 0o644))

	cfg := &Config{RulesFile: path}
	rules, err := cfg.Rules()
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, rules.Phase.Affirmations)
	assert.Equal(t, 3, rules.Phase.MinTurns)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("MENTOR_DOTENV_PROBE=from-file\n"), 0o644))
	t.Setenv("MENTOR_DOTENV_PROBE", "")
	os.Unsetenv("MENTOR_DOTENV_PROBE")

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	assert.Equal(t, "from-file", os.Getenv("MENTOR_DOTENV_PROBE"))
}
