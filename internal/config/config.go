// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/abhisek/mentor/internal/llm"
	"github.com/abhisek/mentor/internal/tutor"
)

// Vector backends.
const (
	VectorPinecone = "pinecone"
	VectorMemory   = "memory"
	VectorNone     = "none"
)

// Config holds all application configuration.
type Config struct {
	Addr           string
	DB             string // SQLite path or postgres:// DSN; empty uses the XDG default
	LogLevel       string
	LogPretty      bool
	MinTurns       int // 0 keeps the rules' value
	RulesFile      string
	RequestTimeout time.Duration
	Summaries      bool // compress finished assessment transcripts
	Vector         VectorConfig
	LLM            llm.Config
}

// VectorConfig selects and configures the similarity search backend.
type VectorConfig struct {
	Backend        string
	PineconeAPIKey string
	PineconeIndex  string
	EmbeddingModel string
	OpenAIAPIKey   string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Addr:           getEnv("MENTOR_ADDR", ":8080"),
		DB:             getEnv("MENTOR_DB", ""),
		LogLevel:       getEnv("MENTOR_LOG_LEVEL", "info"),
		LogPretty:      getEnvBool("MENTOR_LOG_PRETTY", false),
		MinTurns:       getEnvInt("MENTOR_MIN_TURNS", 0),
		RulesFile:      getEnv("MENTOR_RULES_FILE", ""),
		RequestTimeout: getEnvDuration("MENTOR_REQUEST_TIMEOUT", 90*time.Second),
		Summaries:      getEnvBool("MENTOR_SUMMARIES", true),
		Vector:         loadVector(),
		LLM:            loadLLM(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadVector reads and validates only the vector settings, for commands
// that index content without generating text.
func LoadVector() (VectorConfig, error) {
	v := loadVector()
	if err := v.Validate(); err != nil {
		return VectorConfig{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return v, nil
}

func loadVector() VectorConfig {
	return VectorConfig{
		Backend:        getEnv("MENTOR_VECTOR_BACKEND", VectorMemory),
		PineconeAPIKey: getEnv("PINECONE_API_KEY", ""),
		PineconeIndex:  getEnv("MENTOR_PINECONE_INDEX", "mentor"),
		EmbeddingModel: getEnv("MENTOR_EMBEDDING_MODEL", "text-embedding-3-small"),
		OpenAIAPIKey:   getEnv("OPENAI_API_KEY", ""),
	}
}

// loadLLM reads the MENTOR_* LLM keys. When no provider was chosen
// explicitly and the default one has no key, the standard vendor key
// variables are probed instead.
func loadLLM() llm.Config {
	cfg := llm.ConfigFromEnv()
	if _, explicit := os.LookupEnv("MENTOR_LLM_PROVIDER"); explicit {
		return cfg
	}
	if cfg.Validate() == nil {
		return cfg
	}
	if discovered, ok := llm.DiscoverConfig(); ok {
		discovered.Timeout = cfg.Timeout
		discovered.Retry = cfg.Retry
		return discovered
	}
	return cfg
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("MENTOR_ADDR cannot be empty")
	}
	if c.MinTurns < 0 {
		return fmt.Errorf("MENTOR_MIN_TURNS must be >= 0")
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("MENTOR_REQUEST_TIMEOUT must be > 0")
	}
	if err := c.Vector.Validate(); err != nil {
		return err
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	return nil
}

// Validate checks the backend choice and its credentials.
func (v VectorConfig) Validate() error {
	switch v.Backend {
	case VectorPinecone:
		if v.PineconeAPIKey == "" {
			return fmt.Errorf("PINECONE_API_KEY is required for the pinecone vector backend")
		}
		if v.PineconeIndex == "" {
			return fmt.Errorf("MENTOR_PINECONE_INDEX cannot be empty")
		}
		if v.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for pinecone embeddings")
		}
	case VectorMemory, VectorNone:
	default:
		return fmt.Errorf("unknown vector backend: %q", v.Backend)
	}
	return nil
}

// Rules loads the tutoring rules, applying MinTurns when set.
func (c *Config) Rules() (tutor.Rules, error) {
	rules, err := tutor.LoadRules(c.RulesFile)
	if err != nil {
		return tutor.Rules{}, err
	}
	if c.MinTurns > 0 {
		rules.Phase.MinTurns = c.MinTurns
	}
	return rules, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
