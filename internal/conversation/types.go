package conversation

import (
	"github.com/abhisek/mentor/internal/store"
	"github.com/abhisek/mentor/internal/tutor"
)

// Config holds generation settings for assessment dialogues.
type Config struct {
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the settings used for every assessment turn.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   2000,
		Temperature: 0.7,
	}
}

// Reply is the outcome of a start or continue call.
type Reply struct {
	ConversationID  int         `json:"conversation_id"`
	Response        string      `json:"response"`
	Status          tutor.Phase `json:"status"`
	TurnCount       int         `json:"turn_count"`
	HasLearningPlan bool        `json:"has_learning_plan"`

	// Finished is set when the conversation was already completed or
	// archived and Response is the static closing message.
	Finished bool `json:"finished,omitempty"`

	// Plan is the learning plan created on this turn, if any.
	Plan *store.LearningPlan `json:"plan,omitempty"`
}

// History is a conversation transcript.
type History struct {
	ConversationID int              `json:"conversation_id"`
	Messages       []*store.Message `json:"messages"`
	Total          int              `json:"total"`
}
