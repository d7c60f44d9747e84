package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// LangchainProvider implements Provider on top of a langchaingo model. It is
// useful for OpenAI-compatible gateways that langchaingo already speaks to.
type LangchainProvider struct {
	model   llms.Model
	modelID string
}

// NewLangchainProvider creates a provider backed by the langchaingo OpenAI
// client.
func NewLangchainProvider(cfg LangchainConfig) (*LangchainProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("langchain API key is required")
	}

	opts := []lcopenai.Option{
		lcopenai.WithModel(cfg.Model),
		lcopenai.WithToken(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, lcopenai.WithBaseURL(cfg.BaseURL))
	}

	model, err := lcopenai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create langchain client: %w", err)
	}

	return &LangchainProvider{model: model, modelID: cfg.Model}, nil
}

// newLangchainProviderWithModel wraps an existing langchaingo model.
func newLangchainProviderWithModel(model llms.Model, modelID string) *LangchainProvider {
	return &LangchainProvider{model: model, modelID: modelID}
}

func (p *LangchainProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	opts := []llms.CallOption{
		llms.WithMaxTokens(maxTokensOr(req.MaxTokens, DefaultMaxTokens)),
		llms.WithTemperature(req.Temperature),
	}
	if req.Schema != nil {
		opts = append(opts, llms.WithJSONMode())
	}

	resp, err := p.model.GenerateContent(ctx, langchainMessages(req), opts...)
	if err != nil {
		if ctxErr := contextError(err); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ErrProviderUnavailable{Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, &ErrInvalidResponse{Err: errors.New("langchain reply has no choices")}
	}

	choice := resp.Choices[0]
	usage := Usage{
		InputTokens:  generationInfoInt(choice.GenerationInfo, "PromptTokens"),
		OutputTokens: generationInfoInt(choice.GenerationInfo, "CompletionTokens"),
		TotalTokens:  generationInfoInt(choice.GenerationInfo, "TotalTokens"),
	}
	return finish(req, choice.Content, usage, p.modelID, langchainStop(choice.StopReason))
}

func (p *LangchainProvider) ModelID() string {
	return p.modelID
}

// Name returns "langchain".
func (p *LangchainProvider) Name() string {
	return "langchain"
}

func langchainMessages(req Request) []llms.MessageContent {
	turns := normalizeTurns(req.Messages)
	messages := make([]llms.MessageContent, 0, len(turns)+1)
	if req.System != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.System))
	}
	for _, m := range turns {
		msgType := llms.ChatMessageTypeHuman
		if m.Role == RoleAssistant {
			msgType = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.TextParts(msgType, m.Content))
	}
	return messages
}

func generationInfoInt(info map[string]any, key string) int {
	switch v := info[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func langchainStop(reason string) string {
	switch strings.ToLower(reason) {
	case "length", "max_tokens":
		return StopMaxTokens
	case "content_filter":
		return StopError
	default:
		return StopEnd
	}
}
