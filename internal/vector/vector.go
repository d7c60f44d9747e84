// Package vector stores text embeddings in namespaces and answers
// similarity queries over them.
package vector

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
)

// Document is a piece of text to embed and store.
type Document struct {
	ID       string
	Text     string
	Metadata map[string]any
}

// Match is a query hit. Score is the cosine similarity, higher is closer.
type Match struct {
	ID       string
	Score    float64
	Text     string
	Metadata map[string]any
}

// Filter restricts matches to documents whose metadata fields equal the
// given values. Values are compared as strings.
type Filter map[string]string

// Index is a namespaced vector store.
type Index interface {
	// Upsert embeds and stores docs, replacing any with the same ID.
	Upsert(ctx context.Context, namespace string, docs []Document) error

	// Query returns up to k documents most similar to text.
	Query(ctx context.Context, namespace, text string, k int, filter Filter) ([]Match, error)

	// DeleteByFilter removes every document matching filter. An empty
	// filter is rejected.
	DeleteByFilter(ctx context.Context, namespace string, filter Filter) error

	// Enabled reports whether the index actually stores anything.
	Enabled() bool
}

// textKey is the metadata field carrying the document text.
const textKey = "content"

// NewOpenAIEmbedder returns a langchaingo embedder backed by the OpenAI
// embeddings API.
func NewOpenAIEmbedder(apiKey, model string) (embeddings.Embedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required for embeddings")
	}
	opts := []openai.Option{openai.WithToken(apiKey)}
	if model != "" {
		opts = append(opts, openai.WithEmbeddingModel(model))
	}
	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create openai client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}
	return embedder, nil
}

// withText copies the metadata with the document text added. String
// slices become []any, the only list type structpb accepts.
func withText(doc Document) map[string]any {
	md := make(map[string]any, len(doc.Metadata)+1)
	for k, v := range doc.Metadata {
		if ss, ok := v.([]string); ok {
			v = lo.ToAnySlice(ss)
		}
		md[k] = v
	}
	md[textKey] = doc.Text
	return md
}

func splitText(md map[string]any) (string, map[string]any) {
	text, _ := md[textKey].(string)
	out := make(map[string]any, len(md))
	for k, v := range md {
		if k != textKey {
			out[k] = v
		}
	}
	return text, out
}
