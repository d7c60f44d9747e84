package vector

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// HashEmbedder is an offline embedder that hashes runes and rune bigrams
// into a fixed number of buckets. Texts sharing characters land near each
// other, which is enough for local runs and tests without an API key.
type HashEmbedder struct {
	Dim int
}

// NewHashEmbedder returns a HashEmbedder with dim buckets (256 if dim <= 0).
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = 256
	}
	return &HashEmbedder{Dim: dim}
}

func (h *HashEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.embed(t)
	}
	return out, nil
}

func (h *HashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	return h.embed(text), nil
}

func (h *HashEmbedder) embed(text string) []float32 {
	v := make([]float32, h.Dim)
	runes := []rune(strings.ToLower(text))
	var prev rune
	for _, r := range runes {
		if unicode.IsSpace(r) || unicode.IsPunct(r) {
			prev = 0
			continue
		}
		v[h.bucket(string(r))]++
		if prev != 0 {
			v[h.bucket(string([]rune{prev, r}))] += 2
		}
		prev = r
	}
	return v
}

func (h *HashEmbedder) bucket(s string) int {
	f := fnv.New32a()
	_, _ = f.Write([]byte(s))
	return int(f.Sum32() % uint32(h.Dim))
}
