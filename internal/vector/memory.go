package vector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/samber/lo"
	"github.com/tmc/langchaingo/embeddings"
)

// ErrEmptyFilter is returned by DeleteByFilter when no filter is given.
var ErrEmptyFilter = errors.New("delete requires a non-empty filter")

type memoryEntry struct {
	vec []float32
	doc Document
}

// Memory is an in-process Index ranking by cosine similarity. It suits
// development and tests.
type Memory struct {
	embedder embeddings.Embedder

	mu         sync.RWMutex
	namespaces map[string]map[string]memoryEntry
}

// NewMemory creates an empty in-memory index.
func NewMemory(embedder embeddings.Embedder) *Memory {
	return &Memory{
		embedder:   embedder,
		namespaces: make(map[string]map[string]memoryEntry),
	}
}

func (m *Memory) Upsert(ctx context.Context, namespace string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	texts := lo.Map(docs, func(d Document, _ int) string { return d.Text })
	vecs, err := m.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	if len(vecs) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vecs), len(docs))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	ns, ok := m.namespaces[namespace]
	if !ok {
		ns = make(map[string]memoryEntry)
		m.namespaces[namespace] = ns
	}
	for i, d := range docs {
		ns[d.ID] = memoryEntry{vec: vecs[i], doc: d}
	}
	return nil
}

func (m *Memory) Query(ctx context.Context, namespace, text string, k int, filter Filter) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	q, err := m.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []Match
	for _, e := range m.namespaces[namespace] {
		if !filter.matches(e.doc.Metadata) {
			continue
		}
		matches = append(matches, Match{
			ID:       e.doc.ID,
			Score:    cosine(q, e.vec),
			Text:     e.doc.Text,
			Metadata: e.doc.Metadata,
		})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ID < matches[j].ID
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (m *Memory) DeleteByFilter(_ context.Context, namespace string, filter Filter) error {
	if len(filter) == 0 {
		return ErrEmptyFilter
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.namespaces[namespace] {
		if filter.matches(e.doc.Metadata) {
			delete(m.namespaces[namespace], id)
		}
	}
	return nil
}

func (m *Memory) Enabled() bool { return true }

// Len returns the number of documents stored in namespace.
func (m *Memory) Len(namespace string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.namespaces[namespace])
}

func (f Filter) matches(md map[string]any) bool {
	for k, want := range f {
		got, ok := md[k]
		if !ok || fmt.Sprint(got) != want {
			return false
		}
	}
	return true
}

func cosine(a, b []float32) float64 {
	n := min(len(a), len(b))
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
