package vector

import (
	"context"
	"fmt"
	"sync"

	"github.com/pinecone-io/go-pinecone/v3/pinecone"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/tmc/langchaingo/embeddings"
	"google.golang.org/protobuf/types/known/structpb"
)

// upsertBatchSize bounds the vectors sent per upsert call.
const upsertBatchSize = 100

// PineconeConfig configures the Pinecone index.
type PineconeConfig struct {
	APIKey    string
	IndexName string
}

// Pinecone is an Index backed by a Pinecone serverless index. Each
// namespace maps to a Pinecone namespace on the same index.
type Pinecone struct {
	client   *pinecone.Client
	host     string
	embedder embeddings.Embedder
	logger   zerolog.Logger

	mu    sync.Mutex
	conns map[string]*pinecone.IndexConnection
}

// NewPinecone connects to an existing index.
func NewPinecone(ctx context.Context, cfg PineconeConfig, embedder embeddings.Embedder, logger zerolog.Logger) (*Pinecone, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("pinecone API key is required")
	}
	if cfg.IndexName == "" {
		return nil, fmt.Errorf("pinecone index name is required")
	}

	pc, err := pinecone.NewClient(pinecone.NewClientParams{ApiKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create pinecone client: %w", err)
	}

	idx, err := pc.DescribeIndex(ctx, cfg.IndexName)
	if err != nil {
		return nil, fmt.Errorf("describe index %q: %w", cfg.IndexName, err)
	}

	logger.Info().Str("index", cfg.IndexName).Str("host", idx.Host).Msg("connected to pinecone")

	return &Pinecone{
		client:   pc,
		host:     idx.Host,
		embedder: embedder,
		logger:   logger,
		conns:    make(map[string]*pinecone.IndexConnection),
	}, nil
}

func (p *Pinecone) conn(namespace string) (*pinecone.IndexConnection, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.conns[namespace]; ok {
		return c, nil
	}
	c, err := p.client.Index(pinecone.NewIndexConnParams{
		Host:      p.host,
		Namespace: namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("index connection for %q: %w", namespace, err)
	}
	p.conns[namespace] = c
	return c, nil
}

func (p *Pinecone) Upsert(ctx context.Context, namespace string, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	texts := lo.Map(docs, func(d Document, _ int) string { return d.Text })
	vecs, err := p.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed documents: %w", err)
	}
	if len(vecs) != len(docs) {
		return fmt.Errorf("embedder returned %d vectors for %d documents", len(vecs), len(docs))
	}

	vectors := make([]*pinecone.Vector, 0, len(docs))
	for i, d := range docs {
		md, err := structpb.NewStruct(withText(d))
		if err != nil {
			return fmt.Errorf("metadata for %s: %w", d.ID, err)
		}
		values := vecs[i]
		vectors = append(vectors, &pinecone.Vector{
			Id:       d.ID,
			Values:   &values,
			Metadata: md,
		})
	}

	c, err := p.conn(namespace)
	if err != nil {
		return err
	}
	for _, batch := range lo.Chunk(vectors, upsertBatchSize) {
		if _, err := c.UpsertVectors(ctx, batch); err != nil {
			return fmt.Errorf("upsert vectors: %w", err)
		}
	}
	p.logger.Debug().Str("namespace", namespace).Int("count", len(vectors)).Msg("upserted vectors")
	return nil
}

func (p *Pinecone) Query(ctx context.Context, namespace, text string, k int, filter Filter) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}
	q, err := p.embedder.EmbedQuery(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	req := &pinecone.QueryByVectorValuesRequest{
		Vector:          q,
		TopK:            uint32(k),
		IncludeMetadata: true,
	}
	if len(filter) > 0 {
		req.MetadataFilter, err = filter.toStruct()
		if err != nil {
			return nil, err
		}
	}

	c, err := p.conn(namespace)
	if err != nil {
		return nil, err
	}
	res, err := c.QueryByVectorValues(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	matches := make([]Match, 0, len(res.Matches))
	for _, m := range res.Matches {
		if m == nil || m.Vector == nil {
			continue
		}
		var md map[string]any
		if m.Vector.Metadata != nil {
			md = m.Vector.Metadata.AsMap()
		}
		text, rest := splitText(md)
		matches = append(matches, Match{
			ID:       m.Vector.Id,
			Score:    float64(m.Score),
			Text:     text,
			Metadata: rest,
		})
	}
	return matches, nil
}

func (p *Pinecone) DeleteByFilter(ctx context.Context, namespace string, filter Filter) error {
	if len(filter) == 0 {
		return ErrEmptyFilter
	}
	f, err := filter.toStruct()
	if err != nil {
		return err
	}
	c, err := p.conn(namespace)
	if err != nil {
		return err
	}
	if err := c.DeleteVectorsByFilter(ctx, f); err != nil {
		return fmt.Errorf("delete vectors: %w", err)
	}
	return nil
}

func (p *Pinecone) Enabled() bool { return true }

// Close releases the open index connections.
func (p *Pinecone) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for ns, c := range p.conns {
		if err := c.Close(); err != nil {
			p.logger.Warn().Err(err).Str("namespace", ns).Msg("close index connection")
		}
	}
	p.conns = make(map[string]*pinecone.IndexConnection)
	return nil
}

// toStruct converts an equality filter to Pinecone's $eq syntax.
func (f Filter) toStruct() (*structpb.Struct, error) {
	m := make(map[string]any, len(f))
	for k, v := range f {
		m[k] = map[string]any{"$eq": v}
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("build metadata filter: %w", err)
	}
	return s, nil
}
