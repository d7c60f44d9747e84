// Package app assembles the mentor services from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/abhisek/mentor/internal/api"
	"github.com/abhisek/mentor/internal/config"
	"github.com/abhisek/mentor/internal/conversation"
	"github.com/abhisek/mentor/internal/llm"
	"github.com/abhisek/mentor/internal/logger"
	"github.com/abhisek/mentor/internal/metrics"
	"github.com/abhisek/mentor/internal/rag"
	"github.com/abhisek/mentor/internal/store"
	"github.com/abhisek/mentor/internal/students"
	"github.com/abhisek/mentor/internal/teaching"
	"github.com/abhisek/mentor/internal/vector"
)

// Options configures New. Provider and Index override what Config would
// build, which tests use to stay offline.
type Options struct {
	Config   *config.Config
	Logger   *logger.Logger
	Provider llm.Provider
	Index    vector.Index
}

// App holds the wired services of a running mentor instance.
type App struct {
	Config        *config.Config
	Logger        *logger.Logger
	Store         *store.Store
	Provider      llm.Provider
	RAG           *rag.Service
	Registry      *prometheus.Registry
	Metrics       *metrics.Metrics
	Students      *students.Service
	Conversations *conversation.Service
	Teaching      *teaching.Service

	closers []func() error
}

// New opens the database, connects the vector index and the text
// generation provider, and builds every service.
func New(ctx context.Context, opts Options) (*App, error) {
	cfg := opts.Config
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	rules, err := cfg.Rules()
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	dsn := cfg.DB
	if dsn == "" {
		if dsn, err = store.DefaultDBPath(); err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
	}

	a := &App{Config: cfg, Logger: log}

	a.Store, err = store.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	a.closers = append(a.closers, a.Store.Close)

	index := opts.Index
	if index == nil {
		var closeIndex func() error
		index, closeIndex, err = NewIndex(ctx, cfg.Vector, log.Component("vector"))
		if err != nil {
			a.Close()
			return nil, err
		}
		if closeIndex != nil {
			a.closers = append(a.closers, closeIndex)
		}
	}
	a.RAG = rag.New(index, log.Component("rag"))

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a.Metrics = metrics.New(a.Registry)

	a.Provider = opts.Provider
	if a.Provider == nil {
		a.Provider, err = llm.NewProvider(ctx, cfg.LLM, a.Store.EventRepo(),
			llm.WithLogger(log.Component("llm")),
			llm.WithObserver(a.Metrics.RecordLLMRequest),
		)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("create LLM provider: %w", err)
		}
	}

	a.Students = students.NewService(a.Store, a.RAG, log.Component("students"))
	convOpts := []conversation.Option{
		conversation.WithIndexer(a.RAG),
		conversation.WithMetrics(a.Metrics),
		conversation.WithLogger(log),
	}
	if cfg.Summaries {
		convOpts = append(convOpts, conversation.WithSummaries(conversation.DefaultSummaryConfig()))
	}
	a.Conversations = conversation.NewService(a.Store, a.Provider, rules, convOpts...)
	a.closers = append(a.closers, func() error {
		a.Conversations.Close()
		return nil
	})
	a.Teaching = teaching.NewService(a.Store, a.Provider, a.RAG, rules,
		teaching.WithMetrics(a.Metrics),
		teaching.WithLogger(log.Component("teaching")),
	)

	return a, nil
}

// NewIndex builds the vector index selected by cfg. The returned close
// function may be nil.
func NewIndex(ctx context.Context, cfg config.VectorConfig, logger zerolog.Logger) (vector.Index, func() error, error) {
	switch cfg.Backend {
	case config.VectorPinecone:
		embedder, err := vector.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		pc, err := vector.NewPinecone(ctx, vector.PineconeConfig{
			APIKey:    cfg.PineconeAPIKey,
			IndexName: cfg.PineconeIndex,
		}, embedder, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect pinecone: %w", err)
		}
		return pc, pc.Close, nil
	case config.VectorMemory:
		logger.Info().Msg("using in-process vector index; embeddings are lost on restart")
		if cfg.OpenAIAPIKey == "" {
			return vector.NewMemory(vector.NewHashEmbedder(0)), nil, nil
		}
		embedder, err := vector.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbeddingModel)
		if err != nil {
			return nil, nil, err
		}
		return vector.NewMemory(embedder), nil, nil
	case config.VectorNone, "":
		logger.Info().Msg("vector search disabled")
		return vector.Nop{}, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector backend: %q", cfg.Backend)
	}
}

// Handler returns the HTTP router over the app's services.
func (a *App) Handler() http.Handler {
	return api.NewRouter(api.Deps{
		Students:      a.Students,
		Conversations: a.Conversations,
		Teaching:      a.Teaching,
		Materials:     a.RAG,
		DB:            a.Store,
		Metrics:       a.Metrics,
		Gatherer:      a.Registry,
		Logger:        a.Logger,

		RequestTimeout: a.Config.RequestTimeout,
	})
}

// Close releases the index and the database, in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
