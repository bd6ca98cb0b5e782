// Package rag assembles the catalog, vector store, and provider
// dispatchers into the engine behind the HTTP API. Every operation the
// service exposes goes through the Engine: pipeline CRUD, document
// ingest, retrieval with optional reranking and answer synthesis, and
// the statistics and configuration views.
package rag

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aqua777/ragpipe/apperr"
	"github.com/aqua777/ragpipe/catalog"
	"github.com/aqua777/ragpipe/embedding"
	"github.com/aqua777/ragpipe/ingestion"
	"github.com/aqua777/ragpipe/llm"
	"github.com/aqua777/ragpipe/rag/retriever"
	"github.com/aqua777/ragpipe/rag/store"
	"github.com/aqua777/ragpipe/rag/synthesizer"
	"github.com/aqua777/ragpipe/schema"
	"github.com/aqua777/ragpipe/settings"
)

// Engine is the service facade. It owns the component wiring and keeps
// the HTTP layer free of ingest and retrieval mechanics.
type Engine struct {
	catalog    *catalog.Store
	vectors    store.Store
	keys       settings.Source
	embeddings *embedding.Dispatcher
	chat       *llm.Dispatcher

	coordinator *ingestion.Coordinator
	retriever   *retriever.VectorRetriever
	synthesizer *synthesizer.CompactSynthesizer

	teiRerankURL string
	logger       *slog.Logger
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the logger.
func WithEngineLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithEmbeddings sets the embedding dispatcher. Use this to point the
// engine at a TEI endpoint configured elsewhere.
func WithEmbeddings(dispatcher *embedding.Dispatcher) EngineOption {
	return func(e *Engine) {
		e.embeddings = dispatcher
	}
}

// WithChat sets the chat dispatcher used for synthesis and LLM reranking.
func WithChat(dispatcher *llm.Dispatcher) EngineOption {
	return func(e *Engine) {
		e.chat = dispatcher
	}
}

// WithTEIRerankURL sets the cross-encoder rerank endpoint. Without it
// qwen3 reranking fails each attempt and queries fall back to
// similarity order.
func WithTEIRerankURL(url string) EngineOption {
	return func(e *Engine) {
		e.teiRerankURL = url
	}
}

// NewEngine wires the engine over an open catalog and vector store.
func NewEngine(cat *catalog.Store, vectors store.Store, keys settings.Source, opts ...EngineOption) *Engine {
	e := &Engine{
		catalog: cat,
		vectors: vectors,
		keys:    keys,
		logger:  slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.embeddings == nil {
		e.embeddings = embedding.NewDispatcher(embedding.WithDispatcherLogger(e.logger))
	}
	if e.chat == nil {
		e.chat = llm.NewDispatcher(keys, llm.WithDispatcherLogger(e.logger))
	}

	e.coordinator = ingestion.New(cat, vectors, e.embeddings, keys, ingestion.WithLogger(e.logger))
	e.retriever = retriever.NewVectorRetriever(vectors, e.embeddings, keys, retriever.WithRetrieverLogger(e.logger))
	e.synthesizer = synthesizer.NewCompactSynthesizer(e.chat, synthesizer.WithSynthesizerLogger(e.logger))

	return e
}

// CreatePipeline validates the configuration, inserts the pipeline row
// and creates its vector collection. A collection failure rolls the row
// back so a half-created pipeline never surfaces.
func (e *Engine) CreatePipeline(ctx context.Context, name, description string, cfg schema.PipelineConfig) (*schema.Pipeline, error) {
	p, err := e.catalog.CreatePipeline(ctx, name, description, cfg)
	if err != nil {
		return nil, err
	}

	embedder, tag, _ := e.embeddings.Resolve(cfg.Embedding, e.keys.Keys())
	if _, err := e.vectors.OpenOrCreate(ctx, p.ID, embedder, tag); err != nil {
		if rbErr := e.catalog.DeletePipeline(ctx, p.ID); rbErr != nil {
			e.logger.Error("roll back pipeline row",
				"pipeline_id", p.ID,
				"error", rbErr)
		}
		return nil, apperr.Wrap(apperr.KindVectorStore, err,
			"create collection for pipeline %s", p.ID)
	}

	return p, nil
}

// GetPipeline returns one pipeline by id.
func (e *Engine) GetPipeline(ctx context.Context, id string) (*schema.Pipeline, error) {
	return e.catalog.GetPipeline(ctx, id)
}

// ListPipelines returns all pipelines, newest first.
func (e *Engine) ListPipelines(ctx context.Context) ([]schema.Pipeline, error) {
	return e.catalog.ListPipelines(ctx)
}

// DeletePipeline removes a pipeline and everything it owns: vector
// collection first, then the catalog rows (documents cascade).
func (e *Engine) DeletePipeline(ctx context.Context, id string) error {
	if err := e.vectors.DropCollection(ctx, id); err != nil {
		return apperr.Wrap(apperr.KindVectorStore, err, "drop collection for pipeline %s", id)
	}
	if err := e.catalog.DeletePipeline(ctx, id); err != nil {
		return err
	}
	return nil
}

// openCollection resolves the pipeline's embedder and opens its
// collection.
func (e *Engine) openCollection(ctx context.Context, p *schema.Pipeline) (store.Collection, error) {
	embedder, tag, _ := e.embeddings.Resolve(p.Config.Embedding, e.keys.Keys())
	coll, err := e.vectors.OpenOrCreate(ctx, p.ID, embedder, tag)
	if err != nil {
		return nil, fmt.Errorf("open collection for pipeline %s: %w", p.ID, err)
	}
	return coll, nil
}
