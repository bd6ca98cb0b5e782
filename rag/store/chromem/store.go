// Package chromem implements the vector-store boundary on
// philippgille/chromem-go, with one persistent database per pipeline.
package chromem

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"

	"github.com/aqua777/ragpipe/apperr"
	"github.com/aqua777/ragpipe/embedding"
	"github.com/aqua777/ragpipe/rag/store"
	"github.com/aqua777/ragpipe/schema"
)

const (
	// collectionName is the single collection inside each per-pipeline
	// database.
	collectionName = "chunks"
	// metaEmbeddingModel records the embedding tag in collection metadata.
	metaEmbeddingModel = "embedding_model"
	// tagFileName is the sidecar file holding the embedding tag; collection
	// metadata cannot be read back through the chromem API.
	tagFileName = "embedding.tag"
	// overfetchFloor is the minimum candidate count fetched before
	// post-filtering.
	overfetchFloor = 50
)

// Store keeps one persistent chromem database per pipeline under a shared
// root directory.
type Store struct {
	root   string
	logger *slog.Logger

	mu        sync.Mutex
	pipelines map[string]*pipelineDB
}

type pipelineDB struct {
	db   *chromem.DB
	coll *Collection
	tag  string
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a Store persisting pipeline collections under root, one
// subdirectory per pipeline.
func New(root string, opts ...Option) *Store {
	s := &Store{
		root:      root,
		logger:    slog.New(slog.NewJSONHandler(os.Stdout, nil)),
		pipelines: make(map[string]*pipelineDB),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenOrCreate returns the pipeline's collection, creating its database
// directory on first use. An existing collection opened with a different
// embedding tag fails with an embedding-mismatch error.
func (s *Store) OpenOrCreate(ctx context.Context, pipelineID string, embedder embedding.EmbeddingModel, embeddingTag string) (store.Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.pipelines[pipelineID]; ok {
		if entry.tag != embeddingTag {
			return nil, mismatchErr(pipelineID, entry.tag, embeddingTag)
		}
		return entry.coll, nil
	}

	dir := filepath.Join(s.root, pipelineID)

	existingTag, err := readTag(dir)
	if err != nil {
		return nil, fmt.Errorf("read embedding tag for pipeline %s: %w", pipelineID, err)
	}
	if existingTag != "" && existingTag != embeddingTag {
		return nil, mismatchErr(pipelineID, existingTag, embeddingTag)
	}

	db, err := chromem.NewPersistentDB(dir, true)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindVectorStore, err, "open vector store for pipeline %s", pipelineID)
	}

	coll := &Collection{
		pipelineID: pipelineID,
		embedder:   embedder,
	}
	inner, err := db.GetOrCreateCollection(collectionName, map[string]string{metaEmbeddingModel: embeddingTag}, coll.embedFn())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindVectorStore, err, "open collection for pipeline %s", pipelineID)
	}
	coll.coll = inner

	if existingTag == "" {
		if err := writeTag(dir, embeddingTag); err != nil {
			return nil, fmt.Errorf("write embedding tag for pipeline %s: %w", pipelineID, err)
		}
	}

	s.logger.Debug("opened vector collection",
		"pipeline_id", pipelineID,
		"embedding_tag", embeddingTag,
		"chunks", inner.Count())

	s.pipelines[pipelineID] = &pipelineDB{db: db, coll: coll, tag: embeddingTag}
	return coll, nil
}

// DropCollection removes the pipeline's database directory from disk.
func (s *Store) DropCollection(ctx context.Context, pipelineID string) error {
	s.mu.Lock()
	entry := s.pipelines[pipelineID]
	delete(s.pipelines, pipelineID)
	s.mu.Unlock()

	if entry != nil {
		entry.coll.mu.Lock()
		defer entry.coll.mu.Unlock()
		if err := entry.db.DeleteCollection(collectionName); err != nil {
			return apperr.Wrap(apperr.KindVectorStore, err, "delete collection for pipeline %s", pipelineID)
		}
	}

	dir := filepath.Join(s.root, pipelineID)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove vector store directory %s: %w", dir, err)
	}
	return nil
}

func mismatchErr(pipelineID, existing, requested string) error {
	return apperr.New(apperr.KindEmbeddingMismatch,
		"pipeline %s was indexed with embedding %q, requested %q", pipelineID, existing, requested)
}

func readTag(dir string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(dir, tagFileName))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

func writeTag(dir, tag string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, tagFileName), []byte(tag+"\n"), 0o644)
}

// Collection is one pipeline's persistent chunk index. A RWMutex
// serializes writes against queries, so a delete is atomic with respect
// to concurrent reads.
type Collection struct {
	pipelineID string
	embedder   embedding.EmbeddingModel
	coll       *chromem.Collection
	mu         sync.RWMutex
}

// embedFn adapts the collection's embedder for chromem, which calls it
// only when a query carries no precomputed vector.
func (c *Collection) embedFn() chromem.EmbeddingFunc {
	if c.embedder == nil {
		return nil
	}
	return func(ctx context.Context, text string) ([]float32, error) {
		vec, err := c.embedder.GetQueryEmbedding(ctx, text)
		if err != nil {
			return nil, err
		}
		return toFloat32(vec), nil
	}
}

// Add upserts chunks by id with their precomputed embeddings.
func (c *Collection) Add(ctx context.Context, ids []string, texts []string, metadatas []map[string]string, vectors [][]float64) error {
	if len(ids) != len(texts) || len(ids) != len(metadatas) || len(ids) != len(vectors) {
		return errors.New("ids, texts, metadatas and vectors must have equal length")
	}
	if len(ids) == 0 {
		return nil
	}

	docs := make([]chromem.Document, len(ids))
	for i, id := range ids {
		meta := make(map[string]string, len(metadatas[i]))
		for k, v := range metadatas[i] {
			meta[k] = v
		}
		docs[i] = chromem.Document{
			ID:        id,
			Content:   texts[i],
			Metadata:  meta,
			Embedding: toFloat32(vectors[i]),
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.coll.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return apperr.Wrap(apperr.KindVectorStore, err, "add %d chunks to pipeline %s", len(ids), c.pipelineID)
	}
	return nil
}

// Query returns the nResults most similar chunks, highest score first.
// Equality filters are pushed down to chromem; the other operators
// post-filter an over-fetched candidate list.
func (c *Collection) Query(ctx context.Context, queryText string, queryVector []float64, nResults int, where []schema.MetadataFilter) ([]schema.SearchResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if nResults <= 0 {
		return nil, nil
	}
	count := c.coll.Count()
	if count == 0 {
		return nil, nil
	}

	native, rest := store.SplitPushdown(where)

	fetch := nResults
	if len(rest) > 0 {
		fetch = max(nResults*4, overfetchFloor)
	}
	fetch = min(fetch, count)

	var (
		res []chromem.Result
		err error
	)
	if queryVector != nil {
		res, err = c.coll.QueryEmbedding(ctx, toFloat32(queryVector), fetch, native, nil)
	} else {
		res, err = c.coll.Query(ctx, queryText, fetch, native, nil)
	}
	if err != nil {
		return nil, apperr.Wrap(apperr.KindVectorStore, err, "query pipeline %s", c.pipelineID)
	}

	out := make([]schema.SearchResult, 0, min(len(res), nResults))
	for _, doc := range res {
		meta := make(map[string]string, len(doc.Metadata))
		for k, v := range doc.Metadata {
			meta[k] = v
		}
		if !store.MatchesFilters(meta, rest) {
			continue
		}
		out = append(out, schema.SearchResult{
			Content:  doc.Content,
			Metadata: meta,
			Score:    store.ClampScore(float64(doc.Similarity)),
		})
		if len(out) == nResults {
			break
		}
	}
	return out, nil
}

// Delete removes the chunks matching where. Only equality filters are
// supported; chunk removal always targets exact document or chunk ids.
func (c *Collection) Delete(ctx context.Context, where []schema.MetadataFilter) error {
	if len(where) == 0 {
		return errors.New("delete requires at least one filter")
	}
	native, rest := store.SplitPushdown(where)
	if len(rest) > 0 {
		return fmt.Errorf("delete supports only equality filters, got %q", rest[0].Operator)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.coll.Delete(ctx, native, nil); err != nil {
		return apperr.Wrap(apperr.KindVectorStore, err, "delete chunks from pipeline %s", c.pipelineID)
	}
	return nil
}

// Count returns the number of chunks in the collection.
func (c *Collection) Count(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.coll.Count(), nil
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

var _ store.Store = (*Store)(nil)
var _ store.Collection = (*Collection)(nil)
