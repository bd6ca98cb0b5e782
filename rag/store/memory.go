package store

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/aqua777/ragpipe/apperr"
	"github.com/aqua777/ragpipe/embedding"
	"github.com/aqua777/ragpipe/schema"
)

// MemoryStore is an in-memory Store. Collections live for the life of the
// process; nothing is persisted. It backs tests and ephemeral pipelines.
type MemoryStore struct {
	mu    sync.Mutex
	colls map[string]*memoryCollection
	tags  map[string]string
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		colls: make(map[string]*memoryCollection),
		tags:  make(map[string]string),
	}
}

// OpenOrCreate returns the pipeline's collection, creating it on first use.
func (s *MemoryStore) OpenOrCreate(ctx context.Context, pipelineID string, embedder embedding.EmbeddingModel, embeddingTag string) (Collection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if coll, ok := s.colls[pipelineID]; ok {
		if existing := s.tags[pipelineID]; existing != embeddingTag {
			return nil, apperr.New(apperr.KindEmbeddingMismatch,
				"pipeline %s was indexed with embedding %q, requested %q", pipelineID, existing, embeddingTag)
		}
		coll.embedder = embedder
		return coll, nil
	}

	coll := &memoryCollection{
		embedder: embedder,
		rows:     make(map[string]memoryRow),
	}
	s.colls[pipelineID] = coll
	s.tags[pipelineID] = embeddingTag
	return coll, nil
}

// DropCollection removes the pipeline's collection.
func (s *MemoryStore) DropCollection(ctx context.Context, pipelineID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.colls, pipelineID)
	delete(s.tags, pipelineID)
	return nil
}

type memoryRow struct {
	id       string
	text     string
	metadata map[string]string
	vector   []float64
}

type memoryCollection struct {
	mu       sync.RWMutex
	embedder embedding.EmbeddingModel
	rows     map[string]memoryRow
}

func (c *memoryCollection) Add(ctx context.Context, ids []string, texts []string, metadatas []map[string]string, vectors [][]float64) error {
	if len(ids) != len(texts) || len(ids) != len(metadatas) || len(ids) != len(vectors) {
		return errors.New("ids, texts, metadatas and vectors must have equal length")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for i, id := range ids {
		if id == "" {
			return errors.New("chunk id cannot be empty")
		}
		meta := make(map[string]string, len(metadatas[i]))
		for k, v := range metadatas[i] {
			meta[k] = v
		}
		c.rows[id] = memoryRow{
			id:       id,
			text:     texts[i],
			metadata: meta,
			vector:   vectors[i],
		}
	}
	return nil
}

func (c *memoryCollection) Query(ctx context.Context, queryText string, queryVector []float64, nResults int, where []schema.MetadataFilter) ([]schema.SearchResult, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if nResults <= 0 || len(c.rows) == 0 {
		return nil, nil
	}

	if queryVector == nil {
		if c.embedder == nil {
			return nil, errors.New("query has no vector and the collection has no embedder")
		}
		vec, err := c.embedder.GetQueryEmbedding(ctx, queryText)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindVectorStore, err, "embed query text")
		}
		queryVector = vec
	}

	var scored []schema.SearchResult
	for _, row := range c.rows {
		if !MatchesFilters(row.metadata, where) {
			continue
		}
		sim, err := embedding.CosineSimilarity(queryVector, row.vector)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindVectorStore, err, "score chunk %s", row.id)
		}
		meta := make(map[string]string, len(row.metadata))
		for k, v := range row.metadata {
			meta[k] = v
		}
		scored = append(scored, schema.SearchResult{
			Content:  row.text,
			Metadata: meta,
			Score:    ClampScore(sim),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > nResults {
		scored = scored[:nResults]
	}
	return scored, nil
}

func (c *memoryCollection) Delete(ctx context.Context, where []schema.MetadataFilter) error {
	if len(where) == 0 {
		return errors.New("delete requires at least one filter")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for id, row := range c.rows {
		if MatchesFilters(row.metadata, where) {
			delete(c.rows, id)
		}
	}
	return nil
}

func (c *memoryCollection) Count(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.rows), nil
}

// ClampScore maps a raw similarity into the score range [0, 1]: negative
// similarities floor at 0, float error above 1 is clipped.
func ClampScore(sim float64) float64 {
	return max(0, min(1, sim))
}

var _ Store = (*MemoryStore)(nil)
var _ Collection = (*memoryCollection)(nil)
