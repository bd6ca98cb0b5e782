// Package store defines the vector-store boundary the engine works
// against: a Store hands out one Collection per pipeline, and a Collection
// holds that pipeline's chunks with their embeddings.
package store

import (
	"context"

	"github.com/aqua777/ragpipe/embedding"
	"github.com/aqua777/ragpipe/schema"
)

// Store manages one vector collection per pipeline.
type Store interface {
	// OpenOrCreate returns the pipeline's collection, creating it on first
	// use. embeddingTag names the embedding configuration the collection
	// was built with; opening an existing collection with a different tag
	// fails with an embedding-mismatch error. embedder is used only to
	// embed query text when a query carries no precomputed vector.
	OpenOrCreate(ctx context.Context, pipelineID string, embedder embedding.EmbeddingModel, embeddingTag string) (Collection, error)

	// DropCollection removes the pipeline's collection and everything it
	// persisted. Dropping a collection that does not exist is a no-op.
	DropCollection(ctx context.Context, pipelineID string) error
}

// Collection is one pipeline's chunk index.
type Collection interface {
	// Add upserts chunks by id. All slices must have equal length; vectors
	// are the precomputed embeddings of texts.
	Add(ctx context.Context, ids []string, texts []string, metadatas []map[string]string, vectors [][]float64) error

	// Query returns the nResults chunks most similar to the query, highest
	// score first, with scores clamped to [0, 1]. queryVector is used when
	// present; otherwise queryText is embedded with the collection's
	// embedder. An empty collection yields an empty result, not an error.
	Query(ctx context.Context, queryText string, queryVector []float64, nResults int, where []schema.MetadataFilter) ([]schema.SearchResult, error)

	// Delete removes the chunks matching where.
	Delete(ctx context.Context, where []schema.MetadataFilter) error

	// Count returns the number of chunks in the collection.
	Count(ctx context.Context) (int, error)
}
