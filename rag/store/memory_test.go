package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/ragpipe/apperr"
	"github.com/aqua777/ragpipe/embedding"
	"github.com/aqua777/ragpipe/schema"
)

func seedCollection(t *testing.T, s *MemoryStore) Collection {
	t.Helper()
	ctx := context.Background()

	coll, err := s.OpenOrCreate(ctx, "p1", nil, "tag-a")
	require.NoError(t, err)

	err = coll.Add(ctx,
		[]string{"c1", "c2", "c3"},
		[]string{"alpha", "beta", "gamma"},
		[]map[string]string{
			{"document_id": "d1", "chunk_index": "0"},
			{"document_id": "d1", "chunk_index": "1"},
			{"document_id": "d2", "chunk_index": "0"},
		},
		[][]float64{
			{1, 0, 0},
			{0.9, 0.1, 0},
			{0, 1, 0},
		},
	)
	require.NoError(t, err)
	return coll
}

func TestMemoryStoreQueryOrdersBySimilarity(t *testing.T) {
	ctx := context.Background()
	coll := seedCollection(t, NewMemoryStore())

	res, err := coll.Query(ctx, "", []float64{1, 0, 0}, 2, nil)
	require.NoError(t, err)
	require.Len(t, res, 2)
	assert.Equal(t, "alpha", res[0].Content)
	assert.Equal(t, "beta", res[1].Content)
	assert.Greater(t, res[0].Score, res[1].Score)
	assert.InDelta(t, 1.0, res[0].Score, 1e-9)
}

func TestMemoryStoreQueryAppliesFilters(t *testing.T) {
	ctx := context.Background()
	coll := seedCollection(t, NewMemoryStore())

	res, err := coll.Query(ctx, "", []float64{1, 0, 0}, 10, []schema.MetadataFilter{
		{Field: "document_id", Operator: schema.FilterOpEq, Value: "d1"},
	})
	require.NoError(t, err)
	require.Len(t, res, 2)
	for _, r := range res {
		assert.Equal(t, "d1", r.Metadata["document_id"])
	}
}

func TestMemoryStoreQueryEmptyCollection(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	coll, err := s.OpenOrCreate(ctx, "empty", nil, "tag-a")
	require.NoError(t, err)

	res, err := coll.Query(ctx, "", []float64{1, 0, 0}, 5, nil)
	require.NoError(t, err)
	assert.Empty(t, res)
}

func TestMemoryStoreUpsertReplacesById(t *testing.T) {
	ctx := context.Background()
	coll := seedCollection(t, NewMemoryStore())

	err := coll.Add(ctx,
		[]string{"c1"},
		[]string{"alpha revised"},
		[]map[string]string{{"document_id": "d1", "chunk_index": "0"}},
		[][]float64{{1, 0, 0}},
	)
	require.NoError(t, err)

	count, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	res, err := coll.Query(ctx, "", []float64{1, 0, 0}, 1, nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "alpha revised", res[0].Content)
}

func TestMemoryStoreDeleteByFilter(t *testing.T) {
	ctx := context.Background()
	coll := seedCollection(t, NewMemoryStore())

	err := coll.Delete(ctx, []schema.MetadataFilter{
		{Field: "document_id", Operator: schema.FilterOpEq, Value: "d1"},
	})
	require.NoError(t, err)

	count, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = coll.Delete(ctx, nil)
	assert.Error(t, err)
}

func TestMemoryStoreEmbeddingMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedCollection(t, s)

	_, err := s.OpenOrCreate(ctx, "p1", nil, "tag-b")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindEmbeddingMismatch))

	// Same tag still opens.
	_, err = s.OpenOrCreate(ctx, "p1", nil, "tag-a")
	assert.NoError(t, err)
}

func TestMemoryStoreDropAllowsNewTag(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	seedCollection(t, s)

	require.NoError(t, s.DropCollection(ctx, "p1"))

	coll, err := s.OpenOrCreate(ctx, "p1", nil, "tag-b")
	require.NoError(t, err)
	count, err := coll.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMemoryStoreQueryByTextUsesEmbedder(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	embedder := &embedding.MockEmbeddingModel{Embedding: []float64{0, 1, 0}}
	coll, err := s.OpenOrCreate(ctx, "p1", embedder, "tag-a")
	require.NoError(t, err)

	err = coll.Add(ctx,
		[]string{"c1", "c2"},
		[]string{"east", "north"},
		[]map[string]string{{}, {}},
		[][]float64{{1, 0, 0}, {0, 1, 0}},
	)
	require.NoError(t, err)

	res, err := coll.Query(ctx, "which way is north", nil, 1, nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, "north", res[0].Content)
}

func TestMemoryStoreAddLengthMismatch(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	coll, err := s.OpenOrCreate(ctx, "p1", nil, "tag-a")
	require.NoError(t, err)

	err = coll.Add(ctx, []string{"c1"}, []string{"a", "b"}, []map[string]string{{}}, [][]float64{{1}})
	assert.Error(t, err)
}
