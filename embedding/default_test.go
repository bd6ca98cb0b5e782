package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEmbeddingDeterministic(t *testing.T) {
	ctx := context.Background()
	enc := Default()

	a, err := enc.GetTextEmbedding(ctx, "the quick brown fox")
	require.NoError(t, err)
	b, err := enc.GetTextEmbedding(ctx, "the quick brown fox")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, DefaultEmbeddingDims)
}

func TestDefaultEmbeddingUnitLength(t *testing.T) {
	ctx := context.Background()
	enc := Default()

	vec, err := enc.GetTextEmbedding(ctx, "vectors should be normalized")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, Magnitude(vec), 1e-9)
}

func TestDefaultEmbeddingWhitespaceInput(t *testing.T) {
	ctx := context.Background()
	enc := Default()

	vec, err := enc.GetTextEmbedding(ctx, "   \n\t ")
	require.NoError(t, err)
	assert.Len(t, vec, DefaultEmbeddingDims)
	assert.InDelta(t, 1.0, Magnitude(vec), 1e-9)
}

func TestDefaultEmbeddingSimilarTextsScoreHigher(t *testing.T) {
	ctx := context.Background()
	enc := Default()

	base, err := enc.GetTextEmbedding(ctx, "machine learning models process data")
	require.NoError(t, err)
	near, err := enc.GetTextEmbedding(ctx, "machine learning models analyze data")
	require.NoError(t, err)
	far, err := enc.GetTextEmbedding(ctx, "the recipe calls for two eggs")
	require.NoError(t, err)

	simNear, err := CosineSimilarity(base, near)
	require.NoError(t, err)
	simFar, err := CosineSimilarity(base, far)
	require.NoError(t, err)

	assert.Greater(t, simNear, simFar)
}

func TestDefaultEmbeddingBatch(t *testing.T) {
	ctx := context.Background()
	enc := Default()

	var progress []int
	vectors, err := enc.GetTextEmbeddingsBatch(ctx, []string{"one", "two", "three"}, func(current, total int) {
		progress = append(progress, current)
		assert.Equal(t, 3, total)
	})
	require.NoError(t, err)
	require.Len(t, vectors, 3)
	assert.Equal(t, []int{1, 2, 3}, progress)

	single, err := enc.GetTextEmbedding(ctx, "two")
	require.NoError(t, err)
	assert.Equal(t, single, vectors[1])
}

func TestDefaultIsSingleton(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestCosineSimilarity(t *testing.T) {
	sim, err := CosineSimilarity([]float64{1, 0}, []float64{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, sim, 1e-9)

	sim, err = CosineSimilarity([]float64{1, 0}, []float64{0, 1})
	require.NoError(t, err)
	assert.InDelta(t, 0.0, sim, 1e-9)

	sim, err = CosineSimilarity([]float64{1, 0}, []float64{-1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, sim, 1e-9)

	_, err = CosineSimilarity([]float64{1, 0}, []float64{1})
	assert.Error(t, err)

	_, err = CosineSimilarity([]float64{0, 0}, []float64{1, 0})
	assert.Error(t, err)
}

func TestNormalizeInPlace(t *testing.T) {
	v := []float64{3, 4}
	require.NoError(t, NormalizeInPlace(v))
	assert.InDelta(t, 0.6, v[0], 1e-9)
	assert.InDelta(t, 0.8, v[1], 1e-9)
	assert.InDelta(t, 1.0, math.Sqrt(v[0]*v[0]+v[1]*v[1]), 1e-9)

	assert.Error(t, NormalizeInPlace(nil))
	assert.Error(t, NormalizeInPlace([]float64{0, 0}))
}
