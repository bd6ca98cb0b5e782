package retriever

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/ragpipe/apperr"
	"github.com/aqua777/ragpipe/embedding"
	"github.com/aqua777/ragpipe/rag/store"
	"github.com/aqua777/ragpipe/schema"
	"github.com/aqua777/ragpipe/settings"
)

func ptr[T any](v T) *T { return &v }

func testPipeline() *schema.Pipeline {
	return &schema.Pipeline{
		ID:     "pipe-1",
		Name:   "docs",
		Status: schema.PipelineStatusReady,
		Config: schema.DefaultPipelineConfig(),
	}
}

func testRetriever(vectors store.Store) *VectorRetriever {
	return NewVectorRetriever(vectors, embedding.NewDispatcher(), settings.StaticSource{})
}

// seedChunks indexes texts with the default encoder so retrieval scores are
// deterministic: querying with a stored text ranks that chunk first.
func seedChunks(t *testing.T, vectors store.Store, pipelineID string, texts []string, metas []map[string]string) {
	t.Helper()

	embedder := embedding.Default()
	tag := embedding.Tag(schema.EmbeddingChromaDefault, embedding.DefaultEmbeddingModelName)
	coll, err := vectors.OpenOrCreate(context.Background(), pipelineID, embedder, tag)
	require.NoError(t, err)

	ids := make([]string, len(texts))
	vecs := make([][]float64, len(texts))
	if metas == nil {
		metas = make([]map[string]string, len(texts))
	}
	for i, text := range texts {
		ids[i] = fmt.Sprintf("%s_doc_%d", pipelineID, i)
		vec, err := embedder.GetTextEmbedding(context.Background(), text)
		require.NoError(t, err)
		vecs[i] = vec
		if metas[i] == nil {
			metas[i] = map[string]string{schema.MetaChunkIndex: fmt.Sprintf("%d", i)}
		}
	}
	require.NoError(t, coll.Add(context.Background(), ids, texts, metas, vecs))
}

func TestRetrieveRequiresReadyPipeline(t *testing.T) {
	pipeline := testPipeline()
	pipeline.Status = schema.PipelineStatusCreated

	_, _, err := testRetriever(store.NewMemoryStore()).Retrieve(context.Background(), pipeline, schema.QueryRequest{Query: "q"})

	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindPipelineNotReady))
}

func TestRetrieveEmptyCollection(t *testing.T) {
	results, warning, err := testRetriever(store.NewMemoryStore()).Retrieve(context.Background(), testPipeline(), schema.QueryRequest{Query: "anything"})

	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Empty(t, warning)
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	vectors := store.NewMemoryStore()
	texts := []string{
		"the quick brown fox jumps over the lazy dog",
		"postgres replication lag monitoring guide",
		"chocolate chip cookie recipe with brown butter",
	}
	seedChunks(t, vectors, "pipe-1", texts, nil)

	results, warning, err := testRetriever(vectors).Retrieve(context.Background(), testPipeline(), schema.QueryRequest{
		Query: "postgres replication lag monitoring guide",
	})

	require.NoError(t, err)
	assert.Empty(t, warning)
	require.Len(t, results, 3)
	assert.Equal(t, texts[1], results[0].Content)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
	for i := range results {
		assert.GreaterOrEqual(t, results[i].Score, 0.0)
		assert.LessOrEqual(t, results[i].Score, 1.0)
		if i > 0 {
			assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
		}
	}
}

func TestRetrieveTopKOverride(t *testing.T) {
	vectors := store.NewMemoryStore()
	seedChunks(t, vectors, "pipe-1", []string{"one fish", "two fish", "red fish", "blue fish"}, nil)

	results, _, err := testRetriever(vectors).Retrieve(context.Background(), testPipeline(), schema.QueryRequest{
		Query:            "red fish",
		TopK:             ptr(1),
		RerankingEnabled: ptr(false),
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "red fish", results[0].Content)
}

func TestRetrieveFetchKExpandsForReranking(t *testing.T) {
	vectors := store.NewMemoryStore()
	texts := make([]string, 20)
	for i := range texts {
		texts[i] = fmt.Sprintf("reference document number %d about subject %d", i, i)
	}
	seedChunks(t, vectors, "pipe-1", texts, nil)

	// Reranking enabled: fetch top_k+5 capped at 15.
	results, _, err := testRetriever(vectors).Retrieve(context.Background(), testPipeline(), schema.QueryRequest{Query: "subject"})
	require.NoError(t, err)
	assert.Len(t, results, 15)

	// Reranking disabled: exactly top_k.
	results, _, err = testRetriever(vectors).Retrieve(context.Background(), testPipeline(), schema.QueryRequest{
		Query:            "subject",
		RerankingEnabled: ptr(false),
	})
	require.NoError(t, err)
	assert.Len(t, results, 10)
}

func TestRetrieveScoreThreshold(t *testing.T) {
	vectors := store.NewMemoryStore()
	seedChunks(t, vectors, "pipe-1", []string{
		"kubernetes ingress controller setup",
		"sourdough starter feeding schedule",
	}, nil)

	results, _, err := testRetriever(vectors).Retrieve(context.Background(), testPipeline(), schema.QueryRequest{
		Query:          "kubernetes ingress controller setup",
		ScoreThreshold: ptr(0.99),
	})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "kubernetes ingress controller setup", results[0].Content)
}

func TestRetrieveMetadataFilter(t *testing.T) {
	vectors := store.NewMemoryStore()
	texts := []string{"alpha chunk", "beta chunk", "gamma chunk"}
	metas := []map[string]string{
		{schema.MetaFileName: "a.txt"},
		{schema.MetaFileName: "b.txt"},
		{schema.MetaFileName: "a.txt"},
	}
	seedChunks(t, vectors, "pipe-1", texts, metas)

	results, _, err := testRetriever(vectors).Retrieve(context.Background(), testPipeline(), schema.QueryRequest{
		Query:           "chunk",
		MetadataFilters: []schema.MetadataFilter{schema.NewMetadataFilter(schema.MetaFileName, "a.txt")},
	})

	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.Equal(t, "a.txt", res.Metadata[schema.MetaFileName])
	}
}

func TestRetrieveWarnsOnEmbeddingFallback(t *testing.T) {
	vectors := store.NewMemoryStore()
	seedChunks(t, vectors, "pipe-1", []string{"some indexed text"}, nil)

	// The pipeline wants OpenAI embeddings but no key is configured, so the
	// default encoder serves the query and the response carries a warning.
	pipeline := testPipeline()
	pipeline.Config.Embedding.Provider = schema.EmbeddingOpenAI

	results, warning, err := testRetriever(vectors).Retrieve(context.Background(), pipeline, schema.QueryRequest{Query: "some indexed text"})

	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, warning, "openai")
}

func TestFetchK(t *testing.T) {
	cases := []struct {
		topK   int
		rerank bool
		want   int
	}{
		{10, true, 15},
		{10, false, 10},
		{3, true, 8},
		{12, true, 15},
		{50, false, 50},
	}
	for _, tc := range cases {
		cfg := schema.RetrievalConfig{TopK: tc.topK, RerankingEnabled: tc.rerank}
		assert.Equal(t, tc.want, fetchK(cfg), "topK=%d rerank=%v", tc.topK, tc.rerank)
	}
}
