package rag

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/ragpipe/apperr"
	"github.com/aqua777/ragpipe/catalog"
	"github.com/aqua777/ragpipe/embedding"
	"github.com/aqua777/ragpipe/llm"
	"github.com/aqua777/ragpipe/rag/store"
	"github.com/aqua777/ragpipe/schema"
	"github.com/aqua777/ragpipe/settings"
)

const sampleText = `The cache holds at most ten thousand entries per shard.

Eviction walks the ring clockwise from the last victim, skipping entries
touched within the current window, and stops at the first cold slot.

A full revolution without a cold slot falls back to evicting the oldest
entry outright, so inserts never block on a hot ring.`

func testCatalog(t *testing.T) *catalog.Store {
	t.Helper()

	cat, err := catalog.Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })
	return cat
}

func testEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	return NewEngine(testCatalog(t), store.NewMemoryStore(), settings.StaticSource{}, opts...)
}

func createTestPipeline(t *testing.T, e *Engine, cfg schema.PipelineConfig) *schema.Pipeline {
	t.Helper()

	p, err := e.CreatePipeline(context.Background(), "engine test", "", cfg)
	require.NoError(t, err)
	return p
}

func uploadSample(t *testing.T, e *Engine, pipelineID string) *schema.DocumentUploadResponse {
	t.Helper()

	resp, err := e.UploadDocument(context.Background(), pipelineID, "cache.txt", []byte(sampleText))
	require.NoError(t, err)
	return resp
}

// mockChat returns a chat dispatcher whose every provider is the given
// mock. One key is set so the dispatcher has a provider to try.
func mockChat(provider *llm.MockChatProvider) (*llm.Dispatcher, settings.Source) {
	keys := settings.StaticSource{Fixed: settings.ProviderKeys{Google: "test-key"}}
	build := func(schema.LLMProvider, string) llm.ChatProvider { return provider }
	return llm.NewDispatcher(keys, llm.WithDispatcherBuild(build)), keys
}

func TestCreatePipelinePersists(t *testing.T) {
	e := testEngine(t)

	p, err := e.CreatePipeline(context.Background(), "support docs", "internal KB", schema.DefaultPipelineConfig())
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, schema.PipelineStatusCreated, p.Status)

	got, err := e.GetPipeline(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "support docs", got.Name)
	assert.Equal(t, "internal KB", got.Description)
	assert.Equal(t, p.Config, got.Config)
}

func TestCreatePipelineInvalidConfig(t *testing.T) {
	e := testEngine(t)

	cfg := schema.DefaultPipelineConfig()
	cfg.Chunking.ChunkSize = 5

	_, err := e.CreatePipeline(context.Background(), "bad", "", cfg)
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	pipelines, err := e.ListPipelines(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pipelines)
}

// failingStore refuses every collection open, simulating an unwritable
// data directory.
type failingStore struct{}

func (failingStore) OpenOrCreate(context.Context, string, embedding.EmbeddingModel, string) (store.Collection, error) {
	return nil, errors.New("mkdir: read-only file system")
}

func (failingStore) DropCollection(context.Context, string) error { return nil }

func TestCreatePipelineRollsBackOnCollectionFailure(t *testing.T) {
	e := NewEngine(testCatalog(t), failingStore{}, settings.StaticSource{})

	_, err := e.CreatePipeline(context.Background(), "doomed", "", schema.DefaultPipelineConfig())
	require.Error(t, err)
	assert.Equal(t, apperr.KindVectorStore, apperr.KindOf(err))

	// The half-created row was rolled back.
	pipelines, err := e.ListPipelines(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pipelines)
}

func TestDeletePipelineRemovesEverything(t *testing.T) {
	e := testEngine(t)
	p := createTestPipeline(t, e, schema.DefaultPipelineConfig())
	uploadSample(t, e, p.ID)

	require.NoError(t, e.DeletePipeline(context.Background(), p.ID))

	_, err := e.GetPipeline(context.Background(), p.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
	_, err = e.ListDocuments(context.Background(), p.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeletePipelineUnknown(t *testing.T) {
	e := testEngine(t)

	err := e.DeletePipeline(context.Background(), "no-such-pipeline")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUploadDocument(t *testing.T) {
	e := testEngine(t)
	p := createTestPipeline(t, e, schema.DefaultPipelineConfig())

	resp := uploadSample(t, e, p.ID)
	assert.NotEmpty(t, resp.DocumentID)
	assert.Equal(t, "cache.txt", resp.FileName)
	assert.Equal(t, int64(len(sampleText)), resp.FileSizeBytes)
	assert.Equal(t, schema.DocumentStatusProcessed, resp.Status)
	assert.Greater(t, resp.ChunksCreated, 0)
	assert.Contains(t, resp.Message, "chunks created")

	updated, err := e.GetPipeline(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.PipelineStatusReady, updated.Status)
	assert.Equal(t, 1, updated.DocumentCount)
}

func TestUploadDocumentRejectsBadFiles(t *testing.T) {
	e := testEngine(t)
	p := createTestPipeline(t, e, schema.DefaultPipelineConfig())

	tests := []struct {
		name     string
		fileName string
		data     []byte
		kind     apperr.Kind
	}{
		{"unsupported extension", "binary.exe", []byte("MZ"), apperr.KindUnsupportedFile},
		{"extension checked before content", "binary.exe", nil, apperr.KindUnsupportedFile},
		{"empty file", "blank.txt", nil, apperr.KindEmptyFile},
		{"oversized file", "big.txt", make([]byte, MaxUploadBytes+1), apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.UploadDocument(context.Background(), p.ID, tt.fileName, tt.data)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}

	// Nothing was recorded for the rejected uploads.
	docs, err := e.ListDocuments(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestUploadDocumentUnknownPipeline(t *testing.T) {
	e := testEngine(t)

	_, err := e.UploadDocument(context.Background(), "no-such-pipeline", "cache.txt", []byte(sampleText))
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestUploadDocumentIngestFailureLeavesErrorRow(t *testing.T) {
	e := testEngine(t)
	p := createTestPipeline(t, e, schema.DefaultPipelineConfig())

	_, err := e.UploadDocument(context.Background(), p.ID, "blank.txt", []byte("   \n  "))
	require.Error(t, err)
	assert.Equal(t, apperr.KindEmptyText, apperr.KindOf(err))

	docs, err := e.ListDocuments(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, schema.DocumentStatusError, docs[0].Status)
	assert.NotEmpty(t, docs[0].ErrorMessage)
}

func TestListDocumentsUnknownPipeline(t *testing.T) {
	e := testEngine(t)

	_, err := e.ListDocuments(context.Background(), "no-such-pipeline")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestDeleteDocumentDecrementsCounters(t *testing.T) {
	e := testEngine(t)
	p := createTestPipeline(t, e, schema.DefaultPipelineConfig())

	first := uploadSample(t, e, p.ID)
	second, err := e.UploadDocument(context.Background(), p.ID, "other.txt",
		[]byte("A second document with enough text to produce a chunk of its own."))
	require.NoError(t, err)

	require.NoError(t, e.DeleteDocument(context.Background(), p.ID, first.DocumentID))

	stats, err := e.GetStatistics(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentCount)
	assert.Equal(t, second.ChunksCreated, stats.ChunkCount)
	assert.Equal(t, second.ChunksCreated, stats.VectorStoreCount)
	assert.Equal(t, schema.PipelineStatusReady, stats.Status)
	require.Len(t, stats.Documents, 1)
	assert.Equal(t, second.DocumentID, stats.Documents[0].ID)
}

func TestDeleteLastDocumentResetsPipeline(t *testing.T) {
	e := testEngine(t)
	p := createTestPipeline(t, e, schema.DefaultPipelineConfig())
	resp := uploadSample(t, e, p.ID)

	require.NoError(t, e.DeleteDocument(context.Background(), p.ID, resp.DocumentID))

	stats, err := e.GetStatistics(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, schema.PipelineStatusCreated, stats.Status)
	assert.Zero(t, stats.DocumentCount)
	assert.Zero(t, stats.ChunkCount)
	assert.Zero(t, stats.VectorStoreCount)
}

func TestDeleteErrorDocumentKeepsCounters(t *testing.T) {
	e := testEngine(t)
	p := createTestPipeline(t, e, schema.DefaultPipelineConfig())
	good := uploadSample(t, e, p.ID)

	_, err := e.UploadDocument(context.Background(), p.ID, "blank.txt", []byte("  "))
	require.Error(t, err)

	docs, err := e.ListDocuments(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, docs, 2)
	var errDocID string
	for _, doc := range docs {
		if doc.Status == schema.DocumentStatusError {
			errDocID = doc.ID
		}
	}
	require.NotEmpty(t, errDocID)

	// Error rows never entered the counters, so removing one must not
	// change them.
	require.NoError(t, e.DeleteDocument(context.Background(), p.ID, errDocID))

	stats, err := e.GetStatistics(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentCount)
	assert.Equal(t, good.ChunksCreated, stats.ChunkCount)
	assert.Equal(t, schema.PipelineStatusReady, stats.Status)
}

func TestDeleteDocumentUnknown(t *testing.T) {
	e := testEngine(t)
	p := createTestPipeline(t, e, schema.DefaultPipelineConfig())

	err := e.DeleteDocument(context.Background(), p.ID, "no-such-document")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestQueryRejectsInvalidRequest(t *testing.T) {
	e := testEngine(t)
	p := createTestPipeline(t, e, schema.DefaultPipelineConfig())

	_, err := e.Query(context.Background(), p.ID, schema.QueryRequest{Query: ""})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	topK := 500
	_, err = e.Query(context.Background(), p.ID, schema.QueryRequest{Query: "eviction", TopK: &topK})
	require.Error(t, err)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestQueryNotReady(t *testing.T) {
	e := testEngine(t)
	p := createTestPipeline(t, e, schema.DefaultPipelineConfig())

	_, err := e.Query(context.Background(), p.ID, schema.QueryRequest{Query: "eviction"})
	require.Error(t, err)
	assert.Equal(t, apperr.KindPipelineNotReady, apperr.KindOf(err))
}

func TestQueryReturnsChunks(t *testing.T) {
	e := testEngine(t)
	p := createTestPipeline(t, e, schema.DefaultPipelineConfig())
	uploadSample(t, e, p.ID)

	noRerank := false
	resp, err := e.Query(context.Background(), p.ID, schema.QueryRequest{
		Query:            "how does eviction pick a victim",
		RerankingEnabled: &noRerank,
	})
	require.NoError(t, err)

	assert.Equal(t, "how does eviction pick a victim", resp.Query)
	assert.NotEmpty(t, resp.Results)
	assert.Equal(t, len(resp.Results), resp.TotalResults)
	assert.False(t, resp.RerankingApplied)
	assert.Nil(t, resp.Answer)
	for _, res := range resp.Results {
		assert.NotEmpty(t, res.Content)
		assert.Equal(t, "cache.txt", res.Metadata[schema.MetaFileName])
	}

	// The query counter was touched.
	updated, err := e.GetPipeline(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.TotalQueries)
	assert.NotNil(t, updated.LastQueryAt)
}

func TestQueryRerankFailureKeepsSimilarityOrder(t *testing.T) {
	// No rerank endpoint configured: the default qwen3 reranker fails and
	// the query degrades instead of erroring.
	e := testEngine(t)
	p := createTestPipeline(t, e, schema.DefaultPipelineConfig())
	uploadSample(t, e, p.ID)

	resp, err := e.Query(context.Background(), p.ID, schema.QueryRequest{Query: "cold slot"})
	require.NoError(t, err)
	assert.False(t, resp.RerankingApplied)
	assert.NotEmpty(t, resp.Results)
	for _, res := range resp.Results {
		assert.Nil(t, res.RerankScore)
	}
}

func TestQueryTEIRerank(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req struct {
			Query string   `json:"query"`
			Texts []string `json:"texts"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "/rerank", r.URL.Path)
		assert.NotEmpty(t, req.Query)

		scores := make([]float64, len(req.Texts))
		for i := range scores {
			scores[i] = float64(i+1) / float64(len(scores)+1)
		}
		require.NoError(t, json.NewEncoder(w).Encode(scores))
	}))
	defer srv.Close()

	e := testEngine(t, WithTEIRerankURL(srv.URL))
	p := createTestPipeline(t, e, schema.DefaultPipelineConfig())
	long := strings.Repeat("Each shard keeps its own eviction ring and window clock. ", 60)
	_, err := e.UploadDocument(context.Background(), p.ID, "shards.txt", []byte(long))
	require.NoError(t, err)

	resp, err := e.Query(context.Background(), p.ID, schema.QueryRequest{Query: "eviction ring"})
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.True(t, resp.RerankingApplied)
	assert.NotEmpty(t, resp.Results)
	for _, res := range resp.Results {
		require.NotNil(t, res.RerankScore)
	}
	for i := 1; i < len(resp.Results); i++ {
		assert.GreaterOrEqual(t, *resp.Results[i-1].RerankScore, *resp.Results[i].RerankScore)
	}
}

func TestQueryLLMRerank(t *testing.T) {
	mock := &llm.MockChatProvider{Fn: func(system, user string, opts llm.ChatOptions) (string, error) {
		// One candidate chunk, one score.
		return "[0.8]", nil
	}}
	chat, keys := mockChat(mock)
	e := NewEngine(testCatalog(t), store.NewMemoryStore(), keys, WithChat(chat))
	p := createTestPipeline(t, e, schema.DefaultPipelineConfig())
	uploadSample(t, e, p.ID)

	model := schema.RerankerLLM
	resp, err := e.Query(context.Background(), p.ID, schema.QueryRequest{
		Query:         "eviction",
		RerankerModel: &model,
	})
	require.NoError(t, err)

	assert.True(t, resp.RerankingApplied)
	assert.Greater(t, mock.CallCount(), 0)
	require.NotEmpty(t, resp.Results)
	require.NotNil(t, resp.Results[0].RerankScore)
	assert.InDelta(t, 0.8, *resp.Results[0].RerankScore, 1e-9)
}

func TestQueryGeneratesAnswer(t *testing.T) {
	mock := &llm.MockChatProvider{Response: "Eviction walks the ring clockwise."}
	chat, keys := mockChat(mock)
	e := NewEngine(testCatalog(t), store.NewMemoryStore(), keys, WithChat(chat))
	p := createTestPipeline(t, e, schema.DefaultPipelineConfig())
	uploadSample(t, e, p.ID)

	noRerank := false
	resp, err := e.Query(context.Background(), p.ID, schema.QueryRequest{
		Query:            "how does eviction work",
		RerankingEnabled: &noRerank,
		GenerateAnswer:   true,
	})
	require.NoError(t, err)

	require.NotNil(t, resp.Answer)
	assert.Equal(t, "Eviction walks the ring clockwise.", *resp.Answer)
}

func TestQuerySynthesisFailureYieldsNullAnswer(t *testing.T) {
	mock := &llm.MockChatProvider{Err: errors.New("upstream on fire")}
	chat, keys := mockChat(mock)
	e := NewEngine(testCatalog(t), store.NewMemoryStore(), keys, WithChat(chat))
	p := createTestPipeline(t, e, schema.DefaultPipelineConfig())
	uploadSample(t, e, p.ID)

	noRerank := false
	resp, err := e.Query(context.Background(), p.ID, schema.QueryRequest{
		Query:            "how does eviction work",
		RerankingEnabled: &noRerank,
		GenerateAnswer:   true,
	})
	require.NoError(t, err)

	assert.Nil(t, resp.Answer)
	assert.NotEmpty(t, resp.Results)
}

func TestGetStatistics(t *testing.T) {
	e := testEngine(t)
	p := createTestPipeline(t, e, schema.DefaultPipelineConfig())
	resp := uploadSample(t, e, p.ID)

	stats, err := e.GetStatistics(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, stats.PipelineID)
	assert.Equal(t, "engine test", stats.Name)
	assert.Equal(t, schema.PipelineStatusReady, stats.Status)
	assert.Equal(t, 1, stats.DocumentCount)
	assert.Equal(t, resp.ChunksCreated, stats.ChunkCount)
	assert.Equal(t, resp.ChunksCreated, stats.VectorStoreCount)
	assert.Zero(t, stats.TotalQueries)
	assert.Equal(t, p.Config, stats.Config)

	require.Len(t, stats.Documents, 1)
	doc := stats.Documents[0]
	assert.Equal(t, resp.DocumentID, doc.ID)
	assert.Equal(t, "cache.txt", doc.FileName)
	assert.Equal(t, ".txt", doc.FileType)
	assert.Equal(t, resp.ChunksCreated, doc.ChunkCount)
	assert.Equal(t, schema.DocumentStatusProcessed, doc.Status)
}

func TestGetStatisticsUnknownPipeline(t *testing.T) {
	e := testEngine(t)

	_, err := e.GetStatistics(context.Background(), "no-such-pipeline")
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestConfigOptionsCoverEnums(t *testing.T) {
	e := testEngine(t)
	opts := e.ConfigOptions()

	values := func(list []schema.ConfigOption) []string {
		out := make([]string, len(list))
		for i, o := range list {
			out[i] = o.Value
		}
		return out
	}

	for _, s := range schema.ChunkingStrategies() {
		assert.Contains(t, values(opts.ChunkingStrategies), string(s))
	}
	for _, p := range schema.EmbeddingProviders() {
		assert.Contains(t, values(opts.EmbeddingProviders), string(p))
	}
	for _, v := range schema.VectorStoreTypes() {
		assert.Contains(t, values(opts.VectorStores), string(v))
	}
	for _, p := range schema.LLMProviders() {
		assert.Contains(t, values(opts.LLMProviders), string(p))
	}
	for _, m := range schema.RerankerModels() {
		assert.Contains(t, values(opts.RerankerModels), string(m))
	}

	defaults := schema.DefaultPipelineConfig()
	assert.Equal(t, defaults.Chunking.Strategy, opts.Defaults.ChunkingStrategy)
	assert.Equal(t, defaults.Chunking.ChunkSize, opts.Defaults.ChunkSize)
	assert.Equal(t, defaults.Retrieval.TopK, opts.Defaults.TopK)
	assert.Equal(t, defaults.LLM.Provider, opts.Defaults.LLMProvider)
	assert.Equal(t, defaults.LLM.Model, opts.Defaults.LLMModel)
}
