package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/ragpipe/catalog"
	"github.com/aqua777/ragpipe/rag"
	"github.com/aqua777/ragpipe/rag/store"
	"github.com/aqua777/ragpipe/schema"
	"github.com/aqua777/ragpipe/settings"
)

const sampleUpload = `Replication ships the write-ahead log to two followers.

A follower acknowledges after the segment hits its page cache, and the
leader commits once either follower has acknowledged.

Snapshots truncate the log every four hours or sixteen gigabytes.`

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testServer(t *testing.T) *Server {
	t.Helper()

	cat, err := catalog.Open(context.Background(), filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cat.Close() })

	engine := rag.NewEngine(cat, store.NewMemoryStore(), settings.StaticSource{})
	return New(engine)
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func doUpload(t *testing.T, router *gin.Engine, path, fileName string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), "body: %s", w.Body.String())
}

func createPipeline(t *testing.T, router *gin.Engine, body interface{}) schema.Pipeline {
	t.Helper()

	w := doJSON(t, router, http.MethodPost, "/api/v1/rag/pipelines", body)
	require.Equal(t, http.StatusCreated, w.Code, "body: %s", w.Body.String())

	var p schema.Pipeline
	decode(t, w, &p)
	return p
}

func TestHealth(t *testing.T) {
	s := testServer(t)

	w := doJSON(t, s.Router(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreatePipelineAppliesDefaults(t *testing.T) {
	s := testServer(t)

	p := createPipeline(t, s.Router(), gin.H{"name": "support docs"})
	assert.Equal(t, "support docs", p.Name)
	assert.Equal(t, schema.PipelineStatusCreated, p.Status)
	assert.Equal(t, schema.DefaultPipelineConfig(), p.Config)
}

func TestCreatePipelineMergesPartialBlocks(t *testing.T) {
	s := testServer(t)

	p := createPipeline(t, s.Router(), gin.H{
		"name":      "tuned",
		"chunking":  gin.H{"chunk_size": 500},
		"retrieval": gin.H{"reranking_enabled": false},
		"llm":       gin.H{"provider": "groq", "model": "llama-3.3-70b-versatile"},
	})

	assert.Equal(t, schema.ChunkingRecursive, p.Config.Chunking.Strategy)
	assert.Equal(t, 500, p.Config.Chunking.ChunkSize)
	assert.Equal(t, 200, p.Config.Chunking.ChunkOverlap)
	assert.False(t, p.Config.Retrieval.RerankingEnabled)
	assert.Equal(t, 10, p.Config.Retrieval.TopK)
	assert.Equal(t, schema.LLMGroq, p.Config.LLM.Provider)
	assert.Equal(t, "llama-3.3-70b-versatile", p.Config.LLM.Model)
	assert.Equal(t, 1500, p.Config.LLM.MaxTokens)
}

func TestCreatePipelineValidationDetails(t *testing.T) {
	s := testServer(t)

	w := doJSON(t, s.Router(), http.MethodPost, "/api/v1/rag/pipelines", gin.H{
		"name":     "bad",
		"chunking": gin.H{"chunk_size": 5},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error   string   `json:"error"`
		Details []string `json:"details"`
	}
	decode(t, w, &body)
	assert.Contains(t, body.Error, "invalid pipeline configuration")
	assert.NotEmpty(t, body.Details)
}

func TestCreatePipelineMalformedBody(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rag/pipelines", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPipelineLifecycle(t *testing.T) {
	s := testServer(t)
	p := createPipeline(t, s.Router(), gin.H{"name": "lifecycle"})

	w := doJSON(t, s.Router(), http.MethodGet, "/api/v1/rag/pipelines", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var pipelines []schema.Pipeline
	decode(t, w, &pipelines)
	require.Len(t, pipelines, 1)

	w = doJSON(t, s.Router(), http.MethodGet, "/api/v1/rag/pipelines/"+p.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s.Router(), http.MethodDelete, "/api/v1/rag/pipelines/"+p.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	w = doJSON(t, s.Router(), http.MethodGet, "/api/v1/rag/pipelines/"+p.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListPipelinesEmptyIsArray(t *testing.T) {
	s := testServer(t)

	w := doJSON(t, s.Router(), http.MethodGet, "/api/v1/rag/pipelines", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestUploadDocument(t *testing.T) {
	s := testServer(t)
	p := createPipeline(t, s.Router(), gin.H{"name": "uploads"})

	w := doUpload(t, s.Router(), "/api/v1/rag/pipelines/"+p.ID+"/documents", "replication.txt", []byte(sampleUpload))
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	var resp schema.DocumentUploadResponse
	decode(t, w, &resp)
	assert.NotEmpty(t, resp.DocumentID)
	assert.Equal(t, "replication.txt", resp.FileName)
	assert.Equal(t, schema.DocumentStatusProcessed, resp.Status)
	assert.Greater(t, resp.ChunksCreated, 0)
	assert.Contains(t, resp.Message, "chunks created")
}

func TestUploadDocumentMissingFileField(t *testing.T) {
	s := testServer(t)
	p := createPipeline(t, s.Router(), gin.H{"name": "uploads"})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("note", "no file here"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rag/pipelines/"+p.ID+"/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadDocumentUnsupportedType(t *testing.T) {
	s := testServer(t)
	p := createPipeline(t, s.Router(), gin.H{"name": "uploads"})

	w := doUpload(t, s.Router(), "/api/v1/rag/pipelines/"+p.ID+"/documents", "binary.exe", []byte("MZ"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)
	assert.Contains(t, body.Error, "unsupported file type")
}

func TestUploadDocumentUnknownPipeline(t *testing.T) {
	s := testServer(t)

	w := doUpload(t, s.Router(), "/api/v1/rag/pipelines/no-such-id/documents", "a.txt", []byte("text"))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocumentLifecycle(t *testing.T) {
	s := testServer(t)
	p := createPipeline(t, s.Router(), gin.H{"name": "docs"})

	w := doUpload(t, s.Router(), "/api/v1/rag/pipelines/"+p.ID+"/documents", "replication.txt", []byte(sampleUpload))
	require.Equal(t, http.StatusOK, w.Code)
	var uploaded schema.DocumentUploadResponse
	decode(t, w, &uploaded)

	w = doJSON(t, s.Router(), http.MethodGet, "/api/v1/rag/pipelines/"+p.ID+"/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var docs []schema.Document
	decode(t, w, &docs)
	require.Len(t, docs, 1)
	assert.Equal(t, uploaded.DocumentID, docs[0].ID)

	w = doJSON(t, s.Router(), http.MethodDelete,
		"/api/v1/rag/pipelines/"+p.ID+"/documents/"+uploaded.DocumentID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doJSON(t, s.Router(), http.MethodGet, "/api/v1/rag/pipelines/"+p.ID+"/documents", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestQueryEndpoint(t *testing.T) {
	s := testServer(t)
	p := createPipeline(t, s.Router(), gin.H{"name": "queries"})

	w := doUpload(t, s.Router(), "/api/v1/rag/pipelines/"+p.ID+"/documents", "replication.txt", []byte(sampleUpload))
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s.Router(), http.MethodPost, "/api/v1/rag/pipelines/"+p.ID+"/query", gin.H{
		"query":             "when does the leader commit",
		"reranking_enabled": false,
		"generate_answer":   false,
	})
	require.Equal(t, http.StatusOK, w.Code, "body: %s", w.Body.String())

	var resp schema.QueryResponse
	decode(t, w, &resp)
	assert.Equal(t, "when does the leader commit", resp.Query)
	assert.NotEmpty(t, resp.Results)
	assert.Equal(t, len(resp.Results), resp.TotalResults)
	assert.False(t, resp.RerankingApplied)
	assert.Nil(t, resp.Answer)
}

func TestQueryNotReady(t *testing.T) {
	s := testServer(t)
	p := createPipeline(t, s.Router(), gin.H{"name": "empty"})

	w := doJSON(t, s.Router(), http.MethodPost, "/api/v1/rag/pipelines/"+p.ID+"/query", gin.H{
		"query": "anything",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryEmptyQuery(t *testing.T) {
	s := testServer(t)
	p := createPipeline(t, s.Router(), gin.H{"name": "queries"})

	w := doJSON(t, s.Router(), http.MethodPost, "/api/v1/rag/pipelines/"+p.ID+"/query", gin.H{
		"query": "",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryGenerateAnswerDefaultsTrue(t *testing.T) {
	var body queryRequest
	require.NoError(t, json.Unmarshal([]byte(`{"query": "q"}`), &body))
	assert.True(t, body.toQuery().GenerateAnswer)

	require.NoError(t, json.Unmarshal([]byte(`{"query": "q", "generate_answer": false}`), &body))
	assert.False(t, body.toQuery().GenerateAnswer)
}

func TestStatsEndpoint(t *testing.T) {
	s := testServer(t)
	p := createPipeline(t, s.Router(), gin.H{"name": "stats"})

	w := doUpload(t, s.Router(), "/api/v1/rag/pipelines/"+p.ID+"/documents", "replication.txt", []byte(sampleUpload))
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, s.Router(), http.MethodGet, "/api/v1/rag/pipelines/"+p.ID+"/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var stats schema.PipelineStatistics
	decode(t, w, &stats)
	assert.Equal(t, p.ID, stats.PipelineID)
	assert.Equal(t, 1, stats.DocumentCount)
	assert.Greater(t, stats.ChunkCount, 0)
	assert.Equal(t, stats.ChunkCount, stats.VectorStoreCount)
	require.Len(t, stats.Documents, 1)
}

func TestConfigOptionsEndpoint(t *testing.T) {
	s := testServer(t)

	w := doJSON(t, s.Router(), http.MethodGet, "/api/v1/rag/config/options", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var opts schema.ConfigOptions
	decode(t, w, &opts)
	assert.Len(t, opts.ChunkingStrategies, len(schema.ChunkingStrategies()))
	assert.Len(t, opts.EmbeddingProviders, len(schema.EmbeddingProviders()))
	assert.Len(t, opts.VectorStores, len(schema.VectorStoreTypes()))
	assert.Len(t, opts.LLMProviders, len(schema.LLMProviders()))
	assert.Len(t, opts.RerankerModels, len(schema.RerankerModels()))
	assert.Equal(t, schema.ChunkingRecursive, opts.Defaults.ChunkingStrategy)
	assert.Equal(t, "gemini-2.5-flash", opts.Defaults.LLMModel)
}
