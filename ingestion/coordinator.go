// Package ingestion turns uploaded files into indexed chunks.
//
// The Coordinator drives one document through parse, chunk, embed and
// store, then records the outcome in the catalog. Every ingest ends in a
// terminal document row; failures record an error row, and compensating
// deletes keep the vector store free of chunks no row accounts for.
package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/aqua777/ragpipe/apperr"
	"github.com/aqua777/ragpipe/catalog"
	"github.com/aqua777/ragpipe/embedding"
	"github.com/aqua777/ragpipe/rag/reader"
	"github.com/aqua777/ragpipe/rag/store"
	"github.com/aqua777/ragpipe/schema"
	"github.com/aqua777/ragpipe/settings"
	"github.com/aqua777/ragpipe/textsplitter"
)

// Coordinator ingests documents into pipelines.
type Coordinator struct {
	catalog    *catalog.Store
	vectors    store.Store
	embeddings *embedding.Dispatcher
	keys       settings.Source
	parser     *reader.Parser
	logger     *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithParser overrides the document parser.
func WithParser(parser *reader.Parser) Option {
	return func(c *Coordinator) {
		if parser != nil {
			c.parser = parser
		}
	}
}

// New creates a Coordinator.
func New(cat *catalog.Store, vectors store.Store, embeddings *embedding.Dispatcher, keys settings.Source, opts ...Option) *Coordinator {
	c := &Coordinator{
		catalog:    cat,
		vectors:    vectors,
		embeddings: embeddings,
		keys:       keys,
		logger:     slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.parser == nil {
		c.parser = reader.New(reader.WithLogger(c.logger))
	}
	return c
}

// IngestDocument runs one file through parse, chunk, embed and store, and
// records the outcome in the catalog. The returned document is terminal:
// processed on success, error with a message otherwise (the cause is also
// returned). warning carries the embedding fallback notice when the
// configured provider was unavailable and the bundled default stood in.
func (c *Coordinator) IngestDocument(ctx context.Context, p *schema.Pipeline, fileName string, data []byte) (*schema.Document, string, error) {
	start := time.Now()
	doc := &schema.Document{
		ID:            uuid.NewString(),
		PipelineID:    p.ID,
		FileName:      fileName,
		FileSizeBytes: int64(len(data)),
		FileType:      strings.ToLower(filepath.Ext(fileName)),
		CreatedAt:     start.UTC(),
	}

	if err := c.catalog.SetStatus(ctx, p.ID, schema.PipelineStatusIngesting); err != nil {
		return nil, "", err
	}

	embedder, tag, warning := c.embeddings.Resolve(p.Config.Embedding, c.keys.Keys())

	text, err := c.parser.Parse(fileName, data)
	if err != nil {
		return c.fail(doc, start, warning, err)
	}

	chunks, err := c.chunk(ctx, p.Config.Chunking, embedder, text, fileName)
	if err != nil {
		return c.fail(doc, start, warning, err)
	}

	coll, err := c.vectors.OpenOrCreate(ctx, p.ID, embedder, tag)
	if err != nil {
		return c.fail(doc, start, warning, err)
	}

	vectors, err := embedding.BatchEmbed(ctx, embedder, chunks)
	if err != nil {
		return c.fail(doc, start, warning, fmt.Errorf("embed chunks: %w", err))
	}

	ids, metadatas := chunkRecords(p.ID, doc, len(chunks))
	byDocument := []schema.MetadataFilter{schema.NewMetadataFilter(schema.MetaDocumentID, doc.ID)}

	// Deterministic ids plus this delete make a re-run carrying the same
	// document id replace its chunks instead of duplicating them.
	if err := coll.Delete(ctx, byDocument); err != nil {
		return c.fail(doc, start, warning, fmt.Errorf("clear stale chunks: %w", err))
	}
	if err := coll.Add(ctx, ids, chunks, metadatas, vectors); err != nil {
		c.compensate(coll, doc.ID)
		return c.fail(doc, start, warning, fmt.Errorf("add chunks to vector store: %w", err))
	}

	doc.Status = schema.DocumentStatusProcessed
	doc.ChunkCount = len(chunks)
	doc.CharacterCount = utf8.RuneCountInString(text)
	doc.WordCount = len(strings.Fields(text))
	doc.ProcessingTimeMs = time.Since(start).Milliseconds()

	if err := c.catalog.InsertDocument(ctx, doc); err != nil {
		c.compensate(coll, doc.ID)
		return nil, warning, fmt.Errorf("record ingested document: %w", err)
	}
	ready := schema.PipelineStatusReady
	if err := c.catalog.UpdateStats(ctx, p.ID, 1, len(chunks), &ready); err != nil {
		return nil, warning, fmt.Errorf("update pipeline counters: %w", err)
	}

	c.logger.Info("document ingested",
		"pipeline_id", p.ID,
		"document_id", doc.ID,
		"file_name", fileName,
		"chunks", len(chunks),
		"duration_ms", doc.ProcessingTimeMs)
	return doc, warning, nil
}

// chunk splits text per the pipeline's chunking configuration. The encoder
// is the pipeline's resolved embedder, used only by the semantic strategy.
func (c *Coordinator) chunk(ctx context.Context, cfg schema.ChunkingConfig, encoder embedding.EmbeddingModel, text, fileName string) ([]string, error) {
	splitter, err := textsplitter.ForConfig(cfg, encoder)
	if err != nil {
		return nil, err
	}
	chunks, err := textsplitter.Split(ctx, splitter, text)
	if err != nil {
		return nil, fmt.Errorf("split %s: %w", fileName, err)
	}
	if len(chunks) == 0 {
		return nil, apperr.New(apperr.KindEmptyText, "no chunks produced from %s", fileName)
	}
	return chunks, nil
}

// fail records the terminal error row and settles the pipeline status: a
// pipeline that already holds processed documents stays ready, one that
// holds none goes to error. Bookkeeping runs on a fresh context so a
// canceled request still leaves a terminal row behind.
func (c *Coordinator) fail(doc *schema.Document, start time.Time, warning string, cause error) (*schema.Document, string, error) {
	doc.Status = schema.DocumentStatusError
	doc.ErrorMessage = cause.Error()
	doc.ProcessingTimeMs = time.Since(start).Milliseconds()

	ctx := context.Background()
	if err := c.catalog.InsertDocument(ctx, doc); err != nil {
		c.logger.Error("record failed ingest", "document_id", doc.ID, "error", err)
	}

	status := schema.PipelineStatusError
	if n, err := c.catalog.CountProcessedDocuments(ctx, doc.PipelineID); err != nil {
		c.logger.Error("count processed documents", "pipeline_id", doc.PipelineID, "error", err)
	} else if n > 0 {
		status = schema.PipelineStatusReady
	}
	if err := c.catalog.SetStatus(ctx, doc.PipelineID, status); err != nil {
		c.logger.Error("settle pipeline status", "pipeline_id", doc.PipelineID, "error", err)
	}

	c.logger.Warn("document ingest failed",
		"pipeline_id", doc.PipelineID,
		"document_id", doc.ID,
		"file_name", doc.FileName,
		"error", cause)
	return doc, warning, cause
}

// compensate removes whatever chunks a failed insert left behind. It runs
// on a fresh context so it still works after cancellation.
func (c *Coordinator) compensate(coll store.Collection, documentID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	where := []schema.MetadataFilter{schema.NewMetadataFilter(schema.MetaDocumentID, documentID)}
	if err := coll.Delete(ctx, where); err != nil {
		c.logger.Error("compensating chunk delete failed", "document_id", documentID, "error", err)
	}
}

// chunkRecords builds the chunk ids and metadata for one document. Ids are
// deterministic in (pipeline, document, index); numeric metadata is stored
// as decimal strings, the form the where-DSL compares numerically.
func chunkRecords(pipelineID string, doc *schema.Document, n int) ([]string, []map[string]string) {
	ingestedAt := time.Now().UTC().Format(time.RFC3339)
	total := strconv.Itoa(n)

	ids := make([]string, n)
	metadatas := make([]map[string]string, n)
	for i := 0; i < n; i++ {
		ids[i] = fmt.Sprintf("%s_%s_%d", pipelineID, doc.ID, i)
		metadatas[i] = map[string]string{
			schema.MetaFileName:   doc.FileName,
			schema.MetaDocumentID: doc.ID,
			schema.MetaChunkIndex: strconv.Itoa(i),
			schema.MetaChunkTotal: total,
			schema.MetaPipelineID: pipelineID,
			schema.MetaFileType:   doc.FileType,
			schema.MetaIngestedAt: ingestedAt,
		}
	}
	return ids, metadatas
}
