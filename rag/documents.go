package rag

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aqua777/ragpipe/apperr"
	"github.com/aqua777/ragpipe/rag/reader"
	"github.com/aqua777/ragpipe/schema"
)

// MaxUploadBytes caps the size of one uploaded document.
const MaxUploadBytes = 20 << 20

// validateUpload rejects files the ingest path cannot handle. Checks run
// in upload order: file type, then emptiness, then size.
func validateUpload(fileName string, size int) error {
	if !reader.Supported(fileName) {
		ext := strings.ToLower(filepath.Ext(fileName))
		return apperr.New(apperr.KindUnsupportedFile,
			"unsupported file type %q (supported: %s)",
			ext, strings.Join(reader.SupportedExtensions(), ", "))
	}
	if size == 0 {
		return apperr.New(apperr.KindEmptyFile, "empty file uploaded")
	}
	if size > MaxUploadBytes {
		return apperr.New(apperr.KindValidation,
			"file too large (max %d MB)", MaxUploadBytes>>20)
	}
	return nil
}

// UploadDocument validates and ingests one file into a pipeline. A
// failed ingest still leaves an error document row behind; the returned
// error carries the cause.
func (e *Engine) UploadDocument(ctx context.Context, pipelineID, fileName string, data []byte) (*schema.DocumentUploadResponse, error) {
	p, err := e.catalog.GetPipeline(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	if err := validateUpload(fileName, len(data)); err != nil {
		return nil, err
	}

	doc, warning, err := e.coordinator.IngestDocument(ctx, p, fileName, data)
	if err != nil {
		return nil, err
	}

	return &schema.DocumentUploadResponse{
		DocumentID:       doc.ID,
		FileName:         doc.FileName,
		FileSizeBytes:    doc.FileSizeBytes,
		Status:           doc.Status,
		ChunksCreated:    doc.ChunkCount,
		ProcessingTimeMs: doc.ProcessingTimeMs,
		Message:          fmt.Sprintf("Document '%s' processed: %d chunks created", doc.FileName, doc.ChunkCount),
		Warning:          warning,
	}, nil
}

// ListDocuments returns the documents of one pipeline, newest first.
// The pipeline must exist; an unknown id is NotFound, not an empty list.
func (e *Engine) ListDocuments(ctx context.Context, pipelineID string) ([]schema.Document, error) {
	if _, err := e.catalog.GetPipeline(ctx, pipelineID); err != nil {
		return nil, err
	}
	return e.catalog.ListDocuments(ctx, pipelineID)
}

// DeleteDocument removes one document: its chunks from the vector
// store, then its row, then the pipeline counters. Error documents are
// never counted, so only processed ones decrement. Removing the last
// processed document returns the pipeline to the created state.
func (e *Engine) DeleteDocument(ctx context.Context, pipelineID, documentID string) error {
	p, err := e.catalog.GetPipeline(ctx, pipelineID)
	if err != nil {
		return err
	}
	doc, err := e.catalog.GetDocument(ctx, pipelineID, documentID)
	if err != nil {
		return err
	}

	coll, err := e.openCollection(ctx, p)
	if err != nil {
		return err
	}
	byDocument := []schema.MetadataFilter{schema.NewMetadataFilter(schema.MetaDocumentID, documentID)}
	if err := coll.Delete(ctx, byDocument); err != nil {
		return apperr.Wrap(apperr.KindVectorStore, err, "delete chunks for document %s", documentID)
	}

	if err := e.catalog.DeleteDocument(ctx, pipelineID, documentID); err != nil {
		return err
	}

	if doc.Status == schema.DocumentStatusProcessed {
		var newStatus *schema.PipelineStatus
		if p.DocumentCount-1 <= 0 {
			created := schema.PipelineStatusCreated
			newStatus = &created
		}
		if err := e.catalog.UpdateStats(ctx, pipelineID, -1, -doc.ChunkCount, newStatus); err != nil {
			return fmt.Errorf("update counters for pipeline %s: %w", pipelineID, err)
		}
	}

	e.logger.Info("document deleted",
		"pipeline_id", pipelineID,
		"document_id", documentID,
		"file_name", doc.FileName)
	return nil
}
