package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aqua777/ragpipe/apperr"
	"github.com/aqua777/ragpipe/schema"
)

const documentColumns = `id, pipeline_id, file_name, file_size_bytes, file_type,
	chunk_count, character_count, word_count, status, error_message, processing_time_ms, created_at`

// InsertDocument writes a document row in its terminal state.
func (s *Store) InsertDocument(ctx context.Context, doc *schema.Document) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO rag_documents (
		id, pipeline_id, file_name, file_size_bytes, file_type,
		chunk_count, character_count, word_count, status, error_message, processing_time_ms, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.PipelineID, doc.FileName, doc.FileSizeBytes, doc.FileType,
		doc.ChunkCount, doc.CharacterCount, doc.WordCount, string(doc.Status),
		doc.ErrorMessage, doc.ProcessingTimeMs, formatTime(doc.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert document %s: %w", doc.ID, err)
	}
	return nil
}

// GetDocument returns the document scoped to its pipeline.
func (s *Store) GetDocument(ctx context.Context, pipelineID, documentID string) (*schema.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM rag_documents WHERE id = ? AND pipeline_id = ?`,
		documentID, pipelineID)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "document %s not found in pipeline %s", documentID, pipelineID)
	}
	if err != nil {
		return nil, fmt.Errorf("get document %s: %w", documentID, err)
	}
	return doc, nil
}

// ListDocuments returns the pipeline's documents, newest first.
func (s *Store) ListDocuments(ctx context.Context, pipelineID string) ([]schema.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM rag_documents WHERE pipeline_id = ? ORDER BY created_at DESC`,
		pipelineID)
	if err != nil {
		return nil, fmt.Errorf("list documents for pipeline %s: %w", pipelineID, err)
	}
	defer rows.Close()

	var docs []schema.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list documents for pipeline %s: %w", pipelineID, err)
	}
	return docs, nil
}

// DeleteDocument removes the document row. The caller deletes the
// document's chunks from the vector store first.
func (s *Store) DeleteDocument(ctx context.Context, pipelineID, documentID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM rag_documents WHERE id = ? AND pipeline_id = ?`, documentID, pipelineID)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", documentID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.KindNotFound, "document %s not found in pipeline %s", documentID, pipelineID)
	}
	return nil
}

// CountProcessedDocuments reports how many documents in the pipeline
// reached the processed state. Used to decide whether a failed ingest
// leaves the pipeline ready or in error.
func (s *Store) CountProcessedDocuments(ctx context.Context, pipelineID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rag_documents WHERE pipeline_id = ? AND status = ?`,
		pipelineID, string(schema.DocumentStatusProcessed)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count processed documents for pipeline %s: %w", pipelineID, err)
	}
	return n, nil
}

func scanDocument(row rowScanner) (*schema.Document, error) {
	var (
		doc       schema.Document
		status    string
		createdAt string
	)
	if err := row.Scan(&doc.ID, &doc.PipelineID, &doc.FileName, &doc.FileSizeBytes, &doc.FileType,
		&doc.ChunkCount, &doc.CharacterCount, &doc.WordCount, &status,
		&doc.ErrorMessage, &doc.ProcessingTimeMs, &createdAt); err != nil {
		return nil, err
	}
	doc.Status = schema.DocumentStatus(status)

	var err error
	if doc.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &doc, nil
}
