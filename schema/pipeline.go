package schema

import (
	"time"
)

// PipelineStatus represents the lifecycle state of a pipeline.
type PipelineStatus string

const (
	// PipelineStatusCreated means the pipeline exists but holds no documents yet.
	PipelineStatusCreated PipelineStatus = "created"
	// PipelineStatusIngesting means at least one ingest is in flight.
	PipelineStatusIngesting PipelineStatus = "ingesting"
	// PipelineStatusReady means the pipeline holds documents and accepts queries.
	PipelineStatusReady PipelineStatus = "ready"
	// PipelineStatusError means the last ingest failed before any document succeeded.
	PipelineStatusError PipelineStatus = "error"
)

// Pipeline is a named RAG configuration that exclusively owns its documents
// and its vector collection.
type Pipeline struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Description   string         `json:"description,omitempty"`
	Status        PipelineStatus `json:"status"`
	Config        PipelineConfig `json:"config"`
	DocumentCount int            `json:"document_count"`
	ChunkCount    int            `json:"chunk_count"`
	TotalQueries  int            `json:"total_queries"`
	LastQueryAt   *time.Time     `json:"last_query_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

// DocumentStatus represents the terminal state of an ingested document.
type DocumentStatus string

const (
	// DocumentStatusProcessed means the document was chunked and indexed.
	DocumentStatusProcessed DocumentStatus = "processed"
	// DocumentStatusError means ingestion failed; ErrorMessage carries the cause.
	DocumentStatusError DocumentStatus = "error"
)

// Document is the catalog record of one ingested file. It is created during
// ingest and never mutated after reaching a terminal status.
type Document struct {
	ID               string         `json:"id"`
	PipelineID       string         `json:"pipeline_id"`
	FileName         string         `json:"file_name"`
	FileSizeBytes    int64          `json:"file_size_bytes"`
	FileType         string         `json:"file_type"`
	ChunkCount       int            `json:"chunk_count"`
	CharacterCount   int            `json:"character_count"`
	WordCount        int            `json:"word_count"`
	Status           DocumentStatus `json:"status"`
	ErrorMessage     string         `json:"error_message,omitempty"`
	ProcessingTimeMs int64          `json:"processing_time_ms"`
	CreatedAt        time.Time      `json:"created_at"`
}

// Chunk metadata keys written at ingest time and read back by queries.
const (
	MetaFileName   = "file_name"
	MetaDocumentID = "document_id"
	MetaChunkIndex = "chunk_index"
	MetaChunkTotal = "chunk_total"
	MetaPipelineID = "pipeline_id"
	MetaFileType   = "file_type"
	MetaIngestedAt = "ingested_at"
)
