package rag

import (
	"context"

	"github.com/aqua777/ragpipe/schema"
)

// GetStatistics returns the stats view of one pipeline. The vector
// store count is read live from the collection; when that read fails
// the count reports zero rather than failing the whole view.
func (e *Engine) GetStatistics(ctx context.Context, pipelineID string) (*schema.PipelineStatistics, error) {
	p, err := e.catalog.GetPipeline(ctx, pipelineID)
	if err != nil {
		return nil, err
	}
	docs, err := e.catalog.ListDocuments(ctx, pipelineID)
	if err != nil {
		return nil, err
	}

	vectorCount := 0
	if coll, err := e.openCollection(ctx, p); err != nil {
		e.logger.Warn("read vector store count",
			"pipeline_id", pipelineID,
			"error", err)
	} else if n, err := coll.Count(ctx); err != nil {
		e.logger.Warn("read vector store count",
			"pipeline_id", pipelineID,
			"error", err)
	} else {
		vectorCount = n
	}

	infos := make([]schema.DocumentInfo, 0, len(docs))
	for _, doc := range docs {
		infos = append(infos, schema.DocumentInfo{
			ID:            doc.ID,
			FileName:      doc.FileName,
			FileType:      doc.FileType,
			FileSizeBytes: doc.FileSizeBytes,
			ChunkCount:    doc.ChunkCount,
			Status:        doc.Status,
			CreatedAt:     doc.CreatedAt,
		})
	}

	return &schema.PipelineStatistics{
		PipelineID:       p.ID,
		Name:             p.Name,
		Status:           p.Status,
		DocumentCount:    p.DocumentCount,
		ChunkCount:       p.ChunkCount,
		TotalQueries:     p.TotalQueries,
		LastQueryAt:      p.LastQueryAt,
		VectorStoreCount: vectorCount,
		Documents:        infos,
		Config:           p.Config,
	}, nil
}
