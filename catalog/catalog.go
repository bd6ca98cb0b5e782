// Package catalog persists pipeline and document records in SQLite.
//
// The catalog is the source of truth for pipeline configuration and
// lifecycle state; chunk vectors live in the vector store. The database
// runs in WAL mode on a single connection, so writers are serialized
// while readers stay unblocked.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/aqua777/ragpipe/apperr"
	"github.com/aqua777/ragpipe/schema"
	"github.com/aqua777/ragpipe/validation"
)

// timeLayout is RFC 3339 with a fixed-width fraction so stored timestamps
// sort chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// dsnParams is appended to every data source name. Pragmas ride on the DSN
// so each pooled connection gets them, not just the first.
const dsnParams = "?_pragma=busy_timeout(5000)" +
	"&_pragma=journal_mode(WAL)" +
	"&_pragma=synchronous(NORMAL)" +
	"&_pragma=foreign_keys(1)"

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS rag_pipelines (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		chunking_config TEXT NOT NULL,
		embedding_config TEXT NOT NULL,
		vector_store_config TEXT NOT NULL,
		retrieval_config TEXT NOT NULL,
		llm_config TEXT NOT NULL,
		document_count INTEGER NOT NULL DEFAULT 0,
		chunk_count INTEGER NOT NULL DEFAULT 0,
		total_queries INTEGER NOT NULL DEFAULT 0,
		last_query_at TIMESTAMP,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS rag_documents (
		id TEXT PRIMARY KEY,
		pipeline_id TEXT NOT NULL REFERENCES rag_pipelines(id) ON DELETE CASCADE,
		file_name TEXT NOT NULL,
		file_size_bytes INTEGER NOT NULL,
		file_type TEXT NOT NULL,
		chunk_count INTEGER NOT NULL DEFAULT 0,
		character_count INTEGER NOT NULL DEFAULT 0,
		word_count INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		error_message TEXT NOT NULL DEFAULT '',
		processing_time_ms INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_rag_documents_pipeline ON rag_documents(pipeline_id)`,
}

// Store is the SQLite-backed pipeline and document registry.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Open opens (creating if needed) the catalog database at path and applies
// the schema migrations.
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	s := &Store{
		logger: slog.New(slog.NewJSONHandler(os.Stdout, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create catalog directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+dsnParams)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	// SQLite allows one writer at a time; a single connection keeps our own
	// goroutines from tripping over SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping catalog: %w", err)
	}
	for _, stmt := range migrations {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate catalog: %w", err)
		}
	}

	s.db = db
	s.logger.Debug("catalog opened", "path", path)
	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

const pipelineColumns = `id, name, description, status,
	chunking_config, embedding_config, vector_store_config, retrieval_config, llm_config,
	document_count, chunk_count, total_queries, last_query_at, created_at, updated_at`

// CreatePipeline validates the configuration, allocates an id and inserts
// the pipeline row in the created state.
func (s *Store) CreatePipeline(ctx context.Context, name, description string, cfg schema.PipelineConfig) (*schema.Pipeline, error) {
	if err := validation.ValidatePipelineName(name); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "invalid pipeline name")
	}
	if err := validation.ValidatePipelineConfig(cfg); err != nil {
		return nil, apperr.Wrap(apperr.KindValidation, err, "invalid pipeline configuration")
	}

	now := time.Now().UTC()
	p := &schema.Pipeline{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		Status:      schema.PipelineStatusCreated,
		Config:      cfg,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	cols, err := marshalConfig(cfg)
	if err != nil {
		return nil, err
	}

	_, err = s.db.ExecContext(ctx, `INSERT INTO rag_pipelines (
		id, name, description, status,
		chunking_config, embedding_config, vector_store_config, retrieval_config, llm_config,
		document_count, chunk_count, total_queries, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, 0, 0, ?, ?)`,
		p.ID, p.Name, p.Description, string(p.Status),
		cols.chunking, cols.embedding, cols.vectorStore, cols.retrieval, cols.llm,
		formatTime(now), formatTime(now))
	if err != nil {
		return nil, fmt.Errorf("insert pipeline: %w", err)
	}

	s.logger.Info("pipeline created", "pipeline_id", p.ID, "name", p.Name)
	return p, nil
}

// GetPipeline returns the pipeline with the given id.
func (s *Store) GetPipeline(ctx context.Context, id string) (*schema.Pipeline, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+pipelineColumns+` FROM rag_pipelines WHERE id = ?`, id)
	p, err := scanPipeline(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.New(apperr.KindNotFound, "pipeline %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get pipeline %s: %w", id, err)
	}
	return p, nil
}

// ListPipelines returns all pipelines, newest first.
func (s *Store) ListPipelines(ctx context.Context) ([]schema.Pipeline, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+pipelineColumns+` FROM rag_pipelines ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	defer rows.Close()

	var pipelines []schema.Pipeline
	for rows.Next() {
		p, err := scanPipeline(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pipeline: %w", err)
		}
		pipelines = append(pipelines, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pipelines: %w", err)
	}
	return pipelines, nil
}

// DeletePipeline removes the pipeline row; document rows cascade. The
// caller is responsible for dropping the vector collection first.
func (s *Store) DeletePipeline(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rag_pipelines WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete pipeline %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.KindNotFound, "pipeline %s not found", id)
	}
	s.logger.Info("pipeline deleted", "pipeline_id", id)
	return nil
}

// UpdateStats adjusts the document and chunk counters and optionally moves
// the pipeline to a new status. The increments run inside the UPDATE, so
// concurrent ingests never lose counts to a read-modify-write race.
func (s *Store) UpdateStats(ctx context.Context, id string, deltaDocs, deltaChunks int, newStatus *schema.PipelineStatus) error {
	query := `UPDATE rag_pipelines SET
		document_count = document_count + ?,
		chunk_count = chunk_count + ?,
		updated_at = ?`
	args := []interface{}{deltaDocs, deltaChunks, formatTime(time.Now().UTC())}
	if newStatus != nil {
		query += `, status = ?`
		args = append(args, string(*newStatus))
	}
	query += ` WHERE id = ?`
	args = append(args, id)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update stats for pipeline %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.KindNotFound, "pipeline %s not found", id)
	}
	return nil
}

// SetStatus moves the pipeline to the given lifecycle status.
func (s *Store) SetStatus(ctx context.Context, id string, status schema.PipelineStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE rag_pipelines SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("set status for pipeline %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.KindNotFound, "pipeline %s not found", id)
	}
	return nil
}

// TouchQuery bumps the query counter and stamps last_query_at.
func (s *Store) TouchQuery(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE rag_pipelines SET total_queries = total_queries + 1, last_query_at = ? WHERE id = ?`,
		formatTime(time.Now().UTC()), id)
	if err != nil {
		return fmt.Errorf("touch query stats for pipeline %s: %w", id, err)
	}
	return nil
}

type configColumns struct {
	chunking    string
	embedding   string
	vectorStore string
	retrieval   string
	llm         string
}

func marshalConfig(cfg schema.PipelineConfig) (configColumns, error) {
	var (
		cols configColumns
		err  error
	)
	if cols.chunking, err = jsonColumn(cfg.Chunking); err != nil {
		return cols, err
	}
	if cols.embedding, err = jsonColumn(cfg.Embedding); err != nil {
		return cols, err
	}
	if cols.vectorStore, err = jsonColumn(cfg.VectorStore); err != nil {
		return cols, err
	}
	if cols.retrieval, err = jsonColumn(cfg.Retrieval); err != nil {
		return cols, err
	}
	if cols.llm, err = jsonColumn(cfg.LLM); err != nil {
		return cols, err
	}
	return cols, nil
}

func jsonColumn(v interface{}) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal config column: %w", err)
	}
	return string(b), nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPipeline(row rowScanner) (*schema.Pipeline, error) {
	var (
		p         schema.Pipeline
		status    string
		chunking  string
		embedCfg  string
		vectorCfg string
		retrieval string
		llmCfg    string
		lastQuery sql.NullString
		createdAt string
		updatedAt string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &status,
		&chunking, &embedCfg, &vectorCfg, &retrieval, &llmCfg,
		&p.DocumentCount, &p.ChunkCount, &p.TotalQueries,
		&lastQuery, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	p.Status = schema.PipelineStatus(status)
	for _, col := range []struct {
		raw  string
		into interface{}
	}{
		{chunking, &p.Config.Chunking},
		{embedCfg, &p.Config.Embedding},
		{vectorCfg, &p.Config.VectorStore},
		{retrieval, &p.Config.Retrieval},
		{llmCfg, &p.Config.LLM},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.into); err != nil {
			return nil, fmt.Errorf("decode config column: %w", err)
		}
	}

	var err error
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	if lastQuery.Valid {
		t, err := parseTime(lastQuery.String)
		if err != nil {
			return nil, err
		}
		p.LastQueryAt = &t
	}
	return &p, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t, nil
}
