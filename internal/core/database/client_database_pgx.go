package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/markdave123-py/Archiva/internal/config"
	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/models"
)

// DatabaseClient implements core.DbClient on Postgres with pgvector.
type DatabaseClient struct {
	db *sql.DB
}

func NewDatabaseClient(ctx context.Context, cfg *config.Config) (*DatabaseClient, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database client configuration is nil")
	}
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// Sensible pool settings for an API service; adjust as needed.
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if err := EnsureBootstrapped(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	return &DatabaseClient{db: db}, nil
}

func (c *DatabaseClient) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// -- documents --

func (c *DatabaseClient) CreateDocument(ctx context.Context, doc *models.Document) error {
	if doc == nil {
		return errors.New("nil document")
	}
	meta, err := marshalMeta(doc.Metadata)
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO documents
			(id, user_id, name, file_name, mime_type, size_bytes, storage_key,
			 file_type, status, scope, thread_id, folder_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err = c.db.ExecContext(ctx, q,
		doc.ID, doc.UserID, doc.Name, doc.FileName, doc.MimeType, doc.SizeBytes,
		doc.StorageKey, doc.FileType, doc.Status, doc.Scope, doc.ThreadID,
		doc.FolderID, meta)
	return err
}

const documentColumns = `
	id, user_id, name, file_name, mime_type, size_bytes, storage_key,
	file_type, status, scope, thread_id, folder_id, metadata,
	chunk_count, token_count, processing_error, created_at, updated_at`

func (c *DatabaseClient) GetDocumentByID(ctx context.Context, id string) (*models.Document, error) {
	q := `SELECT` + documentColumns + ` FROM documents WHERE id = $1`
	doc, err := scanDocument(c.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, core.ErrDocumentNotFound
	}
	return doc, err
}

func (c *DatabaseClient) ListDocuments(ctx context.Context, userID string, filter core.DocumentFilter) ([]models.Document, int, error) {
	where := []string{"user_id = $1"}
	args := []any{userID}

	add := func(cond string, val any) {
		args = append(args, val)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}

	if !filter.IncludeArchived {
		where = append(where, "status <> 'archived'")
	}
	if filter.Scope != nil {
		add("scope = $%d", *filter.Scope)
	}
	if filter.ThreadID != nil {
		add("thread_id = $%d", *filter.ThreadID)
	}
	if filter.RootOnly {
		where = append(where, "folder_id IS NULL")
	} else if filter.FolderID != nil {
		add("folder_id = $%d", *filter.FolderID)
	}
	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}

	cond := strings.Join(where, " AND ")

	var total int
	countQ := "SELECT count(*) FROM documents WHERE " + cond
	if err := c.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT` + documentColumns + ` FROM documents WHERE ` + cond + ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		q += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		q += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *doc)
	}
	return out, total, rows.Err()
}

func (c *DatabaseClient) UpdateDocumentStatus(ctx context.Context, id string, status models.DocumentStatus) error {
	const q = `UPDATE documents SET status = $2, updated_at = now() WHERE id = $1`
	return c.execOne(ctx, q, core.ErrDocumentNotFound, id, status)
}

func (c *DatabaseClient) SetDocumentError(ctx context.Context, id string, message string) error {
	const q = `
		UPDATE documents
		SET status = 'error', processing_error = $2, updated_at = now()
		WHERE id = $1
	`
	return c.execOne(ctx, q, core.ErrDocumentNotFound, id, message)
}

// FinalizeDocument commits the ready status together with the counts and
// parser metadata so concurrent readers never observe a half-finished
// document.
func (c *DatabaseClient) FinalizeDocument(ctx context.Context, id string, chunkCount, tokenCount int, metadata map[string]any) error {
	meta, err := marshalMeta(metadata)
	if err != nil {
		return err
	}
	const q = `
		UPDATE documents
		SET status = 'ready', chunk_count = $2, token_count = $3,
		    metadata = metadata || $4, processing_error = '', updated_at = now()
		WHERE id = $1
	`
	return c.execOne(ctx, q, core.ErrDocumentNotFound, id, chunkCount, tokenCount, meta)
}

func (c *DatabaseClient) MoveDocument(ctx context.Context, id string, folderID *string) error {
	const q = `UPDATE documents SET folder_id = $2, updated_at = now() WHERE id = $1`
	return c.execOne(ctx, q, core.ErrDocumentNotFound, id, folderID)
}

func (c *DatabaseClient) DeleteDocument(ctx context.Context, id string) error {
	const q = `DELETE FROM documents WHERE id = $1`
	return c.execOne(ctx, q, core.ErrDocumentNotFound, id)
}

// -- chunks --

// InsertDocumentChunks inserts chunks in a single transaction: a failing
// row aborts the whole batch so no partial batch is ever committed.
func (c *DatabaseClient) InsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}

	const q = `
		INSERT INTO document_chunks
			(id, document_id, content, chunk_index, chunk_type,
			 page_start, page_end, line_start, line_end,
			 embedding, token_count, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := range chunks {
		ch := &chunks[i]
		meta, err := marshalMeta(ch.Metadata)
		if err != nil {
			_ = tx.Rollback()
			return err
		}
		var vec any
		if ch.Embedding != nil {
			vec = pgvector.NewVector(ch.Embedding)
		}
		if _, err := stmt.ExecContext(ctx,
			ch.ID, ch.DocumentID, ch.Content, ch.ChunkIndex, ch.ChunkType,
			ch.PageStart, ch.PageEnd, ch.LineStart, ch.LineEnd,
			vec, ch.TokenCount, meta,
		); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (c *DatabaseClient) DeleteChunksByDocument(ctx context.Context, documentID string) error {
	const q = `DELETE FROM document_chunks WHERE document_id = $1`
	_, err := c.db.ExecContext(ctx, q, documentID)
	return err
}

func (c *DatabaseClient) GetChunksByDocument(ctx context.Context, documentID string) ([]models.DocumentChunk, error) {
	const q = `
		SELECT id, document_id, content, chunk_index, chunk_type,
		       page_start, page_end, line_start, line_end,
		       token_count, metadata, created_at
		FROM document_chunks
		WHERE document_id = $1
		ORDER BY chunk_index ASC
	`
	rows, err := c.db.QueryContext(ctx, q, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DocumentChunk
	for rows.Next() {
		var (
			ch   models.DocumentChunk
			meta []byte
		)
		if err := rows.Scan(
			&ch.ID, &ch.DocumentID, &ch.Content, &ch.ChunkIndex, &ch.ChunkType,
			&ch.PageStart, &ch.PageEnd, &ch.LineStart, &ch.LineEnd,
			&ch.TokenCount, &meta, &ch.CreatedAt,
		); err != nil {
			return nil, err
		}
		if err := unmarshalMeta(meta, &ch.Metadata); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

// -- retrieval RPCs --

func (c *DatabaseClient) SearchDocuments(ctx context.Context, userID string, queryVec []float32, opts core.SearchOptions) ([]models.SearchResult, error) {
	const q = `
		SELECT chunk_id, document_id, content, chunk_index, chunk_type,
		       page_start, page_end, token_count, document_name, file_type, similarity
		FROM search_documents($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	var fileTypes []string
	for _, ft := range opts.FileTypes {
		fileTypes = append(fileTypes, string(ft))
	}
	var scope *string
	if opts.Scope != nil {
		s := string(*opts.Scope)
		scope = &s
	}
	var queryText *string
	if opts.QueryText != "" {
		queryText = &opts.QueryText
	}

	rows, err := c.db.QueryContext(ctx, q,
		userID, pgvector.NewVector(queryVec), opts.Limit, opts.MinSimilarity,
		scope, opts.ThreadID, fileTypes, opts.FolderID, queryText)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSearchResults(rows)
}

func (c *DatabaseClient) GetConversationContext(ctx context.Context, userID, threadID string, queryVec []float32, maxTokens int, minSimilarity float64) ([]models.SearchResult, error) {
	const q = `
		SELECT chunk_id, document_id, content, chunk_index, chunk_type,
		       page_start, page_end, token_count, document_name, file_type, similarity
		FROM get_conversation_context($1, $2, $3, $4, $5)
	`
	rows, err := c.db.QueryContext(ctx, q,
		userID, threadID, pgvector.NewVector(queryVec), maxTokens, minSimilarity)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSearchResults(rows)
}

// -- folders --

func (c *DatabaseClient) CreateFolder(ctx context.Context, folder *models.DocumentFolder) error {
	if folder == nil {
		return errors.New("nil folder")
	}
	const q = `
		INSERT INTO document_folders (id, user_id, name, parent_id, color)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := c.db.ExecContext(ctx, q,
		folder.ID, folder.UserID, folder.Name, folder.ParentID, folder.Color)
	return err
}

func (c *DatabaseClient) GetFolderByID(ctx context.Context, id string) (*models.DocumentFolder, error) {
	const q = `
		SELECT f.id, f.user_id, f.name, f.parent_id, f.color,
		       (SELECT count(*) FROM documents d
		         WHERE d.folder_id = f.id AND d.status <> 'archived'),
		       f.created_at, f.updated_at
		FROM document_folders f
		WHERE f.id = $1
	`
	var f models.DocumentFolder
	err := c.db.QueryRowContext(ctx, q, id).Scan(
		&f.ID, &f.UserID, &f.Name, &f.ParentID, &f.Color,
		&f.DocumentCount, &f.CreatedAt, &f.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, core.ErrFolderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *DatabaseClient) UpdateFolder(ctx context.Context, id string, name, color *string) error {
	const q = `
		UPDATE document_folders
		SET name = COALESCE($2, name), color = COALESCE($3, color), updated_at = now()
		WHERE id = $1
	`
	return c.execOne(ctx, q, core.ErrFolderNotFound, id, name, color)
}

func (c *DatabaseClient) SetFolderParent(ctx context.Context, id string, parentID *string) error {
	const q = `UPDATE document_folders SET parent_id = $2, updated_at = now() WHERE id = $1`
	return c.execOne(ctx, q, core.ErrFolderNotFound, id, parentID)
}

// DeleteFolder removes a folder. The schema cascades the delete to
// subfolders and orphans contained documents to the root via
// ON DELETE SET NULL; documents are never deleted here.
func (c *DatabaseClient) DeleteFolder(ctx context.Context, id string) error {
	const q = `DELETE FROM document_folders WHERE id = $1`
	return c.execOne(ctx, q, core.ErrFolderNotFound, id)
}

func (c *DatabaseClient) ListSubfolders(ctx context.Context, userID string, parentID *string) ([]models.DocumentFolder, error) {
	q := `
		SELECT f.id, f.user_id, f.name, f.parent_id, f.color,
		       (SELECT count(*) FROM documents d
		         WHERE d.folder_id = f.id AND d.status <> 'archived'),
		       f.created_at, f.updated_at
		FROM document_folders f
		WHERE f.user_id = $1 AND `
	args := []any{userID}
	if parentID == nil {
		q += `f.parent_id IS NULL`
	} else {
		q += `f.parent_id = $2`
		args = append(args, *parentID)
	}
	q += ` ORDER BY f.name`

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DocumentFolder
	for rows.Next() {
		var f models.DocumentFolder
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.Name, &f.ParentID, &f.Color,
			&f.DocumentCount, &f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) GetFolderTree(ctx context.Context, userID string) ([]core.FolderTreeRow, error) {
	const q = `
		SELECT id, user_id, name, parent_id, color, document_count,
		       created_at, updated_at, depth
		FROM get_folder_tree($1)
	`
	rows, err := c.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []core.FolderTreeRow
	for rows.Next() {
		var r core.FolderTreeRow
		if err := rows.Scan(
			&r.ID, &r.UserID, &r.Name, &r.ParentID, &r.Color,
			&r.DocumentCount, &r.CreatedAt, &r.UpdatedAt, &r.Depth,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (c *DatabaseClient) GetFolderBreadcrumb(ctx context.Context, folderID string) ([]models.DocumentFolder, error) {
	const q = `
		SELECT id, user_id, name, parent_id, color, created_at, updated_at
		FROM get_folder_breadcrumb($1)
	`
	rows, err := c.db.QueryContext(ctx, q, folderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DocumentFolder
	for rows.Next() {
		var f models.DocumentFolder
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.Name, &f.ParentID, &f.Color,
			&f.CreatedAt, &f.UpdatedAt,
		); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// -- helpers --

func (c *DatabaseClient) execOne(ctx context.Context, q string, notFound error, args ...any) error {
	res, err := c.db.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return notFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		d    models.Document
		meta []byte
	)
	err := row.Scan(
		&d.ID, &d.UserID, &d.Name, &d.FileName, &d.MimeType, &d.SizeBytes,
		&d.StorageKey, &d.FileType, &d.Status, &d.Scope, &d.ThreadID,
		&d.FolderID, &meta, &d.ChunkCount, &d.TokenCount, &d.ProcessingError,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := unmarshalMeta(meta, &d.Metadata); err != nil {
		return nil, err
	}
	return &d, nil
}

func scanSearchResults(rows *sql.Rows) ([]models.SearchResult, error) {
	var out []models.SearchResult
	for rows.Next() {
		var r models.SearchResult
		if err := rows.Scan(
			&r.Chunk.ID, &r.Chunk.DocumentID, &r.Chunk.Content,
			&r.Chunk.ChunkIndex, &r.Chunk.ChunkType,
			&r.Chunk.PageStart, &r.Chunk.PageEnd, &r.Chunk.TokenCount,
			&r.DocumentName, &r.FileType, &r.Similarity,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func marshalMeta(m map[string]any) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

func unmarshalMeta(data []byte, dst *map[string]any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, dst)
}

var _ core.DbClient = (*DatabaseClient)(nil)
