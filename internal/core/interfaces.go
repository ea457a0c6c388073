package core

import (
	"context"

	"github.com/markdave123-py/Archiva/internal/models"
)

// DocumentFilter narrows document listings. Archived documents are excluded
// unless IncludeArchived is set. RootOnly selects documents with no folder;
// it wins over FolderID.
type DocumentFilter struct {
	Scope           *models.DocumentScope
	ThreadID        *string
	FolderID        *string
	RootOnly        bool
	Status          *models.DocumentStatus
	IncludeArchived bool
	Limit           int
	Offset          int
}

// SearchOptions are the filters forwarded to the search_documents RPC.
// QueryText carries the raw query for the keyword leg of the hybrid
// ranking; an empty string disables it.
type SearchOptions struct {
	Limit         int
	MinSimilarity float64
	Scope         *models.DocumentScope
	ThreadID      *string
	FileTypes     []models.FileType
	FolderID      *string
	QueryText     string
}

// FolderTreeRow is one flat row of the get_folder_tree RPC; the service
// layer reassembles rows into a nested tree.
type FolderTreeRow struct {
	models.DocumentFolder
	Depth int
}

// DbClient defines all persistence operations the services and pipeline
// need. It abstracts Postgres/pgvector so higher layers never depend on a
// specific DB.
type DbClient interface {
	CreateDocument(ctx context.Context, doc *models.Document) error
	GetDocumentByID(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, userID string, filter DocumentFilter) ([]models.Document, int, error)
	UpdateDocumentStatus(ctx context.Context, id string, status models.DocumentStatus) error
	SetDocumentError(ctx context.Context, id string, message string) error
	FinalizeDocument(ctx context.Context, id string, chunkCount, tokenCount int, metadata map[string]any) error
	MoveDocument(ctx context.Context, id string, folderID *string) error
	DeleteDocument(ctx context.Context, id string) error

	InsertDocumentChunks(ctx context.Context, chunks []models.DocumentChunk) error
	DeleteChunksByDocument(ctx context.Context, documentID string) error
	GetChunksByDocument(ctx context.Context, documentID string) ([]models.DocumentChunk, error)

	SearchDocuments(ctx context.Context, userID string, queryVec []float32, opts SearchOptions) ([]models.SearchResult, error)
	GetConversationContext(ctx context.Context, userID, threadID string, queryVec []float32, maxTokens int, minSimilarity float64) ([]models.SearchResult, error)

	CreateFolder(ctx context.Context, folder *models.DocumentFolder) error
	GetFolderByID(ctx context.Context, id string) (*models.DocumentFolder, error)
	UpdateFolder(ctx context.Context, id string, name, color *string) error
	SetFolderParent(ctx context.Context, id string, parentID *string) error
	DeleteFolder(ctx context.Context, id string) error
	ListSubfolders(ctx context.Context, userID string, parentID *string) ([]models.DocumentFolder, error)
	GetFolderTree(ctx context.Context, userID string) ([]FolderTreeRow, error)
	GetFolderBreadcrumb(ctx context.Context, folderID string) ([]models.DocumentFolder, error)

	Close() error
}

// ObjectClient defines interactions with S3 or any compatible blob store.
// UploadFile retries exactly once with application/octet-stream when the
// store rejects the real content type for MIME-policy reasons.
type ObjectClient interface {
	UploadFile(ctx context.Context, key string, data []byte, contentType string) error
	GetFile(ctx context.Context, key string) ([]byte, error)
	DeleteFile(ctx context.Context, key string) error
}
