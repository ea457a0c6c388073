package models

import (
	"time"
)

// DocumentStatus tracks a document through the processing state machine.
// Transitions are only pending -> processing -> {ready, error}; archived
// documents are excluded from normal listings.
type DocumentStatus string

const (
	StatusPending    DocumentStatus = "pending"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusError      DocumentStatus = "error"
	StatusArchived   DocumentStatus = "archived"
)

// DocumentScope controls visibility: global for the user, or confined to
// one conversation thread.
type DocumentScope string

const (
	ScopeConversation DocumentScope = "conversation"
	ScopeGlobal       DocumentScope = "global"
)

// FileType is the closed set of formats the ingestion pipeline understands.
// Detection never produces anything outside this set; unknown inputs
// degrade to FileTypeOther.
type FileType string

const (
	FileTypePDF   FileType = "pdf"
	FileTypeDocx  FileType = "docx"
	FileTypeDoc   FileType = "doc"
	FileTypeText  FileType = "txt"
	FileTypeMd    FileType = "md"
	FileTypeCSV   FileType = "csv"
	FileTypeJSON  FileType = "json"
	FileTypeCode  FileType = "code"
	FileTypePptx  FileType = "pptx"
	FileTypeImage FileType = "image"
	FileTypeXlsx  FileType = "xlsx"
	FileTypeOther FileType = "other"
)

// ChunkType classifies what a chunk's content represents.
type ChunkType string

const (
	ChunkTypeText     ChunkType = "text"
	ChunkTypeCode     ChunkType = "code"
	ChunkTypeTable    ChunkType = "table"
	ChunkTypeHeading  ChunkType = "heading"
	ChunkTypeMetadata ChunkType = "metadata"
)

// Document represents a user-uploaded file tracked through ingestion.
type Document struct {
	ID              string         `db:"id" json:"id"`
	UserID          string         `db:"user_id" json:"user_id"`
	Name            string         `db:"name" json:"name"`
	FileName        string         `db:"file_name" json:"file_name"`
	MimeType        string         `db:"mime_type" json:"mime_type"`
	SizeBytes       int64          `db:"size_bytes" json:"size_bytes"`
	StorageKey      string         `db:"storage_key" json:"storage_key"`
	FileType        FileType       `db:"file_type" json:"file_type"`
	Status          DocumentStatus `db:"status" json:"status"`
	Scope           DocumentScope  `db:"scope" json:"scope"`
	ThreadID        *string        `db:"thread_id" json:"thread_id,omitempty"`
	FolderID        *string        `db:"folder_id" json:"folder_id,omitempty"`
	Metadata        map[string]any `db:"metadata" json:"metadata,omitempty"`
	ChunkCount      int            `db:"chunk_count" json:"chunk_count"`
	TokenCount      int            `db:"token_count" json:"token_count"`
	ProcessingError string         `db:"processing_error" json:"processing_error,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updated_at"`
}

// DocumentChunk is one embeddable span of a document's extracted text.
// Embedding may be nil when generation failed for that item; that never
// blocks the owning document from reaching ready.
type DocumentChunk struct {
	ID         string         `db:"id" json:"id"`
	DocumentID string         `db:"document_id" json:"document_id"`
	Content    string         `db:"content" json:"content"`
	ChunkIndex int            `db:"chunk_index" json:"chunk_index"`
	ChunkType  ChunkType      `db:"chunk_type" json:"chunk_type"`
	PageStart  *int           `db:"page_start" json:"page_start,omitempty"`
	PageEnd    *int           `db:"page_end" json:"page_end,omitempty"`
	LineStart  *int           `db:"line_start" json:"line_start,omitempty"`
	LineEnd    *int           `db:"line_end" json:"line_end,omitempty"`
	Embedding  []float32      `db:"embedding" json:"-"`
	TokenCount int            `db:"token_count" json:"token_count"`
	Metadata   map[string]any `db:"metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}

// DocumentFolder is a node in the user's acyclic folder tree. ParentID of
// nil means root level. DocumentCount is derived, never stored.
type DocumentFolder struct {
	ID            string    `db:"id" json:"id"`
	UserID        string    `db:"user_id" json:"user_id"`
	Name          string    `db:"name" json:"name"`
	ParentID      *string   `db:"parent_id" json:"parent_id,omitempty"`
	Color         string    `db:"color" json:"color,omitempty"`
	DocumentCount int       `db:"document_count" json:"document_count"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// FolderTreeNode is a folder with its nested children, assembled from the
// flat depth-ordered rows returned by the get_folder_tree RPC.
type FolderTreeNode struct {
	DocumentFolder
	Children []*FolderTreeNode `json:"children"`
}

// SearchResult is one ranked chunk returned by hybrid retrieval.
type SearchResult struct {
	Chunk        DocumentChunk `json:"chunk"`
	DocumentName string        `json:"document_name"`
	FileType     FileType      `json:"file_type"`
	Similarity   float64       `json:"similarity"`
}

// ContextSource identifies a document cited in assembled conversation context.
type ContextSource struct {
	DocumentID   string   `json:"document_id"`
	DocumentName string   `json:"document_name"`
	ChunkIndexes []int    `json:"chunk_indexes"`
	FileType     FileType `json:"file_type"`
}

// ConversationContext is the token-budgeted context block handed to agents.
type ConversationContext struct {
	Text       string          `json:"text"`
	TokenCount int             `json:"token_count"`
	Sources    []ContextSource `json:"sources"`
}

// FolderContents is a folder listing: immediate subfolders, one page of
// documents, and the breadcrumb back to root.
type FolderContents struct {
	Folder     *DocumentFolder  `json:"folder,omitempty"`
	Subfolders []DocumentFolder `json:"subfolders"`
	Documents  []Document       `json:"documents"`
	Total      int              `json:"total"`
	Breadcrumb []DocumentFolder `json:"breadcrumb"`
}
