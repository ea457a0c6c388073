package core

import (
	"errors"
	"fmt"

	"github.com/markdave123-py/Archiva/internal/models"
)

var (
	// ErrDocumentNotFound is returned when a document id resolves to nothing.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrFolderNotFound is returned when a folder id resolves to nothing.
	ErrFolderNotFound = errors.New("folder not found")
)

// UnsupportedTypeError rejects an upload whose MIME/extension pair maps to
// no supported file type. Raised synchronously, before any storage write.
type UnsupportedTypeError struct {
	MimeType string
	FileName string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported file type (mime %q, name %q)", e.MimeType, e.FileName)
}

// ValidationError rejects an upload whose raw bytes do not match the
// claimed format. The message names the expected format for user display.
type ValidationError struct {
	Expected models.FileType
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("file content does not match expected %s format: %s", e.Expected, e.Reason)
	}
	return fmt.Sprintf("file content does not match expected %s format", e.Expected)
}

// StorageError wraps a blob-store upload, download or delete failure.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ParseError is an unrecoverable format-specific extraction failure.
type ParseError struct {
	FileType models.FileType
	Err      error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.FileType, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// EmbeddingError wraps a failed batch embedding call. Per-item failures
// inside an otherwise successful batch are not errors at all.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// FolderCycleError rejects a folder move that would break the tree: moving
// a folder into itself or into one of its descendants. No mutation is
// performed.
type FolderCycleError struct {
	FolderID string
	TargetID string
}

func (e *FolderCycleError) Error() string {
	if e.FolderID == e.TargetID {
		return "cannot move a folder into itself"
	}
	return "cannot move a folder into its own descendant"
}
