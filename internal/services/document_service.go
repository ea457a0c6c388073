// Package services holds the application layer between HTTP handlers and
// the storage/ai adapters.
package services

import (
	"context"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/core/filetype"
	"github.com/markdave123-py/Archiva/internal/models"
)

// UploadInput carries one incoming file and its placement.
type UploadInput struct {
	UserID   string
	FileName string
	MimeType string
	Data     []byte
	Scope    models.DocumentScope
	ThreadID *string
	FolderID *string
	Name     string // display name; defaults to FileName
}

// DocumentWithChunks pairs a document with its persisted chunks.
type DocumentWithChunks struct {
	Document *models.Document       `json:"document"`
	Chunks   []models.DocumentChunk `json:"chunks"`
}

// DocumentService owns the upload/validate/store path and document CRUD.
// Processing itself lives in the ingestion pipeline; this service only
// records documents and dispatches jobs.
type DocumentService struct {
	db       core.DbClient
	storage  core.ObjectClient
	dispatch func(documentID string)
	logger   *log.Logger
}

func NewDocumentService(db core.DbClient, storage core.ObjectClient, dispatch func(documentID string), logger *log.Logger) *DocumentService {
	return &DocumentService{db: db, storage: storage, dispatch: dispatch, logger: logger}
}

var unsafeKeyChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// sanitizeFileName keeps storage keys predictable regardless of what the
// client named the file.
func sanitizeFileName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	name = unsafeKeyChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == ".." {
		name = "file"
	}
	return name
}

// Upload validates the incoming file, stores the blob, records the
// document in pending status and dispatches processing. Detection and
// magic-byte validation happen synchronously so the caller gets an
// immediate rejection; everything after the pending row is async.
func (s *DocumentService) Upload(ctx context.Context, in UploadInput) (*models.Document, error) {
	ft := filetype.Detect(in.MimeType, in.FileName)
	if ft == models.FileTypeOther {
		return nil, &core.UnsupportedTypeError{MimeType: in.MimeType, FileName: in.FileName}
	}
	if !filetype.Validate(in.Data, ft) {
		return nil, &core.ValidationError{Expected: ft}
	}

	docID := uuid.NewString()
	key := path.Join("users", in.UserID, "documents", docID, sanitizeFileName(in.FileName))

	if err := s.storage.UploadFile(ctx, key, in.Data, in.MimeType); err != nil {
		return nil, err
	}

	name := in.Name
	if name == "" {
		name = in.FileName
	}
	scope := in.Scope
	if scope == "" {
		scope = models.ScopeGlobal
	}

	doc := &models.Document{
		ID:         docID,
		UserID:     in.UserID,
		Name:       name,
		FileName:   in.FileName,
		MimeType:   in.MimeType,
		SizeBytes:  int64(len(in.Data)),
		StorageKey: key,
		FileType:   ft,
		Status:     models.StatusPending,
		Scope:      scope,
		ThreadID:   in.ThreadID,
		FolderID:   in.FolderID,
	}

	if err := s.db.CreateDocument(ctx, doc); err != nil {
		// The blob is orphaned otherwise; best effort, the row is what matters.
		if delErr := s.storage.DeleteFile(ctx, key); delErr != nil {
			s.logger.Warn().Str("key", key).Err(delErr).Msg("could not clean up blob after failed insert")
		}
		return nil, err
	}

	s.dispatch(docID)

	s.logger.Info().Str("document_id", docID).Str("file_type", string(ft)).
		Int("size_bytes", len(in.Data)).Msg("document uploaded")
	return doc, nil
}

// Get returns one document by id, scoped to its owner.
func (s *DocumentService) Get(ctx context.Context, userID, documentID string) (*models.Document, error) {
	doc, err := s.db.GetDocumentByID(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if doc.UserID != userID {
		return nil, core.ErrDocumentNotFound
	}
	return doc, nil
}

// GetWithChunks returns a document together with its extracted chunks in
// index order.
func (s *DocumentService) GetWithChunks(ctx context.Context, userID, documentID string) (*DocumentWithChunks, error) {
	doc, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return nil, err
	}
	chunks, err := s.db.GetChunksByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return &DocumentWithChunks{Document: doc, Chunks: chunks}, nil
}

// List returns a filtered page of the user's documents plus the unpaged total.
func (s *DocumentService) List(ctx context.Context, userID string, filter core.DocumentFilter) ([]models.Document, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.db.ListDocuments(ctx, userID, filter)
}

// Download returns the original stored bytes and content type.
func (s *DocumentService) Download(ctx context.Context, userID, documentID string) (*models.Document, []byte, error) {
	doc, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.storage.GetFile(ctx, doc.StorageKey)
	if err != nil {
		return nil, nil, err
	}
	return doc, data, nil
}

// Delete removes the document row (chunks cascade) and the stored blob.
// Blob deletion is best effort: a dangling object is preferable to a row
// the user cannot get rid of.
func (s *DocumentService) Delete(ctx context.Context, userID, documentID string) error {
	doc, err := s.Get(ctx, userID, documentID)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteFile(ctx, doc.StorageKey); err != nil {
		s.logger.Warn().Str("key", doc.StorageKey).Err(err).Msg("blob delete failed, removing row anyway")
	}
	return s.db.DeleteDocument(ctx, documentID)
}

// Archive hides a document from listings and search without deleting data.
func (s *DocumentService) Archive(ctx context.Context, userID, documentID string) error {
	if _, err := s.Get(ctx, userID, documentID); err != nil {
		return err
	}
	return s.db.UpdateDocumentStatus(ctx, documentID, models.StatusArchived)
}

// Move places a document in a folder (or back at root with nil). The
// destination folder must exist and belong to the same user.
func (s *DocumentService) Move(ctx context.Context, userID, documentID string, folderID *string) error {
	if _, err := s.Get(ctx, userID, documentID); err != nil {
		return err
	}
	if folderID != nil {
		folder, err := s.db.GetFolderByID(ctx, *folderID)
		if err != nil {
			return err
		}
		if folder.UserID != userID {
			return core.ErrFolderNotFound
		}
	}
	return s.db.MoveDocument(ctx, documentID, folderID)
}

// Reprocess re-runs ingestion for a document, replacing its chunks.
func (s *DocumentService) Reprocess(ctx context.Context, userID, documentID string) error {
	if _, err := s.Get(ctx, userID, documentID); err != nil {
		return err
	}
	if err := s.db.UpdateDocumentStatus(ctx, documentID, models.StatusPending); err != nil {
		return err
	}
	s.dispatch(documentID)
	return nil
}
