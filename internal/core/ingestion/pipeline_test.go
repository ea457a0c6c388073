package ingestion

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/phuslu/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/core/mock"
	"github.com/markdave123-py/Archiva/internal/core/parsers"
	"github.com/markdave123-py/Archiva/internal/models"
)

func testLogger() *log.Logger {
	return &log.Logger{Writer: log.IOWriter{Writer: io.Discard}}
}

type fixture struct {
	db       *mock.DB
	storage  *mock.Storage
	embedder *mock.Embedder
	pipeline *Pipeline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := mock.NewDB()
	storage := mock.NewStorage()
	embedder := &mock.Embedder{}
	reg := parsers.NewRegistry(nil, testLogger())
	p := NewPipeline(db, storage, embedder, reg, testLogger(), Config{ChunkBatchSize: 2})
	return &fixture{db: db, storage: storage, embedder: embedder, pipeline: p}
}

func (f *fixture) seed(t *testing.T, id string, fileType models.FileType, content []byte) *models.Document {
	t.Helper()
	ctx := context.Background()
	key := "users/u1/documents/" + id + "/file"
	require.NoError(t, f.storage.UploadFile(ctx, key, content, "application/octet-stream"))
	doc := &models.Document{
		ID:         id,
		UserID:     "u1",
		Name:       "doc " + id,
		FileName:   "file",
		StorageKey: key,
		FileType:   fileType,
		Status:     models.StatusPending,
		Scope:      models.ScopeGlobal,
	}
	require.NoError(t, f.db.CreateDocument(ctx, doc))
	return doc
}

const markdownSample = "# Release Notes\n\nThe first release ships ingestion.\n\n## Fixes\n\nMany bug fixes landed."

func TestProcessReachesReady(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "d1", models.FileTypeMd, []byte(markdownSample))

	require.NoError(t, f.pipeline.Process(ctx, "d1"))

	doc, err := f.db.GetDocumentByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, doc.Status)
	assert.Empty(t, doc.ProcessingError)
	assert.Equal(t, float64(2), toFloat(doc.Metadata["headings"]))

	chunks, err := f.db.GetChunksByDocument(ctx, "d1")
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	assert.Equal(t, len(chunks), doc.ChunkCount)

	tokenTotal := 0
	for i, c := range chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.NotNil(t, c.Embedding)
		assert.Greater(t, c.TokenCount, 0)
		tokenTotal += c.TokenCount
	}
	assert.Equal(t, tokenTotal, doc.TokenCount)
}

func TestProcessParseFailureSetsError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "d1", models.FileTypeJSON, []byte(`{"broken":`))

	err := f.pipeline.Process(ctx, "d1")
	require.Error(t, err)

	doc, getErr := f.db.GetDocumentByID(ctx, "d1")
	require.NoError(t, getErr)
	assert.Equal(t, models.StatusError, doc.Status)
	// The recorded message is the failure verbatim, for user display.
	assert.Equal(t, err.Error(), doc.ProcessingError)

	chunks, _ := f.db.GetChunksByDocument(ctx, "d1")
	assert.Empty(t, chunks)
}

func TestProcessMissingBlobSetsError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc := f.seed(t, "d1", models.FileTypeMd, []byte(markdownSample))
	require.NoError(t, f.storage.DeleteFile(ctx, doc.StorageKey))

	require.Error(t, f.pipeline.Process(ctx, "d1"))

	got, err := f.db.GetDocumentByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, got.Status)
	assert.NotEmpty(t, got.ProcessingError)
}

func TestProcessEmbeddingBatchFailureSetsError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "d1", models.FileTypeMd, []byte(markdownSample))
	f.embedder.Err = errors.New("quota exceeded")

	require.Error(t, f.pipeline.Process(ctx, "d1"))

	doc, err := f.db.GetDocumentByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusError, doc.Status)
	assert.Contains(t, doc.ProcessingError, "quota exceeded")
}

func TestProcessPerItemEmbeddingMissTolerated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "d1", models.FileTypeMd, []byte(markdownSample))
	f.embedder.SkipContaining = "Fixes"

	require.NoError(t, f.pipeline.Process(ctx, "d1"))

	doc, err := f.db.GetDocumentByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, doc.Status)

	chunks, err := f.db.GetChunksByDocument(ctx, "d1")
	require.NoError(t, err)
	var withVec, withoutVec int
	for _, c := range chunks {
		if c.Embedding == nil {
			withoutVec++
		} else {
			withVec++
		}
	}
	assert.Greater(t, withVec, 0)
	assert.Greater(t, withoutVec, 0)
}

func TestProcessIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.seed(t, "d1", models.FileTypeMd, []byte(markdownSample))

	require.NoError(t, f.pipeline.Process(ctx, "d1"))
	first, err := f.db.GetChunksByDocument(ctx, "d1")
	require.NoError(t, err)

	require.NoError(t, f.pipeline.Process(ctx, "d1"))
	second, err := f.db.GetChunksByDocument(ctx, "d1")
	require.NoError(t, err)

	// Reprocessing replaces chunks wholesale instead of appending.
	assert.Equal(t, len(first), len(second))
	seen := map[int]bool{}
	for _, c := range second {
		assert.False(t, seen[c.ChunkIndex], "duplicate chunk index %d", c.ChunkIndex)
		seen[c.ChunkIndex] = true
	}
}

func TestProcessUnknownDocument(t *testing.T) {
	f := newFixture(t)
	err := f.pipeline.Process(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDocumentNotFound)
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case int:
		return float64(n)
	case float64:
		return n
	}
	return -1
}
