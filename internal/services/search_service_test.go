package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/core/mock"
	"github.com/markdave123-py/Archiva/internal/models"
)

type searchFixture struct {
	db       *mock.DB
	embedder *mock.Embedder
	svc      *SearchService
}

func newSearchFixture() *searchFixture {
	f := &searchFixture{db: mock.NewDB(), embedder: &mock.Embedder{}}
	f.svc = NewSearchService(f.db, f.embedder, testLogger(), SearchDefaults{})
	return f
}

// seedChunk stores one ready document with a single embedded chunk whose
// vector matches the given text exactly for the deterministic embedder.
func (f *searchFixture) seedChunk(t *testing.T, docID, userID, text string, tokens int, scope models.DocumentScope, threadID *string) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, f.db.CreateDocument(ctx, &models.Document{
		ID: docID, UserID: userID, Name: "doc-" + docID,
		FileType: models.FileTypeText, Status: models.StatusReady,
		Scope: scope, ThreadID: threadID,
	}))
	require.NoError(t, f.db.InsertDocumentChunks(ctx, []models.DocumentChunk{{
		ID: docID + "-c0", DocumentID: docID, Content: text,
		ChunkIndex: 0, ChunkType: models.ChunkTypeText,
		Embedding: f.embedder.Vector(text), TokenCount: tokens,
	}}))
}

func TestSearchReturnsMatches(t *testing.T) {
	f := newSearchFixture()
	f.seedChunk(t, "d1", "u1", "postgres connection pooling guide", 50, models.ScopeGlobal, nil)
	f.seedChunk(t, "d2", "u2", "postgres connection pooling guide", 50, models.ScopeGlobal, nil)

	results, err := f.svc.Search(context.Background(), "u1", "postgres connection pooling guide", core.SearchOptions{})
	require.NoError(t, err)

	// Identical text embeds to an identical vector; only u1's document is
	// visible.
	require.Len(t, results, 1)
	assert.Equal(t, "doc-d1", results[0].DocumentName)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
}

func TestSearchKeywordLegBreaksVectorTies(t *testing.T) {
	f := newSearchFixture()
	ctx := context.Background()
	query := "kubernetes ingress controller"

	// Two chunks embed identically to the query, so the vector leg cannot
	// order them; the chunk containing the query terms must rank first,
	// even though it was seeded last.
	for i, content := range []string{"notes about gardening tulips", "kubernetes ingress controller setup"} {
		docID := []string{"d1", "d2"}[i]
		require.NoError(t, f.db.CreateDocument(ctx, &models.Document{
			ID: docID, UserID: "u1", Name: "doc-" + docID,
			FileType: models.FileTypeText, Status: models.StatusReady,
			Scope: models.ScopeGlobal,
		}))
		require.NoError(t, f.db.InsertDocumentChunks(ctx, []models.DocumentChunk{{
			ID: docID + "-c0", DocumentID: docID, Content: content,
			ChunkIndex: 0, ChunkType: models.ChunkTypeText,
			Embedding: f.embedder.Vector(query), TokenCount: 10,
		}}))
	}

	results, err := f.svc.Search(ctx, "u1", query, core.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "doc-d2", results[0].DocumentName)
	// The reported similarity stays the raw vector similarity.
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
	assert.InDelta(t, 1.0, results[1].Similarity, 1e-9)
}

func TestSearchEmptyQuery(t *testing.T) {
	f := newSearchFixture()
	results, err := f.svc.Search(context.Background(), "u1", "   ", core.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Zero(t, f.embedder.Calls)
}

// An embedding outage degrades to zero results, never an error.
func TestSearchEmbeddingFailureDegrades(t *testing.T) {
	f := newSearchFixture()
	f.seedChunk(t, "d1", "u1", "some text", 10, models.ScopeGlobal, nil)
	f.embedder.Err = errors.New("service unavailable")

	results, err := f.svc.Search(context.Background(), "u1", "some text", core.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.NotNil(t, results)
}

func TestSearchDBFailurePropagates(t *testing.T) {
	f := newSearchFixture()
	f.db.FailOn["SearchDocuments"] = errors.New("db down")
	_, err := f.svc.Search(context.Background(), "u1", "query", core.SearchOptions{})
	require.Error(t, err)
}

func TestConversationContextBudgetAndCitations(t *testing.T) {
	f := newSearchFixture()
	thread := "t1"
	f.seedChunk(t, "d1", "u1", "budget planning overview", 100, models.ScopeConversation, &thread)
	f.seedChunk(t, "d2", "u1", "budget planning overview", 100, models.ScopeGlobal, nil)

	out, err := f.svc.ConversationContext(context.Background(), "u1", "t1", "budget planning overview", 4000)
	require.NoError(t, err)

	assert.Equal(t, 200, out.TokenCount)
	assert.Contains(t, out.Text, "[Source: doc-d1]")
	assert.Contains(t, out.Text, "[Source: doc-d2]")
	require.Len(t, out.Sources, 2)
	assert.Equal(t, []int{0}, out.Sources[0].ChunkIndexes)
}

func TestConversationContextRespectsBudget(t *testing.T) {
	f := newSearchFixture()
	f.seedChunk(t, "d1", "u1", "identical snippet", 80, models.ScopeGlobal, nil)
	f.seedChunk(t, "d2", "u1", "identical snippet", 80, models.ScopeGlobal, nil)

	// Budget only fits one 80-token chunk.
	out, err := f.svc.ConversationContext(context.Background(), "u1", "t1", "identical snippet", 100)
	require.NoError(t, err)
	assert.Equal(t, 80, out.TokenCount)
	require.Len(t, out.Sources, 1)
}

func TestConversationContextThreadScoping(t *testing.T) {
	f := newSearchFixture()
	otherThread := "t2"
	f.seedChunk(t, "d1", "u1", "meeting minutes text", 40, models.ScopeConversation, &otherThread)

	out, err := f.svc.ConversationContext(context.Background(), "u1", "t1", "meeting minutes text", 4000)
	require.NoError(t, err)
	// Conversation-scoped documents from other threads are invisible.
	assert.Empty(t, out.Text)
	assert.Empty(t, out.Sources)
}

func TestConversationContextEmbeddingFailureDegrades(t *testing.T) {
	f := newSearchFixture()
	f.embedder.Err = errors.New("down")
	out, err := f.svc.ConversationContext(context.Background(), "u1", "t1", "anything", 4000)
	require.NoError(t, err)
	assert.Empty(t, out.Text)
	assert.NotNil(t, out.Sources)
}
