package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/phuslu/log"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/models"
)

const (
	// DefaultSearchLimit caps search results when the caller gives none.
	DefaultSearchLimit = 10

	// DefaultMinSimilarity filters out weakly related chunks.
	DefaultMinSimilarity = 0.7

	// DefaultContextTokenBudget bounds assembled conversation context.
	DefaultContextTokenBudget = 4000
)

// SearchDefaults overrides the package defaults for result caps and the
// similarity floor. Zero fields keep the defaults.
type SearchDefaults struct {
	Limit         int
	MinSimilarity float64
	TokenBudget   int
}

// SearchService runs semantic retrieval over a user's ready documents.
type SearchService struct {
	db       core.DbClient
	embedder core.EmbeddingProvider
	logger   *log.Logger
	defaults SearchDefaults
}

func NewSearchService(db core.DbClient, embedder core.EmbeddingProvider, logger *log.Logger, defaults SearchDefaults) *SearchService {
	if defaults.Limit <= 0 {
		defaults.Limit = DefaultSearchLimit
	}
	if defaults.MinSimilarity <= 0 {
		defaults.MinSimilarity = DefaultMinSimilarity
	}
	if defaults.TokenBudget <= 0 {
		defaults.TokenBudget = DefaultContextTokenBudget
	}
	return &SearchService{db: db, embedder: embedder, logger: logger, defaults: defaults}
}

// Search embeds the query and returns matching chunks ranked by cosine
// similarity blended with a keyword score on the query text. An embedding
// failure degrades to zero results rather than an error: retrieval is an
// enrichment, never a blocker.
func (s *SearchService) Search(ctx context.Context, userID, query string, opts core.SearchOptions) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.SearchResult{}, nil
	}
	if opts.Limit <= 0 {
		opts.Limit = s.defaults.Limit
	}
	if opts.MinSimilarity <= 0 {
		opts.MinSimilarity = s.defaults.MinSimilarity
	}
	opts.QueryText = query

	vec, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Warn().Err(err).Msg("query embedding failed, returning no results")
		return []models.SearchResult{}, nil
	}

	results, err := s.db.SearchDocuments(ctx, userID, vec, opts)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.SearchResult{}
	}
	return results, nil
}

// ConversationContext assembles a token-budgeted context block for one
// thread: the best-matching chunks in similarity order up to maxTokens,
// each labeled with its source document, plus a citation list. The same
// degrade-to-empty rule as Search applies to embedding failures.
func (s *SearchService) ConversationContext(ctx context.Context, userID, threadID, query string, maxTokens int) (*models.ConversationContext, error) {
	if maxTokens <= 0 {
		maxTokens = s.defaults.TokenBudget
	}

	empty := &models.ConversationContext{Text: "", Sources: []models.ContextSource{}}

	query = strings.TrimSpace(query)
	if query == "" {
		return empty, nil
	}

	vec, err := s.embedder.EmbedText(ctx, query)
	if err != nil {
		s.logger.Warn().Err(err).Msg("query embedding failed, returning empty context")
		return empty, nil
	}

	results, err := s.db.GetConversationContext(ctx, userID, threadID, vec, maxTokens, s.defaults.MinSimilarity)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return empty, nil
	}

	var sb strings.Builder
	tokenTotal := 0
	sourceOrder := make([]string, 0, len(results))
	sources := make(map[string]*models.ContextSource)

	for _, r := range results {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "[Source: %s]\n%s", r.DocumentName, r.Chunk.Content)
		tokenTotal += r.Chunk.TokenCount

		src, ok := sources[r.Chunk.DocumentID]
		if !ok {
			src = &models.ContextSource{
				DocumentID:   r.Chunk.DocumentID,
				DocumentName: r.DocumentName,
				FileType:     r.FileType,
			}
			sources[r.Chunk.DocumentID] = src
			sourceOrder = append(sourceOrder, r.Chunk.DocumentID)
		}
		src.ChunkIndexes = append(src.ChunkIndexes, r.Chunk.ChunkIndex)
	}

	out := &models.ConversationContext{
		Text:       sb.String(),
		TokenCount: tokenTotal,
		Sources:    make([]models.ContextSource, 0, len(sourceOrder)),
	}
	for _, id := range sourceOrder {
		out.Sources = append(out.Sources, *sources[id])
	}
	return out, nil
}
