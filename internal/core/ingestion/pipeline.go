// Package ingestion drives a document through the processing state
// machine: download, parse, chunk, embed, persist. Status moves
// pending -> processing -> {ready, error}; archived is outside this
// package's reach.
package ingestion

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/core/tokens"
	"github.com/markdave123-py/Archiva/internal/models"
)

// DefaultChunkBatchSize is the number of chunk rows embedded and inserted
// per batch.
const DefaultChunkBatchSize = 50

// Config tunes the pipeline.
type Config struct {
	ChunkBatchSize int
}

// Pipeline orchestrates processing for one document at a time. Dispatching
// runs to the background is the caller's concern (see the worker package),
// which keeps Process synchronous and deterministic under test.
type Pipeline struct {
	db       core.DbClient
	storage  core.ObjectClient
	embedder core.EmbeddingProvider
	parser   core.Parser
	logger   *log.Logger
	cfg      Config
}

func NewPipeline(db core.DbClient, storage core.ObjectClient, embedder core.EmbeddingProvider, parser core.Parser, logger *log.Logger, cfg Config) *Pipeline {
	if cfg.ChunkBatchSize <= 0 {
		cfg.ChunkBatchSize = DefaultChunkBatchSize
	}
	return &Pipeline{
		db:       db,
		storage:  storage,
		embedder: embedder,
		parser:   parser,
		logger:   logger,
		cfg:      cfg,
	}
}

// Process runs the full parse/chunk/embed/persist cycle for a document id.
// It is idempotent: chunks from any previous run are replaced, never
// appended to. Any unrecoverable failure lands the document in error
// status with the failure message preserved verbatim, and is also
// returned to the caller.
func (p *Pipeline) Process(ctx context.Context, documentID string) error {
	doc, err := p.db.GetDocumentByID(ctx, documentID)
	if err != nil {
		return fmt.Errorf("load document %s: %w", documentID, err)
	}

	// Written synchronously so concurrent status reads observe the
	// transition immediately.
	if err := p.db.UpdateDocumentStatus(ctx, documentID, models.StatusProcessing); err != nil {
		return fmt.Errorf("mark processing: %w", err)
	}

	data, err := p.storage.GetFile(ctx, doc.StorageKey)
	if err != nil {
		return p.fail(ctx, documentID, err)
	}

	parsed, err := p.parser.Parse(ctx, data, doc.FileType, doc.FileName)
	if err != nil {
		return p.fail(ctx, documentID, err)
	}

	chunks := p.buildChunks(documentID, parsed.Chunks)

	// Replace, never append: clear chunks left by any previous run before
	// inserting new ones.
	if err := p.db.DeleteChunksByDocument(ctx, documentID); err != nil {
		return p.fail(ctx, documentID, err)
	}

	if err := p.embedAndPersist(ctx, chunks); err != nil {
		return p.fail(ctx, documentID, err)
	}

	tokenTotal := 0
	for i := range chunks {
		tokenTotal += chunks[i].TokenCount
	}
	if err := p.db.FinalizeDocument(ctx, documentID, len(chunks), tokenTotal, parsed.Metadata); err != nil {
		return p.fail(ctx, documentID, err)
	}

	p.logger.Info().Str("document_id", documentID).
		Int("chunks", len(chunks)).Int("tokens", tokenTotal).
		Msg("document processed")
	return nil
}

// buildChunks assigns ids, monotonic indexes and token estimates.
func (p *Pipeline) buildChunks(documentID string, parsed []core.ParsedChunk) []models.DocumentChunk {
	out := make([]models.DocumentChunk, 0, len(parsed))
	for i, pc := range parsed {
		out = append(out, models.DocumentChunk{
			ID:         uuid.NewString(),
			DocumentID: documentID,
			Content:    pc.Content,
			ChunkIndex: i,
			ChunkType:  pc.Type,
			PageStart:  pc.PageStart,
			PageEnd:    pc.PageEnd,
			LineStart:  pc.LineStart,
			LineEnd:    pc.LineEnd,
			TokenCount: tokens.Estimate(pc.Content, pc.Type),
			Metadata:   pc.Metadata,
		})
	}
	return out
}

// embedAndPersist streams chunk batches through embedding and insertion.
// A failed batch-embedding call or a failed insert aborts the run; a nil
// vector for an individual item is tolerated and stored as NULL.
func (p *Pipeline) embedAndPersist(ctx context.Context, chunks []models.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	batches := make(chan []models.DocumentChunk, 2)

	g.Go(func() error {
		defer close(batches)
		for start := 0; start < len(chunks); start += p.cfg.ChunkBatchSize {
			end := start + p.cfg.ChunkBatchSize
			if end > len(chunks) {
				end = len(chunks)
			}
			select {
			case batches <- chunks[start:end]:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	g.Go(func() error {
		for batch := range batches {
			texts := make([]string, len(batch))
			for i := range batch {
				texts[i] = batch[i].Content
			}

			vecs, err := p.embedder.EmbedBatch(gctx, texts)
			if err != nil {
				return err
			}
			for i := range batch {
				if i < len(vecs) && vecs[i] != nil {
					batch[i].Embedding = vecs[i]
				} else {
					p.logger.Warn().Str("chunk_id", batch[i].ID).
						Msg("no embedding for chunk, storing without vector")
				}
			}

			if err := p.db.InsertDocumentChunks(gctx, batch); err != nil {
				return fmt.Errorf("insert chunks: %w", err)
			}
		}
		return nil
	})

	return g.Wait()
}

// fail records the error status with the message preserved verbatim for
// user display, then propagates the original error.
func (p *Pipeline) fail(ctx context.Context, documentID string, cause error) error {
	p.logger.Error().Str("document_id", documentID).Err(cause).Msg("processing failed")
	if err := p.db.SetDocumentError(ctx, documentID, cause.Error()); err != nil {
		p.logger.Error().Str("document_id", documentID).Err(err).Msg("could not record error status")
	}
	return cause
}
