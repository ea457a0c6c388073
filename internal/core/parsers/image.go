package parsers

import (
	"context"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/models"
)

// parseImage delegates transcription and description to the vision
// provider. When the provider is missing or the call fails, the upload
// still succeeds: it degrades to a placeholder document with zero chunks.
func (r *Registry) parseImage(ctx context.Context, content []byte, filename string) (*core.ParsedDocument, error) {
	if r.vision == nil {
		return imagePlaceholder(filename, "no vision provider configured"), nil
	}

	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		mimeType = "image/png"
	}

	text, err := r.vision.DescribeImage(ctx, content, mimeType)
	if err != nil {
		if r.logger != nil {
			r.logger.Warn().Str("file", filename).Err(err).Msg("image transcription failed, storing placeholder")
		}
		return imagePlaceholder(filename, err.Error()), nil
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return imagePlaceholder(filename, "empty transcription"), nil
	}

	return &core.ParsedDocument{
		Content:  text,
		Metadata: map[string]any{"transcribed": true},
		Chunks:   chunkAs(text, models.ChunkTypeText, DefaultChunkerConfig()),
	}, nil
}

func imagePlaceholder(filename, reason string) *core.ParsedDocument {
	return &core.ParsedDocument{
		Content: fmt.Sprintf("Image file %s (no transcription available)", filename),
		Metadata: map[string]any{
			"transcribed": false,
			"placeholder": true,
			"reason":      reason,
		},
		Chunks: nil,
	}
}
