package parsers

import (
	"context"
	"strings"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/models"
)

func (r *Registry) parseText(_ context.Context, content []byte, _ string) (*core.ParsedDocument, error) {
	text := strings.TrimSpace(string(content))
	return &core.ParsedDocument{
		Content:  text,
		Metadata: map[string]any{"characters": len(text)},
		Chunks:   chunkAs(text, models.ChunkTypeText, DefaultChunkerConfig()),
	}, nil
}
