package core

import (
	"context"

	"github.com/markdave123-py/Archiva/internal/models"
)

// ParsedChunk is a chunk emitted by a format parser before token counting
// and embedding.
type ParsedChunk struct {
	Content   string
	Type      models.ChunkType
	PageStart *int
	PageEnd   *int
	LineStart *int
	LineEnd   *int
	Metadata  map[string]any
}

// ParsedDocument is the normalized output of every format parser.
type ParsedDocument struct {
	Content  string
	Metadata map[string]any
	Chunks   []ParsedChunk
}

// Parser extracts normalized content from one file type. Implementations
// prefer a usable subset over total failure; an unrecoverable failure is a
// *ParseError carrying the file type.
type Parser interface {
	Parse(ctx context.Context, content []byte, fileType models.FileType, filename string) (*ParsedDocument, error)
}
