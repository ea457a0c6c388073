// Package parsers turns raw file bytes into normalized documents: full
// extracted content, format metadata, and pre-typed chunks ready for token
// counting and embedding. One parser per supported file type, registered
// behind the core.Parser contract.
package parsers

import (
	"context"
	"fmt"

	"github.com/phuslu/log"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/models"
)

type parseFunc func(ctx context.Context, content []byte, filename string) (*core.ParsedDocument, error)

// Registry dispatches to the parser registered for each file type.
type Registry struct {
	vision  core.VisionProvider
	logger  *log.Logger
	parsers map[models.FileType]parseFunc
}

// NewRegistry wires every format parser. vision may be nil; the image
// parser then degrades to placeholder documents.
func NewRegistry(vision core.VisionProvider, logger *log.Logger) *Registry {
	r := &Registry{vision: vision, logger: logger}
	r.parsers = map[models.FileType]parseFunc{
		models.FileTypePDF:   r.parsePDF,
		models.FileTypeDocx:  r.parseDocx,
		models.FileTypeDoc:   r.parseDoc,
		models.FileTypeText:  r.parseText,
		models.FileTypeMd:    r.parseMarkdown,
		models.FileTypeCSV:   r.parseCSV,
		models.FileTypeJSON:  r.parseJSON,
		models.FileTypeCode:  r.parseCode,
		models.FileTypePptx:  r.parsePptx,
		models.FileTypeImage: r.parseImage,
		models.FileTypeXlsx:  r.parseXlsx,
	}
	return r
}

var _ core.Parser = (*Registry)(nil)

// Parse extracts a normalized document for the given file type.
func (r *Registry) Parse(ctx context.Context, content []byte, fileType models.FileType, filename string) (*core.ParsedDocument, error) {
	fn, ok := r.parsers[fileType]
	if !ok {
		return nil, &core.ParseError{FileType: fileType, Err: fmt.Errorf("no parser registered")}
	}
	doc, err := fn(ctx, content, filename)
	if err != nil {
		return nil, err
	}
	if doc.Metadata == nil {
		doc.Metadata = map[string]any{}
	}
	return doc, nil
}
