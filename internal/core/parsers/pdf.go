package parsers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/models"
)

// parsePDF extracts the full text plus page count. Exact page attribution
// per chunk is not available from the flat text stream, so each chunk's
// page is approximated proportionally from its index; the metadata flags
// the approximation.
func (r *Registry) parsePDF(_ context.Context, content []byte, _ string) (*core.ParsedDocument, error) {
	res, err := docconv.Convert(bytes.NewReader(content), "application/pdf", false)
	if err != nil {
		return nil, &core.ParseError{FileType: models.FileTypePDF, Err: err}
	}
	text := strings.TrimSpace(res.Body)
	if text == "" {
		return nil, &core.ParseError{FileType: models.FileTypePDF, Err: fmt.Errorf("no extractable text")}
	}

	meta := map[string]any{"pageAttribution": "approximate"}

	pageCount, err := api.PageCount(bytes.NewReader(content), nil)
	if err != nil {
		// Page count is auxiliary; keep the text and record the problem.
		meta["warnings"] = []string{fmt.Sprintf("page count unavailable: %v", err)}
		pageCount = 0
	}
	meta["pageCount"] = pageCount

	chunks := chunkAs(text, models.ChunkTypeText, DefaultChunkerConfig())
	total := len(chunks)
	for i := range chunks {
		if pageCount > 0 && total > 0 {
			page := i*pageCount/total + 1
			if page > pageCount {
				page = pageCount
			}
			chunks[i].PageStart = intPtr(page)
			chunks[i].PageEnd = intPtr(page)
		}
	}

	return &core.ParsedDocument{Content: text, Metadata: meta, Chunks: chunks}, nil
}

func intPtr(v int) *int { return &v }
