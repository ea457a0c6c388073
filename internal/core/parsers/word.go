package parsers

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"strings"

	"code.sajari.com/docconv"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/models"
)

const (
	mimeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeDoc  = "application/msword"
)

// parseDocx extracts raw text from a DOCX. Conversion hiccups are recorded
// as warnings in metadata rather than failing the parse: when docconv
// cannot handle the container we fall back to reading word/document.xml
// directly from the zip.
func (r *Registry) parseDocx(_ context.Context, content []byte, _ string) (*core.ParsedDocument, error) {
	var warnings []string

	text := ""
	if res, err := docconv.Convert(bytes.NewReader(content), mimeDocx, false); err == nil {
		text = strings.TrimSpace(res.Body)
	} else {
		warnings = append(warnings, fmt.Sprintf("docconv: %v", err))
	}

	if text == "" {
		fallback, err := docxFallbackText(content)
		if err != nil {
			return nil, &core.ParseError{FileType: models.FileTypeDocx, Err: err}
		}
		text = fallback
		warnings = append(warnings, "used raw document.xml extraction")
	}

	meta := map[string]any{}
	if len(warnings) > 0 {
		meta["warnings"] = warnings
	}
	return &core.ParsedDocument{
		Content:  text,
		Metadata: meta,
		Chunks:   chunkAs(text, models.ChunkTypeText, DefaultChunkerConfig()),
	}, nil
}

// parseDoc handles the legacy compound-file format via docconv.
func (r *Registry) parseDoc(_ context.Context, content []byte, _ string) (*core.ParsedDocument, error) {
	res, err := docconv.Convert(bytes.NewReader(content), mimeDoc, false)
	if err != nil {
		return nil, &core.ParseError{FileType: models.FileTypeDoc, Err: err}
	}
	text := strings.TrimSpace(res.Body)
	if text == "" {
		return nil, &core.ParseError{FileType: models.FileTypeDoc, Err: fmt.Errorf("no extractable text")}
	}
	return &core.ParsedDocument{
		Content:  text,
		Metadata: map[string]any{},
		Chunks:   chunkAs(text, models.ChunkTypeText, DefaultChunkerConfig()),
	}, nil
}

// docxFallbackText strips text runs out of word/document.xml.
func docxFallbackText(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open docx container: %w", err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("open document.xml: %w", err)
		}
		defer rc.Close()
		text, err := xmlTextRuns(rc, "t", "p")
		if err != nil {
			return "", err
		}
		if text == "" {
			return "", fmt.Errorf("document.xml contained no text")
		}
		return text, nil
	}
	return "", fmt.Errorf("word/document.xml not found in container")
}
