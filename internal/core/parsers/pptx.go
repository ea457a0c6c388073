package parsers

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/models"
)

var slidePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// parsePptx walks the OOXML container, reads slide XML parts in numeric
// order, strips the text runs and emits one chunk per non-empty slide.
func (r *Registry) parsePptx(_ context.Context, content []byte, _ string) (*core.ParsedDocument, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, &core.ParseError{FileType: models.FileTypePptx, Err: fmt.Errorf("open pptx container: %w", err)}
	}

	type slide struct {
		number int
		file   *zip.File
	}
	var slides []slide
	for _, f := range zr.File {
		m := slidePattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		slides = append(slides, slide{number: n, file: f})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].number < slides[j].number })

	var (
		chunks []core.ParsedChunk
		parts  []string
	)
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			return nil, &core.ParseError{FileType: models.FileTypePptx, Err: fmt.Errorf("open slide %d: %w", s.number, err)}
		}
		text, err := xmlTextRuns(rc, "t", "p")
		rc.Close()
		if err != nil {
			return nil, &core.ParseError{FileType: models.FileTypePptx, Err: fmt.Errorf("slide %d: %w", s.number, err)}
		}
		if text == "" {
			continue
		}
		parts = append(parts, text)
		chunks = append(chunks, core.ParsedChunk{
			Content:   text,
			Type:      models.ChunkTypeText,
			PageStart: intPtr(s.number),
			PageEnd:   intPtr(s.number),
			Metadata:  map[string]any{"slide": s.number},
		})
	}

	return &core.ParsedDocument{
		Content:  strings.Join(parts, "\n\n"),
		Metadata: map[string]any{"slideCount": len(slides)},
		Chunks:   chunks,
	}, nil
}
