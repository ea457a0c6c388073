package parsers

import (
	"context"
	"regexp"
	"strings"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/models"
)

// headingPattern matches ATX headings (levels 1-6) anchored at line start.
var headingPattern = regexp.MustCompile(`(?m)^(#{1,6})[ \t]+(.+)$`)

// parseMarkdown splits at heading boundaries: each heading becomes its own
// heading chunk and the body text between headings goes through the
// generic chunker.
func (r *Registry) parseMarkdown(_ context.Context, content []byte, _ string) (*core.ParsedDocument, error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")

	var chunks []core.ParsedChunk
	headings := 0

	locs := headingPattern.FindAllStringSubmatchIndex(text, -1)
	prev := 0
	emitBody := func(body string) {
		if body = strings.TrimSpace(body); body != "" {
			chunks = append(chunks, chunkAs(body, models.ChunkTypeText, DefaultChunkerConfig())...)
		}
	}

	for _, loc := range locs {
		emitBody(text[prev:loc[0]])

		level := loc[3] - loc[2]
		title := strings.TrimSpace(text[loc[4]:loc[5]])
		chunks = append(chunks, core.ParsedChunk{
			Content:  title,
			Type:     models.ChunkTypeHeading,
			Metadata: map[string]any{"level": level},
		})
		headings++
		prev = loc[1]
	}
	emitBody(text[prev:])

	return &core.ParsedDocument{
		Content:  strings.TrimSpace(text),
		Metadata: map[string]any{"headings": headings},
		Chunks:   chunks,
	}, nil
}
