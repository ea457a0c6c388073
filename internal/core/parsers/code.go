package parsers

import (
	"context"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/models"
)

const (
	// codeMaxChunkSize is smaller than the prose default so definitions
	// stay retrievable as units.
	codeMaxChunkSize = 800
	// codeHardChunkSize is the fixed-size fallback bound when no boundary
	// appears past the soft limit.
	codeHardChunkSize = 1200
)

// codeBoundary matches declaration starts across common syntaxes so chunks
// split between definitions rather than inside them.
var codeBoundary = regexp.MustCompile(`^\s*(?:(?:pub(?:lic)?|private|protected|internal|static|export|default|abstract|final|async)\s+)*(?:func|fn|function|def|class|interface|struct|trait|impl|enum|module|namespace|type)\b`)

// parseCode scans line by line, flushing at declaration boundaries once
// the soft size limit is reached and falling back to a fixed split at the
// hard limit when no boundary shows up.
func (r *Registry) parseCode(_ context.Context, content []byte, filename string) (*core.ParsedDocument, error) {
	text := strings.ReplaceAll(string(content), "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var chunks []core.ParsedChunk
	var buf []string
	bufLen := 0
	start := 1 // 1-based line numbers

	flush := func(end int) {
		body := strings.TrimRight(strings.Join(buf, "\n"), "\n")
		if strings.TrimSpace(body) != "" {
			chunks = append(chunks, core.ParsedChunk{
				Content:   body,
				Type:      models.ChunkTypeCode,
				LineStart: intPtr(start),
				LineEnd:   intPtr(end),
			})
		}
		buf = buf[:0]
		bufLen = 0
		start = end + 1
	}

	for i, line := range lines {
		lineNo := i + 1
		next := bufLen + len(line) + 1
		if len(buf) > 0 && next > codeMaxChunkSize && codeBoundary.MatchString(line) {
			flush(lineNo - 1)
		} else if len(buf) > 0 && next > codeHardChunkSize {
			flush(lineNo - 1)
		}
		buf = append(buf, line)
		bufLen += len(line) + 1
	}
	flush(len(lines))

	return &core.ParsedDocument{
		Content: text,
		Metadata: map[string]any{
			"language": languageFromExt(filename),
			"lines":    len(lines),
		},
		Chunks: chunks,
	}, nil
}

func languageFromExt(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if ext == "" {
		return "unknown"
	}
	return ext
}
