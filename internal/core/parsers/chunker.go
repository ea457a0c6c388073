package parsers

import (
	"regexp"
	"strings"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/models"
)

const (
	// DefaultMaxChunkSize bounds prose chunks in characters.
	DefaultMaxChunkSize = 1000
	// DefaultMinChunkSize is the floor below which a buffer keeps
	// accumulating instead of being emitted.
	DefaultMinChunkSize = 100
	// DefaultOverlapWords is the trailing-word tail carried into the next
	// chunk for context bleed.
	DefaultOverlapWords = 40
)

var paragraphSplit = regexp.MustCompile(`\n[ \t]*\n+`)

// ChunkerConfig tunes the paragraph chunker.
type ChunkerConfig struct {
	MaxChunkSize int
	MinChunkSize int
	OverlapWords int
}

// DefaultChunkerConfig returns the prose defaults.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{
		MaxChunkSize: DefaultMaxChunkSize,
		MinChunkSize: DefaultMinChunkSize,
		OverlapWords: DefaultOverlapWords,
	}
}

// ChunkText splits text on blank-line paragraph boundaries and accumulates
// paragraphs into chunks of at most MaxChunkSize characters, seeding each
// new chunk with an overlap tail from the previous one.
//
// No text is dropped. A single paragraph larger than MaxChunkSize is kept
// whole in its own chunk; splitting mid-paragraph is deliberately avoided.
// The final buffer is merged into the previous chunk when it falls below
// MinChunkSize, unless it is the only content.
func ChunkText(text string, cfg ChunkerConfig) []string {
	if cfg.MaxChunkSize <= 0 {
		cfg = DefaultChunkerConfig()
	}

	paragraphs := splitParagraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []string
	buf := paragraphs[0]
	for _, para := range paragraphs[1:] {
		if len(buf)+2+len(para) > cfg.MaxChunkSize && len(buf) >= cfg.MinChunkSize {
			chunks = append(chunks, buf)
			if tail := overlapTail(buf, cfg.OverlapWords); tail != "" {
				buf = tail + "\n\n" + para
			} else {
				buf = para
			}
			continue
		}
		buf = buf + "\n\n" + para
	}

	if len(buf) >= cfg.MinChunkSize || len(chunks) == 0 {
		chunks = append(chunks, buf)
	} else {
		chunks[len(chunks)-1] = chunks[len(chunks)-1] + "\n\n" + buf
	}
	return chunks
}

// chunkAs wraps ChunkText output as parsed chunks of one type.
func chunkAs(text string, chunkType models.ChunkType, cfg ChunkerConfig) []core.ParsedChunk {
	parts := ChunkText(text, cfg)
	out := make([]core.ParsedChunk, 0, len(parts))
	for _, p := range parts {
		out = append(out, core.ParsedChunk{Content: p, Type: chunkType})
	}
	return out
}

func splitParagraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	raw := paragraphSplit.Split(text, -1)
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// overlapTail returns roughly the last n words of text.
func overlapTail(text string, n int) string {
	if n <= 0 {
		return ""
	}
	words := strings.Fields(text)
	if len(words) > n {
		words = words[len(words)-n:]
	}
	return strings.Join(words, " ")
}
