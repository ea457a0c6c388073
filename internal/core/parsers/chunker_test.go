package parsers

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkTextEmpty(t *testing.T) {
	assert.Nil(t, ChunkText("", DefaultChunkerConfig()))
	assert.Nil(t, ChunkText("  \n\n  \n", DefaultChunkerConfig()))
}

func TestChunkTextSingleParagraph(t *testing.T) {
	chunks := ChunkText("just one short paragraph", DefaultChunkerConfig())
	require.Len(t, chunks, 1)
	assert.Equal(t, "just one short paragraph", chunks[0])
}

func TestChunkTextSplitsAtParagraphBoundaries(t *testing.T) {
	var paras []string
	for i := 0; i < 10; i++ {
		paras = append(paras, strings.Repeat(fmt.Sprintf("para%d ", i), 60))
	}
	text := strings.Join(paras, "\n\n")

	chunks := ChunkText(text, DefaultChunkerConfig())
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(c))
	}
}

// Every paragraph of the input must survive into some chunk: the chunker
// never drops text.
func TestChunkTextNoTextDropped(t *testing.T) {
	var paras []string
	for i := 0; i < 25; i++ {
		paras = append(paras, fmt.Sprintf("marker-%03d %s", i, strings.Repeat("filler ", 30)))
	}
	text := strings.Join(paras, "\n\n")

	chunks := ChunkText(text, DefaultChunkerConfig())
	joined := strings.Join(chunks, "\n\n")
	for i := 0; i < 25; i++ {
		assert.Contains(t, joined, fmt.Sprintf("marker-%03d", i))
	}
}

// A paragraph larger than the max size is kept whole rather than split
// mid-paragraph.
func TestChunkTextOversizedParagraphKeptWhole(t *testing.T) {
	big := strings.TrimSpace(strings.Repeat("longword ", 200)) // ~1800 chars
	text := "intro paragraph here\n\n" + big + "\n\nclosing paragraph with enough words to stand alone in a chunk of its own for the test"

	chunks := ChunkText(text, DefaultChunkerConfig())
	found := false
	for _, c := range chunks {
		if strings.Contains(c, big) {
			found = true
		}
	}
	assert.True(t, found, "oversized paragraph should appear intact in one chunk")
}

// Consecutive chunks share an overlap tail so retrieval context bleeds
// across boundaries.
func TestChunkTextOverlap(t *testing.T) {
	var paras []string
	for i := 0; i < 12; i++ {
		paras = append(paras, strings.Repeat(fmt.Sprintf("w%d ", i), 70))
	}
	chunks := ChunkText(strings.Join(paras, "\n\n"), DefaultChunkerConfig())
	require.Greater(t, len(chunks), 1)

	first := strings.Fields(chunks[0])
	tail := strings.Join(first[len(first)-5:], " ")
	assert.Contains(t, chunks[1], tail)
}

// A short trailing buffer merges backward instead of becoming its own
// undersized chunk.
func TestChunkTextShortFinalBufferMerged(t *testing.T) {
	body := strings.Repeat("steady flow of words here ", 38) // ~990 chars
	text := strings.TrimSpace(body) + "\n\ntiny tail"

	chunks := ChunkText(text, DefaultChunkerConfig())
	last := chunks[len(chunks)-1]
	assert.Contains(t, last, "tiny tail")
	assert.GreaterOrEqual(t, len(last), DefaultMinChunkSize)
}

func TestChunkTextZeroConfigUsesDefaults(t *testing.T) {
	chunks := ChunkText("some text", ChunkerConfig{})
	require.Len(t, chunks, 1)
	assert.Equal(t, "some text", chunks[0])
}

func TestSplitParagraphsNormalizesCRLF(t *testing.T) {
	paras := splitParagraphs("one\r\n\r\ntwo\r\n\r\nthree")
	assert.Equal(t, []string{"one", "two", "three"}, paras)
}

func TestOverlapTail(t *testing.T) {
	assert.Equal(t, "", overlapTail("a b c", 0))
	assert.Equal(t, "b c", overlapTail("a b c", 2))
	assert.Equal(t, "a b c", overlapTail("a b c", 10))
}
