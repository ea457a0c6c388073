package parsers

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Archiva/internal/models"
)

func slideXML(texts ...string) string {
	var sb bytes.Buffer
	sb.WriteString(`<?xml version="1.0"?><p:sld xmlns:a="urn:a" xmlns:p="urn:p"><p:cSld><p:spTree>`)
	for _, text := range texts {
		fmt.Fprintf(&sb, `<p:sp><p:txBody><a:p><a:r><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>`, text)
	}
	sb.WriteString(`</p:spTree></p:cSld></p:sld>`)
	return sb.String()
}

func buildPptx(t *testing.T, slides map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := map[string]string{
		"[Content_Types].xml":         `<?xml version="1.0"?><Types/>`,
		"ppt/presentation.xml":        `<?xml version="1.0"?><p:presentation/>`,
		"ppt/slides/_rels/ignore.txt": "not a slide",
	}
	for name, content := range slides {
		files[name] = content
	}
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParsePptxSlidesInOrder(t *testing.T) {
	content := buildPptx(t, map[string]string{
		"ppt/slides/slide2.xml":  slideXML("Second slide body"),
		"ppt/slides/slide10.xml": slideXML("Tenth slide body"),
		"ppt/slides/slide1.xml":  slideXML("Title slide", "Subtitle line"),
	})

	doc, err := newTestRegistry().Parse(context.Background(), content, models.FileTypePptx, "deck.pptx")
	require.NoError(t, err)

	assert.Equal(t, 3, doc.Metadata["slideCount"])
	require.Len(t, doc.Chunks, 3)

	// Numeric order, not lexicographic: 1, 2, 10.
	assert.Equal(t, 1, *doc.Chunks[0].PageStart)
	assert.Equal(t, 2, *doc.Chunks[1].PageStart)
	assert.Equal(t, 10, *doc.Chunks[2].PageStart)

	assert.Contains(t, doc.Chunks[0].Content, "Title slide")
	assert.Contains(t, doc.Chunks[0].Content, "Subtitle line")
	assert.Equal(t, "Second slide body", doc.Chunks[1].Content)
	assert.Equal(t, 10, doc.Chunks[2].Metadata["slide"])
}

func TestParsePptxEmptySlideSkipped(t *testing.T) {
	content := buildPptx(t, map[string]string{
		"ppt/slides/slide1.xml": slideXML("Only content"),
		"ppt/slides/slide2.xml": slideXML(),
	})

	doc, err := newTestRegistry().Parse(context.Background(), content, models.FileTypePptx, "deck.pptx")
	require.NoError(t, err)

	// Empty slides count toward slideCount but emit no chunk.
	assert.Equal(t, 2, doc.Metadata["slideCount"])
	require.Len(t, doc.Chunks, 1)
}

func TestParsePptxNotAZip(t *testing.T) {
	_, err := newTestRegistry().Parse(context.Background(), []byte("garbage"), models.FileTypePptx, "bad.pptx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse pptx")
}
