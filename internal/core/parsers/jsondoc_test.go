package parsers

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Archiva/internal/models"
)

func TestParseJSONObjectPerKey(t *testing.T) {
	input := `{"name": "Ada", "age": 36, "tags": ["math", "pioneer"]}`
	doc, err := newTestRegistry().Parse(context.Background(), []byte(input), models.FileTypeJSON, "ada.json")
	require.NoError(t, err)

	assert.Equal(t, "object", doc.Metadata["topLevel"])
	assert.Equal(t, 3, doc.Metadata["keys"])

	// One chunk per key, in sorted key order.
	require.Len(t, doc.Chunks, 3)
	assert.Equal(t, "age", doc.Chunks[0].Metadata["key"])
	assert.Equal(t, "name", doc.Chunks[1].Metadata["key"])
	assert.Equal(t, "tags", doc.Chunks[2].Metadata["key"])
	assert.Contains(t, doc.Chunks[1].Content, `"name": "Ada"`)
}

func TestParseJSONOversizedNestedObjectRecurses(t *testing.T) {
	inner := map[string]string{}
	for i := 0; i < 30; i++ {
		inner[fmt.Sprintf("field%02d", i)] = strings.Repeat("v", 50)
	}
	var sb strings.Builder
	sb.WriteString(`{"config": {`)
	first := true
	for k, v := range inner {
		if !first {
			sb.WriteString(",")
		}
		first = false
		fmt.Fprintf(&sb, "%q: %q", k, v)
	}
	sb.WriteString(`}}`)

	doc, err := newTestRegistry().Parse(context.Background(), []byte(sb.String()), models.FileTypeJSON, "cfg.json")
	require.NoError(t, err)

	// The config value serializes past the chunk limit, so chunks carry
	// dotted sub-key paths instead of one giant chunk.
	require.Greater(t, len(doc.Chunks), 1)
	for _, c := range doc.Chunks {
		key, ok := c.Metadata["key"].(string)
		require.True(t, ok)
		assert.True(t, strings.HasPrefix(key, "config."), "got key %q", key)
	}
}

func TestParseJSONTopLevelArray(t *testing.T) {
	doc, err := newTestRegistry().Parse(context.Background(), []byte(`[1, 2, 3]`), models.FileTypeJSON, "a.json")
	require.NoError(t, err)
	assert.Equal(t, "non-object", doc.Metadata["topLevel"])
	require.NotEmpty(t, doc.Chunks)
	assert.Equal(t, models.ChunkTypeText, doc.Chunks[0].Type)
}

func TestParseJSONInvalid(t *testing.T) {
	_, err := newTestRegistry().Parse(context.Background(), []byte(`{"broken":`), models.FileTypeJSON, "bad.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse json")
}

func TestParseJSONEmptyObject(t *testing.T) {
	doc, err := newTestRegistry().Parse(context.Background(), []byte(`{}`), models.FileTypeJSON, "empty.json")
	require.NoError(t, err)
	assert.Equal(t, 0, doc.Metadata["keys"])
	assert.Empty(t, doc.Chunks)
}
