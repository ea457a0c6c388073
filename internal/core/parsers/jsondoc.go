package parsers

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/markdave123-py/Archiva/internal/core"
	"github.com/markdave123-py/Archiva/internal/models"
)

// parseJSON chunks a JSON document per top-level object key, recursively
// sub-chunking keys whose serialized value exceeds the max chunk size.
// Top-level arrays and primitives fall back to the generic chunker over
// the pretty-printed document.
func (r *Registry) parseJSON(_ context.Context, content []byte, _ string) (*core.ParsedDocument, error) {
	var value any
	if err := json.Unmarshal(content, &value); err != nil {
		return nil, &core.ParseError{FileType: models.FileTypeJSON, Err: err}
	}

	pretty, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, &core.ParseError{FileType: models.FileTypeJSON, Err: err}
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return &core.ParsedDocument{
			Content:  string(pretty),
			Metadata: map[string]any{"topLevel": "non-object"},
			Chunks:   chunkAs(string(pretty), models.ChunkTypeText, DefaultChunkerConfig()),
		}, nil
	}

	chunks := jsonKeyChunks("", obj)
	return &core.ParsedDocument{
		Content:  string(pretty),
		Metadata: map[string]any{"topLevel": "object", "keys": len(obj)},
		Chunks:   chunks,
	}, nil
}

// jsonKeyChunks emits one chunk per key in deterministic (sorted) order,
// recursing into nested objects when a serialized value is oversized.
func jsonKeyChunks(prefix string, obj map[string]any) []core.ParsedChunk {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var chunks []core.ParsedChunk
	for _, k := range keys {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}

		serialized, err := json.MarshalIndent(obj[k], "", "  ")
		if err != nil {
			continue
		}
		body := fmt.Sprintf("%q: %s", path, serialized)

		if len(body) <= DefaultMaxChunkSize {
			chunks = append(chunks, core.ParsedChunk{
				Content:  body,
				Type:     models.ChunkTypeText,
				Metadata: map[string]any{"key": path},
			})
			continue
		}

		if nested, ok := obj[k].(map[string]any); ok {
			chunks = append(chunks, jsonKeyChunks(path, nested)...)
			continue
		}

		// Oversized array or scalar: generic chunker over the serialization.
		for _, c := range chunkAs(body, models.ChunkTypeText, DefaultChunkerConfig()) {
			c.Metadata = map[string]any{"key": path}
			chunks = append(chunks, c)
		}
	}
	return chunks
}
