package parsers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markdave123-py/Archiva/internal/core/mock"
	"github.com/markdave123-py/Archiva/internal/models"
)

var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func TestParseImageTranscribed(t *testing.T) {
	vision := &mock.Vision{Description: "A whiteboard covered in system diagrams."}
	reg := NewRegistry(vision, testLogger())

	doc, err := reg.Parse(context.Background(), pngBytes, models.FileTypeImage, "board.png")
	require.NoError(t, err)

	assert.Equal(t, true, doc.Metadata["transcribed"])
	assert.Equal(t, "A whiteboard covered in system diagrams.", doc.Content)
	require.Len(t, doc.Chunks, 1)
	assert.Equal(t, models.ChunkTypeText, doc.Chunks[0].Type)
}

func TestParseImageNoVisionProvider(t *testing.T) {
	doc, err := newTestRegistry().Parse(context.Background(), pngBytes, models.FileTypeImage, "photo.jpg")
	require.NoError(t, err)

	assert.Equal(t, false, doc.Metadata["transcribed"])
	assert.Equal(t, true, doc.Metadata["placeholder"])
	assert.Contains(t, doc.Content, "photo.jpg")
	assert.Empty(t, doc.Chunks)
}

func TestParseImageVisionFailureDegrades(t *testing.T) {
	vision := &mock.Vision{Err: errors.New("model unavailable")}
	reg := NewRegistry(vision, testLogger())

	doc, err := reg.Parse(context.Background(), pngBytes, models.FileTypeImage, "photo.png")
	require.NoError(t, err, "vision failure must not fail the parse")
	assert.Equal(t, true, doc.Metadata["placeholder"])
	assert.Equal(t, "model unavailable", doc.Metadata["reason"])
	assert.Empty(t, doc.Chunks)
}

func TestParseImageEmptyTranscription(t *testing.T) {
	vision := &mock.Vision{Description: "   "}
	reg := NewRegistry(vision, testLogger())

	doc, err := reg.Parse(context.Background(), pngBytes, models.FileTypeImage, "blank.png")
	require.NoError(t, err)
	assert.Equal(t, true, doc.Metadata["placeholder"])
}
