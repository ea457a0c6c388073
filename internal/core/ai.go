package core

import "context"

// EmbeddingProvider produces embedding vectors for text.
//
// EmbedBatch is order-preserving: result[i] corresponds to texts[i], and an
// individual entry may be nil when that item failed without failing the
// whole batch.
type EmbeddingProvider interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// VisionProvider transcribes and describes an image. Used only for the
// image file type; callers degrade to a placeholder document when it is
// unavailable.
type VisionProvider interface {
	DescribeImage(ctx context.Context, image []byte, mimeType string) (string, error)
}
