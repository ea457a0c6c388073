package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/markdave123-py/Archiva/internal/core"
)

const visionPrompt = "Transcribe any text visible in this image verbatim, " +
	"then describe the image contents concisely. Return the transcription " +
	"first, followed by the description."

// GeminiVision implements core.VisionProvider on a Gemini multimodal model.
type GeminiVision struct {
	client    *genai.Client
	modelName string
}

func NewGeminiVision(ctx context.Context, apiKey, modelName string) (*GeminiVision, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiVision{client: cl, modelName: modelName}, nil
}

func (g *GeminiVision) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// DescribeImage sends the image for transcription plus description.
func (g *GeminiVision) DescribeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	format := strings.TrimPrefix(mimeType, "image/")
	if format == "" || format == mimeType {
		format = "png"
	}

	model := g.client.GenerativeModel(g.modelName)
	resp, err := model.GenerateContent(ctx,
		genai.ImageData(format, image),
		genai.Text(visionPrompt),
	)
	if err != nil {
		return "", fmt.Errorf("gemini vision: %w", err)
	}

	var sb strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("gemini vision: empty response")
	}
	return sb.String(), nil
}

var _ core.VisionProvider = (*GeminiVision)(nil)
