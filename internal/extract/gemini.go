package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiUnderstander asks a Gemini model for the scheduling fields.
type GeminiUnderstander struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiUnderstander creates a GeminiUnderstander for modelName.
func NewGeminiUnderstander(ctx context.Context, apiKey, modelName string) (*GeminiUnderstander, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SetTemperature(0)
	model.SetMaxOutputTokens(100)
	model.ResponseMIMEType = "application/json"
	return &GeminiUnderstander{client: client, model: model}, nil
}

// Understand implements Understander.
func (g *GeminiUnderstander) Understand(ctx context.Context, content string) (Understanding, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt(content)))
	if err != nil {
		return Understanding{}, fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Understanding{}, fmt.Errorf("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	return decodeUnderstanding(sb.String())
}

// Close releases the underlying client.
func (g *GeminiUnderstander) Close() error {
	return g.client.Close()
}
