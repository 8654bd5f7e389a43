package services

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const geminiEmbedBatchSize = 100

// GeminiProvider serves both embeddings and generation from the Gemini API.
type GeminiProvider struct {
	client         *genai.Client
	chatModel      string
	embeddingModel string
}

func NewGeminiProvider(ctx context.Context, apiKey, chatModel, embeddingModel string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client (is GEMINI_API_KEY set?): %w", err)
	}
	return &GeminiProvider{client: client, chatModel: chatModel, embeddingModel: embeddingModel}, nil
}

func (g *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	result, err := g.client.Models.GenerateContent(ctx, g.chatModel, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini api call failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini returned no candidates")
	}

	var responseText strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		if p.Text != "" {
			responseText.WriteString(p.Text)
		}
	}
	return responseText.String(), nil
}

func (g *GeminiProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += geminiEmbedBatchSize {
		end := min(start+geminiEmbedBatchSize, len(texts))

		var contents []*genai.Content
		for _, text := range texts[start:end] {
			contents = append(contents, genai.Text(text)...)
		}
		result, err := g.client.Models.EmbedContent(ctx, g.embeddingModel, contents, nil)
		if err != nil {
			return nil, fmt.Errorf("gemini embed call failed: %w", err)
		}
		if len(result.Embeddings) != end-start {
			return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(result.Embeddings), end-start)
		}
		for _, embedding := range result.Embeddings {
			vectors = append(vectors, embedding.Values)
		}
	}
	return vectors, nil
}

func (g *GeminiProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}
