package services

import (
	"context"
	"fmt"
	"log"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github/itish2003/voicecare/config"
)

// Generator produces one completion for a fully built prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Providers bundles the external embedding and generation services.
type Providers struct {
	Embedder  embeddings.Embedder
	Generator Generator
}

var defaultModels = map[string][2]string{
	config.ProviderOpenAI: {"gpt-3.5-turbo", "text-embedding-ada-002"},
	config.ProviderGemini: {"gemini-2.5-flash", "text-embedding-004"},
	config.ProviderOllama: {"llama3.2", "nomic-embed-text:v1.5"},
}

// NewProviders connects to the provider named in cfg.Provider.
func NewProviders(ctx context.Context, cfg config.LLMConfig) (*Providers, error) {
	chatModel, embeddingModel := cfg.ChatModel, cfg.EmbeddingModel
	defaults := defaultModels[cfg.Provider]
	if chatModel == "" {
		chatModel = defaults[0]
	}
	if embeddingModel == "" {
		embeddingModel = defaults[1]
	}
	log.Printf("PROVIDER: Using %s (chat=%s, embeddings=%s)", cfg.Provider, chatModel, embeddingModel)

	switch cfg.Provider {
	case config.ProviderOpenAI:
		return newOpenAIProviders(cfg.OpenAIAPIKey, chatModel, embeddingModel)
	case config.ProviderOllama:
		return newOllamaProviders(cfg.OllamaURL, chatModel, embeddingModel)
	case config.ProviderGemini:
		gemini, err := NewGeminiProvider(ctx, cfg.GeminiAPIKey, chatModel, embeddingModel)
		if err != nil {
			return nil, err
		}
		return &Providers{Embedder: gemini, Generator: gemini}, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func newOpenAIProviders(apiKey, chatModel, embeddingModel string) (*Providers, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set")
	}
	llm, err := openai.New(
		openai.WithToken(apiKey),
		openai.WithModel(chatModel),
		openai.WithEmbeddingModel(embeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("failed to create openai embedder: %w", err)
	}
	return &Providers{Embedder: embedder, Generator: NewLLMGenerator(llm)}, nil
}

func newOllamaProviders(serverURL, chatModel, embeddingModel string) (*Providers, error) {
	chatLLM, err := ollama.New(ollama.WithServerURL(serverURL), ollama.WithModel(chatModel))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama chat client: %w", err)
	}
	embedLLM, err := ollama.New(ollama.WithServerURL(serverURL), ollama.WithModel(embeddingModel))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama embedding client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(embedLLM)
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama embedder: %w", err)
	}
	return &Providers{Embedder: embedder, Generator: NewLLMGenerator(chatLLM)}, nil
}

// UnavailableProviders stands in when no provider could be created. Every
// call fails with cause.
func UnavailableProviders(cause error) *Providers {
	p := unavailableProvider{cause: cause}
	return &Providers{Embedder: p, Generator: p}
}

type unavailableProvider struct {
	cause error
}

func (p unavailableProvider) EmbedDocuments(context.Context, []string) ([][]float32, error) {
	return nil, p.cause
}

func (p unavailableProvider) EmbedQuery(context.Context, string) ([]float32, error) {
	return nil, p.cause
}

func (p unavailableProvider) Generate(context.Context, string) (string, error) {
	return "", p.cause
}

type llmGenerator struct {
	model llms.Model
}

// NewLLMGenerator wraps any langchaingo model as a Generator.
func NewLLMGenerator(model llms.Model) Generator {
	return &llmGenerator{model: model}
}

func (g *llmGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	completion, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("llm call failed: %w", err)
	}
	return completion, nil
}
