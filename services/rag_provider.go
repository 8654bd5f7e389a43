package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"

	"github/itish2003/voicecare/models"
)

const unknownCitation = "Unknown"

// KnowledgeProvider is everything the assistant needs from the retrieval
// stack: build an index, open the stored one, and answer against a handle.
type KnowledgeProvider interface {
	IndexDocuments(ctx context.Context, chunks []schema.Document) (IndexHandle, error)
	LoadIndex(ctx context.Context) (IndexHandle, error)
	RetrieveAndGenerate(ctx context.Context, query string, handle IndexHandle) (models.Answer, error)
}

// RAGProvider composes an IndexStore with a Generator. Retrieved chunks are
// stuffed into a single prompt.
type RAGProvider struct {
	store     IndexStore
	generator Generator
	prompt    prompts.PromptTemplate
	topK      int
}

func NewRAGProvider(store IndexStore, generator Generator, topK int) *RAGProvider {
	if topK <= 0 {
		topK = 3
	}
	return &RAGProvider{
		store:     store,
		generator: generator,
		prompt:    NewKnowledgePrompt(),
		topK:      topK,
	}
}

func (p *RAGProvider) IndexDocuments(ctx context.Context, chunks []schema.Document) (IndexHandle, error) {
	handle, err := p.store.Build(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	return handle, nil
}

func (p *RAGProvider) LoadIndex(ctx context.Context) (IndexHandle, error) {
	return p.store.Load(ctx)
}

func (p *RAGProvider) RetrieveAndGenerate(ctx context.Context, query string, handle IndexHandle) (models.Answer, error) {
	if handle == nil {
		return models.Answer{}, ErrIndexNotFound
	}

	retriever := vectorstores.ToRetriever(handle, p.topK)
	docs, err := retriever.GetRelevantDocuments(ctx, query)
	if err != nil {
		return models.Answer{}, fmt.Errorf("failed to retrieve documents: %w", err)
	}
	log.Printf("KNOWLEDGE: Retrieved %d documents", len(docs))

	prompt, err := p.prompt.Format(map[string]any{
		"question": query,
		"context":  stuffDocuments(docs),
	})
	if err != nil {
		return models.Answer{}, fmt.Errorf("failed to format prompt: %w", err)
	}

	body, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		return models.Answer{}, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return models.Answer{}, errors.New("generator returned an empty answer")
	}

	return models.Answer{Body: body, Citation: citationOf(docs), Sources: sourceDocuments(docs)}, nil
}

func sourceDocuments(docs []schema.Document) []models.SourceDocument {
	sources := make([]models.SourceDocument, 0, len(docs))
	for _, doc := range docs {
		source := sourceOf(doc)
		if source == "" {
			source = unknownCitation
		}
		sources = append(sources, models.SourceDocument{Text: doc.PageContent, Source: source})
	}
	return sources
}

func stuffDocuments(docs []schema.Document) string {
	parts := make([]string, 0, len(docs))
	for _, doc := range docs {
		parts = append(parts, doc.PageContent)
	}
	return strings.Join(parts, "\n\n")
}

func citationOf(docs []schema.Document) string {
	if len(docs) == 0 {
		return unknownCitation
	}
	if source := sourceOf(docs[0]); source != "" {
		return source
	}
	return unknownCitation
}
