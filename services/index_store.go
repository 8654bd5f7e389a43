package services

import (
	"context"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// IndexHandle is a built or loaded knowledge index that can be searched.
type IndexHandle = vectorstores.VectorStore

// IndexStore owns the persisted index at its well-known location.
type IndexStore interface {
	// Build embeds chunks and replaces whatever index was stored before.
	Build(ctx context.Context, chunks []schema.Document) (IndexHandle, error)
	// Load opens the stored index. Missing or unusable indexes yield ErrIndexNotFound.
	Load(ctx context.Context) (IndexHandle, error)
}

func sourceOf(doc schema.Document) string {
	if doc.Metadata == nil {
		return ""
	}
	source, _ := doc.Metadata["source"].(string)
	return source
}
