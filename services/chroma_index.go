package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	chromaembeddings "github.com/amikos-tech/chroma-go/pkg/embeddings"
	"github.com/google/uuid"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

const chromaBatchSize = 100

// ChromaIndexStore keeps the index in a Chroma collection. Vectors are
// computed here, not by Chroma.
type ChromaIndexStore struct {
	client     chromago.Client
	collection string
	embedder   embeddings.Embedder
}

func NewChromaIndexStore(client chromago.Client, collection string, embedder embeddings.Embedder) *ChromaIndexStore {
	return &ChromaIndexStore{client: client, collection: collection, embedder: embedder}
}

// Build fills a staging collection and only then swaps it in under the live
// name. A failed build leaves the live collection untouched.
func (s *ChromaIndexStore) Build(ctx context.Context, chunks []schema.Document) (IndexHandle, error) {
	staging := fmt.Sprintf("%s-staging-%s", s.collection, uuid.NewString()[:8])
	collection, err := s.client.CreateCollection(
		ctx,
		staging,
		chromago.WithCollectionMetadataCreate(
			chromago.NewMetadata(
				chromago.NewStringAttribute("description", "customer support knowledge base"),
				chromago.NewStringAttribute("created_by", "voicecare"),
			),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create collection %s: %w", staging, err)
	}

	index := &ChromaIndex{collection: collection, embedder: s.embedder}
	if _, err := index.AddDocuments(ctx, chunks); err != nil {
		if dropErr := s.client.DeleteCollection(ctx, staging); dropErr != nil {
			log.Printf("INDEX: Could not drop staging collection '%s': %v", staging, dropErr)
		}
		return nil, err
	}

	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		log.Printf("INDEX: Could not delete collection '%s' (may not exist yet): %v", s.collection, err)
	}
	// Collections are addressed by id, so the handle stays valid even if the
	// rename fails; the next rebuild retries the swap.
	if err := collection.ModifyName(ctx, s.collection); err != nil {
		log.Printf("INDEX: Could not rename '%s' to '%s': %v", staging, s.collection, err)
	}
	log.Printf("INDEX: Added %d chunks to collection '%s'", len(chunks), s.collection)
	return index, nil
}

func (s *ChromaIndexStore) Load(ctx context.Context) (IndexHandle, error) {
	collection, err := s.client.GetCollection(ctx, s.collection)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexNotFound, err)
	}
	count, err := collection.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count items in collection: %w", err)
	}
	if count == 0 {
		return nil, fmt.Errorf("%w: collection %s is empty", ErrIndexNotFound, s.collection)
	}
	return &ChromaIndex{collection: collection, embedder: s.embedder}, nil
}

// ChromaIndex adapts a Chroma collection to the vector store interface.
type ChromaIndex struct {
	collection chromago.Collection
	embedder   embeddings.Embedder
}

var _ vectorstores.VectorStore = (*ChromaIndex)(nil)

func (x *ChromaIndex) AddDocuments(ctx context.Context, docs []schema.Document, _ ...vectorstores.Option) ([]string, error) {
	ids := make([]string, 0, len(docs))
	for start := 0; start < len(docs); start += chromaBatchSize {
		end := min(start+chromaBatchSize, len(docs))
		batch := docs[start:end]

		texts := make([]string, len(batch))
		for i, doc := range batch {
			texts[i] = doc.PageContent
		}
		vectors, err := x.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("could not embed chunks %d-%d: %w", start, end, err)
		}

		docIDs := make([]chromago.DocumentID, len(batch))
		vectorsOut := make([]chromaembeddings.Embedding, len(batch))
		metadatas := make([]chromago.DocumentMetadata, len(batch))
		for i, doc := range batch {
			id := uuid.New().String()
			ids = append(ids, id)
			docIDs[i] = chromago.DocumentID(id)
			vectorsOut[i] = chromaembeddings.NewEmbeddingFromFloat32(vectors[i])
			metadatas[i] = chromago.NewDocumentMetadata(
				chromago.NewStringAttribute("source", sourceOf(doc)),
			)
		}

		err = x.collection.Add(ctx,
			chromago.WithIDs(docIDs...),
			chromago.WithTexts(texts...),
			chromago.WithEmbeddings(vectorsOut...),
			chromago.WithMetadatas(metadatas...),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to add chunks %d-%d to chromadb: %w", start, end, err)
		}
	}
	return ids, nil
}

func (x *ChromaIndex) SimilaritySearch(ctx context.Context, query string, numDocuments int, _ ...vectorstores.Option) ([]schema.Document, error) {
	queryVector, err := x.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query text: %w", err)
	}

	results, err := x.collection.Query(
		ctx,
		chromago.WithQueryEmbeddings(chromaembeddings.NewEmbeddingFromFloat32(queryVector)),
		chromago.WithNResults(numDocuments),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query chromadb: %w", err)
	}

	var docs []schema.Document
	documentGroups := results.GetDocumentsGroups()
	metadataGroups := results.GetMetadatasGroups()
	if len(documentGroups) == 0 {
		return docs, nil
	}
	for i, doc := range documentGroups[0] {
		if doc.ContentString() == "" {
			continue
		}
		metadata := map[string]any{}
		if len(metadataGroups) > 0 && len(metadataGroups[0]) > i && metadataGroups[0][i] != nil {
			// DocumentMetadata exposes no map accessor; round-trip through JSON.
			if raw, err := json.Marshal(metadataGroups[0][i]); err == nil {
				if err := json.Unmarshal(raw, &metadata); err != nil {
					log.Printf("INDEX: Could not decode metadata for result %d: %v", i, err)
				}
			}
		}
		docs = append(docs, schema.Document{PageContent: doc.ContentString(), Metadata: metadata})
	}
	return docs, nil
}
