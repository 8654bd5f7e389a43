package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

const localIndexFile = "index.json"

type localIndexEntry struct {
	ID      string    `json:"id"`
	Content string    `json:"content"`
	Source  string    `json:"source"`
	Vector  []float32 `json:"vector"`
}

type localIndexFileFormat struct {
	Version int               `json:"version"`
	Entries []localIndexEntry `json:"entries"`
}

// LocalIndexStore keeps the index as a JSON file inside dir.
type LocalIndexStore struct {
	dir      string
	embedder embeddings.Embedder
}

func NewLocalIndexStore(dir string, embedder embeddings.Embedder) *LocalIndexStore {
	return &LocalIndexStore{dir: dir, embedder: embedder}
}

func (s *LocalIndexStore) path() string {
	return filepath.Join(s.dir, localIndexFile)
}

func (s *LocalIndexStore) Build(ctx context.Context, chunks []schema.Document) (IndexHandle, error) {
	index := &LocalIndex{path: s.path(), embedder: s.embedder}
	if _, err := index.AddDocuments(ctx, chunks); err != nil {
		return nil, err
	}
	log.Printf("INDEX: Wrote %d entries to %s", len(chunks), index.path)
	return index, nil
}

func (s *LocalIndexStore) Load(_ context.Context) (IndexHandle, error) {
	raw, err := os.ReadFile(s.path())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexNotFound, err)
	}
	var stored localIndexFileFormat
	if err := json.Unmarshal(raw, &stored); err != nil {
		return nil, fmt.Errorf("%w: corrupt index file: %v", ErrIndexNotFound, err)
	}
	if len(stored.Entries) == 0 {
		return nil, fmt.Errorf("%w: index file has no entries", ErrIndexNotFound)
	}
	return &LocalIndex{path: s.path(), embedder: s.embedder, entries: stored.Entries}, nil
}

// LocalIndex is an in-memory vector store mirrored to a single file. Every
// write rewrites the whole file through a temp file and a rename.
type LocalIndex struct {
	path     string
	embedder embeddings.Embedder

	mu      sync.RWMutex
	entries []localIndexEntry
}

var _ vectorstores.VectorStore = (*LocalIndex)(nil)

func (x *LocalIndex) AddDocuments(ctx context.Context, docs []schema.Document, _ ...vectorstores.Option) ([]string, error) {
	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}
	vectors, err := x.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed documents: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d documents", len(vectors), len(docs))
	}

	ids := make([]string, len(docs))
	added := make([]localIndexEntry, len(docs))
	for i, doc := range docs {
		ids[i] = uuid.New().String()
		added[i] = localIndexEntry{
			ID:      ids[i],
			Content: doc.PageContent,
			Source:  sourceOf(doc),
			Vector:  vectors[i],
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	entries := append(append([]localIndexEntry(nil), x.entries...), added...)
	if err := writeLocalIndex(x.path, entries); err != nil {
		return nil, err
	}
	x.entries = entries
	return ids, nil
}

func (x *LocalIndex) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	opts := vectorstores.Options{}
	for _, opt := range options {
		opt(&opts)
	}

	queryVector, err := x.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	results := make([]schema.Document, 0, len(x.entries))
	for _, entry := range x.entries {
		score := cosineSimilarity(queryVector, entry.Vector)
		if opts.ScoreThreshold > 0 && score < opts.ScoreThreshold {
			continue
		}
		results = append(results, schema.Document{
			PageContent: entry.Content,
			Metadata:    map[string]any{"source": entry.Source},
			Score:       score,
		})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })
	if numDocuments > 0 && len(results) > numDocuments {
		results = results[:numDocuments]
	}
	return results, nil
}

func writeLocalIndex(path string, entries []localIndexEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}
	payload, err := json.Marshal(localIndexFileFormat{Version: 1, Entries: entries})
	if err != nil {
		return fmt.Errorf("failed to encode index: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), localIndexFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp index file: %w", err)
	}
	tmpName := tmp.Name()
	_, writeErr := tmp.Write(payload)
	closeErr := tmp.Close()
	if err := errors.Join(writeErr, closeErr); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write index: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace index: %w", err)
	}
	return nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
