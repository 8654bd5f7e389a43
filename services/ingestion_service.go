package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/textsplitter"
)

const watchDebounce = 2 * time.Second

// IngestionService turns the documents directory into a fresh index.
type IngestionService interface {
	Ingest(ctx context.Context) (IndexHandle, error)
	// WatchDirectory calls onChange (debounced) whenever the directory
	// changes. It blocks until ctx is cancelled.
	WatchDirectory(ctx context.Context, onChange func(context.Context))
}

type ingestionServiceImpl struct {
	docsDir  string
	loader   DocumentLoader
	splitter textsplitter.TextSplitter
	provider KnowledgeProvider
}

func NewIngestionService(docsDir string, loader DocumentLoader, provider KnowledgeProvider, chunkSize, chunkOverlap int) IngestionService {
	return &ingestionServiceImpl{
		docsDir: docsDir,
		loader:  loader,
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(chunkSize),
			textsplitter.WithChunkOverlap(chunkOverlap),
		),
		provider: provider,
	}
}

func (s *ingestionServiceImpl) Ingest(ctx context.Context) (IndexHandle, error) {
	log.Printf("INGEST: Reading docs from: %s", s.docsDir)
	chunks, err := s.collectChunks(ctx)
	if err != nil {
		return nil, err
	}

	log.Printf("INGEST: Total chunks loaded: %d", len(chunks))
	handle, err := s.provider.IndexDocuments(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to index documents: %w", err)
	}
	log.Println("INGEST: Index built successfully.")
	return handle, nil
}

func (s *ingestionServiceImpl) collectChunks(ctx context.Context) ([]schema.Document, error) {
	entries, err := os.ReadDir(s.docsDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirectoryUnreadable, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			files = append(files, entry.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoInputFiles, s.docsDir)
	}
	log.Printf("INGEST: Found files: %v", files)

	var chunks []schema.Document
	for _, name := range files {
		fileChunks, err := s.chunkFile(ctx, name)
		if err != nil {
			log.Printf("INGEST ERROR: Skipping %s: %v", name, err)
			continue
		}
		log.Printf("INGEST: Split %s into %d chunks.", name, len(fileChunks))
		chunks = append(chunks, fileChunks...)
	}
	if len(chunks) == 0 {
		return nil, ErrNoDocumentsLoaded
	}
	return chunks, nil
}

func (s *ingestionServiceImpl) chunkFile(ctx context.Context, name string) ([]schema.Document, error) {
	docs, err := s.loader.LoadFile(ctx, filepath.Join(s.docsDir, name))
	if err != nil {
		return nil, err
	}
	chunks, err := textsplitter.SplitDocuments(s.splitter, docs)
	if err != nil {
		return nil, fmt.Errorf("failed to split: %w", err)
	}

	out := chunks[:0]
	for _, chunk := range chunks {
		if chunk.PageContent == "" {
			continue
		}
		chunk.Metadata = map[string]any{"source": name}
		out = append(out, chunk)
	}
	return out, nil
}

func (s *ingestionServiceImpl) WatchDirectory(ctx context.Context, onChange func(context.Context)) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	if err := watcher.Add(s.docsDir); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
		return
	}
	log.Printf("WATCHER: Watching directory: %s", s.docsDir)

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(watchDebounce, func() {
			if ctx.Err() != nil {
				return
			}
			onChange(ctx)
		})
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			log.Printf("WATCHER EVENT: %s", event)
			schedule()
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("WATCHER ERROR: %v", err)
		case <-ctx.Done():
			log.Println("WATCHER: Context cancelled, shutting down watcher.")
			return
		}
	}
}
