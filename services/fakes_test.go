package services

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"

	"github/itish2003/voicecare/models"
)

const fakeDims = 1024

// bagOfWordsEmbedder hashes words into a fixed-size count vector, so texts
// sharing words score higher.
type bagOfWordsEmbedder struct {
	calls atomic.Int32
}

func (e *bagOfWordsEmbedder) vector(text string) []float32 {
	v := make([]float32, fakeDims)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(strings.Trim(word, ".,?!")))
		v[h.Sum32()%fakeDims]++
	}
	return v
}

func (e *bagOfWordsEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	e.calls.Add(1)
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = e.vector(text)
	}
	return out, nil
}

func (e *bagOfWordsEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	e.calls.Add(1)
	return e.vector(text), nil
}

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	reply   string
	err     error
	block   bool
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return g.reply, g.err
}

type stubHandle struct{ name string }

func (stubHandle) AddDocuments(context.Context, []schema.Document, ...vectorstores.Option) ([]string, error) {
	return nil, nil
}

func (stubHandle) SimilaritySearch(context.Context, string, int, ...vectorstores.Option) ([]schema.Document, error) {
	return nil, nil
}

// fakeProvider records calls and returns canned results.
type fakeProvider struct {
	mu           sync.Mutex
	indexed      [][]schema.Document
	loadErr      error
	loads        int
	answer       models.Answer
	answerErr    error
	queries      []string
	lastHandle   IndexHandle
	generateWait bool
}

func (p *fakeProvider) IndexDocuments(_ context.Context, chunks []schema.Document) (IndexHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.indexed = append(p.indexed, chunks)
	return stubHandle{name: "built"}, nil
}

func (p *fakeProvider) LoadIndex(context.Context) (IndexHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loads++
	if p.loadErr != nil {
		return nil, p.loadErr
	}
	return stubHandle{name: "loaded"}, nil
}

func (p *fakeProvider) RetrieveAndGenerate(ctx context.Context, query string, handle IndexHandle) (models.Answer, error) {
	p.mu.Lock()
	p.queries = append(p.queries, query)
	p.lastHandle = handle
	wait := p.generateWait
	p.mu.Unlock()
	if wait {
		<-ctx.Done()
		return models.Answer{}, ctx.Err()
	}
	return p.answer, p.answerErr
}

type fakeIngestion struct {
	calls  atomic.Int32
	handle IndexHandle
	err    error
}

func (f *fakeIngestion) Ingest(context.Context) (IndexHandle, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.handle, nil
}

func (f *fakeIngestion) WatchDirectory(ctx context.Context, _ func(context.Context)) {
	<-ctx.Done()
}

type fakeKnowledge struct {
	mu      sync.Mutex
	queries []string
	answer  models.Answer
	err     error
}

func (k *fakeKnowledge) Query(_ context.Context, text string) (models.Answer, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.queries = append(k.queries, text)
	return k.answer, k.err
}

func (k *fakeKnowledge) Rebuild(context.Context) error { return nil }

type memoryAnswerCache struct {
	mu      sync.Mutex
	entries map[string]models.Answer
	clears  int
}

func newMemoryAnswerCache() *memoryAnswerCache {
	return &memoryAnswerCache{entries: map[string]models.Answer{}}
}

func (c *memoryAnswerCache) Get(_ context.Context, question string) (models.Answer, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	answer, ok := c.entries[question]
	return answer, ok, nil
}

func (c *memoryAnswerCache) Set(_ context.Context, question string, answer models.Answer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[question] = answer
	return nil
}

func (c *memoryAnswerCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]models.Answer{}
	c.clears++
	return nil
}
