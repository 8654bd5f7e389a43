package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github/itish2003/voicecare/models"
)

func TestKnowledge_LoadsIndexOnce(t *testing.T) {
	provider := &fakeProvider{answer: models.Answer{Body: "b", Citation: "c"}}
	ingestion := &fakeIngestion{}
	svc := NewKnowledgeService(provider, ingestion, time.Second)

	for i := 0; i < 3; i++ {
		answer, err := svc.Query(context.Background(), "question")
		require.NoError(t, err)
		assert.Equal(t, models.Answer{Body: "b", Citation: "c"}, answer)
	}
	assert.Equal(t, 1, provider.loads)
	assert.Equal(t, int32(0), ingestion.calls.Load())
	assert.Equal(t, stubHandle{name: "loaded"}, provider.lastHandle)
}

func TestKnowledge_LoadFailureTriggersRebuild(t *testing.T) {
	provider := &fakeProvider{loadErr: ErrIndexNotFound, answer: models.Answer{Body: "b", Citation: "c"}}
	ingestion := &fakeIngestion{handle: stubHandle{name: "rebuilt"}}
	svc := NewKnowledgeService(provider, ingestion, time.Second)

	_, err := svc.Query(context.Background(), "question")
	require.NoError(t, err)
	assert.Equal(t, int32(1), ingestion.calls.Load())
	assert.Equal(t, stubHandle{name: "rebuilt"}, provider.lastHandle)
}

func TestKnowledge_LoadAndRebuildFail(t *testing.T) {
	provider := &fakeProvider{loadErr: ErrIndexNotFound}
	ingestion := &fakeIngestion{err: ErrNoDocumentsLoaded}
	svc := NewKnowledgeService(provider, ingestion, time.Second)

	_, err := svc.Query(context.Background(), "question")
	assert.ErrorIs(t, err, ErrKnowledgeBaseUnavailable)
	assert.Empty(t, provider.queries)
}

func TestKnowledge_GenerationFailure(t *testing.T) {
	provider := &fakeProvider{answerErr: errors.New("network down")}
	svc := NewKnowledgeService(provider, &fakeIngestion{}, time.Second)

	_, err := svc.Query(context.Background(), "question")
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestKnowledge_GenerationTimeout(t *testing.T) {
	provider := &fakeProvider{generateWait: true}
	svc := NewKnowledgeService(provider, &fakeIngestion{}, 20*time.Millisecond)

	start := time.Now()
	_, err := svc.Query(context.Background(), "question")
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestKnowledge_AnswerCache(t *testing.T) {
	provider := &fakeProvider{answer: models.Answer{Body: "b", Citation: "c"}}
	cache := newMemoryAnswerCache()
	svc := NewKnowledgeService(provider, &fakeIngestion{handle: stubHandle{}}, time.Second, WithAnswerCache(cache))

	_, err := svc.Query(context.Background(), "question")
	require.NoError(t, err)
	_, err = svc.Query(context.Background(), "question")
	require.NoError(t, err)
	assert.Len(t, provider.queries, 1, "second query should be served from cache")

	require.NoError(t, svc.Rebuild(context.Background()))
	assert.Equal(t, 1, cache.clears)

	_, err = svc.Query(context.Background(), "question")
	require.NoError(t, err)
	assert.Len(t, provider.queries, 2)
}

func TestKnowledge_RateLimit(t *testing.T) {
	provider := &fakeProvider{answer: models.Answer{Body: "b", Citation: "c"}}
	svc := NewKnowledgeService(provider, &fakeIngestion{}, 50*time.Millisecond, WithRateLimit(0.01, 1))

	_, err := svc.Query(context.Background(), "first")
	require.NoError(t, err)

	_, err = svc.Query(context.Background(), "second")
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Len(t, provider.queries, 1)
}

func TestKnowledge_MissingIndexAndEmptyDocsApologizes(t *testing.T) {
	docs := t.TempDir()
	embedder := &bagOfWordsEmbedder{}
	store := NewLocalIndexStore(filepath.Join(t.TempDir(), "knowledge-index"), embedder)
	provider := NewRAGProvider(store, &fakeGenerator{reply: "unused"}, 3)
	ingestion := NewIngestionService(docs, NewFileLoader(""), provider, 500, 50)
	knowledge := NewKnowledgeService(provider, ingestion, time.Second)
	router := NewIntentRouter(knowledge)

	_, err := knowledge.Query(context.Background(), "what is your warranty?")
	assert.ErrorIs(t, err, ErrKnowledgeBaseUnavailable)

	got := router.Route(context.Background(), "what is your warranty?")
	assert.Equal(t, "Sorry, I couldn’t process your request due to a missing or corrupted index. (from System)", got)
}

func TestKnowledge_MissingIndexSelfHeals(t *testing.T) {
	docs := t.TempDir()
	writeFile(t, docs, "warranty.txt", "Every device has a two year warranty.")
	store := NewLocalIndexStore(filepath.Join(t.TempDir(), "knowledge-index"), &bagOfWordsEmbedder{})
	provider := NewRAGProvider(store, &fakeGenerator{reply: "Two years."}, 3)
	ingestion := NewIngestionService(docs, NewFileLoader(""), provider, 500, 50)
	router := NewIntentRouter(NewKnowledgeService(provider, ingestion, time.Second))

	got := router.Route(context.Background(), "how long is the warranty?")
	assert.Equal(t, "Two years. (from warranty.txt)", got)

	_, err := store.Load(context.Background())
	assert.NoError(t, err, "self-healing rebuild should persist the index")
}
