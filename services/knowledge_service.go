package services

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github/itish2003/voicecare/models"
)

// KnowledgeService answers free-text questions from the document index.
type KnowledgeService interface {
	Query(ctx context.Context, text string) (models.Answer, error)
	// Rebuild re-ingests the documents directory and swaps in the new index.
	Rebuild(ctx context.Context) error
}

type KnowledgeOption func(*knowledgeServiceImpl)

// WithAnswerCache enables answer caching. Cache faults never fail a query.
func WithAnswerCache(cache AnswerCache) KnowledgeOption {
	return func(s *knowledgeServiceImpl) { s.cache = cache }
}

// WithRateLimit caps generation calls per second. A zero limit disables it.
func WithRateLimit(perSecond float64, burst int) KnowledgeOption {
	return func(s *knowledgeServiceImpl) {
		if perSecond <= 0 {
			return
		}
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

type indexRef struct {
	handle IndexHandle
}

type knowledgeServiceImpl struct {
	provider  KnowledgeProvider
	ingestion IngestionService
	timeout   time.Duration

	cache   AnswerCache
	limiter *rate.Limiter

	current atomic.Pointer[indexRef]
}

func NewKnowledgeService(provider KnowledgeProvider, ingestion IngestionService, timeout time.Duration, opts ...KnowledgeOption) KnowledgeService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	s := &knowledgeServiceImpl{
		provider:  provider,
		ingestion: ingestion,
		timeout:   timeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *knowledgeServiceImpl) Query(ctx context.Context, text string) (models.Answer, error) {
	log.Printf("KNOWLEDGE: Querying with: '%s'", text)

	handle, err := s.indexHandle(ctx)
	if err != nil {
		return models.Answer{}, err
	}

	if s.cache != nil {
		answer, ok, err := s.cache.Get(ctx, text)
		if err != nil {
			log.Printf("KNOWLEDGE WARN: Answer cache lookup failed: %v", err)
		} else if ok {
			log.Println("KNOWLEDGE: Answer served from cache.")
			return answer, nil
		}
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.limiter != nil {
		if err := s.limiter.Wait(genCtx); err != nil {
			return models.Answer{}, fmt.Errorf("%w: rate limited: %v", ErrGenerationFailed, err)
		}
	}

	answer, err := s.provider.RetrieveAndGenerate(genCtx, text, handle)
	if err != nil {
		return models.Answer{}, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, text, answer); err != nil {
			log.Printf("KNOWLEDGE WARN: Answer cache store failed: %v", err)
		}
	}
	return answer, nil
}

// indexHandle returns the current index, loading it from the well-known
// location on first use and re-ingesting when that fails. Concurrent callers
// may both rebuild.
func (s *knowledgeServiceImpl) indexHandle(ctx context.Context) (IndexHandle, error) {
	if ref := s.current.Load(); ref != nil {
		return ref.handle, nil
	}

	handle, loadErr := s.provider.LoadIndex(ctx)
	if loadErr == nil {
		log.Println("KNOWLEDGE: Index loaded successfully.")
		s.current.Store(&indexRef{handle: handle})
		return handle, nil
	}

	log.Printf("KNOWLEDGE: Failed to load index: %v. Attempting to re-ingest documents...", loadErr)
	if err := s.Rebuild(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKnowledgeBaseUnavailable, err)
	}
	return s.current.Load().handle, nil
}

func (s *knowledgeServiceImpl) Rebuild(ctx context.Context) error {
	handle, err := s.ingestion.Ingest(ctx)
	if err != nil {
		return err
	}
	s.current.Store(&indexRef{handle: handle})

	if s.cache != nil {
		if err := s.cache.Clear(ctx); err != nil {
			log.Printf("KNOWLEDGE WARN: Failed to clear answer cache: %v", err)
		}
	}
	return nil
}
