package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	chromago "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/redis/go-redis/v9"

	"github/itish2003/voicecare/config"
	"github/itish2003/voicecare/controller"
	"github/itish2003/voicecare/services"
)

// App owns every long-lived client and service.
type App struct {
	Config    *config.Config
	Redis     *redis.Client
	Chroma    chromago.Client
	Documents *services.DocumentFiles
	Ingestion services.IngestionService
	Knowledge services.KnowledgeService
	Router    *services.IntentRouter
	Readiness *services.Readiness
	Assistant services.AssistantService

	StartedAt time.Time
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	providers, err := services.NewProviders(ctx, cfg.LLM)
	if err != nil {
		// The process still serves; ingestion fails and readiness stays down.
		log.Printf("BOOTSTRAP: LLM provider unavailable, knowledge base will not initialize: %v", err)
		providers = services.UnavailableProviders(fmt.Errorf("create llm providers failed: %w", err))
	}
	return newApp(ctx, cfg, providers)
}

func newApp(ctx context.Context, cfg *config.Config, providers *services.Providers) (*App, error) {
	app := &App{Config: cfg, StartedAt: time.Now()}

	var store services.IndexStore
	switch cfg.Knowledge.Backend {
	case config.BackendChroma:
		chromaClient, err := chromago.NewHTTPClient(chromago.WithBaseURL(cfg.Chroma.URL))
		if err != nil {
			return nil, fmt.Errorf("create chroma client failed: %w", err)
		}
		app.Chroma = chromaClient
		store = services.NewChromaIndexStore(chromaClient, cfg.Chroma.Collection, providers.Embedder)
	default:
		store = services.NewLocalIndexStore(cfg.Knowledge.IndexPath, providers.Embedder)
	}

	app.Documents = services.NewDocumentFiles(cfg.Knowledge.DocsDir)
	provider := services.NewRAGProvider(store, providers.Generator, cfg.Knowledge.TopK)
	app.Ingestion = services.NewIngestionService(
		cfg.Knowledge.DocsDir,
		services.NewFileLoader(cfg.Knowledge.UnidocLicenseKey),
		provider,
		cfg.Knowledge.ChunkSize,
		cfg.Knowledge.ChunkOverlap,
	)

	opts := []services.KnowledgeOption{
		services.WithRateLimit(cfg.Knowledge.RateLimit, cfg.Knowledge.RateBurst),
	}
	if cfg.Redis.Addr != "" {
		redisCli, err := newRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Printf("BOOTSTRAP: Answer cache disabled: %v", err)
		} else {
			app.Redis = redisCli
			opts = append(opts, services.WithAnswerCache(services.NewRedisAnswerCache(redisCli, cfg.AnswerCacheTTL())))
		}
	}

	app.Knowledge = services.NewKnowledgeService(provider, app.Ingestion, cfg.GenerationTimeout(), opts...)
	app.Router = services.NewIntentRouter(app.Knowledge)
	app.Readiness = services.NewReadiness()
	app.Assistant = services.NewAssistantService(app.Router, app.Readiness)
	return app, nil
}

// StartIngestion builds the knowledge base in the background and raises the
// readiness latch on success. On failure the latch stays down for the life
// of the process.
func (a *App) StartIngestion(ctx context.Context) {
	go func() {
		if err := a.Knowledge.Rebuild(ctx); err != nil {
			log.Printf("BOOTSTRAP: Error ingesting docs: %v", err)
			return
		}
		log.Println("BOOTSTRAP: Docs ingested successfully")
		a.Readiness.MarkReady()
	}()
}

// StartWatcher rebuilds the knowledge base whenever the documents directory
// changes.
func (a *App) StartWatcher(ctx context.Context) {
	go a.Ingestion.WatchDirectory(ctx, func(ctx context.Context) {
		if err := a.Knowledge.Rebuild(ctx); err != nil {
			log.Printf("WATCHER ERROR: Rebuild failed: %v", err)
			return
		}
		log.Println("WATCHER: Knowledge base rebuilt.")
	})
}

func (a *App) RouterConfig() controller.RouterConfig {
	return controller.RouterConfig{
		ServiceName: a.Config.Server.Name,
		ClientDir:   a.Config.Server.ClientDir,
		Voice: controller.VoiceSettings{
			Voice:         a.Config.Twilio.Voice,
			GatherTimeout: a.Config.Twilio.GatherTimeoutSeconds,
		},
		TwilioToken:   a.Config.Twilio.AuthToken,
		PublicBaseURL: a.Config.Twilio.PublicBaseURL,
		StartedAt:     a.StartedAt,
	}
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Chroma != nil {
		if err := a.Chroma.Close(); err != nil {
			closeErr = err
		}
	}
	return closeErr
}
