package controller

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github/itish2003/voicecare/services"
)

type RouterConfig struct {
	ServiceName   string
	ClientDir     string
	Voice         VoiceSettings
	TwilioToken   string
	PublicBaseURL string
	// StartedAt anchors the uptime reported by /health. Zero means now.
	StartedAt time.Time
}

// NewRouter wires every transport onto one gin engine.
func NewRouter(cfg RouterConfig, assistant services.AssistantService, knowledge services.KnowledgeService, documents *services.DocumentFiles) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), CORS())

	startedAt := cfg.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	api := NewAssistantController(cfg.ServiceName, startedAt, assistant, knowledge)
	voice := NewVoiceController(assistant, cfg.Voice)
	socket := NewSocketController(assistant)
	docs := NewDocumentController(documents)

	router.GET("/health", api.Health)

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/query", api.Query)   // Route one utterance
		apiV1.POST("/ingest", api.Ingest) // Rebuild the knowledge base

		apiV1.GET("/documents", docs.List)
		apiV1.POST("/documents", docs.Create)
		apiV1.PATCH("/documents/:name", docs.Append)
		apiV1.DELETE("/documents/:name", docs.Delete)
	}

	router.GET("/ws", socket.Handle)
	router.POST(voicePath, TwilioSignature(cfg.TwilioToken, cfg.PublicBaseURL), voice.Handle)

	if info, err := os.Stat(cfg.ClientDir); err == nil && info.IsDir() {
		log.Printf("SERVER: Serving browser client from %s", cfg.ClientDir)
		router.NoRoute(gin.WrapH(http.FileServer(http.Dir(cfg.ClientDir))))
	}
	return router
}
