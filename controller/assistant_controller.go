package controller

import (
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github/itish2003/voicecare/models"
	"github/itish2003/voicecare/services"
)

// AssistantController serves the JSON API in front of the assistant.
type AssistantController struct {
	serviceName string
	startedAt   time.Time
	assistant   services.AssistantService
	knowledge   services.KnowledgeService
}

func NewAssistantController(serviceName string, startedAt time.Time, assistant services.AssistantService, knowledge services.KnowledgeService) *AssistantController {
	return &AssistantController{
		serviceName: serviceName,
		startedAt:   startedAt,
		assistant:   assistant,
		knowledge:   knowledge,
	}
}

// Health is the Gin handler for GET /health.
func (c *AssistantController) Health(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, models.HealthResponse{
		Status:        "healthy",
		Service:       c.serviceName,
		Ready:         c.assistant.Ready(),
		UptimeSeconds: int64(time.Since(c.startedAt).Seconds()),
	})
}

// Query is the Gin handler for POST /api/v1/query.
func (c *AssistantController) Query(ctx *gin.Context) {
	var req models.QueryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	decision := c.assistant.Reply(ctx.Request.Context(), req.Query)
	ctx.JSON(http.StatusOK, models.QueryResponse{
		Response: decision.Response,
		Intent:   decision.Intent,
		OrderID:  decision.OrderID,
		Sources:  decision.Sources,
	})
}

// Ingest is the Gin handler for POST /api/v1/ingest. It rebuilds the index
// from the documents directory.
func (c *AssistantController) Ingest(ctx *gin.Context) {
	if err := c.knowledge.Rebuild(ctx.Request.Context()); err != nil {
		log.Printf("API: Ingestion failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, models.IngestResponse{
			Message: "Ingestion failed",
			Error:   "Failed to rebuild knowledge base",
		})
		return
	}
	ctx.JSON(http.StatusOK, models.IngestResponse{Message: "Knowledge base rebuilt successfully"})
}
