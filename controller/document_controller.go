package controller

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github/itish2003/voicecare/models"
	"github/itish2003/voicecare/services"
)

// DocumentController manages files in the documents directory. Edits are
// picked up by the next rebuild (POST /api/v1/ingest or the watcher).
type DocumentController struct {
	files *services.DocumentFiles
}

func NewDocumentController(files *services.DocumentFiles) *DocumentController {
	return &DocumentController{files: files}
}

// List is the Gin handler for GET /api/v1/documents.
func (c *DocumentController) List(ctx *gin.Context) {
	docs, err := c.files.List()
	if err != nil {
		log.Printf("API: Listing documents failed: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list documents"})
		return
	}
	ctx.JSON(http.StatusOK, models.DocumentListResponse{Count: len(docs), Documents: docs})
}

// Create is the Gin handler for POST /api/v1/documents.
func (c *DocumentController) Create(ctx *gin.Context) {
	var req models.DocumentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := c.files.Create(req.Name, req.Content); err != nil {
		c.fail(ctx, err, "Failed to create document")
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"message": "Document created successfully"})
}

// Append is the Gin handler for PATCH /api/v1/documents/:name.
func (c *DocumentController) Append(ctx *gin.Context) {
	var req models.DocumentAppendRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if err := c.files.Append(ctx.Param("name"), req.Content); err != nil {
		c.fail(ctx, err, "Failed to update document")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Document updated successfully"})
}

// Delete is the Gin handler for DELETE /api/v1/documents/:name.
func (c *DocumentController) Delete(ctx *gin.Context) {
	if err := c.files.Delete(ctx.Param("name")); err != nil {
		c.fail(ctx, err, "Failed to delete document")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Document deleted successfully"})
}

func (c *DocumentController) fail(ctx *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, services.ErrInvalidDocumentName):
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid document name"})
	case errors.Is(err, services.ErrDocumentExists):
		ctx.JSON(http.StatusConflict, gin.H{"error": "Document already exists"})
	case errors.Is(err, services.ErrDocumentNotFound):
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Document not found"})
	default:
		log.Printf("API: %s: %v", message, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
