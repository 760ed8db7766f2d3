package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/haruki/vecdex/internal/domain"
	"github.com/haruki/vecdex/internal/service"
)

// DocumentHandler handles record ingestion and listing endpoints.
type DocumentHandler struct {
	ingest *service.IngestService
}

// NewDocumentHandler creates a new document handler.
func NewDocumentHandler(ingest *service.IngestService) *DocumentHandler {
	return &DocumentHandler{ingest: ingest}
}

type addTextRequest struct {
	Content  string         `json:"content" binding:"required"`
	Metadata domain.JSONMap `json:"metadata"`
}

// Add handles POST /api/v1/collections/:name/documents.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *DocumentHandler) Add(c *gin.Context) {
	var req addTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	records, err := h.ingest.AddText(c.Request.Context(), c.Param("name"), req.Content, req.Metadata)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"records": records,
		"chunks":  len(records),
	})
}

// List handles GET /api/v1/collections/:name/documents.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *DocumentHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	records, err := h.ingest.ListRecords(c.Request.Context(), c.Param("name"), limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   len(records),
	})
}

// Delete handles DELETE /api/v1/collections/:name/documents/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid record id"})
		return
	}

	if err := h.ingest.DeleteRecord(c.Request.Context(), c.Param("name"), uint(id)); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
