package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/haruki/vecdex/internal/service"
)

// CollectionHandler handles collection lifecycle endpoints.
type CollectionHandler struct {
	collections *service.CollectionService
}

// NewCollectionHandler creates a new collection handler.
// Parameters:
//   - collections: lifecycle service instance.
// Returns:
//   - *CollectionHandler: initialized handler.
func NewCollectionHandler(collections *service.CollectionService) *CollectionHandler {
	return &CollectionHandler{collections: collections}
}

type createCollectionRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Dimension   int    `json:"dimension" binding:"required"`
}

// Create handles POST /api/v1/collections.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *CollectionHandler) Create(c *gin.Context) {
	var req createCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	collection, err := h.collections.Create(c.Request.Context(), req.Name, req.Description, req.Dimension)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, collection)
}

// List handles GET /api/v1/collections.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *CollectionHandler) List(c *gin.Context) {
	includeDeleted, _ := strconv.ParseBool(c.Query("include_deleted"))

	collections, err := h.collections.List(c.Request.Context(), includeDeleted)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"collections": collections,
		"total":       len(collections),
	})
}

// Get handles GET /api/v1/collections/:name.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *CollectionHandler) Get(c *gin.Context) {
	collection, err := h.collections.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, collection)
}

type updateCollectionRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Update handles PATCH /api/v1/collections/:name. A new name moves the
// physical table; a new description is metadata only.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *CollectionHandler) Update(c *gin.Context) {
	var req updateCollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.Name == nil && req.Description == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	name := c.Param("name")
	ctx := c.Request.Context()

	if req.Name != nil {
		collection, err := h.collections.Rename(ctx, name, *req.Name)
		if err != nil {
			writeError(c, err)
			return
		}
		name = collection.Name
	}

	if req.Description != nil {
		if _, err := h.collections.UpdateDescription(ctx, name, *req.Description); err != nil {
			writeError(c, err)
			return
		}
	}

	collection, err := h.collections.Get(ctx, name)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

// Delete handles DELETE /api/v1/collections/:name. Without ?confirm=true the
// response is a preview and nothing is removed.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *CollectionHandler) Delete(c *gin.Context) {
	confirm, _ := strconv.ParseBool(c.Query("confirm"))

	preview, err := h.collections.Delete(c.Request.Context(), c.Param("name"), confirm)
	if err != nil {
		writeError(c, err)
		return
	}

	if !confirm {
		c.JSON(http.StatusOK, gin.H{
			"preview": preview,
			"message": "pass confirm=true to delete this collection",
		})
		return
	}
	c.JSON(http.StatusOK, preview)
}

// Stats handles GET /api/v1/collections/:name/stats.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *CollectionHandler) Stats(c *gin.Context) {
	stats, err := h.collections.Stats(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// Cleanup handles POST /api/v1/cleanup, forcing a retention pass.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *CollectionHandler) Cleanup(c *gin.Context) {
	summary, err := h.collections.RunCleanup(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
