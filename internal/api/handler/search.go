package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/haruki/vecdex/internal/service"
)

// SearchHandler handles similarity search endpoints.
type SearchHandler struct {
	search *service.SearchService
}

// NewSearchHandler creates a new search handler.
// Parameters:
//   - search: search service instance.
// Returns:
//   - *SearchHandler: initialized handler.
func NewSearchHandler(search *service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

type searchRequest struct {
	Query         string  `json:"query" binding:"required"`
	Limit         int     `json:"limit"`
	Precision     string  `json:"precision"`
	MinSimilarity float64 `json:"min_similarity"`
}

// Search handles POST /api/v1/collections/:name/search.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SearchHandler) Search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	results, err := h.search.Search(c.Request.Context(), c.Param("name"), req.Query, service.SearchOptions{
		Limit:         req.Limit,
		Precision:     req.Precision,
		MinSimilarity: req.MinSimilarity,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"total":   len(results),
	})
}

// SearchGet handles GET /api/v1/collections/:name/search for simple queries.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *SearchHandler) SearchGet(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	opts := service.SearchOptions{Precision: c.Query("precision")}
	if limit := c.Query("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			opts.Limit = n
		}
	}
	if minSim := c.Query("min_similarity"); minSim != "" {
		if f, err := strconv.ParseFloat(minSim, 64); err == nil {
			opts.MinSimilarity = f
		}
	}

	results, err := h.search.Search(c.Request.Context(), c.Param("name"), query, opts)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"total":   len(results),
	})
}
