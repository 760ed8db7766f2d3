package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/haruki/vecdex/internal/repository"
	"gorm.io/gorm"
)

// HealthHandler handles health check endpoints
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health returns the health status of the service, including database
// reachability and pgvector availability.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx := c.Request.Context()

	if err := repository.Ping(ctx, h.db); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "degraded",
			"database": "unreachable",
		})
		return
	}

	hasVector, err := repository.HasVectorExtension(ctx, h.db)
	if err != nil || !hasVector {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "degraded",
			"database": "ok",
			"pgvector": "missing",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "ok",
		"pgvector": "ok",
	})
}
