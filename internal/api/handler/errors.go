package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/haruki/vecdex/internal/domain"
)

// writeError maps a domain error to an HTTP status and writes the JSON body.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrNameConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidDimension),
		errors.Is(err, domain.ErrUnsupportedReduction),
		errors.Is(err, domain.ErrDegenerateVector):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrEmbeddingFailure):
		status = http.StatusBadGateway
	}

	c.JSON(status, gin.H{"error": err.Error()})
}
