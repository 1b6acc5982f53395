package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/ledger_backend/utils"
)

func statusOf(err error) int {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrorInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrorConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// respondError writes the error envelope; internal failures are hidden from the
// caller and collected for the error logger.
func respondError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
