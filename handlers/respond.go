package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/pawdesk/petcare_backend/config"
	"bitbucket.org/pawdesk/petcare_backend/utils"
)

// writeError maps the model error taxonomy onto HTTP statuses:
// validation 400, not-found 404, conflict 409, missing/forbidden tenant 403.
// Anything else is a 500 with the detail logged rather than leaked.
func writeError(c *gin.Context, funcName string, err error) {
	if ve, ok := utils.AsValidationError(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":        "validation failed",
			"field_errors": ve.FieldErrors,
		})
		return
	}
	if ce, ok := utils.AsConflictError(err); ok {
		c.JSON(http.StatusConflict, gin.H{
			"error":     ce.Message,
			"conflicts": ce.Conflicts,
		})
		return
	}
	if utils.IsNotFound(err) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	if errors.Is(err, utils.ErrorTenantRequired) || errors.Is(err, utils.ErrorForbidden) {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}

	config.LogError(config.GetLogger(), "handlers", funcName, "unhandled error", c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
