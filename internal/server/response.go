package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "cubetimer/internal/errors"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

func writeError(c *gin.Context, apiErr *apperrors.APIError) {
	if apiErr == nil {
		apiErr = apperrors.Internal("")
	}

	c.JSON(apiErr.Status, gin.H{
		"status":  statusError,
		"code":    apiErr.Code,
		"message": apiErr.Message,
	})
}

func writeSuccess(c *gin.Context, body gin.H) {
	if body == nil {
		body = gin.H{}
	}
	body["status"] = statusSuccess
	c.JSON(http.StatusOK, body)
}
