// internal/interfaces/http/handlers/response.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

// respondError writes {"error": msg} with the status matching err's kind.
// Server errors are attached to the context for the request logger and
// hidden from the client.
func respondError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	message := err.Error()

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		_ = c.Error(err)
		status = http.StatusGatewayTimeout
		message = "Request timeout"
	case status == http.StatusInternalServerError:
		_ = c.Error(err)
		message = "Internal server error"
	}

	c.JSON(status, gin.H{"error": message})
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request data",
		"details": err.Error(),
	})
}

func respondData(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"message": message,
		"data":    data,
	})
}

// parseIDParam reads a positive numeric path parameter
func parseIDParam(c *gin.Context, name, label string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid " + label,
		})
		return 0, false
	}
	return uint(id), true
}

// currentUser returns the authenticated user id, answering 401 when absent
func currentUser(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "Authentication required",
		})
	}
	return userID, ok
}
