package handlers

import (
	"errors"
	"net/http"

	"ideahub/internal/services"

	"github.com/gin-gonic/gin"
)

// Every response uses the same envelope: {"success": true, "data": ...} or
// {"success": false, "error": {"kind": ..., "message": ...}}.

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

// Fail translates a service error into the envelope. Unauthorized maps to 403
// because it means an authenticated user lacks rights; missing authentication
// is rejected with 401 by the middleware before a handler runs.
func Fail(c *gin.Context, err error) {
	kind := services.KindOf(err)

	status := http.StatusServiceUnavailable
	switch kind {
	case services.KindNotFound:
		status = http.StatusNotFound
	case services.KindUnauthorized:
		status = http.StatusForbidden
	case services.KindConflict:
		status = http.StatusConflict
	case services.KindInvalid:
		status = http.StatusBadRequest
	}

	message := "service unavailable"
	var se *services.ServiceError
	if errors.As(err, &se) {
		message = se.Message
	}

	c.JSON(status, gin.H{
		"success": false,
		"error":   gin.H{"kind": string(kind), "message": message},
	})
}

// BadRequest reports a malformed request body or parameter.
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   gin.H{"kind": "invalid", "message": message},
	})
}
