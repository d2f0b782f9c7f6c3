package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const RequestIDHeader = "X-Request-ID"

// RequestID echoes the caller's request id or assigns a new one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func RegisterInfo(router *gin.RouterGroup) {
	router.GET("/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, Response{Success: true, Message: "API is live", Data: map[string]any{}})
	})
}
