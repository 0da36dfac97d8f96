package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vision-gateway/handlers"
)

const RequestIDHeader = "X-Request-ID"

// RequestID tags every request with an id, reusing a client supplied one.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(handlers.RequestIDKey, id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}
