package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"vision-gateway/handlers"
	"vision-gateway/metrics"
	"vision-gateway/models"
)

// RequestLogger logs one line per request and records request metrics.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)

		metrics.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		metrics.RequestDurationSeconds.WithLabelValues(route).Observe(elapsed.Seconds())

		log.WithFields(log.Fields{
			"request_id":  c.GetString(handlers.RequestIDKey),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      status,
			"duration_ms": elapsed.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"bytes":       c.Writer.Size(),
		}).Info("http.request")
	}
}

// Recovery turns a panic into the standard JSON error envelope.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.WithFields(log.Fields{
			"request_id": c.GetString(handlers.RequestIDKey),
			"panic":      recovered,
		}).Error("http.panic")
		c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Unexpected error"})
	})
}
