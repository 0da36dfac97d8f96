// Package handlers maps HTTP requests onto the gateway and its errors onto
// JSON envelopes.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"vision-gateway/apierror"
	"vision-gateway/models"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// maxRequestTimeout caps client supplied deadlines.
const maxRequestTimeout = time.Hour

// requestContext derives the context for upstream calls. The deadline comes
// from the X-Request-Timeout header or the timeoutSec query parameter, both in
// seconds and capped at maxRequestTimeout, and defaults to def.
func requestContext(c *gin.Context, def time.Duration) (context.Context, context.CancelFunc) {
	deadline := def
	ts := c.GetHeader("X-Request-Timeout")
	if ts == "" {
		ts = c.Query("timeoutSec")
	}
	if ts != "" {
		if v, _ := strconv.Atoi(ts); v > 0 {
			deadline = maxRequestTimeout
			if v < int(maxRequestTimeout/time.Second) {
				deadline = time.Duration(v) * time.Second
			}
		}
	}
	return context.WithTimeout(c.Request.Context(), deadline)
}

// respondError logs err and writes the matching error envelope.
func respondError(c *gin.Context, event string, err error) {
	apiErr := apierror.From(err)
	status := apiErr.Status()

	fields := log.Fields{
		"request_id": c.GetString(RequestIDKey),
		"kind":       string(apiErr.Kind),
		"status":     status,
	}
	if apiErr.Kind == apierror.KindUpstream {
		fields["upstream_status"] = apiErr.UpstreamStatus
		fields["upstream_body"] = apiErr.UpstreamBody
	}

	entry := log.WithFields(fields)
	if status >= http.StatusInternalServerError {
		entry.WithError(err).Error(event)
	} else {
		entry.Warn(event)
	}

	c.JSON(status, models.ErrorResponse{
		Error:          apiErr.Error(),
		UpstreamStatus: apiErr.UpstreamStatus,
	})
}
