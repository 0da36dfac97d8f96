package handlers

import (
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"vision-gateway/apierror"
	"vision-gateway/config"
	"vision-gateway/models"
	"vision-gateway/service"
)

type ImageHandler struct {
	gateway        *service.Gateway
	contract       string
	requestTimeout time.Duration
}

func NewImageHandler(cfg *config.Config, gateway *service.Gateway) *ImageHandler {
	return &ImageHandler{
		gateway:        gateway,
		contract:       cfg.ResponseContract,
		requestTimeout: cfg.RequestTimeout,
	}
}

// ProcessImage handles POST /process-image
func (h *ImageHandler) ProcessImage(c *gin.Context) {
	if err := h.gateway.CheckCredentials(); err != nil {
		respondError(c, "image.process.error", err)
		return
	}

	var req models.ImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "image.process.error", apierror.Validation("Invalid request format: %v", err))
		return
	}

	log.WithFields(log.Fields{
		"request_id":  c.GetString(RequestIDKey),
		"language":    req.Language,
		"intent":      req.EffectiveIntent(),
		"image_bytes": len(req.Image),
	}).Info("image.process.request")

	ctx, cancel := requestContext(c, h.requestTimeout)
	defer cancel()

	start := time.Now()
	result, err := h.gateway.ProcessImage(ctx, req)
	if err != nil {
		respondError(c, "image.process.error", err)
		return
	}

	log.WithFields(log.Fields{
		"request_id":  c.GetString(RequestIDKey),
		"rule":        result.Rule,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("image.process.done")

	if h.contract == config.ContractPassthrough {
		c.JSON(http.StatusOK, models.PassthroughResponse{Success: true, Result: result.Raw})
		return
	}
	c.JSON(http.StatusOK, models.ImageResponse{
		Success:     true,
		Response:    result.Text,
		RawResponse: result.Raw,
	})
}
