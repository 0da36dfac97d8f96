package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vision-gateway/models"
	"vision-gateway/version"
)

// Health handles GET /health
func Health(c *gin.Context) {
	info := version.Get()
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Service: info.Service,
		Version: info.Version,
	})
}

// Version handles GET /version
func Version(c *gin.Context) {
	c.JSON(http.StatusOK, version.Get())
}
