// Package server wires the gateway's HTTP routes.
package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vision-gateway/config"
	"vision-gateway/handlers"
	"vision-gateway/llama"
	"vision-gateway/metrics"
	"vision-gateway/middleware"
	"vision-gateway/prompt"
	"vision-gateway/service"
	"vision-gateway/speech"
)

const (
	EndPointHealth       = "/health"
	EndPointVersion      = "/version"
	EndPointProcessImage = "/process-image"
	EndPointTextToSpeech = "/text-to-speech"
	EndPointMetrics      = "/metrics"
)

// NewRouter builds the router with real upstream clients.
func NewRouter(cfg *config.Config, prompts *prompt.Builder) *gin.Engine {
	gateway := service.NewGateway(cfg, llama.NewClient(cfg), prompts)
	return NewRouterWith(cfg, gateway, speech.NewClient(cfg))
}

// NewRouterWith builds the router around the given gateway and speech client.
func NewRouterWith(cfg *config.Config, gateway *service.Gateway, synth handlers.Synthesizer) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Recovery())
	router.Use(cors.New(corsConfig(cfg)))
	// Audio is already compressed.
	router.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{EndPointTextToSpeech})))

	imageHandler := handlers.NewImageHandler(cfg, gateway)
	speechHandler := handlers.NewSpeechHandler(cfg, synth)

	router.GET(EndPointHealth, handlers.Health)
	router.GET(EndPointVersion, handlers.Version)
	router.POST(EndPointProcessImage, imageHandler.ProcessImage)
	router.POST(EndPointTextToSpeech, speechHandler.TextToSpeech)

	if cfg.MetricsEnabled {
		metrics.Register()
		router.GET(EndPointMetrics, gin.WrapH(promhttp.Handler()))
	}

	return router
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID", "X-Request-Timeout"},
		ExposeHeaders: []string{"X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}

	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			c.AllowAllOrigins = true
			return c
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.AllowedOrigins
	c.AllowCredentials = true
	return c
}
