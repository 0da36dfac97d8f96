package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"vision-gateway/config"
	"vision-gateway/logging"
	"vision-gateway/prompt"
	"vision-gateway/server"
	"vision-gateway/version"
)

func main() {
	// A missing .env is fine, the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("Failed to load .env: %v", err)
	}

	cfg := config.Load()

	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatalf("Invalid logging configuration: %v", err)
	}

	if cfg.LlamaAPIKey == "" {
		log.Warn("LLAMA_API_KEY is not set, /process-image will fail until it is configured")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Warn("OPENAI_API_KEY is not set, /text-to-speech will fail until it is configured")
	}

	prompts := prompt.Default()
	if cfg.PromptsFile != "" {
		var err error
		prompts, err = prompt.LoadFile(cfg.PromptsFile)
		if err != nil {
			log.Fatalf("Failed to load prompts: %v", err)
		}
		log.Infof("Loaded prompt templates from %s", cfg.PromptsFile)
	}

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(cfg, prompts)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(log.Fields{
			"port":     cfg.Port,
			"model":    cfg.LlamaModel,
			"contract": cfg.ResponseContract,
			"version":  version.BuildVersion,
		}).Info("server.start")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
