package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"

	"vision-gateway/apierror"
	"vision-gateway/config"
	"vision-gateway/models"
	"vision-gateway/speech"
)

// Synthesizer turns text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (*speech.Audio, error)
}

type SpeechHandler struct {
	speech         Synthesizer
	requestTimeout time.Duration
}

func NewSpeechHandler(cfg *config.Config, s Synthesizer) *SpeechHandler {
	return &SpeechHandler{
		speech:         s,
		requestTimeout: cfg.RequestTimeout,
	}
}

// TextToSpeech handles POST /text-to-speech and streams the audio back.
func (h *SpeechHandler) TextToSpeech(c *gin.Context) {
	var req models.SpeechRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, "speech.error", apierror.Validation("Invalid request format: %v", err))
		return
	}

	log.WithFields(log.Fields{
		"request_id": c.GetString(RequestIDKey),
		"voice":      req.Voice,
		"chars":      len(req.Text),
	}).Info("speech.request")

	ctx, cancel := requestContext(c, h.requestTimeout)
	defer cancel()

	audio, err := h.speech.Synthesize(ctx, req.Text, req.Voice)
	if err != nil {
		respondError(c, "speech.error", err)
		return
	}
	defer audio.Body.Close()

	c.DataFromReader(http.StatusOK, audio.Size, audio.ContentType, audio.Body, map[string]string{
		"Content-Disposition": `inline; filename="speech.mp3"`,
	})
}
