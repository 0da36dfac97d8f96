// Package speech converts text to audio through the OpenAI speech API.
package speech

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"vision-gateway/apierror"
	"vision-gateway/config"
	"vision-gateway/metrics"
)

const maxErrorBody = 4096

type Client struct {
	apiURL       string
	apiKey       string
	model        string
	defaultVoice string
	client       *http.Client
}

type synthesisRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
	Voice string `json:"voice"`
}

// Audio is the upstream audio stream. The caller must close Body.
type Audio struct {
	Body        io.ReadCloser
	ContentType string
	Size        int64
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		apiURL:       cfg.SpeechAPIURL,
		apiKey:       cfg.OpenAIAPIKey,
		model:        cfg.TTSModel,
		defaultVoice: cfg.TTSDefaultVoice,
		client:       &http.Client{Timeout: cfg.SpeechTimeout},
	}
}

// Synthesize requests speech for text. An empty voice selects the configured
// default. The returned body is the upstream audio, unmodified.
func (c *Client) Synthesize(ctx context.Context, text, voice string) (*Audio, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apierror.Validation("No text provided")
	}
	if c.apiKey == "" {
		return nil, apierror.MissingCredential("OPENAI_API_KEY")
	}

	voice = strings.TrimSpace(voice)
	if voice == "" {
		voice = c.defaultVoice
	}

	jsonData, err := json.Marshal(synthesisRequest{
		Model: c.model,
		Input: text,
		Voice: voice,
	})
	if err != nil {
		return nil, apierror.Unexpected("failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return nil, apierror.Unexpected("failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.ObserveUpstream(metrics.UpstreamSpeech, "transport_error", start)
		return nil, apierror.Transport("Speech request failed", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		metrics.ObserveUpstream(metrics.UpstreamSpeech, fmt.Sprintf("status_%d", resp.StatusCode), start)
		return nil, apierror.Upstream("Speech", resp.StatusCode, string(body))
	}

	metrics.ObserveUpstream(metrics.UpstreamSpeech, "ok", start)

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return &Audio{
		Body:        resp.Body,
		ContentType: contentType,
		Size:        resp.ContentLength,
	}, nil
}
