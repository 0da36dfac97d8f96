// Package llama talks to the multimodal chat completions API.
package llama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vision-gateway/apierror"
	"vision-gateway/config"
	"vision-gateway/metrics"
	"vision-gateway/normalize"
)

// maxErrorBody bounds how much of a failed upstream body is kept.
const maxErrorBody = 4096

// Client represents a Llama API client
type Client struct {
	apiURL   string
	apiKey   string
	maxBytes int64
	client   *http.Client
}

// NewClient creates a new Llama client
func NewClient(cfg *config.Config) *Client {
	maxBytes := cfg.MaxResponseBytes
	if maxBytes <= 0 {
		maxBytes = config.DefaultMaxResponseBytes
	}
	return &Client{
		apiURL:   cfg.LlamaAPIURL,
		apiKey:   cfg.LlamaAPIKey,
		maxBytes: maxBytes,
		client:   &http.Client{Timeout: cfg.InferenceTimeout},
	}
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Send posts the payload once and returns the decoded response body.
func (c *Client) Send(ctx context.Context, payload *ChatRequest) (normalize.Value, error) {
	if !c.Configured() {
		return normalize.Value{}, apierror.MissingCredential("LLAMA_API_KEY")
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return normalize.Value{}, apierror.Unexpected("failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return normalize.Value{}, apierror.Unexpected("failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.ObserveUpstream(metrics.UpstreamInference, "transport_error", start)
		return normalize.Value{}, apierror.Transport("API request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody+1))
		metrics.ObserveUpstream(metrics.UpstreamInference, fmt.Sprintf("status_%d", resp.StatusCode), start)
		return normalize.Value{}, apierror.Upstream("Llama", resp.StatusCode, truncate(body, maxErrorBody))
	}

	// One extra byte tells an oversized body apart from one of exactly maxBytes.
	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		metrics.ObserveUpstream(metrics.UpstreamInference, "transport_error", start)
		return normalize.Value{}, apierror.Transport("failed to read response body", err)
	}
	if int64(len(body)) > c.maxBytes {
		metrics.ObserveUpstream(metrics.UpstreamInference, "too_large", start)
		return normalize.Value{}, apierror.Transport(fmt.Sprintf("response body exceeds %d bytes", c.maxBytes), nil)
	}

	metrics.ObserveUpstream(metrics.UpstreamInference, "ok", start)
	return normalize.Parse(body), nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		return string(b[:n]) + "..."
	}
	return string(b)
}
