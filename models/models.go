package models

import "vision-gateway/normalize"

// ImageRequest is the body of POST /process-image. Older clients send the
// intent as "context".
type ImageRequest struct {
	Image    string `json:"image"`
	Language string `json:"language,omitempty"`
	Intent   string `json:"intent,omitempty"`
	Context  string `json:"context,omitempty"`
}

// EffectiveIntent returns intent, falling back to context.
func (r ImageRequest) EffectiveIntent() string {
	if r.Intent != "" {
		return r.Intent
	}
	return r.Context
}

// NormalizedResult is the outcome of one successful inference call.
type NormalizedResult struct {
	Text string
	Rule string
	Raw  normalize.Value
}

// ImageResponse is the normalizing response contract.
type ImageResponse struct {
	Success     bool            `json:"success"`
	Response    string          `json:"response"`
	RawResponse normalize.Value `json:"raw_response"`
}

// PassthroughResponse returns the upstream body untouched.
type PassthroughResponse struct {
	Success bool            `json:"success"`
	Result  normalize.Value `json:"result"`
}

// SpeechRequest is the body of POST /text-to-speech.
type SpeechRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice,omitempty"`
}

type ErrorResponse struct {
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}
