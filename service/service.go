// Package service runs one image through prompt building, inference and
// response normalization.
package service

import (
	"context"
	"encoding/base64"
	"strings"

	"github.com/apex/log"

	"vision-gateway/apierror"
	"vision-gateway/config"
	"vision-gateway/imageprep"
	"vision-gateway/llama"
	"vision-gateway/metrics"
	"vision-gateway/models"
	"vision-gateway/normalize"
	"vision-gateway/prompt"
)

// Inference sends an assembled payload upstream.
type Inference interface {
	Configured() bool
	Send(ctx context.Context, payload *llama.ChatRequest) (normalize.Value, error)
}

type Gateway struct {
	inference         Inference
	prompts           *prompt.Builder
	model             string
	compressImages    bool
	maxImageDimension int
}

func NewGateway(cfg *config.Config, inference Inference, prompts *prompt.Builder) *Gateway {
	if prompts == nil {
		prompts = prompt.Default()
	}
	return &Gateway{
		inference:         inference,
		prompts:           prompts,
		model:             cfg.LlamaModel,
		compressImages:    cfg.CompressImages,
		maxImageDimension: cfg.MaxImageDimension,
	}
}

// Prompt returns the instruction that would be sent for req.
func (g *Gateway) Prompt(req models.ImageRequest) string {
	return g.prompts.Build(req.EffectiveIntent(), req.Language)
}

// ProcessImage runs the full pipeline for one request. The first failing
// stage ends the request.
func (g *Gateway) ProcessImage(ctx context.Context, req models.ImageRequest) (*models.NormalizedResult, error) {
	if err := g.CheckCredentials(); err != nil {
		return nil, err
	}

	if strings.TrimSpace(req.Image) == "" {
		return nil, apierror.Validation("No image data provided")
	}

	imageB64, err := StripDataURI(req.Image)
	if err != nil {
		return nil, err
	}

	if g.compressImages {
		imageB64 = g.prepare(imageB64)
	}

	instruction := g.Prompt(req)

	payload, err := llama.Assemble(g.model, instruction, imageB64)
	if err != nil {
		return nil, err
	}

	raw, err := g.inference.Send(ctx, payload)
	if err != nil {
		return nil, err
	}

	text, rule := normalize.Extract(raw)
	metrics.NormalizerMatchesTotal.WithLabelValues(rule).Inc()

	return &models.NormalizedResult{
		Text: text,
		Rule: rule,
		Raw:  raw,
	}, nil
}

// StripDataURI removes a leading "data:image/...;base64," prefix.
func StripDataURI(image string) (string, error) {
	image = strings.TrimSpace(image)
	if !strings.HasPrefix(image, "data:image") {
		return image, nil
	}
	i := strings.IndexByte(image, ',')
	if i < 0 {
		return "", apierror.Validation("Malformed data URI: missing ',' separator")
	}
	return image[i+1:], nil
}

// prepare downsizes the image when it can be decoded. Any failure keeps the
// original payload.
func (g *Gateway) prepare(imageB64 string) string {
	data, err := base64.StdEncoding.DecodeString(imageB64)
	if err != nil {
		log.Warnf("Skipping image preparation, payload is not valid base64: %v", err)
		return imageB64
	}

	prepared, err := imageprep.Prepare(data, g.maxImageDimension)
	if err != nil {
		log.Warnf("Skipping image preparation: %v", err)
		return imageB64
	}
	return base64.StdEncoding.EncodeToString(prepared)
}

// CheckCredentials fails when the inference API key is missing.
func (g *Gateway) CheckCredentials() error {
	if !g.inference.Configured() {
		return apierror.MissingCredential("LLAMA_API_KEY")
	}
	return nil
}
