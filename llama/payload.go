package llama

import (
	"strings"

	"vision-gateway/apierror"
)

// JPEGDataURLPrefix is prepended to the base64 image in the image part.
const JPEGDataURLPrefix = "data:image/jpeg;base64,"

type Message struct {
	Role    string `json:"role"`
	Content []any  `json:"content"`
}

type TextContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type ImageContent struct {
	Type     string   `json:"type"`
	ImageURL ImageURL `json:"image_url"`
}

// ChatRequest is the body POSTed to the chat completions endpoint.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// Assemble builds a single user message carrying the instruction followed
// by the image.
func Assemble(model, instruction, imageB64 string) (*ChatRequest, error) {
	imageB64 = strings.TrimSpace(imageB64)
	if imageB64 == "" {
		return nil, apierror.InvalidImageData("Image data is empty")
	}

	return &ChatRequest{
		Model: model,
		Messages: []Message{
			{
				Role: "user",
				Content: []any{
					TextContent{
						Type: "text",
						Text: instruction,
					},
					ImageContent{
						Type: "image_url",
						ImageURL: ImageURL{
							URL: JPEGDataURLPrefix + imageB64,
						},
					},
				},
			},
		},
	}, nil
}
