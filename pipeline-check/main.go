// pipeline-check sends every image in a folder through the gateway pipeline
// and prints the prompt and the normalized answer for each one.
//
// Files must be named <language>_<intent>_<anything>.<png|jpg|jpeg|gif>.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"

	"vision-gateway/config"
	"vision-gateway/imageprep"
	"vision-gateway/llama"
	"vision-gateway/logging"
	"vision-gateway/models"
	"vision-gateway/prompt"
	"vision-gateway/service"
)

var (
	imageDir = flag.String("dir", "test_images", "Folder holding the test images.")
	timeout  = flag.Duration("timeout", 0, "Per image deadline. Defaults to INFERENCE_TIMEOUT.")
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

type imageCase struct {
	Path     string
	Language string
	Intent   string
}

type result struct {
	Prompt      string          `json:"prompt"`
	Rule        string          `json:"rule"`
	Response    string          `json:"response"`
	RawResponse json.RawMessage `json:"raw_response"`
}

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("Failed to load .env: %v", err)
	}
	cfg := config.Load()
	if err := logging.Setup(cfg.LogLevel, cfg.LogFormat); err != nil {
		log.Fatalf("Invalid logging configuration: %v", err)
	}

	prompts := prompt.Default()
	if cfg.PromptsFile != "" {
		var err error
		if prompts, err = prompt.LoadFile(cfg.PromptsFile); err != nil {
			log.Fatalf("Failed to load prompts: %v", err)
		}
	}

	perImage := *timeout
	if perImage <= 0 {
		perImage = cfg.InferenceTimeout
	}

	gateway := service.NewGateway(cfg, llama.NewClient(cfg), prompts)
	if err := run(context.Background(), os.Stdout, gateway, *imageDir, cfg.MaxImageDimension, perImage); err != nil {
		log.Fatalf("%v", err)
	}
}

func run(ctx context.Context, out io.Writer, gateway *service.Gateway, dir string, maxDimension int, perImage time.Duration) error {
	if err := gateway.CheckCredentials(); err != nil {
		return err
	}

	cases, skipped, err := collect(dir)
	if err != nil {
		return err
	}
	for _, name := range skipped {
		fmt.Fprintf(out, "Skipping %s: file name must look like language_intent_name.ext\n", name)
	}
	if len(cases) == 0 {
		fmt.Fprintf(out, "No images found in %q\n", dir)
		return nil
	}
	fmt.Fprintf(out, "Found %d images to test.\n", len(cases))

	for _, ic := range cases {
		header := fmt.Sprintf("--- Processing %s ---", ic.Path)
		fmt.Fprintln(out, header)

		res, err := processOne(ctx, gateway, ic, maxDimension, perImage)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		} else {
			data, _ := json.MarshalIndent(res, "", "  ")
			fmt.Fprintln(out, string(data))
		}
		fmt.Fprintln(out, strings.Repeat("-", len(header)))
	}
	return nil
}

func processOne(ctx context.Context, gateway *service.Gateway, ic imageCase, maxDimension int, perImage time.Duration) (*result, error) {
	data, err := os.ReadFile(ic.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	// The payload always claims image/jpeg, so everything is re-encoded.
	prepared, err := imageprep.Prepare(data, maxDimension)
	if err != nil {
		log.Warnf("Sending %s unmodified: %v", ic.Path, err)
		prepared = data
	}

	req := models.ImageRequest{
		Image:    base64.StdEncoding.EncodeToString(prepared),
		Language: ic.Language,
		Intent:   ic.Intent,
	}

	ctx, cancel := context.WithTimeout(ctx, perImage)
	defer cancel()

	out, err := gateway.ProcessImage(ctx, req)
	if err != nil {
		return nil, err
	}
	return &result{
		Prompt:      gateway.Prompt(req),
		Rule:        out.Rule,
		Response:    out.Text,
		RawResponse: json.RawMessage(out.Raw.String()),
	}, nil
}

// collect lists the images in dir in name order. Images whose names do not
// carry a language and an intent are returned separately.
func collect(dir string) ([]imageCase, []string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read image folder: %w", err)
	}

	var cases []imageCase
	var skipped []string
	for _, e := range entries {
		if e.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		language, intent, ok := parseName(e.Name())
		if !ok {
			skipped = append(skipped, e.Name())
			continue
		}
		cases = append(cases, imageCase{
			Path:     filepath.Join(dir, e.Name()),
			Language: language,
			Intent:   intent,
		})
	}
	sort.Slice(cases, func(i, j int) bool { return cases[i].Path < cases[j].Path })
	return cases, skipped, nil
}

func parseName(name string) (string, string, bool) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(base, "_")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	return parts[0], parts[1], true
}
