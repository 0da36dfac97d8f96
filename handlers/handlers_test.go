package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vision-gateway/apierror"
	"vision-gateway/config"
	"vision-gateway/llama"
	"vision-gateway/normalize"
	"vision-gateway/service"
	"vision-gateway/speech"
)

type stubInference struct {
	configured bool
	body       string
	err        error
	deadline   time.Time
}

func (s *stubInference) Configured() bool { return s.configured }

func (s *stubInference) Send(ctx context.Context, _ *llama.ChatRequest) (normalize.Value, error) {
	s.deadline, _ = ctx.Deadline()
	if s.err != nil {
		return normalize.Value{}, s.err
	}
	return normalize.Parse([]byte(s.body)), nil
}

type stubSynthesizer struct {
	audio string
	err   error
	text  string
	voice string
}

func (s *stubSynthesizer) Synthesize(_ context.Context, text, voice string) (*speech.Audio, error) {
	s.text, s.voice = text, voice
	if s.err != nil {
		return nil, s.err
	}
	return &speech.Audio{
		Body:        io.NopCloser(strings.NewReader(s.audio)),
		ContentType: "audio/mpeg",
		Size:        int64(len(s.audio)),
	}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		LlamaModel:       "test-model",
		RequestTimeout:   180 * time.Second,
		ResponseContract: config.ContractNormalized,
	}
}

func performImageRequest(h *ImageHandler, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	c.Request = req

	h.ProcessImage(c)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestProcessImage_Normalized(t *testing.T) {
	inference := &stubInference{configured: true, body: `{"choices":[{"message":{"content":"Hola"}}]}`}
	cfg := testConfig()
	h := NewImageHandler(cfg, service.NewGateway(cfg, inference, nil))

	w := performImageRequest(h, "/process-image",
		`{"image":"data:image/jpeg;base64,AAAA","language":"Spanish","context":"translate"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{
		"success": true,
		"response": "Hola",
		"raw_response": {"choices":[{"message":{"content":"Hola"}}]}
	}`, w.Body.String())
}

func TestProcessImage_Passthrough(t *testing.T) {
	inference := &stubInference{configured: true, body: `{"response":"A"}`}
	cfg := testConfig()
	cfg.ResponseContract = config.ContractPassthrough
	h := NewImageHandler(cfg, service.NewGateway(cfg, inference, nil))

	w := performImageRequest(h, "/process-image", `{"image":"AAAA"}`, nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"result":{"response":"A"}}`, w.Body.String())
}

func TestProcessImage_Errors(t *testing.T) {
	testCases := []struct {
		name           string
		inference      *stubInference
		body           string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "missing image",
			inference:      &stubInference{configured: true},
			body:           `{"language":"Spanish"}`,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "No image data provided",
		},
		{
			name:           "invalid json",
			inference:      &stubInference{configured: true},
			body:           `not json`,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "missing credential wins over invalid input",
			inference:      &stubInference{configured: false},
			body:           `not json`,
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "LLAMA_API_KEY not found in environment",
		},
		{
			name:           "upstream failure",
			inference:      &stubInference{configured: true, err: apierror.Upstream("Llama", 500, "boom")},
			body:           `{"image":"AAAA"}`,
			expectedStatus: http.StatusBadGateway,
			expectedError:  "Llama API error (status 500)",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			h := NewImageHandler(cfg, service.NewGateway(cfg, tc.inference, nil))

			w := performImageRequest(h, "/process-image", tc.body, nil)

			assert.Equal(t, tc.expectedStatus, w.Code)
			out := decode(t, w)
			assert.NotEmpty(t, out["error"])
			assert.NotContains(t, out, "success")
			if tc.expectedError != "" {
				assert.Equal(t, tc.expectedError, out["error"])
			}
		})
	}
}

func TestProcessImage_UpstreamStatusInEnvelope(t *testing.T) {
	inference := &stubInference{configured: true, err: apierror.Upstream("Llama", 429, "slow down")}
	cfg := testConfig()
	h := NewImageHandler(cfg, service.NewGateway(cfg, inference, nil))

	w := performImageRequest(h, "/process-image", `{"image":"AAAA"}`, nil)

	out := decode(t, w)
	assert.Equal(t, float64(429), out["upstream_status"])
}

func TestProcessImage_RequestTimeout(t *testing.T) {
	testCases := []struct {
		name     string
		target   string
		headers  map[string]string
		expected time.Duration
	}{
		{"default", "/process-image", nil, 180 * time.Second},
		{"header", "/process-image", map[string]string{"X-Request-Timeout": "5"}, 5 * time.Second},
		{"query", "/process-image?timeoutSec=7", nil, 7 * time.Second},
		{"header wins over query", "/process-image?timeoutSec=7", map[string]string{"X-Request-Timeout": "3"}, 3 * time.Second},
		{"invalid value ignored", "/process-image?timeoutSec=abc", nil, 180 * time.Second},
		{"header capped", "/process-image", map[string]string{"X-Request-Timeout": "9300000000"}, time.Hour},
		{"query capped", "/process-image?timeoutSec=9300000000", nil, time.Hour},
		{"one hour", "/process-image?timeoutSec=3600", nil, time.Hour},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inference := &stubInference{configured: true, body: `"ok"`}
			cfg := testConfig()
			h := NewImageHandler(cfg, service.NewGateway(cfg, inference, nil))

			before := time.Now()
			w := performImageRequest(h, tc.target, `{"image":"AAAA"}`, tc.headers)
			require.Equal(t, http.StatusOK, w.Code)

			remaining := inference.deadline.Sub(before)
			assert.InDelta(t, tc.expected.Seconds(), remaining.Seconds(), 1)
		})
	}
}

func TestTextToSpeech(t *testing.T) {
	gin.SetMode(gin.TestMode)
	synth := &stubSynthesizer{audio: "ID3-audio"}
	h := NewSpeechHandler(testConfig(), synth)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/text-to-speech", bytes.NewBufferString(`{"text":"Hola","voice":"nova"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.TextToSpeech(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "audio/mpeg", w.Header().Get("Content-Type"))
	assert.Equal(t, "ID3-audio", w.Body.String())
	assert.Equal(t, "Hola", synth.text)
	assert.Equal(t, "nova", synth.voice)
}

func TestTextToSpeech_Errors(t *testing.T) {
	testCases := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{"empty text", apierror.Validation("No text provided"), http.StatusBadRequest},
		{"missing key", apierror.MissingCredential("OPENAI_API_KEY"), http.StatusInternalServerError},
		{"upstream", apierror.Upstream("Speech", 401, "bad key"), http.StatusBadGateway},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gin.SetMode(gin.TestMode)
			h := NewSpeechHandler(testConfig(), &stubSynthesizer{err: tc.err})

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodPost, "/text-to-speech", bytes.NewBufferString(`{"text":""}`))
			c.Request.Header.Set("Content-Type", "application/json")

			h.TextToSpeech(c)

			assert.Equal(t, tc.expectedStatus, w.Code)
			assert.Equal(t, tc.err.Error(), decode(t, w)["error"])
		})
	}
}

func TestHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/health", nil)

	Health(c)

	assert.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "healthy", out["status"])
	assert.Equal(t, "vision-gateway", out["service"])
	assert.NotEmpty(t, out["version"])
}
