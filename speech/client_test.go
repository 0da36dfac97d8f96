package speech

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vision-gateway/apierror"
	"vision-gateway/config"
)

func newTestClient(url, key string) *Client {
	return NewClient(&config.Config{
		SpeechAPIURL:    url,
		OpenAIAPIKey:    key,
		TTSModel:        "tts-1",
		TTSDefaultVoice: "alloy",
		SpeechTimeout:   5 * time.Second,
	})
}

func TestSynthesizeStreamsAudio(t *testing.T) {
	var got synthesisRequest
	var gotAuth string

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte("ID3-fake-mp3"))
	}))
	defer upstream.Close()

	audio, err := newTestClient(upstream.URL, "sk-test").Synthesize(context.Background(), "Hola", "")
	require.NoError(t, err)
	defer audio.Body.Close()

	data, err := io.ReadAll(audio.Body)
	require.NoError(t, err)

	assert.Equal(t, "ID3-fake-mp3", string(data))
	assert.Equal(t, "audio/mpeg", audio.ContentType)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, synthesisRequest{Model: "tts-1", Input: "Hola", Voice: "alloy"}, got)
}

func TestSynthesizeUsesRequestedVoice(t *testing.T) {
	var got synthesisRequest
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
	}))
	defer upstream.Close()

	audio, err := newTestClient(upstream.URL, "sk-test").Synthesize(context.Background(), "Hi", "nova")
	require.NoError(t, err)
	audio.Body.Close()

	assert.Equal(t, "nova", got.Voice)
}

func TestSynthesizeValidation(t *testing.T) {
	client := newTestClient("http://127.0.0.1:0", "")

	_, err := client.Synthesize(context.Background(), "  ", "alloy")
	assert.True(t, apierror.Is(err, apierror.KindValidation))

	_, err = client.Synthesize(context.Background(), "Hi", "alloy")
	assert.True(t, apierror.Is(err, apierror.KindMissingCredential))
	assert.Equal(t, "OPENAI_API_KEY not found in environment", err.Error())
}

func TestSynthesizeUpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer upstream.Close()

	_, err := newTestClient(upstream.URL, "sk-test").Synthesize(context.Background(), "Hi", "")

	apiErr := apierror.From(err)
	require.NotNil(t, apiErr)
	assert.Equal(t, apierror.KindUpstream, apiErr.Kind)
	assert.Equal(t, http.StatusUnauthorized, apiErr.UpstreamStatus)
	assert.Contains(t, apiErr.UpstreamBody, "bad key")
}

func TestSynthesizeTransportError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := upstream.URL
	upstream.Close()

	_, err := newTestClient(url, "sk-test").Synthesize(context.Background(), "Hi", "")
	assert.True(t, apierror.Is(err, apierror.KindTransport))
}
