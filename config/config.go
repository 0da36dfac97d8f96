package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Response contracts for POST /process-image.
const (
	ContractNormalized  = "normalized"
	ContractPassthrough = "passthrough"
)

const (
	DefaultLlamaAPIURL  = "https://api.llama.com/v1/chat/completions"
	DefaultLlamaModel   = "Llama-4-Maverick-17B-128E-Instruct-FP8"
	DefaultSpeechAPIURL = "https://api.openai.com/v1/audio/speech"

	DefaultMaxResponseBytes = 10 << 20
)

// Config is built once at startup and never modified afterwards.
type Config struct {
	// Server configuration
	Port           string
	AllowedOrigins []string
	RequestTimeout time.Duration

	// Inference API
	LlamaAPIURL      string
	LlamaAPIKey      string
	LlamaModel       string
	InferenceTimeout time.Duration
	MaxResponseBytes int64

	// Speech API
	OpenAIAPIKey    string
	SpeechAPIURL    string
	TTSModel        string
	TTSDefaultVoice string
	SpeechTimeout   time.Duration

	// Behaviour
	ResponseContract  string
	PromptsFile       string
	CompressImages    bool
	MaxImageDimension int
	MetricsEnabled    bool

	// Logging
	LogLevel  string
	LogFormat string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "5000"),
		AllowedOrigins: getStringSliceEnv("ALLOWED_ORIGINS", "*"),
		RequestTimeout: getDurationEnv("REQUEST_TIMEOUT", 180*time.Second),

		LlamaAPIURL:      getEnv("LLAMA_API_URL", DefaultLlamaAPIURL),
		LlamaAPIKey:      getEnv("LLAMA_API_KEY", ""),
		LlamaModel:       getEnv("LLAMA_MODEL", DefaultLlamaModel),
		InferenceTimeout: getDurationEnv("INFERENCE_TIMEOUT", 60*time.Second),
		MaxResponseBytes: int64(getIntEnv("MAX_RESPONSE_BYTES", DefaultMaxResponseBytes)),

		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		SpeechAPIURL:    getEnv("SPEECH_API_URL", DefaultSpeechAPIURL),
		TTSModel:        getEnv("TTS_MODEL", "tts-1"),
		TTSDefaultVoice: getEnv("TTS_DEFAULT_VOICE", "alloy"),
		SpeechTimeout:   getDurationEnv("SPEECH_TIMEOUT", 60*time.Second),

		ResponseContract:  getContractEnv("RESPONSE_CONTRACT", ContractNormalized),
		PromptsFile:       getEnv("PROMPTS_FILE", ""),
		CompressImages:    getBoolEnv("COMPRESS_IMAGES", false),
		MaxImageDimension: getIntEnv("MAX_IMAGE_DIMENSION", 1024),
		MetricsEnabled:    getBoolEnv("METRICS_ENABLED", true),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv accepts Go durations ("90s") and plain seconds ("90").
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := getEnv(key, "")
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := getEnv(key, ""); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := getEnv(key, ""); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getStringSliceEnv splits a comma-separated variable, dropping empty parts.
func getStringSliceEnv(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getContractEnv(key, defaultValue string) string {
	switch v := strings.ToLower(getEnv(key, defaultValue)); v {
	case ContractNormalized, ContractPassthrough:
		return v
	default:
		return defaultValue
	}
}
