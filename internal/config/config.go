package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	AllowedOrigin string

	// Gemini provider
	GeminiAPIKey string
	ChatModel    string
	ImageModel   string
	TTSModel     string
	TTSVoice     string

	// OpenAI Whisper backs the dictation endpoint; optional.
	OpenAIAPIKey string
	STTModel     string

	// Orchestration
	HistoryWindow  int
	ThinkingBudget int

	// Optional YAML override for the built-in scheme registry
	SchemeFile string

	// Best-effort IP geolocation for maps-scheme requests
	GeoEnabled  bool
	GeoEndpoint string

	MetricsEnabled bool
}

func Load() Config {
	_ = godotenv.Load()
	cfg := Config{
		Port:           getEnvDefault("PORT", "8080"),
		AllowedOrigin:  getEnvDefault("ALLOWED_ORIGIN", "*"),
		GeminiAPIKey:   os.Getenv("GEMINI_API_KEY"),
		ChatModel:      getEnvDefault("GEMINI_CHAT_MODEL", "gemini-2.5-flash"),
		ImageModel:     getEnvDefault("GEMINI_IMAGE_MODEL", "imagen-4.0-generate-001"),
		TTSModel:       getEnvDefault("GEMINI_TTS_MODEL", "gemini-2.5-flash-preview-tts"),
		TTSVoice:       getEnvDefault("GEMINI_TTS_VOICE", "Charon"),
		OpenAIAPIKey:   os.Getenv("OPENAI_API_KEY"),
		STTModel:       getEnvDefault("OPENAI_STT_MODEL", "whisper-1"),
		HistoryWindow:  getEnvIntDefault("HISTORY_WINDOW", 6),
		ThinkingBudget: getEnvIntDefault("THINKING_BUDGET", 0),
		SchemeFile:     os.Getenv("SCHEME_FILE"),
		GeoEnabled:     getEnvBoolDefault("GEO_LOOKUP_ENABLED", true),
		GeoEndpoint:    getEnvDefault("GEO_LOOKUP_ENDPOINT", "http://ip-api.com/json"),
		MetricsEnabled: getEnvBoolDefault("METRICS_ENABLED", true),
	}
	if cfg.GeminiAPIKey == "" {
		log.Println("warning: GEMINI_API_KEY is not set; provider calls will fail until provided")
	}
	if cfg.OpenAIAPIKey == "" {
		log.Println("warning: OPENAI_API_KEY is not set; dictation will be unavailable")
	}
	return cfg
}

func getEnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvIntDefault(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid int for %s=%q, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBoolDefault(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}
