package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	HTTPAddr      string
	PublicBaseURL string
	LogLevel      string
	SentryDSN     string

	// Voice gateways
	ElevenLabsAPIKey string
	ElevenLabsVoice  string // TTS voice ID
	OpenAIAPIKey     string
	OpenAIModel      string

	// Healthcare directory
	DirectoryBaseURL string
	InsuranceSector  string

	// Conversation tuning
	MaxResults    int // candidate list bound, clamped to [1, 20]
	RecordSeconds int // default capture window, clamped to [1, 30]
	GreetingText  string

	// JWT session tokens
	JWTSecret string
	JWTExpiry time.Duration

	// Debug access
	DebugAPIKey string
}

func LoadConfigFromEnv() Config {
	jwtExpiry, err := time.ParseDuration(getenv("JWT_EXPIRY", "24h"))
	if err != nil {
		jwtExpiry = 24 * time.Hour
	}

	return Config{
		HTTPAddr:      getenv("HTTP_ADDR", ":8080"),
		PublicBaseURL: getenv("PUBLIC_BASE_URL", "http://localhost:8080"),
		LogLevel:      getenv("LOG_LEVEL", "info"),
		SentryDSN:     getenv("SENTRY_DSN", ""),

		ElevenLabsAPIKey: getenv("ELEVENLABS_API_KEY", ""),
		ElevenLabsVoice:  getenv("ELEVENLABS_VOICE_ID", ""),
		OpenAIAPIKey:     getenv("OPENAI_API_KEY", ""),
		OpenAIModel:      getenv("OPENAI_MODEL", "gpt-4o"),

		DirectoryBaseURL: getenv("DIRECTORY_BASE_URL", "https://www.doctolib.de"),
		InsuranceSector:  getenv("INSURANCE_SECTOR", "public"),

		MaxResults:    clamp(getenvInt("MAX_RESULTS", 5), 1, 20),
		RecordSeconds: clamp(getenvInt("RECORD_SECONDS", 5), 1, 30),
		GreetingText:  getenv("GREETING_TEXT", ""),

		JWTSecret: os.Getenv("JWT_SECRET"), // Required - no fallback for security
		JWTExpiry: jwtExpiry,

		DebugAPIKey: getenv("DEBUG_API_KEY", ""),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
