package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env file if it exists (silently ignore if not found)
	_ = godotenv.Load()
}

type Config struct {
	// Extraction
	ExtractorMode     string
	LLMProvider       string
	GeminiAPIKey      string
	GeminiModel       string
	GeminiTemperature float64
	AnthropicAPIKey   string
	ClaudeModel       string
	ClaudeTemperature float64

	// Calendar
	GoogleCredentialsFile string
	GoogleTokenFile       string
	TokenEncryptionKey    string
	BaseURL               string
	CalendarID            string
	CalendarTimezone      string
	MeetingDuration       int

	// Notifications
	ResendAPIKey string
	EmailFrom    string
	NotifyEmail  string

	// Server
	HTTPPort           int
	DBPath             string
	RateLimitPerMinute int
	TrustProxyHeaders  bool
	CORSAllowedOrigin  string

	// Dialogue
	SessionIdleTimeout time.Duration
	AllowPastDates     bool

	DevMode bool
}

func LoadFromEnv() *Config {
	cfg := &Config{
		ExtractorMode:     getEnvOrDefault("EXTRACTOR_MODE", "rules"),
		LLMProvider:       getEnvOrDefault("LLM_PROVIDER", "gemini"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash-latest"),
		GeminiTemperature: getEnvAsFloatOrDefault("GEMINI_TEMPERATURE", 0.1),
		AnthropicAPIKey:   os.Getenv("ANTHROPIC_API_KEY"),
		ClaudeModel:       getEnvOrDefault("CLAUDE_MODEL", "claude-sonnet-4-20250514"),
		ClaudeTemperature: getEnvAsFloatOrDefault("CLAUDE_TEMPERATURE", 0.1),

		GoogleCredentialsFile: getEnvOrDefault("GOOGLE_CREDENTIALS_FILE", "./credentials.json"),
		GoogleTokenFile:       getEnvOrDefault("GOOGLE_TOKEN_FILE", "./token.json"),
		TokenEncryptionKey:    os.Getenv("TOKEN_ENCRYPTION_KEY"),
		BaseURL:               getEnvOrDefault("BASE_URL", "http://localhost:3000"),
		CalendarID:            getEnvOrDefault("CALENDAR_ID", "primary"),
		CalendarTimezone:      getEnvOrDefault("CALENDAR_TIMEZONE", "UTC"),
		MeetingDuration:       getEnvAsIntOrDefault("MEETING_DURATION_MINUTES", 60),

		ResendAPIKey: os.Getenv("RESEND_API_KEY"),
		EmailFrom:    getEnvOrDefault("EMAIL_FROM", "Meeting Agent <onboarding@resend.dev>"),
		NotifyEmail:  os.Getenv("NOTIFY_EMAIL"),

		HTTPPort:           getEnvAsIntOrDefault("PORT", 3000),
		DBPath:             getEnvOrDefault("DB_PATH", "./meeting_agent.db"),
		RateLimitPerMinute: getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 60),
		TrustProxyHeaders:  getEnvAsBoolOrDefault("TRUST_PROXY_HEADERS", false),
		CORSAllowedOrigin:  getEnvOrDefault("CORS_ALLOWED_ORIGIN", "*"),

		SessionIdleTimeout: getEnvAsDurationOrDefault("SESSION_IDLE_TIMEOUT", 0),
		AllowPastDates:     getEnvAsBoolOrDefault("ALLOW_PAST_DATES", false),

		DevMode: getEnvAsBoolOrDefault("DEV_MODE", false),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
