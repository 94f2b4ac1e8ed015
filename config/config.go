// Package config provides configuration for the concierge service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the concierge service configuration.
type Config struct {
	// Server settings
	HTTPPort int

	// Database
	DatabaseURL string

	// Assistant backend (OpenAI Assistants v2)
	OpenAIAPIKey  string
	OpenAIBaseURL string
	AssistantID   string

	// CRM backend (GoHighLevel)
	CRMAPIKey     string
	CRMLocationID string
	CRMBaseURL    string

	// Voice backend (Bland)
	VoiceAPIKey   string
	VoiceBaseURL  string
	PathwayID     string
	WebhookURL    string
	WebhookSecret string

	// Event bus (optional)
	AMQPURL      string
	AMQPExchange string

	// Run polling
	PollInterval    time.Duration
	MaxPollAttempts int

	// Outbound HTTP client timeout
	ClientTimeout time.Duration

	// Widget behaviour
	BookingURL   string
	SoftCTAAfter int
	HardCTAAfter int
}

// Load loads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		HTTPPort:        getEnvInt("HTTP_PORT", 8080),
		DatabaseURL:     getEnv("DATABASE_URL", "file:concierge.db?cache=shared&mode=rwc"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", ""),
		AssistantID:     getEnv("OPENAI_ASSISTANT_ID", ""),
		CRMAPIKey:       getEnv("GHL_API_KEY", ""),
		CRMLocationID:   getEnv("GHL_LOCATION_ID", ""),
		CRMBaseURL:      getEnv("GHL_BASE_URL", "https://rest.gohighlevel.com/v1"),
		VoiceAPIKey:     getEnv("BLAND_API_KEY", ""),
		VoiceBaseURL:    getEnv("BLAND_BASE_URL", "https://api.bland.ai"),
		PathwayID:       getEnv("BLAND_PATHWAY_ID", ""),
		WebhookURL:      getEnv("WEBHOOK_URL", ""),
		WebhookSecret:   getEnv("BLAND_WEBHOOK_SECRET", ""),
		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPExchange:    getEnv("AMQP_EXCHANGE", "concierge.calls"),
		PollInterval:    time.Duration(getEnvInt("POLL_INTERVAL_MS", 1200)) * time.Millisecond,
		MaxPollAttempts: getEnvInt("MAX_POLL_ATTEMPTS", 18),
		ClientTimeout:   time.Duration(getEnvInt("CLIENT_TIMEOUT_MS", 30000)) * time.Millisecond,
		BookingURL:      getEnv("BOOKING_URL", "/booking"),
		SoftCTAAfter:    getEnvInt("SOFT_CTA_AFTER", 2),
		HardCTAAfter:    getEnvInt("HARD_CTA_AFTER", 5),
	}
	return cfg
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}
