package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Pipeline PipelineConfig
	LLM      LLMConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	HTTPAddr           string
	RateLimitPerMinute int
	ShutdownTimeout    time.Duration
}

// PipelineConfig holds the statement pipeline knobs
type PipelineConfig struct {
	MaxUploadBytes      int64
	SingleCallThreshold int // documents at or under this many chars go out in one model call
	MaxChunkChars       int
	ExtraRedactWords    []string
	DebugLogging        bool
}

// LLMConfig holds extraction-model configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	Disabled    bool // administratively disable external model calls
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 12),
			ShutdownTimeout:    getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Pipeline: PipelineConfig{
			MaxUploadBytes:      getEnvAsInt64("MAX_UPLOAD_BYTES", 15<<20),
			SingleCallThreshold: getEnvAsInt("SINGLE_CALL_THRESHOLD", 20000),
			MaxChunkChars:       getEnvAsInt("MAX_CHUNK_CHARS", 9000),
			ExtraRedactWords:    getEnvAsList("EXTRA_REDACT_WORDS"),
			DebugLogging:        getEnvAsBool("DEBUG_LOGGING", false),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: 0.0, // deterministic extraction, not configurable
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 90*time.Second),
			Disabled:    getEnvAsBool("LLM_DISABLED", false),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated env var into trimmed, non-empty items.
func getEnvAsList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if !c.LLM.Disabled && c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required unless LLM_DISABLED=true", ErrInvalidInput)
	}
	if c.Pipeline.MaxChunkChars <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_CHUNK_CHARS must be positive", ErrInvalidInput)
	}
	if c.Pipeline.SingleCallThreshold < c.Pipeline.MaxChunkChars {
		return NewAppError("CONFIG_ERROR", "SINGLE_CALL_THRESHOLD must be >= MAX_CHUNK_CHARS", ErrInvalidInput)
	}
	if c.Pipeline.MaxUploadBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_BYTES must be positive", ErrInvalidInput)
	}
	return nil
}
