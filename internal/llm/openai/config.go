package openai

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config for the OpenAI client.
type Config struct {
	APIKey   string        // if empty, falls back to env OPENAI_API_KEY
	BaseURL  string        // default https://api.openai.com/v1
	Model    string        // e.g., "gpt-4o-mini"
	Timeout  time.Duration // http client timeout
	Disabled bool          // policy switch: extraction calls fail fast
}

// Client calls the chat/completions endpoint with structured-output
// constraints. Temperature is pinned to zero: amount extraction is a
// transcription task, not a generation task.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 90 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}
