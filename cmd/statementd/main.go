package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/finwell/statement-ingest/internal/common"
	"github.com/finwell/statement-ingest/internal/export"
	"github.com/finwell/statement-ingest/internal/llm/openai"
	"github.com/finwell/statement-ingest/internal/pdfdoc"
	"github.com/finwell/statement-ingest/internal/pipeline"
	"github.com/finwell/statement-ingest/internal/ratelimit"
	"github.com/finwell/statement-ingest/internal/redact"
	"github.com/finwell/statement-ingest/internal/server"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := common.LoadConfig()

	level := slog.LevelInfo
	if cfg.Pipeline.DebugLogging {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(2)
	}

	model := openai.NewClient(openai.Config{
		APIKey:   cfg.LLM.APIKey,
		BaseURL:  cfg.LLM.BaseURL,
		Model:    cfg.LLM.Model,
		Timeout:  cfg.LLM.Timeout,
		Disabled: cfg.LLM.Disabled,
	}, logger)

	processor := pipeline.NewProcessor(
		cfg.Pipeline,
		pdfdoc.NewExtractor(logger),
		redact.New(logger),
		model,
		logger,
	)

	srv := server.New(
		cfg.Server,
		cfg.Pipeline.MaxUploadBytes,
		processor,
		export.NewService(logger),
		ratelimit.NewMemoryStore(),
		logger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
