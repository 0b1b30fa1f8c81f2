package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/finwell/statement-ingest/internal/common"
	"github.com/finwell/statement-ingest/internal/export"
	"github.com/finwell/statement-ingest/internal/llm/openai"
	"github.com/finwell/statement-ingest/internal/pdfdoc"
	"github.com/finwell/statement-ingest/internal/pipeline"
	"github.com/finwell/statement-ingest/internal/redact"
)

// parse-statement runs one PDF through the pipeline from the command line.
// Output is JSON on stdout, or an XLSX workbook when -xlsx is given.
func main() {
	var (
		file    = flag.String("file", "", "path to the statement PDF (required)")
		preview = flag.Bool("preview", false, "stop after producing the prepared text")
		xlsx    = flag.String("xlsx", "", "write transactions to this XLSX file instead of stdout JSON")
		words   = flag.String("redact", "", "comma-separated extra redact words")
	)
	flag.Parse()

	_ = godotenv.Load()
	cfg := common.LoadConfig()

	level := slog.LevelWarn
	if cfg.Pipeline.DebugLogging {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if *file == "" {
		logger.Error("usage: parse-statement -file statement.pdf [-preview] [-xlsx out.xlsx] [-redact word,word]")
		os.Exit(2)
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("config invalid", "error", err)
		os.Exit(2)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		logger.Error("read file", "path", *file, "error", err)
		os.Exit(1)
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

	var redactWords []string
	for _, w := range strings.Split(*words, ",") {
		if w = strings.TrimSpace(w); w != "" {
			redactWords = append(redactWords, w)
		}
	}

	res, err := processor.Process(context.Background(), pipeline.Request{
		PDF:         data,
		RedactWords: redactWords,
		PreviewOnly: *preview,
	})
	if err != nil {
		logger.Error("parse failed", "error", err)
		os.Exit(1)
	}

	if *xlsx != "" && !*preview {
		book, err := export.NewService(logger).TransactionsXLSX(res.Transactions)
		if err != nil {
			logger.Error("export failed", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(*xlsx, book, 0o644); err != nil {
			logger.Error("write workbook", "path", *xlsx, "error", err)
			os.Exit(1)
		}
		return
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	out := map[string]any{
		"status":           res.Status,
		"transactions":     res.Transactions,
		"redactionApplied": res.RedactionApplied,
		"chunked":          res.Chunked,
		"pageCount":        res.PageCount,
	}
	if res.Preview != nil {
		out["preview"] = res.Preview
	}
	if err := enc.Encode(out); err != nil {
		logger.Error("encode output", "error", err)
		os.Exit(1)
	}
}
