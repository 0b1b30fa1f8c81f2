// Package server exposes the statement pipeline over HTTP. One upload
// endpoint, one health endpoint; callers persist the returned transactions
// themselves.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/finwell/statement-ingest/internal/common"
	"github.com/finwell/statement-ingest/internal/export"
	"github.com/finwell/statement-ingest/internal/pipeline"
	"github.com/finwell/statement-ingest/internal/ratelimit"
)

type Server struct {
	cfg       common.ServerConfig
	processor *pipeline.Processor
	exporter  *export.Service
	limiter   ratelimit.Store
	maxUpload int64
	logger    *slog.Logger
	http      *http.Server
}

func New(cfg common.ServerConfig, maxUpload int64, processor *pipeline.Processor, exporter *export.Service, limiter ratelimit.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:       cfg,
		processor: processor,
		exporter:  exporter,
		limiter:   limiter,
		maxUpload: maxUpload,
		logger:    logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/v1/statements/parse", s.handleParse).Methods(http.MethodPost)

	s.http = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server.listen", "addr", s.cfg.HTTPAddr)
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("server.shutdown")
	return s.http.Shutdown(shutdownCtx)
}
