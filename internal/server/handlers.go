package server

import (
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/finwell/statement-ingest/constants"
	"github.com/finwell/statement-ingest/internal/common"
	"github.com/finwell/statement-ingest/internal/pipeline"
	"github.com/finwell/statement-ingest/internal/txn"
)

type parseResponse struct {
	Status           constants.ParseStatus `json:"status"`
	Transactions     []txn.Transaction     `json:"transactions"`
	RedactionApplied bool                  `json:"redactionApplied"`
	Chunked          bool                  `json:"chunked"`
	PageCount        int                   `json:"pageCount"`
	Preview          *pipeline.Preview     `json:"preview,omitempty"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleParse accepts a multipart upload: field "file" carries the PDF,
// optional "redact_words" is comma-separated, "preview=1" stops after the
// prepared text, and "format=xlsx" returns a workbook instead of JSON.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	allowed, err := s.limiter.Allow(r.Context(), clientIP(r), s.cfg.RateLimitPerMinute, time.Minute)
	if err != nil {
		s.logger.Error("server.ratelimit.error", "error", err)
		writeError(w, http.StatusInternalServerError, "RATE_LIMIT_ERROR", "rate limiter unavailable")
		return
	}
	if !allowed {
		writeError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many parse requests; slow down")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "DOCUMENT_TOO_LARGE", "the uploaded document exceeds the size limit")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "MISSING_FILE", "multipart field 'file' is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "DOCUMENT_TOO_LARGE", "the uploaded document exceeds the size limit")
		return
	}

	req := pipeline.Request{
		PDF:         data,
		RedactWords: splitWords(r.FormValue("redact_words")),
		PreviewOnly: r.FormValue("preview") == "1",
	}

	res, err := s.processor.Process(r.Context(), req)
	if err != nil {
		status, code, msg := mapError(err)
		s.logger.Warn("server.parse.error", "status", status, "code", code, "error", err)
		writeError(w, status, code, msg)
		return
	}

	if r.FormValue("format") == "xlsx" && !req.PreviewOnly {
		book, err := s.exporter.TransactionsXLSX(res.Transactions)
		if err != nil {
			s.logger.Error("server.export.error", "error", err)
			writeError(w, http.StatusInternalServerError, "EXPORT_FAILED", "could not build the workbook")
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="transactions.xlsx"`)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(book)
		return
	}

	resp := parseResponse{
		Status:           res.Status,
		Transactions:     res.Transactions,
		RedactionApplied: res.RedactionApplied,
		Chunked:          res.Chunked,
		PageCount:        res.PageCount,
		Preview:          res.Preview,
	}
	if resp.Transactions == nil {
		resp.Transactions = []txn.Transaction{}
	}
	writeJSON(w, http.StatusOK, resp)
}

// mapError translates the pipeline error taxonomy to HTTP semantics.
func mapError(err error) (int, string, string) {
	code := "INTERNAL"
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		code = appErr.Code
	}

	switch {
	case errors.Is(err, common.ErrInvalidInput):
		status := http.StatusBadRequest
		if code == "DOCUMENT_TOO_LARGE" {
			status = http.StatusRequestEntityTooLarge
		}
		return status, code, userMessage(appErr, "the request is invalid")
	case errors.Is(err, common.ErrDocumentLoad):
		return http.StatusUnprocessableEntity, code, userMessage(appErr, "the document could not be read")
	case errors.Is(err, common.ErrPolicyDisabled):
		return http.StatusServiceUnavailable, code, userMessage(appErr, "extraction is disabled")
	case errors.Is(err, common.ErrExternalCall), errors.Is(err, common.ErrExtractionParse):
		return http.StatusBadGateway, code, userMessage(appErr, "the extraction provider failed")
	default:
		return http.StatusInternalServerError, code, "internal error"
	}
}

func userMessage(appErr *common.AppError, fallback string) string {
	if appErr != nil && appErr.Message != "" {
		return appErr.Message
	}
	return fallback
}

func splitWords(raw string) []string {
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

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}
