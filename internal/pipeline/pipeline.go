// Package pipeline orchestrates one statement upload end to end: layout
// extraction, PII detection, visual redaction, text reconstruction, model
// extraction, normalization, and cross-chunk deduplication. Each request is
// processed on its own buffers; nothing survives between invocations.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/finwell/statement-ingest/constants"
	"github.com/finwell/statement-ingest/internal/common"
	"github.com/finwell/statement-ingest/internal/layout"
	"github.com/finwell/statement-ingest/internal/llm"
	"github.com/finwell/statement-ingest/internal/pii"
	"github.com/finwell/statement-ingest/internal/txn"
)

// Request is one statement upload.
type Request struct {
	PDF         []byte
	RedactWords []string // merged with the configured denylist
	PreviewOnly bool     // stop after producing the prepared text
}

// Preview describes the prepared text without exposing all of it.
type Preview struct {
	SHA256 string `json:"sha256"`
	Length int    `json:"length"`
	Lines  int    `json:"lines"`
	Head   string `json:"head"`
	Tail   string `json:"tail"`
}

// Result is the pipeline's output for one upload.
type Result struct {
	Status           constants.ParseStatus
	Transactions     []txn.Transaction
	RedactionApplied bool
	Redacted         []byte // redacted document bytes, nil when degraded
	Chunked          bool
	PageCount        int
	Preview          *Preview // set only for preview requests
}

// Processor wires the stages together. Extraction-model calls are sequential
// because chunk order feeds the later-chunk tie-break in deduplication.
type Processor struct {
	cfg       common.PipelineConfig
	extractor LayoutExtractor
	redactor  Redactor
	model     llm.StatementExtractor
	logger    *slog.Logger
}

func NewProcessor(cfg common.PipelineConfig, extractor LayoutExtractor, redactor Redactor, model llm.StatementExtractor, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		cfg:       cfg,
		extractor: extractor,
		redactor:  redactor,
		model:     model,
		logger:    logger,
	}
}

const previewSample = 400

// Process runs one upload through every stage. Model-call failures propagate
// to the caller; redaction failures degrade to extraction without redaction.
func (p *Processor) Process(ctx context.Context, req Request) (*Result, error) {
	start := time.Now()

	if len(req.PDF) == 0 {
		return nil, common.NewAppError("EMPTY_UPLOAD", "no document bytes provided", common.ErrInvalidInput)
	}
	if p.cfg.MaxUploadBytes > 0 && int64(len(req.PDF)) > p.cfg.MaxUploadBytes {
		return nil, common.NewAppError("DOCUMENT_TOO_LARGE",
			fmt.Sprintf("document exceeds the %d byte upload limit", p.cfg.MaxUploadBytes), common.ErrInvalidInput)
	}

	p.logger.Info("pipeline.parse.start",
		"bytes", len(req.PDF),
		"redact_words", len(req.RedactWords),
		"preview_only", req.PreviewOnly,
	)

	layoutRes, err := p.extractor.ExtractLayout(req.PDF)
	if err != nil {
		return nil, err
	}

	words := append(append([]string(nil), p.cfg.ExtraRedactWords...), req.RedactWords...)
	matches := pii.NewDetector(words).Detect(layoutRes.Fragments)

	redacted, applied, err := p.redactor.Apply(req.PDF, matches)
	if err != nil {
		// Redaction is best effort past the load stage too: text extraction
		// already succeeded, so keep going without the visual overlay.
		p.logger.Warn("pipeline.redact.failed", "error", err)
		redacted, applied = nil, false
	}

	doc := layout.Reconstruct(layoutRes.Fragments, matches)
	prepared := doc.String()

	p.logger.Info("pipeline.prepare.ok",
		"pages", layoutRes.PageCount,
		"fragments", len(layoutRes.Fragments),
		"pii_matches", len(matches),
		"redaction_applied", applied,
		"lines", len(doc.Lines),
		"chars", len(prepared),
	)

	res := &Result{
		Status:           constants.ParseStatusOK,
		RedactionApplied: applied,
		Redacted:         redacted,
		PageCount:        layoutRes.PageCount,
	}
	if !applied {
		res.Status = constants.ParseStatusDegraded
	}

	if req.PreviewOnly {
		res.Preview = buildPreview(prepared, len(doc.Lines))
		return res, nil
	}

	if len(prepared) <= p.cfg.SingleCallThreshold {
		transactions, err := p.extractSingle(ctx, prepared)
		if err != nil {
			return nil, err
		}
		res.Transactions = transactions
	} else {
		res.Chunked = true
		transactions, err := p.extractChunked(ctx, prepared)
		if err != nil {
			return nil, err
		}
		res.Transactions = transactions
	}

	p.logger.Info("pipeline.parse.ok",
		"status", string(res.Status),
		"transactions", len(res.Transactions),
		"chunked", res.Chunked,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// extractSingle sends the whole document in one call. Dedup is skipped on
// purpose: with no chunk overlap, collapsing same-key rows would merge
// genuinely distinct same-amount transactions.
func (p *Processor) extractSingle(ctx context.Context, prepared string) ([]txn.Transaction, error) {
	candidates, err := p.model.ExtractTransactions(ctx, prepared)
	if err != nil {
		return nil, err
	}

	out := make([]txn.Transaction, 0, len(candidates))
	for _, c := range candidates {
		if t, ok := txn.Normalize(c); ok {
			out = append(out, t)
		}
	}
	return out, nil
}

// extractChunked splits the prepared text, calls the model once per chunk in
// order, and merges the results. A failed chunk fails the request; partial
// statements are worse than no statement.
func (p *Processor) extractChunked(ctx context.Context, prepared string) ([]txn.Transaction, error) {
	chunks := layout.Chunk(prepared, p.cfg.MaxChunkChars)
	p.logger.Info("pipeline.chunk.ok", "chunks", len(chunks), "max_chars", p.cfg.MaxChunkChars)

	var records []txn.Record
	for i, chunk := range chunks {
		candidates, err := p.model.ExtractTransactions(ctx, chunk)
		if err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", i+1, len(chunks), err)
		}
		for _, c := range candidates {
			t, ok := txn.Normalize(c)
			if !ok {
				continue
			}
			records = append(records, txn.Record{
				Tx:           t,
				Chunk:        i,
				HasDirection: c.Direction != "",
			})
		}
	}

	return txn.Dedupe(records), nil
}

// buildPreview samples the prepared text without ever exposing all of it:
// head and tail together cover at most half the document.
func buildPreview(prepared string, lines int) *Preview {
	sum := sha256.Sum256([]byte(prepared))
	sample := previewSample
	if quarter := len(prepared) / 4; sample > quarter {
		sample = quarter
	}
	head := prepared[:sample]
	tail := prepared[len(prepared)-sample:]
	return &Preview{
		SHA256: hex.EncodeToString(sum[:]),
		Length: len(prepared),
		Lines:  lines,
		Head:   head,
		Tail:   tail,
	}
}
