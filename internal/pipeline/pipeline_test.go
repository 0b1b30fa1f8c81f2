package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/finwell/statement-ingest/constants"
	"github.com/finwell/statement-ingest/internal/common"
	"github.com/finwell/statement-ingest/internal/llm"
	"github.com/finwell/statement-ingest/internal/pdfdoc"
	"github.com/finwell/statement-ingest/internal/pii"
)

type stubExtractor struct {
	res *pdfdoc.LayoutResult
	err error
}

func (s *stubExtractor) ExtractLayout([]byte) (*pdfdoc.LayoutResult, error) {
	return s.res, s.err
}

type stubRedactor struct {
	ok  bool
	err error
}

func (s *stubRedactor) Apply(b []byte, _ []pii.Match) ([]byte, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	if !s.ok {
		return nil, false, nil
	}
	return b, true, nil
}

type stubModel struct {
	texts   []string
	perCall [][]llm.Candidate
	err     error
}

func (s *stubModel) ExtractTransactions(_ context.Context, text string) ([]llm.Candidate, error) {
	s.texts = append(s.texts, text)
	if s.err != nil {
		return nil, s.err
	}
	call := len(s.texts) - 1
	if call < len(s.perCall) {
		return s.perCall[call], nil
	}
	return nil, nil
}

func statementLayout() *pdfdoc.LayoutResult {
	// One account-number row and one transaction row.
	return &pdfdoc.LayoutResult{
		PageCount:   2,
		PageHeights: []float64{792, 792},
		Fragments: []pdfdoc.Fragment{
			{Text: "Account 12345678", X: 40, Y: 80, Width: 90, Height: 11, Page: 0},
			{Text: "16", X: 40, Y: 120, Width: 12, Height: 11, Page: 0},
			{Text: "Apr", X: 57, Y: 120, Width: 20, Height: 11, Page: 0},
			{Text: "ATMwithdrawal - TQ242986", X: 120, Y: 120, Width: 130, Height: 11, Page: 0},
			{Text: "880.00", X: 330, Y: 120, Width: 34, Height: 11, Page: 0},
			{Text: "1,103.38", X: 420, Y: 120, Width: 40, Height: 11, Page: 0},
		},
	}
}

func atmCandidate(merchant string) llm.Candidate {
	return llm.Candidate{
		Amount:     880.00,
		Currency:   "CAD",
		OccurredOn: "2024-04-16",
		LineIndex:  2,
		Merchant:   merchant,
	}
}

func testConfig() common.PipelineConfig {
	return common.PipelineConfig{
		MaxUploadBytes:      1 << 20,
		SingleCallThreshold: 20000,
		MaxChunkChars:       9000,
	}
}

func TestProcessSingleCall(t *testing.T) {
	model := &stubModel{perCall: [][]llm.Candidate{{atmCandidate("ATM withdrawal")}}}
	p := NewProcessor(testConfig(), &stubExtractor{res: statementLayout()}, &stubRedactor{ok: true}, model, nil)

	res, err := p.Process(context.Background(), Request{PDF: []byte("%PDF-fake")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(model.texts) != 1 {
		t.Fatalf("model called %d times, want 1", len(model.texts))
	}
	prepared := model.texts[0]
	if !strings.Contains(prepared, "[REDACTED]") {
		t.Error("account row not redacted in prepared text")
	}
	if strings.Contains(prepared, "12345678") {
		t.Error("account number leaked to the model")
	}
	if !strings.Contains(prepared, "2. 16 Apr") {
		t.Errorf("transaction row misnumbered:\n%s", prepared)
	}

	if res.Status != constants.ParseStatusOK {
		t.Errorf("status = %s, want OK", res.Status)
	}
	if res.Chunked {
		t.Error("short document must not be chunked")
	}
	if !res.RedactionApplied || res.Redacted == nil {
		t.Error("redaction should be applied")
	}
	if res.PageCount != 2 {
		t.Errorf("pageCount = %d, want 2", res.PageCount)
	}
	if len(res.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1", len(res.Transactions))
	}
	tx := res.Transactions[0]
	if tx.Amount != 880.00 || tx.Currency != "CAD" || tx.OccurredOn != "2024-04-16" {
		t.Errorf("transaction = %+v", tx)
	}
	if !strings.Contains(tx.Merchant, "ATM") || strings.Contains(tx.Merchant, "TQ242986") {
		t.Errorf("merchant = %q", tx.Merchant)
	}
}

func TestProcessPreviewSkipsModel(t *testing.T) {
	model := &stubModel{}
	p := NewProcessor(testConfig(), &stubExtractor{res: statementLayout()}, &stubRedactor{ok: true}, model, nil)

	res, err := p.Process(context.Background(), Request{PDF: []byte("%PDF-fake"), PreviewOnly: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(model.texts) != 0 {
		t.Error("preview must not call the model")
	}
	if res.Preview == nil {
		t.Fatal("preview missing")
	}
	if len(res.Preview.SHA256) != 64 {
		t.Errorf("sha256 = %q", res.Preview.SHA256)
	}
	if res.Preview.Lines != 2 || res.Preview.Length == 0 {
		t.Errorf("preview = %+v", res.Preview)
	}
	// The samples must never reconstruct the full prepared text.
	if got := len(res.Preview.Head) + len(res.Preview.Tail); got >= res.Preview.Length {
		t.Errorf("head+tail cover %d of %d chars", got, res.Preview.Length)
	}
}

func TestBuildPreviewNeverExposesFullText(t *testing.T) {
	for _, text := range []string{
		"1. tiny",
		strings.Repeat("1. short statement line\n", 4),
		strings.Repeat("2. a much longer statement body\n", 200),
	} {
		p := buildPreview(text, 1)
		if len(p.Head)+len(p.Tail) >= len(text) {
			t.Errorf("len %d: head+tail cover %d chars", len(text), len(p.Head)+len(p.Tail))
		}
		if !strings.HasPrefix(text, p.Head) || !strings.HasSuffix(text, p.Tail) {
			t.Errorf("samples are not document head/tail")
		}
		if p.Length != len(text) {
			t.Errorf("length = %d, want %d", p.Length, len(text))
		}
	}
}

func TestProcessDegradedRedaction(t *testing.T) {
	model := &stubModel{perCall: [][]llm.Candidate{{atmCandidate("ATM withdrawal")}}}
	p := NewProcessor(testConfig(), &stubExtractor{res: statementLayout()}, &stubRedactor{ok: false}, model, nil)

	res, err := p.Process(context.Background(), Request{PDF: []byte("%PDF-fake")})
	if err != nil {
		t.Fatalf("degraded redaction must not fail the parse: %v", err)
	}
	if res.Status != constants.ParseStatusDegraded {
		t.Errorf("status = %s, want %s", res.Status, constants.ParseStatusDegraded)
	}
	if res.RedactionApplied || res.Redacted != nil {
		t.Error("degraded result should not claim redaction")
	}
	if len(res.Transactions) != 1 {
		t.Errorf("got %d transactions, want 1", len(res.Transactions))
	}
	// Text-side substitution is independent of the visual overlay.
	if strings.Contains(model.texts[0], "12345678") {
		t.Error("account number leaked despite text substitution")
	}
}

func TestProcessChunkedDeduplicates(t *testing.T) {
	cfg := testConfig()
	cfg.SingleCallThreshold = 10
	cfg.MaxChunkChars = 40

	// The same line reported by two chunks, richer fields the second time.
	model := &stubModel{perCall: [][]llm.Candidate{
		{atmCandidate("")},
		{atmCandidate("ATM withdrawal")},
	}}
	// Identifier equality across the pair needs the note fallback.
	model.perCall[0][0].Note = "ATM withdrawal"

	p := NewProcessor(cfg, &stubExtractor{res: statementLayout()}, &stubRedactor{ok: true}, model, nil)

	res, err := p.Process(context.Background(), Request{PDF: []byte("%PDF-fake")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Chunked {
		t.Error("oversized document should be chunked")
	}
	if len(model.texts) < 2 {
		t.Fatalf("model called %d times, want one call per chunk", len(model.texts))
	}
	if len(res.Transactions) != 1 {
		t.Fatalf("got %d transactions, want 1 after dedup", len(res.Transactions))
	}
	if res.Transactions[0].Merchant != "ATM withdrawal" {
		t.Errorf("survivor merchant = %q", res.Transactions[0].Merchant)
	}
}

func TestProcessInputValidation(t *testing.T) {
	cfg := testConfig()
	cfg.MaxUploadBytes = 8
	p := NewProcessor(cfg, &stubExtractor{res: statementLayout()}, &stubRedactor{ok: true}, &stubModel{}, nil)

	if _, err := p.Process(context.Background(), Request{}); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("empty upload: err = %v, want ErrInvalidInput", err)
	}
	if _, err := p.Process(context.Background(), Request{PDF: []byte("way too many bytes")}); !errors.Is(err, common.ErrInvalidInput) {
		t.Errorf("oversized upload: err = %v, want ErrInvalidInput", err)
	}
}

func TestProcessModelFailurePropagates(t *testing.T) {
	modelErr := common.NewAppError("EXTRACTION_CALL_FAILED", "provider down", common.ErrExternalCall)
	p := NewProcessor(testConfig(), &stubExtractor{res: statementLayout()}, &stubRedactor{ok: true}, &stubModel{err: modelErr}, nil)

	_, err := p.Process(context.Background(), Request{PDF: []byte("%PDF-fake")})
	if !errors.Is(err, common.ErrExternalCall) {
		t.Fatalf("err = %v, want ErrExternalCall", err)
	}
}

func TestProcessExtractorFailurePropagates(t *testing.T) {
	loadErr := common.NewAppError("DOCUMENT_CORRUPTED", "bad bytes", common.ErrDocumentLoad)
	p := NewProcessor(testConfig(), &stubExtractor{err: loadErr}, &stubRedactor{ok: true}, &stubModel{}, nil)

	_, err := p.Process(context.Background(), Request{PDF: []byte("not a pdf")})
	if !errors.Is(err, common.ErrDocumentLoad) {
		t.Fatalf("err = %v, want ErrDocumentLoad", err)
	}
}
