package openai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/finwell/statement-ingest/internal/common"
	"github.com/finwell/statement-ingest/internal/llm"
)

// ExtractTransactions implements llm.StatementExtractor using text-only
// chat/completions. The response is validated against the transactions
// schema before any field is trusted.
func (c *Client) ExtractTransactions(ctx context.Context, preparedText string) ([]llm.Candidate, error) {
	if c.cfg.Disabled {
		return nil, common.NewAppError("LLM_DISABLED",
			"transaction extraction is disabled by configuration", common.ErrPolicyDisabled)
	}

	rid := uuid.New().String()
	start := time.Now()

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"text_len", len(preparedText),
	)

	schema := llm.BuildTransactionsJSONSchema()
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     0,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": llm.BuildSystemPrompt()},
			{"role": "user", "content": llm.BuildUserPrompt(preparedText) + "\n\nReturn ONLY JSON that matches the provided schema."},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}
	raw, status, httpErr := llm.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.log)
	if httpErr != nil {
		c.log.Error("llm.extract.http_error",
			"req_id", rid, "status", status, "error", httpErr,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewAppError("EXTRACTION_CALL_FAILED",
			"the extraction provider could not be reached", common.ErrExternalCall)
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		c.log.Error("llm.extract.decode_error",
			"req_id", rid, "error", err, "raw_bytes", len(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewAppError("EXTRACTION_DECODE_FAILED",
			"the extraction provider returned an unreadable envelope", common.ErrExtractionParse)
	}
	if len(cc.Choices) == 0 {
		c.log.Error("llm.extract.no_choices",
			"req_id", rid, "raw", string(raw),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewAppError("EXTRACTION_EMPTY_RESPONSE",
			"the extraction provider returned no choices", common.ErrExtractionParse)
	}
	content := []byte(strings.TrimSpace(cc.Choices[0].Message.Content))

	if err := llm.ValidateTransactionsJSON(content); err != nil {
		c.log.Error("llm.extract.schema_validation_failed",
			"req_id", rid, "error", err, "content", string(content),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewAppError("EXTRACTION_SCHEMA_MISMATCH",
			"the extraction result did not match the expected shape", common.ErrExtractionParse)
	}

	var out struct {
		Transactions []llm.Candidate `json:"transactions"`
	}
	if err := json.Unmarshal(content, &out); err != nil {
		c.log.Error("llm.extract.unmarshal_failed",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, common.NewAppError("EXTRACTION_UNMARSHAL_FAILED",
			"the extraction result could not be decoded", common.ErrExtractionParse)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"candidates", len(out.Transactions),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out.Transactions, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
