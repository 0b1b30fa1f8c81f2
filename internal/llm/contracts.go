package llm

import "context"

// Candidate is one transaction row as reported by the model, before
// normalization. Amount is left untyped because providers answer with either
// a JSON number or a formatted string ("1,234.56"); the normalizer owns the
// conversion.
type Candidate struct {
	Amount        any    `json:"amount"`
	Currency      string `json:"currency"`
	OccurredOn    string `json:"occurredOn"`
	LineIndex     int    `json:"lineIndex"`
	Direction     string `json:"direction,omitempty"`
	Merchant      string `json:"merchant,omitempty"`
	PaymentMethod string `json:"paymentMethod,omitempty"`
	Note          string `json:"note,omitempty"`
	Category      string `json:"category,omitempty"`
}

// StatementExtractor turns one prepared (numbered, redacted) text chunk into
// transaction candidates.
type StatementExtractor interface {
	ExtractTransactions(ctx context.Context, preparedText string) ([]Candidate, error)
}
