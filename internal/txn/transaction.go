// Package txn owns the post-extraction life of a transaction candidate:
// amount parsing, sign inference, and cross-chunk deduplication. Sign
// convention throughout: debits (money leaving the account) are positive,
// credits are negative.
package txn

// Transaction is the pipeline's unit of output. It is not persisted here;
// ownership transfers to the caller with the returned list.
type Transaction struct {
	Amount        float64 `json:"amount"`
	Currency      string  `json:"currency"`
	OccurredOn    string  `json:"occurredOn"`
	LineIndex     int     `json:"lineIndex,omitempty"`
	Merchant      string  `json:"merchant,omitempty"`
	PaymentMethod string  `json:"paymentMethod,omitempty"`
	Note          string  `json:"note,omitempty"`
	Category      string  `json:"category,omitempty"`
}
