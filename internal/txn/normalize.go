package txn

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/finwell/statement-ingest/internal/llm"
)

var (
	reDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)
	// Characters that survive amount-string cleanup.
	reAmountJunk = regexp.MustCompile(`[^0-9.\-]`)

	reRefund = regexp.MustCompile(`(?i)refund|reversal|reversed|chargeback|cash ?back|rebate|credit|deposit|thank you|automatic payment|payment received`)
	// Investment and savings activity is money moved, not money returned, so
	// refund-like wording on these lines must not flip the sign.
	reInvestment = regexp.MustCompile(`(?i)invest|rrsp|tfsa|resp\b|mutual fund|gic\b|401k|ira\b|brokerage|contribution|savings transfer`)
)

var unicodeMinus = strings.NewReplacer(
	"−", "-", // minus sign
	"‒", "-", // figure dash
	"–", "-", // en dash
	"—", "-", // em dash
	"‐", "-", // hyphen
)

// Normalize converts one raw candidate into a signed Transaction. The false
// return drops the record: unparseable amounts and missing dates are filtered
// silently rather than failing the chunk.
func Normalize(c llm.Candidate) (Transaction, bool) {
	amount, ok := parseAmount(c.Amount)
	if !ok {
		return Transaction{}, false
	}
	if !reDate.MatchString(c.OccurredOn) {
		return Transaction{}, false
	}

	switch strings.ToLower(strings.TrimSpace(c.Direction)) {
	case "credit":
		amount = -math.Abs(amount)
	case "debit":
		amount = math.Abs(amount)
	default:
		amount = inferSign(amount, c.Merchant, c.Note)
	}

	return Transaction{
		Amount:        amount,
		Currency:      strings.ToUpper(strings.TrimSpace(c.Currency)),
		OccurredOn:    c.OccurredOn,
		LineIndex:     c.LineIndex,
		Merchant:      strings.TrimSpace(c.Merchant),
		PaymentMethod: strings.TrimSpace(c.PaymentMethod),
		Note:          strings.TrimSpace(c.Note),
		Category:      strings.TrimSpace(c.Category),
	}, true
}

// inferSign applies keyword heuristics when the model omitted direction.
func inferSign(amount float64, merchant, note string) float64 {
	text := merchant + " " + note
	if reInvestment.MatchString(text) {
		return amount
	}
	if amount > 0 && reRefund.MatchString(text) {
		return -amount
	}
	return amount
}

// parseAmount accepts the model's number-or-string amount. String cleanup:
// parentheses mark a negative, unicode minus variants become ASCII, and
// everything except digits, dot, and minus is stripped.
func parseAmount(v any) (float64, bool) {
	switch a := v.(type) {
	case float64:
		return a, isFinite(a)
	case float32:
		return float64(a), isFinite(float64(a))
	case int:
		return float64(a), true
	case int64:
		return float64(a), true
	case string:
		return parseAmountString(a)
	default:
		return 0, false
	}
}

func parseAmountString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	// A letter anywhere means a reference code ("TQ242986"), not an amount.
	// Reject the record rather than strip the letters and keep the digits.
	for _, r := range s {
		if unicode.IsLetter(r) {
			return 0, false
		}
	}
	negative := strings.Contains(s, "(") && strings.Contains(s, ")")
	s = unicodeMinus.Replace(s)
	s = reAmountJunk.ReplaceAllString(s, "")
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || !isFinite(f) {
		return 0, false
	}
	if negative && f > 0 {
		f = -f
	}
	return f, true
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
