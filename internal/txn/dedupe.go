package txn

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Record tags a normalized transaction with its originating chunk and
// whether the model stated an explicit direction for it.
type Record struct {
	Tx           Transaction
	Chunk        int
	HasDirection bool
}

// Dedupe collapses candidates that represent the same statement line into
// one survivor per group. Only called in multi-chunk mode; a single-call
// extraction never sees duplicate reports of one line.
func Dedupe(records []Record) []Transaction {
	index := make(map[string]int)
	var survivors []Record
	var order []string

	for _, rec := range records {
		key := groupKey(rec.Tx)
		if i, seen := index[key]; seen {
			survivors[i] = resolve(survivors[i], rec)
			continue
		}
		index[key] = len(survivors)
		survivors = append(survivors, rec)
		order = append(order, key)
	}

	out := make([]Transaction, 0, len(survivors))
	for _, key := range order {
		out = append(out, survivors[index[key]].Tx)
	}
	return out
}

// groupKey identifies one logical statement line. Amount enters as absolute
// integer cents via decimal arithmetic, so 12.30 and -12.3 from different
// chunks land in the same group.
func groupKey(t Transaction) string {
	line := "N"
	if t.LineIndex > 0 {
		line = strconv.Itoa(t.LineIndex)
	}

	date := t.OccurredOn
	if len(date) > 10 {
		date = date[:10]
	}

	cents := decimal.NewFromFloat(t.Amount).Abs().Shift(2).Round(0).IntPart()

	return line + "|" + date + "|" + strings.ToUpper(t.Currency) + "|" +
		strconv.FormatInt(cents, 10) + "|" + identifier(t.Merchant, t.Note)
}

// identifier is the merchant (else note) uppercased, digits stripped,
// non-letter runs collapsed to single spaces, capped at 24 characters.
func identifier(merchant, note string) string {
	s := merchant
	if s == "" {
		s = note
	}
	s = strings.ToUpper(s)

	var b strings.Builder
	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r):
			if pendingSpace && b.Len() > 0 {
				b.WriteByte(' ')
			}
			pendingSpace = false
			b.WriteRune(r)
		case unicode.IsDigit(r):
			// dropped entirely
		default:
			pendingSpace = true
		}
	}

	id := b.String()
	if len(id) > 24 {
		id = id[:24]
	}
	return id
}

// resolve picks the survivor between two colliding candidates. The steps are
// ordered; the first decisive one wins.
func resolve(existing, incoming Record) Record {
	exRefund := refundLike(existing.Tx)
	inRefund := refundLike(incoming.Tx)

	// 1. Exactly one refund-like: prefer it, coercing its sign negative.
	if exRefund != inRefund {
		winner := existing
		if inRefund {
			winner = incoming
		}
		winner.Tx.Amount = -math.Abs(winner.Tx.Amount)
		return winner
	}

	// 2. Exactly one carries an explicit direction.
	if existing.HasDirection != incoming.HasDirection {
		if incoming.HasDirection {
			return incoming
		}
		return existing
	}

	// 3. Signs differ: refund-likeness implies negative, otherwise positive.
	exNeg := existing.Tx.Amount < 0
	inNeg := incoming.Tx.Amount < 0
	if exNeg != inNeg {
		preferNegative := exRefund // both sides agree on refund-likeness here
		if preferNegative == exNeg {
			return existing
		}
		return incoming
	}

	// 4..6. Prefer populated descriptive fields.
	for _, pick := range []func(Transaction) string{
		func(t Transaction) string { return t.Merchant },
		func(t Transaction) string { return t.Note },
		func(t Transaction) string { return t.Category },
	} {
		exHas := pick(existing.Tx) != ""
		inHas := pick(incoming.Tx) != ""
		if exHas != inHas {
			if inHas {
				return incoming
			}
			return existing
		}
	}

	// 7. Later chunk wins; 8. otherwise keep the survivor.
	if incoming.Chunk > existing.Chunk {
		return incoming
	}
	return existing
}

func refundLike(t Transaction) bool {
	return reRefund.MatchString(t.Merchant + " " + t.Note)
}
