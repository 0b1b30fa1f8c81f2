// Package pii flags positioned fragments that carry personally identifying
// content. The detector is deliberately conservative (high recall): a stray
// numeric code redacted by mistake costs nothing, a leaked account number
// does.
package pii

import (
	"regexp"
	"strings"

	"github.com/finwell/statement-ingest/constants"
	"github.com/finwell/statement-ingest/internal/pdfdoc"
)

// Match is a fragment flagged for redaction plus the reason category.
type Match struct {
	Fragment pdfdoc.Fragment
	Kind     constants.PIIKind
}

var (
	// 8+ digits, optionally broken by single spaces or dashes.
	reAccount = regexp.MustCompile(`\d(?:[ -]?\d){7,}`)
	reEmail   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	// Separator-delimited digit groups, optional leading +; total digits checked separately.
	rePhone = regexp.MustCompile(`\+?\d{1,4}(?:[\s().\-]+\d{1,4}){2,}`)
	reCard  = regexp.MustCompile(`\d{4}[ \-]?\d{4}[ \-]?\d{4}[ \-]?\d{4}`)
	reDigit = regexp.MustCompile(`\d`)
)

var nameLabels = []string{"name:", "customer:", "holder:", "owner:"}

// Detector applies the regex pattern families plus a caller-supplied
// denylist of literal words (case-insensitive substring match).
type Detector struct {
	extraWords []string
}

func NewDetector(extraWords []string) *Detector {
	words := make([]string, 0, len(extraWords))
	for _, w := range extraWords {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, strings.ToLower(w))
		}
	}
	return &Detector{extraWords: words}
}

// Detect returns the subset of fragments considered PII, tagged with the
// first matching reason category.
func (d *Detector) Detect(frags []pdfdoc.Fragment) []Match {
	var matches []Match
	for _, f := range frags {
		if kind, ok := d.classify(f.Text); ok {
			matches = append(matches, Match{Fragment: f, Kind: kind})
		}
	}
	return matches
}

func (d *Detector) classify(text string) (constants.PIIKind, bool) {
	lower := strings.ToLower(text)

	switch {
	case reAccount.MatchString(text):
		return constants.PIIAccountNumber, true
	case reEmail.MatchString(text):
		return constants.PIIEmail, true
	case isPhone(text):
		return constants.PIIPhone, true
	case reCard.MatchString(text):
		return constants.PIICardNumber, true
	}
	for _, w := range d.extraWords {
		if strings.Contains(lower, w) {
			return constants.PIICustomWord, true
		}
	}
	for _, label := range nameLabels {
		if strings.HasPrefix(lower, label) {
			return constants.PIINameLabel, true
		}
	}
	return "", false
}

// isPhone requires the separator-delimited shape AND at least 7 digits,
// so short grouped figures like "12 345.00" do not trip it.
func isPhone(text string) bool {
	m := rePhone.FindString(text)
	if m == "" {
		return false
	}
	return len(reDigit.FindAllString(m, -1)) >= 7
}
