// Package layout re-linearizes positioned fragments into numbered plain-text
// lines so a downstream language model can infer table structure from a flat
// string. Column gaps become structural delimiters and every non-empty row
// gets a dense, 1-based line number. Those numbers are load-bearing: they
// stay stable across chunking, which is what lets the deduplicator tell
// "same line reported twice" apart from "two distinct same-amount rows".
package layout

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/finwell/statement-ingest/internal/pdfdoc"
	"github.com/finwell/statement-ingest/internal/pii"
)

const (
	// RowTolerance is the vertical jitter still treated as the same row.
	RowTolerance = 3.0
	// RedactedToken replaces the text of every flagged fragment.
	RedactedToken = "[REDACTED]"
	// ColumnSeparator marks a wide horizontal gap (a table column boundary).
	ColumnSeparator = "  |  "

	columnGap = 30.0
	doubleGap = 10.0
	singleGap = 2.0
)

// Line is one numbered row of the prepared document.
type Line struct {
	Number int
	Text   string
}

// Document is the numbered, whitespace-normalized, redaction-applied text
// ready for model consumption.
type Document struct {
	Lines []Line
}

// String flattens to "N. text" rows joined by newlines.
func (d *Document) String() string {
	var b strings.Builder
	for i, ln := range d.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", ln.Number, ln.Text)
	}
	return b.String()
}

type coordKey struct {
	page int
	x, y int
}

func keyFor(f pdfdoc.Fragment) coordKey {
	return coordKey{page: f.Page, x: int(math.Round(f.X)), y: int(math.Round(f.Y))}
}

// Reconstruct produces the numbered document. Fragments flagged as PII are
// substituted with RedactedToken by page + near-equal coordinates, so the
// text pipeline never depends on the visual redaction having succeeded.
func Reconstruct(frags []pdfdoc.Fragment, matches []pii.Match) *Document {
	redacted := make(map[coordKey]struct{}, len(matches))
	for _, m := range matches {
		redacted[keyFor(m.Fragment)] = struct{}{}
	}

	sorted := make([]pdfdoc.Fragment, len(frags))
	copy(sorted, frags)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		ra := math.Round(a.Y / RowTolerance)
		rb := math.Round(b.Y / RowTolerance)
		if ra != rb {
			return ra < rb
		}
		return a.X < b.X
	})

	doc := &Document{}
	var row strings.Builder
	var prev *pdfdoc.Fragment

	flush := func() {
		text := strings.TrimSpace(row.String())
		row.Reset()
		if text == "" {
			return
		}
		doc.Lines = append(doc.Lines, Line{Number: len(doc.Lines) + 1, Text: text})
	}

	for i := range sorted {
		f := sorted[i]
		text := strings.Join(strings.Fields(f.Text), " ")
		if text == "" {
			continue
		}
		if _, hit := redacted[keyFor(f)]; hit {
			text = RedactedToken
		}

		if prev != nil && (f.Page != prev.Page || math.Abs(f.Y-prev.Y) > RowTolerance) {
			flush()
			prev = nil
		}
		if prev != nil {
			row.WriteString(separator(f.X - (prev.X + prev.Width)))
		}
		row.WriteString(text)
		prev = &sorted[i]
	}
	flush()

	return doc
}

// separator maps the horizontal gap from the previous fragment's right edge
// to a structural delimiter.
func separator(gap float64) string {
	switch {
	case gap > columnGap:
		return ColumnSeparator
	case gap > doubleGap:
		return "  "
	case gap > singleGap:
		return " "
	default:
		return "" // fragment continues a word
	}
}
