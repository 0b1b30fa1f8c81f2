package pdfdoc

import (
	"bytes"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/finwell/statement-ingest/internal/common"
)

const (
	// rowTolerance groups glyphs on the same visual row despite vertical jitter.
	rowTolerance = 3.0
	// wordGapFactor of the font size is the widest gap still inside one word.
	wordGapFactor = 0.3
	// defaultPageHeight is US Letter in points, used when the MediaBox is missing.
	defaultPageHeight = 792.0
)

// Extractor loads PDF bytes and produces positioned word fragments.
// Text recovery is independent of the redaction-capable parse: this
// extractor must still succeed when the editable-page parse of the same
// bytes fails.
type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// ExtractLayout parses the document read-only, tolerating owner-encrypted
// files by attempting the empty user password. Glyph runs are merged into
// word fragments and Y is flipped to a top-down axis per page.
func (e *Extractor) ExtractLayout(data []byte) (res *LayoutResult, err error) {
	if len(data) == 0 {
		return nil, common.NewAppError("DOCUMENT_EMPTY", "no document bytes provided", common.ErrDocumentLoad)
	}

	// ledongthuc/pdf panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			e.logger.Warn("pdfdoc.extract.panic", "panic", fmt.Sprint(r))
			res = nil
			err = common.NewAppError("DOCUMENT_CORRUPTED",
				"the statement could not be read; the file appears to be corrupted", common.ErrDocumentLoad)
		}
	}()

	rd, err := pdf.NewReaderEncrypted(bytes.NewReader(data), int64(len(data)), func() string { return "" })
	if err != nil {
		return nil, classifyLoadError(err)
	}

	result := &LayoutResult{PageCount: rd.NumPage()}
	for pageNr := 1; pageNr <= rd.NumPage(); pageNr++ {
		p := rd.Page(pageNr)
		pageH := pageHeight(p)
		result.PageHeights = append(result.PageHeights, pageH)
		if p.V.IsNull() {
			continue
		}
		frags := mergeGlyphRuns(p.Content().Text, pageNr-1, pageH)
		result.Fragments = append(result.Fragments, frags...)
	}

	e.logger.Debug("pdfdoc.extract.ok",
		"pages", result.PageCount,
		"fragments", len(result.Fragments),
	)
	return result, nil
}

// classifyLoadError keeps the caller-facing message human-actionable:
// password-protected, corrupted, and unreadable are distinct situations.
func classifyLoadError(err error) error {
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "password") || strings.Contains(msg, "encrypt"):
		return common.NewAppError("DOCUMENT_PASSWORD_PROTECTED",
			"the statement is password-protected; remove the password and upload again", common.ErrDocumentLoad)
	case strings.Contains(msg, "malformed") || strings.Contains(msg, "not a pdf") || strings.Contains(msg, "invalid"):
		return common.NewAppError("DOCUMENT_CORRUPTED",
			"the statement could not be read; the file appears to be corrupted", common.ErrDocumentLoad)
	default:
		return common.NewAppError("DOCUMENT_UNREADABLE",
			fmt.Sprintf("the statement could not be read: %v", err), common.ErrDocumentLoad)
	}
}

func pageHeight(p pdf.Page) float64 {
	box := p.V.Key("MediaBox")
	if box.Len() == 4 {
		h := box.Index(3).Float64() - box.Index(1).Float64()
		if h > 0 {
			return h
		}
	}
	return defaultPageHeight
}

// mergeGlyphRuns clusters per-glyph text elements into rows by Y tolerance,
// then merges adjacent glyphs within a row into word fragments. Returned
// fragments carry top-down coordinates.
func mergeGlyphRuns(texts []pdf.Text, page int, pageH float64) []Fragment {
	kept := texts[:0:0]
	for _, t := range texts {
		if strings.TrimSpace(t.S) != "" {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	rows := groupRows(kept)

	var frags []Fragment
	for _, row := range rows {
		sort.Slice(row, func(i, j int) bool { return row[i].X < row[j].X })

		cur := newFragment(row[0], page, pageH)
		for _, t := range row[1:] {
			gap := t.X - (cur.X + cur.Width)
			limit := wordGapFactor * t.FontSize
			if limit <= 0 {
				limit = 1.0
			}
			if gap <= limit {
				cur.Text += t.S
				cur.Width = t.X + t.W - cur.X
				if t.FontSize > cur.Height {
					cur.Height = t.FontSize
				}
			} else {
				frags = append(frags, finishFragment(cur))
				cur = newFragment(t, page, pageH)
			}
		}
		frags = append(frags, finishFragment(cur))
	}
	return frags
}

func newFragment(t pdf.Text, page int, pageH float64) Fragment {
	h := t.FontSize
	if h <= 0 {
		h = 10.0
	}
	return Fragment{
		Text:   t.S,
		X:      t.X,
		Y:      pageH - t.Y - h, // flip to top-down
		Width:  t.W,
		Height: h,
		Page:   page,
	}
}

func finishFragment(f Fragment) Fragment {
	f.Text = strings.Join(strings.Fields(f.Text), " ")
	return f
}

// groupRows buckets glyphs whose Y coordinates fall within rowTolerance.
func groupRows(texts []pdf.Text) [][]pdf.Text {
	type bucket struct {
		y     float64
		texts []pdf.Text
	}
	var buckets []bucket
	for _, t := range texts {
		placed := false
		for i := range buckets {
			if math.Abs(buckets[i].y-t.Y) <= rowTolerance {
				buckets[i].texts = append(buckets[i].texts, t)
				placed = true
				break
			}
		}
		if !placed {
			buckets = append(buckets, bucket{y: t.Y, texts: []pdf.Text{t}})
		}
	}
	// Top of page first: PDF Y grows upward.
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].y > buckets[j].y })

	rows := make([][]pdf.Text, len(buckets))
	for i, b := range buckets {
		rows[i] = b.texts
	}
	return rows
}
