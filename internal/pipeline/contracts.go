package pipeline

import (
	"github.com/finwell/statement-ingest/internal/pdfdoc"
	"github.com/finwell/statement-ingest/internal/pii"
)

// LayoutExtractor recovers positioned word fragments from raw PDF bytes.
type LayoutExtractor interface {
	ExtractLayout(data []byte) (*pdfdoc.LayoutResult, error)
}

// Redactor draws over flagged fragments. ok=false with a nil error means
// the document could not be edited and the pipeline proceeds unredacted.
type Redactor interface {
	Apply(pdfBytes []byte, matches []pii.Match) (redacted []byte, ok bool, err error)
}
