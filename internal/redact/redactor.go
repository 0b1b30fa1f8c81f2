// Package redact draws opaque rectangles over flagged fragments and
// re-serializes the document. It uses pdfcpu's editable page model, a
// second parser independent of the layout extractor: real-world bank PDFs
// frequently parse for text yet fail structural validation, so redaction
// capability is probed separately and the pipeline degrades to
// extraction-without-redaction instead of failing outright.
package redact

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/finwell/statement-ingest/internal/pii"
)

// boxPad widens each redaction box on every side so glyph antialiasing
// never peeks out.
const boxPad = 2.0

type Redactor struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Redactor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redactor{logger: logger}
}

// Apply returns the redacted document bytes and true on success. When the
// bytes cannot be loaded into an editable page model it returns
// (nil, false, nil): degraded, not fatal, and the caller continues with
// unredacted positional text. A non-nil error is reserved for failures
// after editing has begun.
func (r *Redactor) Apply(pdfBytes []byte, matches []pii.Match) ([]byte, bool, error) {
	if len(matches) == 0 {
		return pdfBytes, true, nil
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(pdfBytes), conf)
	if err != nil {
		r.logger.Warn("redact.degraded", "error", err)
		return nil, false, nil
	}

	byPage := make(map[int][]pii.Match)
	for _, m := range matches {
		byPage[m.Fragment.Page+1] = append(byPage[m.Fragment.Page+1], m)
	}

	for pageNr, pageMatches := range byPage {
		if pageNr < 1 || pageNr > ctx.PageCount {
			continue
		}
		if err := r.redactPage(ctx, pageNr, pageMatches); err != nil {
			return nil, false, fmt.Errorf("redact page %d: %w", pageNr, err)
		}
	}

	var out bytes.Buffer
	if err := api.WriteContext(ctx, &out); err != nil {
		return nil, false, fmt.Errorf("serialize redacted document: %w", err)
	}
	return out.Bytes(), true, nil
}

func (r *Redactor) redactPage(ctx *model.Context, pageNr int, matches []pii.Match) error {
	pageDict, _, inhAttrs, err := ctx.PageDict(pageNr, false)
	if err != nil {
		return fmt.Errorf("page dict: %w", err)
	}
	if pageDict == nil {
		return errors.New("missing page dict")
	}

	pageH := 792.0
	if inhAttrs != nil && inhAttrs.MediaBox != nil {
		pageH = inhAttrs.MediaBox.Height()
	}

	var ops bytes.Buffer
	ops.WriteString("\nq\n0 0 0 rg\n")
	for _, m := range matches {
		f := m.Fragment
		// Fragment Y is top-down; content stream coordinates are bottom-up.
		x := f.X - boxPad
		y := pageH - f.Y - f.Height - boxPad
		w := f.Width + 2*boxPad
		h := f.Height + 2*boxPad
		fmt.Fprintf(&ops, "%.2f %.2f %.2f %.2f re\n", x, y, w, h)
	}
	ops.WriteString("f\nQ\n")

	return appendPageContent(ctx, pageDict, ops.Bytes())
}

// appendPageContent decodes the page's last content stream, appends the
// drawing operators, and re-encodes in place.
func appendPageContent(ctx *model.Context, pageDict types.Dict, ops []byte) error {
	obj, found := pageDict.Find("Contents")
	if !found {
		return errors.New("page has no content stream")
	}

	var ref types.IndirectRef
	switch o := obj.(type) {
	case types.IndirectRef:
		ref = o
	case types.Array:
		if len(o) == 0 {
			return errors.New("empty Contents array")
		}
		last, ok := o[len(o)-1].(types.IndirectRef)
		if !ok {
			return errors.New("Contents array entry is not an indirect reference")
		}
		ref = last
	default:
		return fmt.Errorf("unexpected Contents type %T", obj)
	}

	entry, ok := ctx.FindTableEntry(ref.ObjectNumber.Value(), ref.GenerationNumber.Value())
	if !ok {
		return errors.New("content stream object not found")
	}
	sd, ok := entry.Object.(types.StreamDict)
	if !ok {
		return errors.New("Contents object is not a stream")
	}
	if err := sd.Decode(); err != nil {
		return fmt.Errorf("decode content stream: %w", err)
	}
	sd.Content = append(sd.Content, ops...)
	if err := sd.Encode(); err != nil {
		return fmt.Errorf("encode content stream: %w", err)
	}
	entry.Object = sd
	return nil
}
