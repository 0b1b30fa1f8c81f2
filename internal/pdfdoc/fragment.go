package pdfdoc

// Fragment is one run of text at a known page position, the atomic unit
// coming out of PDF layout parsing. Coordinates are page-local with a
// top-down Y axis (the extractor flips from the PDF's bottom-up convention).
type Fragment struct {
	Text   string
	X      float64
	Y      float64
	Width  float64
	Height float64
	Page   int // 0-based
}

// LayoutResult is the outcome of one document load: every positioned word
// fragment plus the page geometry needed to flip coordinates back when
// drawing redaction boxes.
type LayoutResult struct {
	Fragments   []Fragment
	PageCount   int
	PageHeights []float64 // indexed by 0-based page
}
