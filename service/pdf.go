package service

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
)

// Page geometry in points on a US Letter page (612x792).
// The first baseline sits 750pt above the bottom edge.
const (
	pdfMarginLeft    = 40.0
	pdfFirstBaseline = 792.0 - 750.0
	pdfFontSize      = 12.0
	pdfLeading       = pdfFontSize * 1.2
)

// Renderer turns lines of text into a document.
type Renderer interface {
	Render(lines []string) ([]byte, error)
}

// PDFRenderer draws text lines onto a single PDF page. It never paginates:
// lines past the bottom edge are drawn off-page and clipped by viewers.
type PDFRenderer struct {
	now      func() time.Time
	compress bool
}

// PDFOption configures the renderer.
type PDFOption func(*PDFRenderer)

// WithPDFClock pins the document creation date, making output reproducible.
func WithPDFClock(now func() time.Time) PDFOption {
	return func(r *PDFRenderer) { r.now = now }
}

// WithPDFCompression toggles content stream compression (default on).
func WithPDFCompression(on bool) PDFOption {
	return func(r *PDFRenderer) { r.compress = on }
}

func NewPDFRenderer(opts ...PDFOption) *PDFRenderer {
	r := &PDFRenderer{
		now:      time.Now,
		compress: true,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render splits every element on line breaks and draws each line at the left
// margin with a fixed leading.
func (r *PDFRenderer) Render(lines []string) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(r.compress)
	ts := r.now().UTC()
	pdf.SetCreationDate(ts)
	pdf.SetModificationDate(ts)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", pdfFontSize)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	y := pdfFirstBaseline
	for _, block := range lines {
		for _, line := range SplitLines(block) {
			pdf.Text(pdfMarginLeft, y, tr(line))
			y += pdfLeading
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// LinesPerPage is how many lines fit before the bottom edge.
func LinesPerPage() int {
	avail := 792.0 - pdfFirstBaseline
	return int(avail/pdfLeading) + 1
}

// SplitLines splits on \n, \r\n and \r.
func SplitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}
