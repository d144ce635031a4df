package quotepdf

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

const (
	firstPageAlpha        = 0.08
	continuationPageAlpha = 0.05
)

// Options tunes document output.
type Options struct {
	// Compress deflates page streams. Tests disable it to inspect content.
	Compress bool
}

// Renderer produces quotation PDFs. It is stateless and safe for concurrent use.
type Renderer struct {
	opts Options
}

// NewRenderer constructs a Renderer.
func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts}
}

// Render lays out d and returns the encoded PDF.
func (r *Renderer) Render(d Data) ([]byte, error) {
	pdf, err := r.build(d)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("quotepdf: output: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) build(d Data) (*gofpdf.Fpdf, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetCompression(r.opts.Compress)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("quotedesk", true)
	if d.QuotationNumber != "" {
		pdf.SetTitle("Quotation "+d.QuotationNumber, true)
	}

	c := newCanvas(pdf)
	p := &paginator{c: c, watermark: WatermarkText(d.Company.Website)}
	p.place(Layout(c, d))

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("quotepdf: render: %w", err)
	}
	return pdf, nil
}

type paginator struct {
	c         *canvas
	watermark string
	pages     int
	y         float64
}

func (p *paginator) newPage() {
	p.c.pdf.AddPage()
	p.pages++
	alpha := firstPageAlpha
	if p.pages > 1 {
		alpha = continuationPageAlpha
	}
	p.c.watermark(p.watermark, alpha)
	p.y = margin
}

func (p *paginator) place(blocks []Block) {
	p.newPage()
	for i, b := range blocks {
		if a, ok := b.(anchored); ok && a.anchored() {
			top := pageHeight - margin - b.Height()
			if p.y > top {
				p.newPage()
			}
			b.Draw(p.c, top)
			continue
		}

		need := b.Height()
		if k, ok := b.(keeper); ok && k.keepWithNext() && i+1 < len(blocks) {
			need += blocks[i+1].Height()
		}
		if p.y+need > contentBottom && p.y > margin {
			p.newPage()
			if _, isSpacer := b.(spacer); isSpacer {
				continue
			}
			if cont, ok := b.(continued); ok {
				h := cont.continuationHeader()
				h.Draw(p.c, p.y)
				p.y += h.Height()
			}
		}
		b.Draw(p.c, p.y)
		p.y += b.Height()
	}
}
