package quotepdf

import (
	"strings"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"
)

const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	margin       = 15.0
	contentWidth = pageWidth - 2*margin

	// footerReserve keeps the bottom of every page free for the footer.
	footerReserve = 22.0
	contentBottom = pageHeight - margin - footerReserve

	ptToMM = 25.4 / 72
)

type rgb struct{ r, g, b int }

var (
	colorText      = rgb{33, 37, 41}
	colorMuted     = rgb{108, 117, 125}
	colorRule      = rgb{206, 212, 218}
	colorHeaderBg  = rgb{33, 37, 41}
	colorWhite     = rgb{255, 255, 255}
	colorZebra     = rgb{245, 246, 248}
	colorBand      = rgb{232, 240, 250}
	colorTotalBg   = rgb{31, 78, 121}
	colorDiscount  = rgb{192, 57, 43}
	colorWatermark = rgb{150, 150, 150}
)

type font struct {
	style string
	size  float64
}

var (
	fontBody   = font{"", 9}
	fontSmall  = font{"", 8}
	fontBold   = font{"B", 9}
	fontItalic = font{"I", 9}
	fontLabel  = font{"B", 8}
	fontTitle  = font{"B", 20}
	fontDoc    = font{"B", 22}
	fontTotal  = font{"B", 11}
	fontHead   = font{"B", 11}
)

type align int

const (
	alignLeft align = iota
	alignRight
	alignCenter
)

// canvas is the drawing surface blocks paint on. It hides gofpdf state
// handling and code page translation.
type canvas struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newCanvas(pdf *gofpdf.Fpdf) *canvas {
	return &canvas{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (c *canvas) setFont(f font) {
	c.pdf.SetFont("Helvetica", f.style, f.size)
}

func (c *canvas) width(s string, f font) float64 {
	c.setFont(f)
	return c.pdf.GetStringWidth(c.tr(s))
}

// text draws s inside the horizontal span [x, x+w] with the baseline
// vertically centred in a box of height h starting at y.
func (c *canvas) text(x, y, w, h float64, s string, f font, col rgb, a align) {
	if s == "" {
		return
	}
	c.setFont(f)
	c.pdf.SetTextColor(col.r, col.g, col.b)
	s = c.tr(s)
	tx := x
	switch a {
	case alignRight:
		tx = x + w - c.pdf.GetStringWidth(s)
	case alignCenter:
		tx = x + (w-c.pdf.GetStringWidth(s))/2
	}
	baseline := y + h/2 + f.size*ptToMM*0.35
	c.pdf.Text(tx, baseline, s)
}

func (c *canvas) fill(x, y, w, h float64, col rgb) {
	c.pdf.SetFillColor(col.r, col.g, col.b)
	c.pdf.Rect(x, y, w, h, "F")
}

func (c *canvas) box(x, y, w, h float64, col rgb) {
	c.pdf.SetDrawColor(col.r, col.g, col.b)
	c.pdf.SetLineWidth(0.3)
	c.pdf.Rect(x, y, w, h, "D")
}

func (c *canvas) rule(y float64, col rgb, width float64) {
	c.pdf.SetDrawColor(col.r, col.g, col.b)
	c.pdf.SetLineWidth(width)
	c.pdf.Line(margin, y, pageWidth-margin, y)
}

// fit shortens s with an ellipsis until it fits in w.
func (c *canvas) fit(s string, w float64, f font) string {
	if c.width(s, f) <= w {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		candidate := string(runes) + "..."
		if c.width(candidate, f) <= w {
			return candidate
		}
	}
	return ""
}

// wrap splits text into lines no wider than w, honouring explicit newlines.
// Widths are measured on the code page text actually drawn, but the lines
// stay untranslated; text() translates when drawing. Spaces inside a line
// are kept as written and a word wider than w is broken between runes.
func (c *canvas) wrap(text string, w float64, f font) []string {
	var lines []string
	for _, para := range strings.Split(strings.ReplaceAll(text, "\r", ""), "\n") {
		lines = append(lines, c.wrapParagraph(para, w, f)...)
	}
	return lines
}

func (c *canvas) wrapParagraph(para string, w float64, f font) []string {
	var lines []string
	line, open := "", false
	for _, word := range strings.Split(para, " ") {
		if open {
			if candidate := line + " " + word; c.width(candidate, f) <= w {
				line = candidate
				continue
			}
			lines = append(lines, line)
		}
		for c.width(word, f) > w {
			head := c.prefix(word, w, f)
			lines = append(lines, head)
			word = word[len(head):]
		}
		line, open = word, true
	}
	return append(lines, line)
}

// prefix returns the longest leading run of s that fits in w, never less
// than one rune.
func (c *canvas) prefix(s string, w float64, f font) string {
	end := 0
	for end < len(s) {
		_, size := utf8.DecodeRuneInString(s[end:])
		if end > 0 && c.width(s[:end+size], f) > w {
			break
		}
		end += size
	}
	return s[:end]
}

// watermark paints the rotated, translucent domain across the page centre.
func (c *canvas) watermark(text string, alpha float64) {
	if text == "" {
		return
	}
	wm := font{"B", 54}
	c.setFont(wm)
	s := c.tr(text)
	for c.pdf.GetStringWidth(s) > pageHeight-2*margin && wm.size > 12 {
		wm.size -= 4
		c.setFont(wm)
	}
	cx, cy := pageWidth/2, pageHeight/2
	c.pdf.SetAlpha(alpha, "Normal")
	c.pdf.TransformBegin()
	c.pdf.TransformRotate(45, cx, cy)
	c.pdf.SetTextColor(colorWatermark.r, colorWatermark.g, colorWatermark.b)
	c.pdf.Text(cx-c.pdf.GetStringWidth(s)/2, cy+wm.size*ptToMM*0.35, s)
	c.pdf.TransformEnd()
	c.pdf.SetAlpha(1, "Normal")
}
