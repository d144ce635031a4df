package quotepdf

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quotedesk/quotedesk/internal/pricing"
)

func sampleData(items int, discount string) Data {
	lines := make([]pricing.LineItem, 0, items)
	for i := 0; i < items; i++ {
		lines = append(lines, pricing.LineItem{
			Description: fmt.Sprintf("Item %03d", i+1),
			Quantity:    decimal.NewFromInt(2),
			Unit:        "pcs",
			UnitPrice:   decimal.NewFromInt(750),
		})
	}
	lines = pricing.Normalize(lines)
	rate := decimal.NewFromInt(16)
	disc := decimal.RequireFromString(discount)
	return Data{
		Company: Company{
			Name:    "Acme Builders",
			Address: "Plot 12, Cairo Road, Lusaka",
			Phone:   "+260 211 000000",
			Email:   "hello@example.co.zm",
			Website: "https://example.co.zm/",
		},
		Client: Client{
			Name:    "Jane Banda",
			Company: "Banda Farms",
			Email:   "jane@example.com",
		},
		QuotationNumber: "QT-2026-0001",
		QuotationDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		ValidUntil:      time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
		Project:         "Warehouse roof",
		Location:        "Kafue",
		Currency:        "ZMW",
		Items:           lines,
		Totals:          pricing.CalculateTotals(lines, rate, disc),
		Terms:           "Payment due within 14 days.",
		Notes:           "Prices exclude transport.",
	}
}

func render(t *testing.T, d Data) ([]byte, int) {
	t.Helper()
	r := NewRenderer(Options{})
	pdf, err := r.build(d)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes(), pdf.PageCount()
}

func literal(s string) []byte {
	s = strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(s)
	return []byte("(" + s + ")")
}

func TestRenderContainsQuotationContent(t *testing.T) {
	d := sampleData(1, "0")
	out, pages := render(t, d)

	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.Equal(t, 1, pages)
	for _, want := range []string{
		"Acme Builders",
		"QUOTATION",
		"QT-2026-0001",
		"01 Mar 2026",
		"31 Mar 2026",
		"Jane Banda",
		"Banda Farms",
		"Warehouse roof",
		"Kafue",
		"Item 001",
		"ZMW 750.00",
		"ZMW 1,500.00",
		"Tax (16%)",
		"ZMW 240.00",
		"ZMW 1,740.00",
		"Payment due within 14 days.",
		"Prices exclude transport.",
		"Thank you for your business!",
	} {
		assert.True(t, bytes.Contains(out, literal(want)), "missing %q", want)
	}
	assert.False(t, bytes.Contains(out, literal("Discount")))
	assert.Equal(t, 1, bytes.Count(out, literal("example.co.zm")))
}

func TestRenderShowsDiscountOnlyWhenPositive(t *testing.T) {
	out, _ := render(t, sampleData(2, "100"))
	assert.True(t, bytes.Contains(out, literal("Discount")))
	assert.True(t, bytes.Contains(out, literal("-ZMW 100.00")))
}

func TestRenderOmitsEmptyProjectBand(t *testing.T) {
	d := sampleData(1, "0")
	d.Project, d.Location = "", ""
	out, _ := render(t, d)
	assert.False(t, bytes.Contains(out, literal("Project:")))
	assert.False(t, bytes.Contains(out, literal("Location:")))
}

func TestRenderPaginatesLongTables(t *testing.T) {
	d := sampleData(90, "0")
	out, pages := render(t, d)

	require.Greater(t, pages, 1)
	assert.Equal(t, pages, bytes.Count(out, literal("example.co.zm")), "watermark on every page")
	assert.Equal(t, pages, bytes.Count(out, literal("Description")), "table header repeats")
	assert.Equal(t, 1, bytes.Count(out, literal("Thank you for your business!")))
	assert.True(t, bytes.Contains(out, literal("Item 090")))
	assert.True(t, bytes.Contains(out, literal("ZMW 156,600.00")))
}

const rotate45 = "0.70711 0.70711 -0.70711 0.70711"

func TestRenderWatermarkIsRotatedAndTranslucent(t *testing.T) {
	out, _ := render(t, sampleData(1, "0"))
	assert.True(t, bytes.Contains(out, []byte("/ca 0.080")))
	assert.True(t, bytes.Contains(out, []byte(rotate45)))
}

func TestRenderWithoutWebsiteSkipsWatermark(t *testing.T) {
	d := sampleData(1, "0")
	d.Company.Website = ""
	out, _ := render(t, d)
	require.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
	assert.False(t, bytes.Contains(out, []byte("/ExtGState")))
	assert.False(t, bytes.Contains(out, []byte(rotate45)))
	assert.False(t, bytes.Contains(out, literal("example.co.zm")))
}

func TestRenderWrapsLongDescriptions(t *testing.T) {
	const desc = "Supply and install 2kW submersible solar pump with controller and 40m cable"
	d := sampleData(1, "0")
	d.Items[0].Description = desc
	out, pages := render(t, d)
	require.Equal(t, 1, pages)

	lines := testCanvas().wrap(desc, descriptionWidth, fontBody)
	require.Greater(t, len(lines), 1)
	assert.Equal(t, desc, strings.Join(lines, " "))
	for _, line := range lines {
		assert.True(t, bytes.Contains(out, literal(line)), "missing %q", line)
	}
	assert.False(t, bytes.Contains(out, []byte("...")))
}

func TestLongDescriptionRowsStayWhole(t *testing.T) {
	d := sampleData(60, "0")
	for i := range d.Items {
		d.Items[i].Description = fmt.Sprintf("Item %03d galvanised steel roof sheeting, 0.5mm gauge, cut to length and delivered to site", i+1)
	}
	c := testCanvas()
	var rows []tableRowBlock
	for _, b := range Layout(c, d) {
		if row, ok := b.(tableRowBlock); ok {
			rows = append(rows, row)
		}
	}
	require.Len(t, rows, 60)
	for _, row := range rows {
		require.Greater(t, len(row.description), 1)
		assert.InDelta(t, rowHeight+float64(len(row.description)-1)*lineHeight, row.Height(), 0.001)
	}

	out, pages := render(t, d)
	assert.Greater(t, pages, 1)
	for _, row := range rows {
		for _, line := range row.description {
			assert.True(t, bytes.Contains(out, literal(line)), "missing %q", line)
		}
	}
}

func testCanvas() *canvas {
	return newCanvas(gofpdf.New("P", "mm", "A4", ""))
}

func TestWrapMeasuresTranslatedText(t *testing.T) {
	c := testCanvas()
	text := strings.Repeat("Entrée café crème à la façade ", 12)
	text = strings.TrimSpace(text)
	const w = 60.0

	lines := c.wrap(text, w, fontBody)
	require.Greater(t, len(lines), 1)
	assert.Equal(t, text, strings.Join(lines, " "))
	for i, line := range lines {
		assert.LessOrEqual(t, c.width(line, fontBody), w, "line %d too wide", i)
		if i+1 < len(lines) {
			next := strings.SplitN(lines[i+1], " ", 2)[0]
			assert.Greater(t, c.width(line+" "+next, fontBody), w, "line %d wrapped early", i)
		}
	}
}

func TestWrapKeepsParagraphsAndBreaksLongWords(t *testing.T) {
	c := testCanvas()
	lines := c.wrap("First line\n\nThird line", contentWidth, fontBody)
	assert.Equal(t, []string{"First line", "", "Third line"}, lines)

	word := strings.Repeat("x", 200)
	lines = c.wrap(word, 40, fontBody)
	require.Greater(t, len(lines), 1)
	assert.Equal(t, word, strings.Join(lines, ""))
	for _, line := range lines {
		assert.LessOrEqual(t, c.width(line, fontBody), 40.0)
	}
}

func TestWatermarkText(t *testing.T) {
	cases := map[string]string{
		"https://example.co.zm/": "example.co.zm",
		"HTTP://Example.com":     "Example.com",
		"www.acme.test//":        "www.acme.test",
		"  https://a.b/c/  ":     "a.b/c",
		"":                       "",
	}
	for in, want := range cases {
		assert.Equal(t, want, WatermarkText(in), in)
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "ZMW 1,500.00", FormatMoney("ZMW", decimal.NewFromInt(1500)))
	assert.Equal(t, "USD 0.50", FormatMoney("USD", decimal.RequireFromString("0.5")))
	assert.Equal(t, "1,234,567.89", FormatMoney("", decimal.RequireFromString("1234567.891")))
	assert.Equal(t, "16%", FormatRate(decimal.NewFromInt(16)))
	assert.Equal(t, "2.5", FormatQuantity(decimal.RequireFromString("2.50")))
}
