package quotepdf

import (
	"github.com/shopspring/decimal"

	"github.com/quotedesk/quotedesk/internal/pricing"
)

// Block is one unit of layout. Blocks never straddle a page break.
type Block interface {
	Height() float64
	Draw(c *canvas, y float64)
}

// keeper blocks move to the next page together with the block after them.
type keeper interface {
	keepWithNext() bool
}

// continued blocks redraw a header when they open a new page.
type continued interface {
	continuationHeader() Block
}

// anchored blocks sit at a fixed distance from the page bottom.
type anchored interface {
	anchored() bool
}

const lineHeight = 4.6

type spacer float64

func (s spacer) Height() float64       { return float64(s) }
func (s spacer) Draw(*canvas, float64) {}

type titleBlock struct {
	name string
}

func (b titleBlock) Height() float64 { return 17 }

func (b titleBlock) Draw(c *canvas, y float64) {
	c.text(margin, y, contentWidth*0.62, 12, c.fit(b.name, contentWidth*0.62, fontTitle), fontTitle, colorText, alignLeft)
	c.text(margin, y, contentWidth, 12, "QUOTATION", fontDoc, colorTotalBg, alignRight)
	c.rule(y+14, colorText, 0.6)
}

type contactBlock struct {
	lines []string
}

func (b contactBlock) Height() float64 {
	return float64(len(b.lines))*lineHeight + 2
}

func (b contactBlock) Draw(c *canvas, y float64) {
	for i, line := range b.lines {
		c.text(margin, y+float64(i)*lineHeight, 95, lineHeight, line, fontBody, colorMuted, alignLeft)
	}
}

type metaPanelBlock struct {
	number     string
	issued     string
	validUntil string
}

const (
	metaPanelWidth = 78.0
	metaRowHeight  = 6.0
)

func (b metaPanelBlock) Height() float64 { return 3*metaRowHeight + 4 }

func (b metaPanelBlock) Draw(c *canvas, y float64) {
	x := pageWidth - margin - metaPanelWidth
	c.fill(x, y, metaPanelWidth, b.Height()-2, colorZebra)
	c.box(x, y, metaPanelWidth, b.Height()-2, colorRule)
	rows := [][2]string{
		{"Quotation No.", b.number},
		{"Issue Date", b.issued},
		{"Valid Until", b.validUntil},
	}
	for i, row := range rows {
		ry := y + 1 + float64(i)*metaRowHeight
		c.text(x+3, ry, 30, metaRowHeight, row[0], fontLabel, colorMuted, alignLeft)
		c.text(x+3, ry, metaPanelWidth-6, metaRowHeight, row[1], fontBold, colorText, alignRight)
	}
}

// pairBlock draws two blocks side by side starting at the same y.
type pairBlock struct {
	left, right Block
}

func (b pairBlock) Height() float64 {
	if h := b.right.Height(); h > b.left.Height() {
		return h
	}
	return b.left.Height()
}

func (b pairBlock) Draw(c *canvas, y float64) {
	b.left.Draw(c, y)
	b.right.Draw(c, y)
}

type billToBlock struct {
	client Client
}

func (b billToBlock) lines() []string {
	var out []string
	for _, v := range []string{b.client.Company, b.client.Address, b.client.Email, b.client.Phone} {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (b billToBlock) Height() float64 {
	return 5 + lineHeight + float64(len(b.lines()))*lineHeight
}

func (b billToBlock) Draw(c *canvas, y float64) {
	c.text(margin, y, 60, 5, "BILL TO", fontLabel, colorMuted, alignLeft)
	y += 5
	c.text(margin, y, 120, lineHeight, b.client.Name, fontBold, colorText, alignLeft)
	for i, line := range b.lines() {
		c.text(margin, y+float64(i+1)*lineHeight, 120, lineHeight, line, fontBody, colorText, alignLeft)
	}
}

type bandBlock struct {
	project  string
	location string
}

func (b bandBlock) Height() float64 { return 9 }

func (b bandBlock) Draw(c *canvas, y float64) {
	c.fill(margin, y, contentWidth, b.Height(), colorBand)
	x := margin + 3
	if b.project != "" {
		c.text(x, y, 20, b.Height(), "Project:", fontLabel, colorMuted, alignLeft)
		x += c.width("Project:", fontLabel) + 2
		c.text(x, y, 80, b.Height(), b.project, fontBold, colorText, alignLeft)
		x += c.width(b.project, fontBold) + 8
	}
	if b.location != "" {
		c.text(x, y, 20, b.Height(), "Location:", fontLabel, colorMuted, alignLeft)
		x += c.width("Location:", fontLabel) + 2
		c.text(x, y, 80, b.Height(), b.location, fontBold, colorText, alignLeft)
	}
}

type column struct {
	title string
	width float64
	align align
}

var tableColumns = []column{
	{"Description", 80, alignLeft},
	{"Qty", 18, alignRight},
	{"Unit", 22, alignCenter},
	{"Unit Price", 30, alignRight},
	{"Line Total", 30, alignRight},
}

const cellPadding = 2.0

type tableHeaderBlock struct{}

func (tableHeaderBlock) Height() float64    { return 8 }
func (tableHeaderBlock) keepWithNext() bool { return true }

func (b tableHeaderBlock) Draw(c *canvas, y float64) {
	c.fill(margin, y, contentWidth, b.Height(), colorHeaderBg)
	x := margin
	for _, col := range tableColumns {
		c.text(x+cellPadding, y, col.width-2*cellPadding, b.Height(), col.title, fontBold, colorWhite, col.align)
		x += col.width
	}
}

const rowHeight = 7.0

// descriptionWidth is the usable width of the Description cell.
var descriptionWidth = tableColumns[0].width - 2*cellPadding

// tableRowBlock is one line item. The description wraps inside its cell
// and the row grows to hold every line.
type tableRowBlock struct {
	index       int
	item        pricing.LineItem
	description []string
	currency    string
}

func (b tableRowBlock) Height() float64 {
	if len(b.description) < 2 {
		return rowHeight
	}
	return rowHeight + float64(len(b.description)-1)*lineHeight
}

func (tableRowBlock) continuationHeader() Block { return tableHeaderBlock{} }

func (b tableRowBlock) Draw(c *canvas, y float64) {
	if b.index%2 == 1 {
		c.fill(margin, y, contentWidth, b.Height(), colorZebra)
	}
	for i, line := range b.description {
		c.text(margin+cellPadding, y+float64(i)*lineHeight, descriptionWidth, rowHeight, line, fontBody, colorText, alignLeft)
	}
	cells := []string{
		FormatQuantity(b.item.Quantity),
		b.item.Unit,
		FormatMoney(b.currency, b.item.UnitPrice),
		FormatMoney(b.currency, b.item.Total),
	}
	x := margin + tableColumns[0].width
	for i, col := range tableColumns[1:] {
		inner := col.width - 2*cellPadding
		c.text(x+cellPadding, y, inner, rowHeight, c.fit(cells[i], inner, fontBody), fontBody, colorText, col.align)
		x += col.width
	}
}

type totalsBlock struct {
	totals   pricing.Totals
	currency string
}

const (
	totalsWidth     = 85.0
	totalsRowHeight = 6.0
	totalRowHeight  = 9.0
)

func (b totalsBlock) showDiscount() bool {
	return b.totals.Discount.GreaterThan(decimal.Zero)
}

func (b totalsBlock) Height() float64 {
	rows := 2.0
	if b.showDiscount() {
		rows++
	}
	return rows*totalsRowHeight + 2 + totalRowHeight
}

func (b totalsBlock) Draw(c *canvas, y float64) {
	x := pageWidth - margin - totalsWidth
	row := func(label, value string, col rgb) {
		c.text(x+cellPadding, y, 45, totalsRowHeight, label, fontBody, colorMuted, alignLeft)
		c.text(x, y, totalsWidth-cellPadding, totalsRowHeight, value, fontBold, col, alignRight)
		y += totalsRowHeight
	}
	row("Subtotal", FormatMoney(b.currency, b.totals.Subtotal), colorText)
	if b.showDiscount() {
		row("Discount", "-"+FormatMoney(b.currency, b.totals.Discount), colorDiscount)
	}
	row("Tax ("+FormatRate(b.totals.TaxRate)+")", FormatMoney(b.currency, b.totals.Tax), colorText)
	y += 2
	c.fill(x, y, totalsWidth, totalRowHeight, colorTotalBg)
	c.text(x+cellPadding, y, 40, totalRowHeight, "TOTAL", fontTotal, colorWhite, alignLeft)
	c.text(x, y, totalsWidth-cellPadding, totalRowHeight, FormatMoney(b.currency, b.totals.TotalAmount), fontTotal, colorWhite, alignRight)
}

type headingBlock struct {
	title string
}

func (headingBlock) Height() float64    { return 8 }
func (headingBlock) keepWithNext() bool { return true }

func (b headingBlock) Draw(c *canvas, y float64) {
	c.text(margin, y, contentWidth, 6, b.title, fontHead, colorText, alignLeft)
	c.rule(y+6.5, colorRule, 0.2)
}

type lineBlock struct {
	text string
	font font
}

func (lineBlock) Height() float64 { return lineHeight }

func (b lineBlock) Draw(c *canvas, y float64) {
	c.text(margin, y, contentWidth, lineHeight, b.text, b.font, colorText, alignLeft)
}

type footerBlock struct {
	summary string
}

func (footerBlock) Height() float64 { return 16 }
func (footerBlock) anchored() bool  { return true }

func (b footerBlock) Draw(c *canvas, y float64) {
	c.rule(y, colorRule, 0.3)
	c.text(margin, y+2, contentWidth, 6, "Thank you for your business!", fontBold, colorText, alignCenter)
	c.text(margin, y+8, contentWidth, 5, b.summary, fontSmall, colorMuted, alignCenter)
}
