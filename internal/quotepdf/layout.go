package quotepdf

import "strings"

// Layout turns a quotation into the ordered blocks the renderer places.
func Layout(c *canvas, d Data) []Block {
	blocks := []Block{
		titleBlock{name: d.Company.Name},
		pairBlock{
			left: contactBlock{lines: nonEmpty(d.Company.Address, d.Company.Phone, d.Company.Email, d.Company.Website)},
			right: metaPanelBlock{
				number:     d.QuotationNumber,
				issued:     FormatDate(d.QuotationDate),
				validUntil: FormatDate(d.ValidUntil),
			},
		},
		spacer(5),
		billToBlock{client: d.Client},
	}
	if d.Project != "" || d.Location != "" {
		blocks = append(blocks, spacer(4), bandBlock{project: d.Project, location: d.Location})
	}

	blocks = append(blocks, spacer(6), tableHeaderBlock{})
	for i, item := range d.Items {
		blocks = append(blocks, tableRowBlock{
			index:       i,
			item:        item,
			description: c.wrap(item.Description, descriptionWidth, fontBody),
			currency:    d.Currency,
		})
	}
	blocks = append(blocks, spacer(4), totalsBlock{totals: d.Totals, currency: d.Currency})

	blocks = append(blocks, textSection(c, "Terms & Conditions", d.Terms, fontBody)...)
	blocks = append(blocks, textSection(c, "Notes", d.Notes, fontItalic)...)

	blocks = append(blocks, footerBlock{summary: strings.Join(nonEmpty(d.Company.Name, d.Company.Phone, d.Company.Email, d.Company.Website), "  |  ")})
	return blocks
}

func textSection(c *canvas, title, body string, f font) []Block {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil
	}
	blocks := []Block{spacer(6), headingBlock{title: title}}
	for _, line := range c.wrap(body, contentWidth, f) {
		blocks = append(blocks, lineBlock{text: line, font: f})
	}
	return blocks
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
