package quotepdf

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const dateLayout = "02 Jan 2006"

var printer = message.NewPrinter(language.English)

// FormatMoney renders an amount as "ZMW 1,500.00".
func FormatMoney(currency string, amount decimal.Decimal) string {
	value := printer.Sprintf("%.2f", amount.Round(2).InexactFloat64())
	if currency == "" {
		return value
	}
	return currency + " " + value
}

// FormatQuantity drops insignificant trailing zeros: 2, 2.5, 0.75.
func FormatQuantity(q decimal.Decimal) string {
	return q.String()
}

// FormatDate renders dates the way they appear on the document.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// FormatRate renders a tax rate without trailing zeros, e.g. "16%" or "7.5%".
func FormatRate(rate decimal.Decimal) string {
	return rate.String() + "%"
}

// WatermarkText strips the protocol and trailing slash from a website URL.
func WatermarkText(website string) string {
	text := strings.TrimSpace(website)
	for _, scheme := range []string{"https://", "http://"} {
		if len(text) >= len(scheme) && strings.EqualFold(text[:len(scheme)], scheme) {
			text = text[len(scheme):]
			break
		}
	}
	return strings.TrimRight(text, "/")
}
