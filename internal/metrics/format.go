package metrics

import (
	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const maxFractionDigits = 2

// Formatter renders prices and percentages for one locale.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter returns a Formatter for the given locale.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// DefaultFormatter formats for US English.
func DefaultFormatter() *Formatter {
	return NewFormatter(language.AmericanEnglish)
}

// FormatPrice renders v with grouping and at most two fraction digits.
func (f *Formatter) FormatPrice(v decimal.Decimal) string {
	return f.printer.Sprint(number.Decimal(v.InexactFloat64(), number.MaxFractionDigits(maxFractionDigits)))
}

// FormatPercentage renders a raw fraction as a percentage, e.g. 0.0909 -> "9.09%".
func (f *Formatter) FormatPercentage(v decimal.Decimal) string {
	return f.printer.Sprint(number.Percent(v.InexactFloat64(), number.MaxFractionDigits(maxFractionDigits)))
}

// FormatVolume renders a share count with thousands separators.
func FormatVolume(v int64) string {
	return humanize.Comma(v)
}
