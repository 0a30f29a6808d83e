package utils

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencySymbol выводится перед суммой
const CurrencySymbol = "$"

var printer = message.NewPrinter(language.English)

// FormatCurrency форматирует сумму с двумя знаками и разделителями тысяч: $10,000.00
func FormatCurrency(amount decimal.Decimal) string {
	rounded := amount.Round(2)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	return sign + CurrencySymbol + printer.Sprintf("%.2f", rounded.InexactFloat64())
}
