package view

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var clPrinter = message.NewPrinter(language.MustParse("es-CL"))

// FormatCLP は金額をチリ・ペソ表記（小数なし、es-CLの桁区切り）で返す。
// 例: 58990 → $58.990、負数は -$1.500。
func FormatCLP(amount decimal.Decimal) string {
	rounded := amount.Round(0)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}
	return sign + "$" + clPrinter.Sprint(number.Decimal(rounded.IntPart(), number.MaxFractionDigits(0)))
}
