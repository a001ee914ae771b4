package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1000)
	one      = decimal.NewFromInt(1)
	cent     = decimal.NewFromFloat(0.01)
)

// FormatPrice renders a USD price with precision that depends on its
// magnitude: whole dollars from 1000, up to two decimals from 1, four
// decimals from 0.01 and eight below that.
func FormatPrice(price float64) string {
	d := decimal.NewFromFloat(price)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	var s string
	switch {
	case d.GreaterThanOrEqual(thousand):
		s = groupThousands(d.Round(0).String())
	case d.GreaterThanOrEqual(one):
		s = d.Round(2).String()
	case d.GreaterThanOrEqual(cent):
		s = d.StringFixed(4)
	default:
		s = d.StringFixed(8)
	}
	return sign + "$" + s
}

// groupThousands inserts commas in the integer part of a decimal string
func groupThousands(s string) string {
	intPart, frac, hasFrac := strings.Cut(s, ".")
	if len(intPart) <= 3 {
		return s
	}

	var b strings.Builder
	head := len(intPart) % 3
	if head > 0 {
		b.WriteString(intPart[:head])
	}
	for i := head; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}
