package report

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var (
	million  = decimal.NewFromInt(1_000_000)
	thousand = decimal.NewFromInt(1_000)
)

// FormatCurrency abbreviates a dollar amount for headline stats:
// $X.XM at or above one million, $Xk at or above one thousand, otherwise
// the amount itself. Thresholds apply to the rounded magnitude, so 999,950
// reads $1.0M rather than $1000k; a negative amount keeps its sign in front
// of the dollar sign.
func FormatCurrency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	d := decimal.NewFromFloat(v)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	switch {
	case d.Div(thousand).Round(0).GreaterThanOrEqual(thousand):
		return sign + "$" + d.Div(million).StringFixed(1) + "M"
	case d.Round(2).GreaterThanOrEqual(thousand):
		return sign + "$" + d.Div(thousand).StringFixed(0) + "k"
	}
	return sign + "$" + d.Round(2).String()
}

// FormatPercent rounds to a whole percent for display.
func FormatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = 0
	}
	return fmt.Sprintf("%d%%", int64(math.Round(v)))
}
