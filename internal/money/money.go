// Package money rounds currency arithmetic to paise so float64 columns stay exact to two places.
package money

import "github.com/shopspring/decimal"

const places = 2

// Round rounds v half away from zero to two decimal places.
func Round(v float64) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Add returns a+b rounded.
func Add(a, b float64) float64 {
	return decimal.NewFromFloat(a).Add(decimal.NewFromFloat(b)).Round(places).InexactFloat64()
}

// Sub returns a-b rounded.
func Sub(a, b float64) float64 {
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).Round(places).InexactFloat64()
}

// SubFloor returns max(0, a-b) rounded.
func SubFloor(a, b float64) float64 {
	d := decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b))
	if d.IsNegative() {
		return 0
	}
	return d.Round(places).InexactFloat64()
}

// Percent returns base*pct/100 rounded.
func Percent(base, pct float64) float64 {
	return decimal.NewFromFloat(base).
		Mul(decimal.NewFromFloat(pct)).
		Div(decimal.NewFromInt(100)).
		Round(places).
		InexactFloat64()
}

// Ratio returns num/den*100 rounded to four places, or 0 when den is zero.
func Ratio(num, den float64) float64 {
	d := decimal.NewFromFloat(den)
	if d.IsZero() {
		return 0
	}
	return decimal.NewFromFloat(num).Div(d).Mul(decimal.NewFromInt(100)).Round(4).InexactFloat64()
}

// Units returns amount/nav rounded to eight places, the precision units are stored with.
func Units(amount, nav float64) float64 {
	n := decimal.NewFromFloat(nav)
	if n.IsZero() {
		return 0
	}
	return decimal.NewFromFloat(amount).Div(n).Round(8).InexactFloat64()
}

// Sum adds values and rounds once at the end.
func Sum(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.Round(places).InexactFloat64()
}
