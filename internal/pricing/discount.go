// Package pricing derives discount percentages from list (MRP) and selling prices.
package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	half    = decimal.New(5, -1)
)

// Discount returns round((mrp-price)/mrp*100), with halves rounded up
// (-12.5 becomes -12). ok is false when mrp is zero, in which case callers
// keep the previous value.
func Discount(mrp, price float64) (pct float64, ok bool) {
	m := decimal.NewFromFloat(mrp)
	if m.IsZero() {
		return 0, false
	}
	p := decimal.NewFromFloat(price)
	v := m.Sub(p).Div(m).Mul(hundred).Add(half).Floor()
	return v.InexactFloat64(), true
}

// Number converts a draft field value (number or numeric string) to float64.
func Number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return 0, false
		}
		return d.InexactFloat64(), true
	default:
		return 0, false
	}
}
