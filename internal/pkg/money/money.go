// internal/pkg/money/money.go
package money

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ApplyDiscount returns amount - amount*percent/100 in minor units, rounded
// half away from zero. Percent is clamped to [0, 100].
func ApplyDiscount(amount int64, percent int) int64 {
	if percent <= 0 {
		return amount
	}
	if percent > 100 {
		percent = 100
	}
	value := decimal.NewFromInt(amount)
	off := value.Mul(decimal.NewFromInt(int64(percent))).Div(hundred)
	return value.Sub(off).Round(0).IntPart()
}

// Format renders minor units as a decimal string with two places
func Format(amount int64) string {
	return decimal.New(amount, -2).StringFixed(2)
}
