package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// RupeesToPaise converts a rupee amount expressed as a decimal into paise.
// Amounts with sub-paise precision are rejected rather than rounded so that
// client totals and gateway charges can never drift apart.
func RupeesToPaise(amount decimal.Decimal) (int64, error) {
	paise := amount.Mul(hundred)
	if !paise.IsInteger() {
		return 0, fmt.Errorf("amount %s has sub-paise precision", amount.String())
	}
	return paise.IntPart(), nil
}

// PaiseToRupees converts a paise amount into a two-decimal rupee value.
func PaiseToRupees(paise int64) decimal.Decimal {
	return decimal.NewFromInt(paise).Div(hundred)
}
