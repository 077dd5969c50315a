package models

import "github.com/shopspring/decimal"

// Currency mirrors the host currency record. Rounding is the smallest
// representable step, e.g. 0.01 for USD or 1 for JPY.
type Currency struct {
	ID       int64
	Name     string
	Rounding decimal.Decimal
}

// CompareAmounts returns -1, 0 or 1 after rounding both amounts half away
// from zero to the currency's rounding step.
func (c Currency) CompareAmounts(a, b decimal.Decimal) int {
	return c.Round(a).Cmp(c.Round(b))
}

// Round rounds an amount to the currency's rounding step.
func (c Currency) Round(amount decimal.Decimal) decimal.Decimal {
	if !c.Rounding.IsPositive() {
		return amount
	}
	return amount.Div(c.Rounding).Round(0).Mul(c.Rounding)
}
