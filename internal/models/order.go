package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Partner holds the billing fields the inline form needs.
type Partner struct {
	Name        string
	FirstName   string
	LastName    string
	Surname     string
	Street      string
	CountryCode string
	Email       string
}

// FullName joins the non-empty first name, last name and surname with single
// spaces and trims the ends. Inner padding of each part is kept. It returns
// "*" when nothing is left.
func (p Partner) FullName() string {
	parts := make([]string, 0, 3)
	for _, part := range []string{p.FirstName, p.LastName, p.Surname} {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if name := strings.TrimSpace(strings.Join(parts, " ")); name != "" {
		return name
	}
	return "*"
}

// Order is the host sale order a checkout is paying for.
type Order struct {
	Name        string
	AmountTotal decimal.Decimal
	Currency    Currency
	Partner     Partner
}
