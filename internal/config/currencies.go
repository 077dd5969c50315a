package config

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/akylbek/payment-system/tilopay-connector/internal/models"
)

// currencyFile is the seed format for the currency table:
//
//	currencies:
//	  - id: 2
//	    name: USD
//	    rounding: "0.01"
type currencyFile struct {
	Currencies []struct {
		ID       int64  `yaml:"id"`
		Name     string `yaml:"name"`
		Rounding string `yaml:"rounding"`
	} `yaml:"currencies"`
}

// LoadCurrencies reads currency reference data. Rounding defaults to 0.01.
func LoadCurrencies(r io.Reader) ([]models.Currency, error) {
	var file currencyFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decode currencies: %w", err)
	}

	seen := make(map[int64]bool, len(file.Currencies))
	out := make([]models.Currency, 0, len(file.Currencies))
	for i, c := range file.Currencies {
		if c.ID <= 0 || c.Name == "" {
			return nil, fmt.Errorf("currency #%d: id and name are required", i+1)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("currency #%d: duplicate id %d", i+1, c.ID)
		}
		seen[c.ID] = true

		rounding := decimal.RequireFromString("0.01")
		if c.Rounding != "" {
			var err error
			if rounding, err = decimal.NewFromString(c.Rounding); err != nil || !rounding.IsPositive() {
				return nil, fmt.Errorf("currency %s: invalid rounding %q", c.Name, c.Rounding)
			}
		}
		out = append(out, models.Currency{ID: c.ID, Name: c.Name, Rounding: rounding})
	}
	return out, nil
}
