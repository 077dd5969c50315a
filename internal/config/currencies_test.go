package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCurrencies(t *testing.T) {
	in := `
currencies:
  - id: 2
    name: USD
    rounding: "0.01"
  - id: 40
    name: CRC
    rounding: 1
  - id: 3
    name: EUR
`
	got, err := LoadCurrencies(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "USD", got[0].Name)
	assert.Equal(t, "0.01", got[0].Rounding.String())
	assert.Equal(t, "1", got[1].Rounding.String())
	assert.Equal(t, int64(3), got[2].ID)
	assert.Equal(t, "0.01", got[2].Rounding.String())
}

func TestLoadCurrencies_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing name":   "currencies:\n  - id: 2\n",
		"duplicate id":   "currencies:\n  - {id: 2, name: USD}\n  - {id: 2, name: EUR}\n",
		"bad rounding":   "currencies:\n  - {id: 2, name: USD, rounding: cents}\n",
		"zero rounding":  "currencies:\n  - {id: 2, name: USD, rounding: \"0\"}\n",
		"not yaml":       "currencies: [",
		"wrong top type": "currencies: 5\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadCurrencies(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}
