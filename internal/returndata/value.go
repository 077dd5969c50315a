package returndata

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type Kind int

const (
	KindNone Kind = iota
	KindBool
	KindNumber
	KindString
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is one node of a parsed blob. Numbers keep their literal text so that
// amounts never pass through float64.
type Value struct {
	Kind  Kind
	Bool  bool
	Text  string
	Items []Value
	Map   map[string]Value
}

// Lookup returns the member stored under key when v is a mapping.
func (v Value) Lookup(key string) (Value, bool) {
	if v.Kind != KindMapping {
		return Value{}, false
	}
	m, ok := v.Map[key]
	return m, ok
}

// Truthy follows literal semantics: empty strings, zero numbers, None,
// false and empty containers are all false.
func (v Value) Truthy() bool {
	switch v.Kind {
	case KindBool:
		return v.Bool
	case KindNumber:
		d, err := decimal.NewFromString(v.Text)
		return err != nil || !d.IsZero()
	case KindString:
		return v.Text != ""
	case KindSequence:
		return len(v.Items) > 0
	case KindMapping:
		return len(v.Map) > 0
	}
	return false
}

// Scalar returns the text of a string or number.
func (v Value) Scalar() (string, bool) {
	if v.Kind == KindString || v.Kind == KindNumber {
		return v.Text, true
	}
	return "", false
}

// Limits on converted numbers. Rescaling a literal such as 1e5000000
// allocates one digit per unit of exponent.
const (
	maxExponent  = 64
	maxNumberLen = 128
)

// ErrOutOfRange is returned when a number is too large, too precise or does
// not fit the requested type.
var ErrOutOfRange = errors.New("number out of range")

func parseNumber(text string) (decimal.Decimal, error) {
	if len(text) > maxNumberLen {
		return decimal.Decimal{}, fmt.Errorf("%w: %d characters", ErrOutOfRange, len(text))
	}
	d, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Decimal{}, err
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Decimal{}, fmt.Errorf("%w: exponent %d", ErrOutOfRange, exp)
	}
	if d.NumDigits()+int(d.Exponent()) > maxExponent {
		return decimal.Decimal{}, fmt.Errorf("%w: %d digits", ErrOutOfRange, d.NumDigits())
	}
	return d, nil
}

// Decimal converts a number, or a string holding a number, to a decimal.
func (v Value) Decimal() (decimal.Decimal, error) {
	switch v.Kind {
	case KindNumber:
		return parseNumber(v.Text)
	case KindString:
		return parseNumber(strings.TrimSpace(v.Text))
	}
	return decimal.Decimal{}, fmt.Errorf("cannot convert %s to a decimal", v.Kind)
}

// Int converts a value to an integer id. Fractional numbers are truncated;
// strings must hold an integer literal. Integers outside int64 are rejected.
func (v Value) Int() (int64, error) {
	switch v.Kind {
	case KindNumber:
		d, err := parseNumber(v.Text)
		if err != nil {
			return 0, err
		}
		n := d.BigInt()
		if !n.IsInt64() {
			return 0, fmt.Errorf("%w: %s", ErrOutOfRange, v.Text)
		}
		return n.Int64(), nil
	case KindString:
		return strconv.ParseInt(strings.TrimSpace(v.Text), 10, 64)
	}
	return 0, fmt.Errorf("cannot convert %s to an integer", v.Kind)
}
