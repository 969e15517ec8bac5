// Package money implements the fixed-point monetary amount used for balances
// and transaction amounts.
package money

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits kept for every amount.
const Scale = 2

// Amount is an exact decimal currency value. The zero value is 0.00.
type Amount struct {
	d decimal.Decimal
}

// Zero is 0.00.
var Zero = Amount{}

// Parse reads a decimal string such as "10", "10.5" or "10.50".
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("parsing amount %q: %w", s, err)
	}
	return Amount{d: d}, nil
}

// MustParse is like Parse but panics on malformed input. Intended for tests
// and constants.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// FromCents builds an amount from an integer number of minor units.
func FromCents(cents int64) Amount {
	return Amount{d: decimal.New(cents, -Scale)}
}

// FromDecimal wraps an existing decimal without rounding it.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// Decimal returns the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.d
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{d: a.d.Add(b.d)}
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{d: a.d.Sub(b.d)}
}

// Cmp compares a and b and returns -1, 0 or +1.
func (a Amount) Cmp(b Amount) int {
	return a.d.Cmp(b.d)
}

// Equal reports whether a and b are numerically equal ("1.5" == "1.50").
func (a Amount) Equal(b Amount) bool {
	return a.d.Equal(b.d)
}

func (a Amount) IsPositive() bool { return a.d.IsPositive() }
func (a Amount) IsNegative() bool { return a.d.IsNegative() }
func (a Amount) IsZero() bool     { return a.d.IsZero() }

// Round applies scale 2 with half-up rounding (ties away from zero).
func (a Amount) Round() Amount {
	return Amount{d: a.d.Round(Scale)}
}

// HasValidScale reports whether a has at most two fractional digits, i.e.
// whether it can be stored without rounding.
func (a Amount) HasValidScale() bool {
	return a.d.Equal(a.d.Round(Scale))
}

// Cents returns the amount in minor units after rounding.
func (a Amount) Cents() int64 {
	return a.d.Shift(Scale).Round(0).IntPart()
}

// String renders the amount rounded to exactly two fractional digits.
func (a Amount) String() string {
	return a.d.StringFixed(Scale)
}

// MarshalJSON encodes the amount as a string like "10.00".
func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON accepts either a JSON string ("10.00") or a JSON number (10.5).
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("decoding amount: %w", err)
	}
	a.d = d
	return nil
}

// Value implements driver.Valuer. Values are stored rounded to scale 2.
func (a Amount) Value() (driver.Value, error) {
	return a.d.Round(Scale).String(), nil
}

// Scan implements sql.Scanner.
func (a *Amount) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scanning amount: %w", err)
	}
	a.d = d
	return nil
}
