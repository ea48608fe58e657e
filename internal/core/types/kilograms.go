// Package types provides the numeric and loosely-typed values shared by the API.
package types

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Kilograms is a fixed-point weight with gram resolution (scale = 1e3).
//
// Sums and differences are exact, so the balance identity
// remaining = incoming - overOrder - quality - surplus - scrap never drifts.
type Kilograms int64

const KilogramScale int64 = 1_000

// NewKilograms converts a float64 weight, rounding to the nearest gram.
func NewKilograms(v float64) Kilograms {
	return fromDecimal(decimal.NewFromFloat(v))
}

// ParseKilograms parses a weight leniently. Comma is accepted as decimal
// separator. Empty or unparsable input yields 0 and never fails.
func ParseKilograms(s string) Kilograms {
	s = strings.TrimSpace(strings.Replace(s, ",", ".", 1))
	if s == "" {
		return 0
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return fromDecimal(d)
}

func fromDecimal(d decimal.Decimal) Kilograms {
	return Kilograms(d.Shift(3).Round(0).IntPart())
}

func (k Kilograms) decimal() decimal.Decimal {
	return decimal.New(int64(k), -3)
}

func (k Kilograms) Float64() float64 { return k.decimal().InexactFloat64() }

func (k Kilograms) IsZero() bool { return k == 0 }

func (k Kilograms) IsPositive() bool { return k > 0 }

// MulFraction scales k by a ratio such as a tolerance percentage.
func (k Kilograms) MulFraction(pct float64) Kilograms {
	return fromDecimal(k.decimal().Mul(decimal.NewFromFloat(pct)))
}

// Max returns the larger of k and other.
func (k Kilograms) Max(other Kilograms) Kilograms {
	if other > k {
		return other
	}
	return k
}

// String returns a decimal string with 3 fractional digits.
func (k Kilograms) String() string {
	return k.decimal().StringFixed(3)
}

// MarshalJSON encodes Kilograms as a JSON number.
func (k Kilograms) MarshalJSON() ([]byte, error) {
	return []byte(k.decimal().String()), nil
}

// UnmarshalJSON accepts a number, a numeric string or null. Anything that does
// not parse becomes 0.
func (k *Kilograms) UnmarshalJSON(data []byte) error {
	*k = ParseKilograms(unquote(data))
	return nil
}

// Scan implements sql.Scanner for numeric, float and text columns.
func (k *Kilograms) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*k = 0
	case float64:
		*k = NewKilograms(v)
	case float32:
		*k = NewKilograms(float64(v))
	case int64:
		*k = Kilograms(v * KilogramScale)
	case int32:
		*k = Kilograms(int64(v) * KilogramScale)
	case string:
		*k = ParseKilograms(v)
	case []byte:
		*k = ParseKilograms(string(v))
	default:
		return fmt.Errorf("scan kilograms: unsupported type %T", src)
	}
	return nil
}

// Value implements driver.Valuer; weights are written as NUMERIC text.
func (k Kilograms) Value() (driver.Value, error) {
	return k.String(), nil
}

// unquote strips JSON string quotes and maps null to the empty string.
func unquote(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return ""
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return ""
		}
		return s
	}
	return string(data)
}
