package types

import (
	"math"
	"strconv"
	"strings"
)

// LooseInt decodes a JSON number, numeric string, boolean or null into an int.
// Unparsable input becomes 0; callers decide whether 0 is acceptable.
type LooseInt int

func (i *LooseInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(unquote(data))
	switch s {
	case "", "false":
		*i = 0
		return nil
	case "true":
		*i = 1
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		*i = LooseInt(n)
		return nil
	}
	// NaN and values outside the int range fail both bounds.
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > math.MinInt && f < math.MaxInt {
		*i = LooseInt(int(f))
		return nil
	}
	*i = 0
	return nil
}

// LooseBool decodes true/false, 1/0 and their string forms.
type LooseBool bool

func (b *LooseBool) UnmarshalJSON(data []byte) error {
	switch strings.ToLower(strings.TrimSpace(unquote(data))) {
	case "true", "1", "si", "yes":
		*b = true
	default:
		*b = false
	}
	return nil
}

// LooseString decodes a JSON string or number into its textual form.
// Some clients send identifiers as numbers.
type LooseString string

func (s *LooseString) UnmarshalJSON(data []byte) error {
	*s = LooseString(strings.TrimSpace(unquote(data)))
	return nil
}

func (s LooseString) String() string { return string(s) }
