package source

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Number is a numeric field that the upstream service may send as a JSON
// number, a formatted string ("£12.50", "1,200") or not at all.
// Valid is false when the value was missing, null or unparseable.
type Number struct {
	Value float64
	Valid bool
}

// Num returns a valid Number.
func Num(v float64) Number {
	return Number{Value: v, Valid: true}
}

// Or returns the value, or def when absent.
func (n Number) Or(def float64) float64 {
	if !n.Valid {
		return def
	}
	return n.Value
}

// UnmarshalJSON never fails on well-formed JSON: anything that does not
// read as a number becomes an absent value.
func (n *Number) UnmarshalJSON(raw []byte) error {
	*n = parseNumber(raw)
	return nil
}

// MarshalJSON writes null for absent values.
func (n Number) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Value)
}

func parseNumber(raw json.RawMessage) Number {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Number{}
	}

	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return finite(f)
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ParseAmount(s)
	}

	return Number{}
}

var amountReplacer = strings.NewReplacer("£", "", "Â", "", "$", "", "€", "", ",", "", " ", "")

// ParseAmount reads a spreadsheet-style amount such as "£1,250.00".
func ParseAmount(s string) Number {
	s = amountReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return Number{}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Number{}
	}
	return finite(v)
}

func finite(v float64) Number {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Number{}
	}
	return Num(v)
}
