// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencySymbol prefixes every money value.
const CurrencySymbol = "£"

// FormatCurrency formats a GBP amount with two decimals and thousands
// separators, e.g. 1234.5 -> "£1,234.50".
func FormatCurrency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return CurrencySymbol + "0.00"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	cents := decimal.NewFromFloat(v).Shift(2).Round(0).IntPart()
	s := CurrencySymbol + FormatNumber(cents/100) + fmt.Sprintf(".%02d", cents%100)
	if neg && cents != 0 {
		return "-" + s
	}
	return s
}

// FormatDelta formats the signed difference b-a as currency.
func FormatDelta(a, b float64) string {
	d := b - a
	if d >= 0 {
		return "+" + FormatCurrency(d)
	}
	return "-" + FormatCurrency(-d)
}

// FormatSlope formats a trend slope as money per weekday.
func FormatSlope(slope float64) string {
	sign := "+"
	if slope < 0 {
		sign = "-"
		slope = -slope
	}
	return sign + FormatCurrency(slope) + "/day"
}

// FormatROAS formats a return-on-ad-spend ratio, e.g. 2.1 -> "2.10x".
func FormatROAS(v float64) string {
	return fmt.Sprintf("%.2fx", v)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	head := len(s) % 3
	if head > 0 {
		result.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatPercent formats a 0-1 float as a percentage string.
func FormatPercent(f float64) string {
	return fmt.Sprintf("%.1f%%", f*100)
}

// Truncate shortens s to at most n runes, marking the cut with an ellipsis.
func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
