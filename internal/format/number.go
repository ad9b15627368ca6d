// Package format renders amounts and dates for display, pinned to the en-PH
// locale and the Asia/Manila time zone.
package format

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencySymbol is the Philippine peso sign.
const CurrencySymbol = "₱"

var printer = message.NewPrinter(language.MustParse("en-PH"))

// Currency renders v as pesos with two decimals, e.g. "₱11,200.00".
// Nil, NaN and unparsable input render as "₱0".
func Currency(v any) string {
	f, ok := toFloat(v)
	if !ok {
		return CurrencySymbol + "0"
	}
	if f < 0 {
		return "-" + CurrencySymbol + printer.Sprintf("%.2f", -f)
	}
	return CurrencySymbol + printer.Sprintf("%.2f", f)
}

// Amount renders v grouped with two decimals and no symbol, for output
// that cannot carry the peso sign.
func Amount(v any) string {
	f, ok := toFloat(v)
	if !ok {
		return "0.00"
	}
	return printer.Sprintf("%.2f", f)
}

// Number renders v with grouping and at most two fraction digits.
// Nil and NaN render as "0".
func Number(v any) string {
	f, ok := toFloat(v)
	if !ok {
		return "0"
	}
	out := printer.Sprintf("%.2f", f)
	if strings.Contains(out, ".") {
		out = strings.TrimRight(out, "0")
		out = strings.TrimSuffix(out, ".")
	}
	if out == "-0" {
		return "0"
	}
	return out
}

// Percent renders a rate such as 0.12 as "12%".
func Percent(rate float64) string {
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return "0%"
	}
	return Number(rate*100) + "%"
}

func toFloat(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		f = n
	case *float64:
		if n == nil {
			return 0, false
		}
		f = *n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case *int64:
		if n == nil {
			return 0, false
		}
		f = float64(*n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(n, ",", ""))
		s = strings.TrimPrefix(s, CurrencySymbol)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case interface{ Float64() float64 }:
		f = n.Float64()
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
