package invoice

import (
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// ParseNumber converts user-entered text to a number. Blank, non-numeric
// and non-finite input yields 0.
func ParseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

// ParseID converts user-entered text to an optional catalog reference.
// Blank, non-numeric and zero input yields nil.
func ParseID(s string) *int64 {
	n := int64(math.Trunc(ParseNumber(s)))
	if n == 0 {
		return nil
	}
	return &n
}

// DateOnly returns the YYYY-MM-DD part of a date or timestamp string
// without interpreting it in any time zone.
func DateOnly(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "T "); i >= 0 {
		s = s[:i]
	}
	return s
}

// FormatNumber renders n without a trailing ".0" or exponent for whole values.
func FormatNumber(n float64) string {
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// number coerces a JSON value the way a loosely typed form value would be.
func number(v gjson.Result) float64 {
	switch v.Type {
	case gjson.Number:
		return finite(v.Float())
	case gjson.String:
		return ParseNumber(v.Str)
	case gjson.True:
		return 1
	default:
		return 0
	}
}

func integer(v gjson.Result) int64 {
	return int64(math.Trunc(number(v)))
}

func text(v gjson.Result) string {
	switch v.Type {
	case gjson.String:
		return v.Str
	case gjson.Number:
		return v.Raw
	case gjson.True, gjson.False:
		return v.Raw
	default:
		return ""
	}
}
