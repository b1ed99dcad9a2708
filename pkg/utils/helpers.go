package utils

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseDuration parses a duration like "300ms", returning fallback when d is
// empty, malformed or not positive.
func ParseDuration(d string, fallback time.Duration) time.Duration {
	if d == "" {
		return fallback
	}
	duration, err := time.ParseDuration(d)
	if err != nil || duration <= 0 {
		return fallback
	}
	return duration
}

// ParseValue turns a CSV cell into an int, a finite float64 or the trimmed
// string. "nan" and "inf" cells stay strings.
func ParseValue(s string) interface{} {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return f
	}
	return s
}

// Numeric reports v as a float64 when it holds a number.
func Numeric(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case float64:
		return val, true
	case float32:
		return float64(val), true
	default:
		return 0, false
	}
}
