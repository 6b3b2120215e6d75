// Package configval converts raw configuration values into typed ones.
//
// Values reach a config store from three places: TOML decoding (int64,
// float64, bool, string), the settings command (always string) and Go code
// (int, time.Duration). Each function accepts the (value, found) pair a
// store lookup returns, so stores can write configval.Int(s.Get(key)).
package configval

import (
	"strconv"
	"strings"
	"time"
)

// String returns v when it is a string.
func String(v any, ok bool) string {
	if s, isStr := v.(string); ok && isStr {
		return s
	}
	return ""
}

// Int returns v as an int. Floats are truncated and strings parsed.
func Int(v any, ok bool) int {
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0
		}
		return i
	}
	return 0
}

// Float returns v as a float64.
func Float(v any, ok bool) float64 {
	if !ok {
		return 0
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

// Bool returns v as a bool. Strings accept the forms strconv.ParseBool does.
func Bool(v any, ok bool) bool {
	if !ok {
		return false
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		return err == nil && parsed
	}
	return false
}

// Duration returns v as a time.Duration. Strings use time.ParseDuration
// syntax and bare integers count seconds.
func Duration(v any, ok bool) time.Duration {
	if !ok {
		return 0
	}
	switch d := v.(type) {
	case time.Duration:
		return d
	case string:
		parsed, err := time.ParseDuration(strings.TrimSpace(d))
		if err != nil {
			return 0
		}
		return parsed
	case int:
		return time.Duration(d) * time.Second
	case int64:
		return time.Duration(d) * time.Second
	}
	return 0
}
