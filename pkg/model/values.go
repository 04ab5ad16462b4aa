package model

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// TimeLayouts are tried in order when a temporal value arrives as a string.
var TimeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"15:04:05",
	"15:04",
}

// ParseTime coerces v into a time. Strings are tried against TimeLayouts
// and read as UTC when they carry no offset. Integers are unix seconds.
func ParseTime(v any) (time.Time, bool) {
	return ParseTimeIn(v, time.UTC)
}

// ParseTimeIn is ParseTime with offset-less strings read in loc.
func ParseTimeIn(v any, loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.UTC
	}
	switch value := v.(type) {
	case time.Time:
		return value, !value.IsZero()
	case *time.Time:
		if value == nil {
			return time.Time{}, false
		}
		return *value, !value.IsZero()
	case string:
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return time.Time{}, false
		}
		for _, layout := range TimeLayouts {
			if t, err := time.ParseInLocation(layout, trimmed, loc); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	case []byte:
		return ParseTimeIn(string(value), loc)
	case int64:
		return time.Unix(value, 0).UTC(), true
	case int:
		return time.Unix(int64(value), 0).UTC(), true
	default:
		return time.Time{}, false
	}
}

// ParseNumber coerces v into a float64.
func ParseNumber(v any) (float64, bool) {
	switch value := v.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int8:
		return float64(value), true
	case int16:
		return float64(value), true
	case int32:
		return float64(value), true
	case int64:
		return float64(value), true
	case uint:
		return float64(value), true
	case uint8:
		return float64(value), true
	case uint16:
		return float64(value), true
	case uint32:
		return float64(value), true
	case uint64:
		return float64(value), true
	case json.Number:
		f, err := value.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		return f, err == nil
	case []byte:
		return ParseNumber(string(value))
	default:
		return 0, false
	}
}
