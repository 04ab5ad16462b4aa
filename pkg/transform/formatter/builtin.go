package formatter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/goliatone/go-admingrid/pkg/model"
)

// ListSeparator joins scalar lists.
const ListSeparator = ", "

func passthrough(value any, _ model.Field) any { return value }

func formatText(value any, _ model.Field) any {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return fmt.Sprint(v)
	}
}

func (r *Registry) temporal(layout func(Layouts) string) Formatter {
	return func(value any, field model.Field) any {
		t, ok := model.ParseTime(value)
		if !ok {
			return ""
		}
		r.mu.RLock()
		layouts := r.layouts
		r.mu.RUnlock()
		if layouts.Location != nil {
			t = t.In(layouts.Location)
		}
		if field.Format != "" {
			return t.Format(field.Format)
		}
		return t.Format(layout(layouts))
	}
}

// formatNumber groups thousands with commas. A numeric Format sets the number
// of decimals.
func formatNumber(value any, field model.Field) any {
	if value == nil {
		return ""
	}
	n, ok := model.ParseNumber(value)
	if !ok || math.IsNaN(n) || math.IsInf(n, 0) {
		return formatText(value, field)
	}
	precision := -1
	if p, err := strconv.Atoi(field.Format); err == nil && p >= 0 {
		precision = p
	}
	raw := strconv.FormatFloat(n, 'f', precision, 64)
	sign := ""
	if strings.HasPrefix(raw, "-") {
		sign, raw = "-", raw[1:]
	}
	intPart, frac, hasFrac := strings.Cut(raw, ".")
	grouped := groupThousands(intPart)
	if hasFrac {
		return sign + grouped + "." + frac
	}
	return sign + grouped
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func formatSelect(value any, field model.Field) any {
	switch v := value.(type) {
	case nil:
		return ""
	case []any:
		labels := make([]string, 0, len(v))
		for _, item := range v {
			labels = append(labels, fmt.Sprint(formatSelect(item, field)))
		}
		return strings.Join(labels, ListSeparator)
	}
	if label, ok := field.OptionLabel(value); ok {
		return label
	}
	return value
}

func (r *Registry) formatHTML(value any, _ model.Field) any {
	s, ok := value.(string)
	if !ok {
		if value == nil {
			return ""
		}
		return value
	}
	return r.policy.Sanitize(s)
}

func formatArray(value any, _ model.Field) any {
	if joined, ok := JoinScalars(value); ok {
		return joined
	}
	return value
}

// JoinScalars joins a list of scalar values. It reports false when value is
// not a list or contains non-scalar entries.
func JoinScalars(value any) (string, bool) {
	var items []any
	switch v := value.(type) {
	case []any:
		items = v
	case []string:
		return strings.Join(v, ListSeparator), true
	default:
		return "", false
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		switch item.(type) {
		case map[string]any, []any, []map[string]any:
			return "", false
		case nil:
			continue
		}
		parts = append(parts, fmt.Sprint(item))
	}
	return strings.Join(parts, ListSeparator), true
}
