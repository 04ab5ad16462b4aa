package transform

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/query"
	"github.com/goliatone/go-admingrid/pkg/transform/formatter"
)

// PathPass resolves dotted field keys against the raw row. Lists of records
// collapse to an item count, file descriptors pass through, scalar lists are
// joined and missing paths render as an empty string.
type PathPass struct{}

func (PathPass) Name() string { return "path" }

func (PathPass) Apply(_ context.Context, rows []query.Row, catalog *model.Catalog) error {
	for _, field := range catalog.Fields() {
		if !field.IsPath() || field.Computed {
			continue
		}
		for _, row := range rows {
			value, ok := model.Lookup(row.Raw, field.Key)
			if !ok {
				row.Formatted[field.Key] = ""
				continue
			}
			row.Formatted[field.Key] = ReducePath(value)
		}
	}
	return nil
}

// ReducePath collapses a resolved path value to its display form.
func ReducePath(value any) any {
	switch v := value.(type) {
	case []map[string]any:
		if allDescriptors(v) {
			return v
		}
		return itemCount(len(v))
	case []any:
		maps := make([]map[string]any, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				maps = append(maps, m)
			}
		}
		if len(maps) == 0 {
			if joined, ok := formatter.JoinScalars(v); ok {
				return joined
			}
			return itemCount(len(v))
		}
		if len(maps) == len(v) && allDescriptors(maps) {
			return v
		}
		return itemCount(len(v))
	case []string:
		joined, _ := formatter.JoinScalars(v)
		return joined
	}
	return value
}

func itemCount(n int) string {
	if n == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", n)
}

// IsFileDescriptor reports whether m describes an uploaded file: a path or
// url plus at least one of name, mime or size.
func IsFileDescriptor(m map[string]any) bool {
	if m == nil {
		return false
	}
	_, hasPath := m["path"]
	_, hasURL := m["url"]
	if !hasPath && !hasURL {
		return false
	}
	for _, key := range []string{"name", "mime", "size"} {
		if _, ok := m[key]; ok {
			return true
		}
	}
	return false
}

func allDescriptors(items []map[string]any) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !IsFileDescriptor(item) {
			return false
		}
	}
	return true
}

// CustomPass invokes field formatters with the raw row. Computed fields run
// for every row; other fields only when the key is present.
type CustomPass struct{}

func (CustomPass) Name() string { return "custom" }

func (CustomPass) Apply(_ context.Context, rows []query.Row, catalog *model.Catalog) error {
	for _, field := range catalog.Fields() {
		if !field.HasFormatter() {
			continue
		}
		for _, row := range rows {
			if _, ok := row.Formatted[field.Key]; !ok && !field.Computed {
				continue
			}
			row.Formatted[field.Key] = field.Formatter(row.Raw)
		}
	}
	return nil
}

// TypePass formats values by field type for fields without a custom
// formatter.
type TypePass struct {
	Registry *formatter.Registry
}

func (TypePass) Name() string { return "type" }

func (p TypePass) Apply(_ context.Context, rows []query.Row, catalog *model.Catalog) error {
	registry := p.Registry
	if registry == nil {
		registry = formatter.NewRegistry()
	}
	for _, field := range catalog.Fields() {
		if field.HasFormatter() {
			continue
		}
		format := registry.Resolve(field)
		for _, row := range rows {
			value, ok := row.Formatted[field.Key]
			if !ok {
				continue
			}
			row.Formatted[field.Key] = format(value, field)
		}
	}
	return nil
}

// PostPass applies truncation to string values.
type PostPass struct{}

func (PostPass) Name() string { return "post" }

func (PostPass) Apply(_ context.Context, rows []query.Row, catalog *model.Catalog) error {
	for _, field := range catalog.Fields() {
		if field.Truncate == nil || field.Truncate.Length <= 0 {
			continue
		}
		for _, row := range rows {
			s, ok := row.Formatted[field.Key].(string)
			if !ok {
				continue
			}
			row.Formatted[field.Key] = Truncate(s, field.Truncate.Length, field.Truncate.Suffix)
		}
	}
	return nil
}

// Truncate shortens s to length runes and appends suffix when it was cut.
func Truncate(s string, length int, suffix string) string {
	if length <= 0 || utf8.RuneCountInString(s) <= length {
		return s
	}
	runes := []rune(s)
	return string(runes[:length]) + suffix
}
