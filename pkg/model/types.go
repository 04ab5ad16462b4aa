package model

import (
	"fmt"
	"sort"
	"strings"
)

// PathSeparator splits structural field keys into traversal segments.
const PathSeparator = "."

// Record is a single row as returned by a record source. Nested relations are
// represented as map[string]any, []any or []map[string]any values.
type Record = map[string]any

// FieldType is the semantic type driving default formatting.
type FieldType string

const (
	FieldTypeText     FieldType = "text"
	FieldTypeNumber   FieldType = "number"
	FieldTypeDate     FieldType = "date"
	FieldTypeDateTime FieldType = "datetime"
	FieldTypeTime     FieldType = "time"
	FieldTypeSelect   FieldType = "select"
	FieldTypeHTML     FieldType = "html"
	FieldTypeFile     FieldType = "file"
	FieldTypeImage    FieldType = "image"
	FieldTypeArray    FieldType = "array"
)

var knownFieldTypes = map[FieldType]struct{}{
	FieldTypeText:     {},
	FieldTypeNumber:   {},
	FieldTypeDate:     {},
	FieldTypeDateTime: {},
	FieldTypeTime:     {},
	FieldTypeSelect:   {},
	FieldTypeHTML:     {},
	FieldTypeFile:     {},
	FieldTypeImage:    {},
	FieldTypeArray:    {},
}

// Valid reports whether t is one of the declared field types.
func (t FieldType) Valid() bool {
	_, ok := knownFieldTypes[t]
	return ok
}

// Temporal reports whether values of this type carry a date and/or time.
func (t FieldType) Temporal() bool {
	return t == FieldTypeDate || t == FieldTypeDateTime || t == FieldTypeTime
}

// ParseFieldType normalises raw into a FieldType. A few common aliases coming
// from schema documents are accepted ("string", "integer", "date-time", "enum").
func ParseFieldType(raw string) (FieldType, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch normalized {
	case "", "string":
		return FieldTypeText, nil
	case "integer", "float", "decimal":
		return FieldTypeNumber, nil
	case "date-time", "timestamp":
		return FieldTypeDateTime, nil
	case "enum":
		return FieldTypeSelect, nil
	}
	t := FieldType(normalized)
	if !t.Valid() {
		return "", fmt.Errorf("model: unknown field type %q", raw)
	}
	return t, nil
}

// Option is one entry of a select-like field's value→label list.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Truncation shortens string values to Length runes, appending Suffix when
// anything was cut.
type Truncation struct {
	Length int    `json:"length" yaml:"length"`
	Suffix string `json:"suffix,omitempty" yaml:"suffix"`
}

// FormatterFunc computes a display value from the untransformed row.
type FormatterFunc func(raw Record) any

// Field describes one column of a widget.
type Field struct {
	Key       string        `json:"key"`
	Label     string        `json:"label"`
	Type      FieldType     `json:"type"`
	Format    string        `json:"format,omitempty"`
	Options   []Option      `json:"options,omitempty"`
	Sortable  bool          `json:"sortable"`
	SortField string        `json:"sortField,omitempty"`
	Hidden    bool          `json:"hidden,omitempty"`
	Truncate  *Truncation   `json:"truncate,omitempty"`
	Computed  bool          `json:"computed,omitempty"`
	Formatter FormatterFunc `json:"-"`
}

// IsPath reports whether the key denotes a structural path.
func (f Field) IsPath() bool {
	return strings.Contains(f.Key, PathSeparator)
}

// Path returns the traversal segments of the key.
func (f Field) Path() []string {
	return strings.Split(f.Key, PathSeparator)
}

// HasFormatter reports whether a custom formatter is attached.
func (f Field) HasFormatter() bool {
	return f.Formatter != nil
}

// SortColumn resolves the sort alias, falling back to the key itself.
func (f Field) SortColumn() string {
	if alias := strings.TrimSpace(f.SortField); alias != "" {
		return alias
	}
	return f.Key
}

// OptionLabel looks up the label for value. Values are compared by their
// string form so numeric ids stored as int64 still match "3".
func (f Field) OptionLabel(value any) (string, bool) {
	if len(f.Options) == 0 || value == nil {
		return "", false
	}
	needle := fmt.Sprint(value)
	for _, opt := range f.Options {
		if opt.Value == needle {
			return opt.Label, true
		}
	}
	return "", false
}

// OptionsFromMap converts a value→label map into a sorted option list.
func OptionsFromMap(values map[string]string) []Option {
	if len(values) == 0 {
		return nil
	}
	out := make([]Option, 0, len(values))
	for value, label := range values {
		out = append(out, Option{Value: value, Label: label})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}
