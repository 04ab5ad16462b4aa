package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/request"
)

// ApplyFunc customises how a filter value narrows a query.
type ApplyFunc func(q *Query, value string) error

// Filter is a named, request-addressable restriction.
type Filter struct {
	Name     string
	Label    string
	Field    string
	Operator Operator
	Options  []model.Option
	Default  *string
	Apply    ApplyFunc
}

// WithDefault returns a copy of f with a default value.
func (f Filter) WithDefault(value string) Filter {
	f.Default = &value
	return f
}

// Column returns the field the filter restricts.
func (f Filter) Column() string {
	if f.Field != "" {
		return f.Field
	}
	return f.Name
}

// ApplyTo narrows q with value.
func (f Filter) ApplyTo(q *Query, value string) error {
	if f.Apply != nil {
		if err := f.Apply(q, value); err != nil {
			return fmt.Errorf("query: filter %q: %w", f.Name, err)
		}
		return nil
	}

	op := f.Operator
	if op == "" {
		op = OpEq
	}
	switch op {
	case OpIn:
		parts := splitList(value)
		values := make([]any, len(parts))
		for i, part := range parts {
			values[i] = part
		}
		q.Where(f.Column(), OpIn, values)
	case OpBetween:
		lo, hi, ok := splitRange(value)
		if !ok {
			return fmt.Errorf("query: filter %q: range %q needs two bounds", f.Name, value)
		}
		q.Where(f.Column(), OpBetween, [2]any{lo, hi})
	default:
		q.Where(f.Column(), op, value)
	}
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func splitRange(value string) (string, string, bool) {
	lo, hi, ok := strings.Cut(value, "..")
	if !ok {
		lo, hi, ok = strings.Cut(value, ",")
	}
	lo, hi = strings.TrimSpace(lo), strings.TrimSpace(hi)
	return lo, hi, ok && lo != "" && hi != ""
}

// ActiveFilters returns the effective value of each filter: the request value
// when present, otherwise the configured default.
func ActiveFilters(filters []Filter, rc *request.Context) map[string]string {
	active := make(map[string]string)
	for _, filter := range filters {
		if value, ok := rc.Filter(filter.Name); ok && value != "" {
			active[filter.Name] = value
			continue
		}
		if filter.Default != nil {
			active[filter.Name] = *filter.Default
		}
	}
	return active
}
