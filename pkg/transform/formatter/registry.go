// Package formatter maps semantic field types to display formatting. A
// Registry resolves a formatter for each field: matchers registered with a
// priority are consulted first, then the per-type table, then plain text.
package formatter

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-admingrid/pkg/model"
)

// Formatter renders value for field.
type Formatter func(value any, field model.Field) any

// Matcher selects fields a formatter should handle regardless of type.
type Matcher func(field model.Field) bool

// Layouts controls temporal output.
type Layouts struct {
	Date     string
	DateTime string
	Time     string
	Location *time.Location
}

// DefaultLayouts are used when no Layouts option is supplied.
var DefaultLayouts = Layouts{
	Date:     "2006-01-02",
	DateTime: "2006-01-02 15:04",
	Time:     "15:04",
}

type rule struct {
	name     string
	priority int
	match    Matcher
	format   Formatter
	order    int
}

// Registry resolves formatters per field.
type Registry struct {
	mu      sync.RWMutex
	byType  map[model.FieldType]Formatter
	rules   []rule
	layouts Layouts
	policy  *bluemonday.Policy
}

// Option configures a Registry.
type Option func(*Registry)

// WithLayouts overrides the temporal output layouts. Empty entries keep the
// defaults.
func WithLayouts(layouts Layouts) Option {
	return func(r *Registry) {
		if layouts.Date != "" {
			r.layouts.Date = layouts.Date
		}
		if layouts.DateTime != "" {
			r.layouts.DateTime = layouts.DateTime
		}
		if layouts.Time != "" {
			r.layouts.Time = layouts.Time
		}
		if layouts.Location != nil {
			r.layouts.Location = layouts.Location
		}
	}
}

// WithHTMLPolicy replaces the sanitiser used for html fields.
func WithHTMLPolicy(policy *bluemonday.Policy) Option {
	return func(r *Registry) {
		if policy != nil {
			r.policy = policy
		}
	}
}

// NewRegistry returns a registry with the built-in type formatters.
func NewRegistry(options ...Option) *Registry {
	r := &Registry{
		byType:  make(map[model.FieldType]Formatter),
		layouts: DefaultLayouts,
	}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	if r.policy == nil {
		r.policy = bluemonday.UGCPolicy()
	}
	r.registerBuiltins()
	return r
}

// Register sets the formatter for a field type, replacing any previous one.
func (r *Registry) Register(t model.FieldType, fn Formatter) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byType[t] = fn
}

// RegisterMatcher adds a formatter selected by match. Higher priority wins;
// ties fall back to registration order.
func (r *Registry) RegisterMatcher(name string, priority int, match Matcher, fn Formatter) {
	if match == nil || fn == nil || strings.TrimSpace(name) == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = append(r.rules, rule{
		name:     strings.TrimSpace(name),
		priority: priority,
		match:    match,
		format:   fn,
		order:    len(r.rules),
	})
	sort.SliceStable(r.rules, func(i, j int) bool {
		if r.rules[i].priority == r.rules[j].priority {
			return r.rules[i].order < r.rules[j].order
		}
		return r.rules[i].priority > r.rules[j].priority
	})
}

// Resolve returns the formatter for field.
func (r *Registry) Resolve(field model.Field) Formatter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, entry := range r.rules {
		if entry.match(field) {
			return entry.format
		}
	}
	if fn, ok := r.byType[field.Type]; ok {
		return fn
	}
	return r.byType[model.FieldTypeText]
}

// Format renders value for field.
func (r *Registry) Format(value any, field model.Field) any {
	return r.Resolve(field)(value, field)
}

func (r *Registry) registerBuiltins() {
	r.byType[model.FieldTypeText] = formatText
	r.byType[model.FieldTypeNumber] = formatNumber
	r.byType[model.FieldTypeDate] = r.temporal(func(l Layouts) string { return l.Date })
	r.byType[model.FieldTypeDateTime] = r.temporal(func(l Layouts) string { return l.DateTime })
	r.byType[model.FieldTypeTime] = r.temporal(func(l Layouts) string { return l.Time })
	r.byType[model.FieldTypeSelect] = formatSelect
	r.byType[model.FieldTypeHTML] = r.formatHTML
	r.byType[model.FieldTypeArray] = formatArray
	r.byType[model.FieldTypeFile] = passthrough
	r.byType[model.FieldTypeImage] = passthrough
}
