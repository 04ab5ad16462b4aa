package model

import (
	"fmt"
	"strings"
)

// Catalog is an ordered, key-unique collection of fields.
type Catalog struct {
	fields  []Field
	index   map[string]int
	frozen  bool
	labeler func(string) string
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithLabeler overrides the function used to derive missing labels.
func WithLabeler(labeler func(string) string) CatalogOption {
	return func(c *Catalog) {
		if labeler != nil {
			c.labeler = labeler
		}
	}
}

// NewCatalog builds a catalog holding fields in the given order.
func NewCatalog(options ...CatalogOption) *Catalog {
	c := &Catalog{
		index:   make(map[string]int),
		labeler: DefaultLabeler,
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Add inserts field, replacing an existing field with the same key in place.
func (c *Catalog) Add(field Field) error {
	if c.frozen {
		return ErrCatalogFrozen
	}
	key := strings.TrimSpace(field.Key)
	if key == "" {
		return fmt.Errorf("model: field key is required")
	}
	field.Key = key
	if field.Type == "" {
		field.Type = FieldTypeText
	}
	if !field.Type.Valid() {
		return fmt.Errorf("model: field %q: unknown type %q", key, field.Type)
	}
	if field.Label == "" {
		field.Label = c.labeler(key)
	}
	if idx, ok := c.index[key]; ok {
		c.fields[idx] = field
		return nil
	}
	c.index[key] = len(c.fields)
	c.fields = append(c.fields, field)
	return nil
}

// Seed adds every field whose key is not yet present. Existing entries win so
// configuration made before seeding is preserved.
func (c *Catalog) Seed(fields []Field) error {
	for _, field := range fields {
		if _, exists := c.index[strings.TrimSpace(field.Key)]; exists {
			continue
		}
		if err := c.Add(field); err != nil {
			return err
		}
	}
	return nil
}

// Update applies fn to the field stored under key.
func (c *Catalog) Update(key string, fn func(*Field)) error {
	if c.frozen {
		return ErrCatalogFrozen
	}
	idx, ok := c.index[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, key)
	}
	field := c.fields[idx]
	fn(&field)
	field.Key = key
	if !field.Type.Valid() {
		return fmt.Errorf("model: field %q: unknown type %q", key, field.Type)
	}
	c.fields[idx] = field
	return nil
}

// Remove drops the field stored under key.
func (c *Catalog) Remove(key string) error {
	if c.frozen {
		return ErrCatalogFrozen
	}
	idx, ok := c.index[key]
	if !ok {
		return fmt.Errorf("%w: %q", ErrFieldNotFound, key)
	}
	c.fields = append(c.fields[:idx], c.fields[idx+1:]...)
	c.reindex()
	return nil
}

func (c *Catalog) reindex() {
	c.index = make(map[string]int, len(c.fields))
	for i, field := range c.fields {
		c.index[field.Key] = i
	}
}

// Get returns the field stored under key.
func (c *Catalog) Get(key string) (Field, bool) {
	if c == nil {
		return Field{}, false
	}
	idx, ok := c.index[key]
	if !ok {
		return Field{}, false
	}
	return c.fields[idx], true
}

// Has reports whether key is part of the catalog.
func (c *Catalog) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

// Len returns the number of fields.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.fields)
}

// Keys returns field keys in declaration order.
func (c *Catalog) Keys() []string {
	if c == nil {
		return nil
	}
	keys := make([]string, len(c.fields))
	for i, field := range c.fields {
		keys[i] = field.Key
	}
	return keys
}

// Fields returns a copy of every field in declaration order.
func (c *Catalog) Fields() []Field {
	if c == nil {
		return nil
	}
	return append([]Field(nil), c.fields...)
}

// Visible returns the fields not flagged as hidden.
func (c *Catalog) Visible() []Field {
	if c == nil {
		return nil
	}
	out := make([]Field, 0, len(c.fields))
	for _, field := range c.fields {
		if !field.Hidden {
			out = append(out, field)
		}
	}
	return out
}

// FindBySortColumn resolves a requested order key to a sortable field. Both
// the field key and its sort alias are accepted.
func (c *Catalog) FindBySortColumn(name string) (Field, bool) {
	if c == nil || name == "" {
		return Field{}, false
	}
	if field, ok := c.Get(name); ok {
		return field, field.Sortable
	}
	for _, field := range c.fields {
		if field.Sortable && field.SortField == name {
			return field, true
		}
	}
	return Field{}, false
}

// Freeze makes the catalog read-only.
func (c *Catalog) Freeze() {
	if c != nil {
		c.frozen = true
	}
}

// Frozen reports whether Freeze was called.
func (c *Catalog) Frozen() bool {
	return c != nil && c.frozen
}

// Clone returns an unfrozen deep-enough copy: field slices (options) are
// copied so mutating the clone never leaks into the original.
func (c *Catalog) Clone() *Catalog {
	clone := NewCatalog(WithLabeler(c.labeler))
	for _, field := range c.fields {
		field.Options = append([]Option(nil), field.Options...)
		if field.Truncate != nil {
			t := *field.Truncate
			field.Truncate = &t
		}
		clone.fields = append(clone.fields, field)
	}
	clone.reindex()
	return clone
}
