package model

import "strings"

// FieldBuilder scopes a configuration chain to a single field. Every call
// records the first error it hits; Done reports it.
//
//	err := catalog.Field("starts_at").Label("Start").Type(FieldTypeDateTime).Sortable().Done()
type FieldBuilder struct {
	catalog *Catalog
	key     string
	err     error
}

// Field returns a builder for key, creating a text field when it does not
// exist yet.
func (c *Catalog) Field(key string) *FieldBuilder {
	key = strings.TrimSpace(key)
	b := &FieldBuilder{catalog: c, key: key}
	if key == "" {
		b.err = ErrNoFieldSelected
		return b
	}
	if !c.Has(key) {
		b.err = c.Add(Field{Key: key})
	}
	return b
}

// Key returns the field key the builder is bound to.
func (b *FieldBuilder) Key() string { return b.key }

func (b *FieldBuilder) update(fn func(*Field)) *FieldBuilder {
	if b.err != nil {
		return b
	}
	if b.catalog == nil || b.key == "" {
		b.err = ErrNoFieldSelected
		return b
	}
	if err := b.catalog.Update(b.key, fn); err != nil {
		if !b.catalog.Has(b.key) {
			b.err = ErrNoFieldSelected
			return b
		}
		b.err = err
	}
	return b
}

func (b *FieldBuilder) Label(label string) *FieldBuilder {
	return b.update(func(f *Field) { f.Label = label })
}

func (b *FieldBuilder) Type(t FieldType) *FieldBuilder {
	return b.update(func(f *Field) { f.Type = t })
}

// Format sets the output layout used for temporal types.
func (b *FieldBuilder) Format(layout string) *FieldBuilder {
	return b.update(func(f *Field) { f.Format = layout })
}

// Options replaces the option list and switches the field to select when it
// is still a plain text field.
func (b *FieldBuilder) Options(opts ...Option) *FieldBuilder {
	return b.update(func(f *Field) {
		f.Options = append([]Option(nil), opts...)
		if f.Type == FieldTypeText {
			f.Type = FieldTypeSelect
		}
	})
}

func (b *FieldBuilder) Sortable() *FieldBuilder {
	return b.update(func(f *Field) { f.Sortable = true })
}

// SortBy marks the field sortable through an alias column.
func (b *FieldBuilder) SortBy(column string) *FieldBuilder {
	return b.update(func(f *Field) {
		f.Sortable = true
		f.SortField = strings.TrimSpace(column)
	})
}

func (b *FieldBuilder) Hide() *FieldBuilder {
	return b.update(func(f *Field) { f.Hidden = true })
}

func (b *FieldBuilder) Truncate(length int, suffix string) *FieldBuilder {
	return b.update(func(f *Field) {
		f.Truncate = &Truncation{Length: length, Suffix: suffix}
	})
}

// FormatWith attaches a custom formatter evaluated against the raw row.
func (b *FieldBuilder) FormatWith(fn FormatterFunc) *FieldBuilder {
	return b.update(func(f *Field) { f.Formatter = fn })
}

// Compute attaches fn and marks the field as computed: it has no source
// column and its value exists only through fn.
func (b *FieldBuilder) Compute(fn FormatterFunc) *FieldBuilder {
	return b.update(func(f *Field) {
		f.Formatter = fn
		f.Computed = true
	})
}

// Done returns the first error recorded by the chain.
func (b *FieldBuilder) Done() error {
	if b.err != nil {
		return b.err
	}
	if b.catalog == nil || !b.catalog.Has(b.key) {
		return ErrNoFieldSelected
	}
	return nil
}
