// Package openapi derives field rules from the component schemas of an
// OpenAPI 3 document. Each property of components.schemas.<scope> becomes a
// field; nested object properties become dotted paths.
//
// Vendor extensions refine the mapping:
//
//	x-admingrid-type:       field type override (any model.FieldType or alias)
//	x-admingrid-label:      display label
//	x-admingrid-sortable:   bool
//	x-admingrid-sort-field: sort alias column
//	x-admingrid-hidden:     bool
//	x-admingrid-truncate:   rune length
//	x-admingrid-order:      integer position, lower first
//	x-admingrid-labels:     map of enum value to label
package openapi

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/rules"
)

const (
	extType      = "x-admingrid-type"
	extLabel     = "x-admingrid-label"
	extSortable  = "x-admingrid-sortable"
	extSortField = "x-admingrid-sort-field"
	extHidden    = "x-admingrid-hidden"
	extTruncate  = "x-admingrid-truncate"
	extOrder     = "x-admingrid-order"
	extLabels    = "x-admingrid-labels"
)

const maxDepth = 3

// Source serves rules from a loaded document.
type Source struct {
	doc *openapi3.T
}

var _ rules.Source = (*Source)(nil)

// Load parses an OpenAPI document in JSON or YAML form.
func Load(ctx context.Context, data []byte) (*Source, error) {
	if len(data) == 0 {
		return nil, errors.New("rules/openapi: document payload is empty")
	}
	loader := &openapi3.Loader{Context: ctx, IsExternalRefsAllowed: false}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("rules/openapi: load document: %w", err)
	}
	return &Source{doc: doc}, nil
}

// LoadFS reads name from fsys and parses it.
func LoadFS(ctx context.Context, fsys fs.FS, name string) (*Source, error) {
	if fsys == nil {
		return nil, errors.New("rules/openapi: filesystem is required")
	}
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("rules/openapi: read %s: %w", name, err)
	}
	return Load(ctx, data)
}

// Scopes lists the component schema names.
func (s *Source) Scopes() []string {
	if s.doc == nil || s.doc.Components == nil {
		return nil
	}
	out := make([]string, 0, len(s.doc.Components.Schemas))
	for name := range s.doc.Components.Schemas {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Rules maps the properties of components.schemas.<scope> to fields.
func (s *Source) Rules(ctx context.Context, scope string) ([]model.Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.doc == nil || s.doc.Components == nil {
		return nil, fmt.Errorf("%w: %s", rules.ErrUnknownScope, scope)
	}
	ref, ok := s.doc.Components.Schemas[scope]
	if !ok || ref == nil || ref.Value == nil {
		return nil, fmt.Errorf("%w: %s", rules.ErrUnknownScope, scope)
	}
	var fields []ordered
	if err := collect(&fields, "", ref.Value, 0); err != nil {
		return nil, fmt.Errorf("rules/openapi: %s: %w", scope, err)
	}
	sort.SliceStable(fields, func(i, j int) bool {
		if fields[i].order == fields[j].order {
			return fields[i].field.Key < fields[j].field.Key
		}
		return fields[i].order < fields[j].order
	})
	out := make([]model.Field, len(fields))
	for i, f := range fields {
		out[i] = f.field
	}
	return out, nil
}

type ordered struct {
	field model.Field
	order int
}

func collect(out *[]ordered, prefix string, schema *openapi3.Schema, depth int) error {
	for name, prop := range schema.Properties {
		if prop == nil || prop.Value == nil {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + model.PathSeparator + name
		}
		value := prop.Value
		if firstSchemaType(value.Type) == openapi3.TypeObject && len(value.Properties) > 0 && depth < maxDepth {
			if err := collect(out, key, value, depth+1); err != nil {
				return err
			}
			continue
		}
		field, err := fieldFor(key, value)
		if err != nil {
			return err
		}
		order, _ := intExtension(value.Extensions, extOrder)
		*out = append(*out, ordered{field: field, order: order})
	}
	return nil
}

func fieldFor(key string, schema *openapi3.Schema) (model.Field, error) {
	field := model.Field{
		Key:   key,
		Label: strings.TrimSpace(schema.Title),
		Type:  typeFor(schema),
	}
	if len(schema.Enum) > 0 {
		labels, _ := schema.Extensions[extLabels].(map[string]any)
		for _, raw := range schema.Enum {
			value := fmt.Sprint(raw)
			label := value
			if l, ok := labels[value].(string); ok && l != "" {
				label = l
			}
			field.Options = append(field.Options, model.Option{Value: value, Label: label})
		}
		if field.Type == model.FieldTypeText || field.Type == model.FieldTypeNumber {
			field.Type = model.FieldTypeSelect
		}
	}
	ext := schema.Extensions
	if raw, ok := ext[extType].(string); ok && raw != "" {
		t, err := model.ParseFieldType(raw)
		if err != nil {
			return model.Field{}, fmt.Errorf("property %s: %w", key, err)
		}
		field.Type = t
	}
	if label, ok := ext[extLabel].(string); ok && label != "" {
		field.Label = label
	}
	field.Sortable, _ = ext[extSortable].(bool)
	if alias, ok := ext[extSortField].(string); ok && alias != "" {
		field.Sortable = true
		field.SortField = alias
	}
	field.Hidden, _ = ext[extHidden].(bool)
	if n, ok := intExtension(ext, extTruncate); ok && n > 0 {
		field.Truncate = &model.Truncation{Length: n, Suffix: "..."}
	}
	return field, nil
}

func typeFor(schema *openapi3.Schema) model.FieldType {
	switch strings.ToLower(schema.Format) {
	case "date":
		return model.FieldTypeDate
	case "date-time":
		return model.FieldTypeDateTime
	case "time":
		return model.FieldTypeTime
	case "html":
		return model.FieldTypeHTML
	case "binary", "uri-reference":
		return model.FieldTypeFile
	}
	switch firstSchemaType(schema.Type) {
	case openapi3.TypeArray:
		return model.FieldTypeArray
	case openapi3.TypeInteger, openapi3.TypeNumber:
		return model.FieldTypeNumber
	}
	return model.FieldTypeText
}

func firstSchemaType(types *openapi3.Types) string {
	if types == nil {
		return ""
	}
	values := types.Slice()
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

func intExtension(ext map[string]any, key string) (int, bool) {
	switch v := ext[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
