package formatter_test

import (
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/transform/formatter"
)

func TestRegistryBuiltins(t *testing.T) {
	t.Parallel()

	registry := formatter.NewRegistry()
	stamp := "2024-03-05T10:30:00Z"

	cases := []struct {
		name  string
		field model.Field
		value any
		want  any
	}{
		{name: "text nil", field: model.Field{Type: model.FieldTypeText}, value: nil, want: ""},
		{name: "text number", field: model.Field{Type: model.FieldTypeText}, value: 42, want: "42"},
		{name: "number grouping", field: model.Field{Type: model.FieldTypeNumber}, value: 1234567, want: "1,234,567"},
		{name: "number negative", field: model.Field{Type: model.FieldTypeNumber}, value: -1000, want: "-1,000"},
		{name: "number precision", field: model.Field{Type: model.FieldTypeNumber, Format: "2"}, value: 1234.5, want: "1,234.50"},
		{name: "number not numeric", field: model.Field{Type: model.FieldTypeNumber}, value: "n/a", want: "n/a"},
		{name: "date", field: model.Field{Type: model.FieldTypeDate}, value: stamp, want: "2024-03-05"},
		{name: "datetime", field: model.Field{Type: model.FieldTypeDateTime}, value: stamp, want: "2024-03-05 10:30"},
		{name: "time", field: model.Field{Type: model.FieldTypeTime}, value: stamp, want: "10:30"},
		{name: "date custom layout", field: model.Field{Type: model.FieldTypeDate, Format: "02/01/2006"}, value: stamp, want: "05/03/2024"},
		{name: "date unparseable", field: model.Field{Type: model.FieldTypeDate}, value: "soon", want: ""},
		{name: "select label", field: model.Field{Type: model.FieldTypeSelect, Options: []model.Option{{Value: "1", Label: "One"}}}, value: 1, want: "One"},
		{name: "select unknown", field: model.Field{Type: model.FieldTypeSelect, Options: []model.Option{{Value: "1", Label: "One"}}}, value: "9", want: "9"},
		{name: "select multi", field: model.Field{Type: model.FieldTypeSelect, Options: []model.Option{{Value: "a", Label: "A"}, {Value: "b", Label: "B"}}}, value: []any{"a", "b"}, want: "A, B"},
		{name: "array", field: model.Field{Type: model.FieldTypeArray}, value: []any{"x", 2}, want: "x, 2"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := registry.Format(tc.value, tc.field)
			if got != tc.want {
				t.Fatalf("format %v: got %#v want %#v", tc.value, got, tc.want)
			}
		})
	}
}

func TestRegistryHTMLSanitises(t *testing.T) {
	t.Parallel()

	registry := formatter.NewRegistry()
	got, ok := registry.Format(`<p>hi</p><script>alert(1)</script>`, model.Field{Type: model.FieldTypeHTML}).(string)
	if !ok {
		t.Fatalf("expected string output")
	}
	if strings.Contains(got, "script") {
		t.Fatalf("script survived sanitising: %q", got)
	}
	if !strings.Contains(got, "<p>hi</p>") {
		t.Fatalf("expected paragraph to survive: %q", got)
	}
}

func TestRegistryFileIsPassthrough(t *testing.T) {
	t.Parallel()

	descriptor := map[string]any{"path": "/a.pdf", "name": "a.pdf"}
	got := formatter.NewRegistry().Format(descriptor, model.Field{Type: model.FieldTypeFile})
	if m, ok := got.(map[string]any); !ok || m["path"] != "/a.pdf" {
		t.Fatalf("expected descriptor passthrough, got %#v", got)
	}
}

func TestRegistryMatcherPriority(t *testing.T) {
	t.Parallel()

	registry := formatter.NewRegistry()
	always := func(model.Field) bool { return true }
	registry.RegisterMatcher("low", 1, always, func(any, model.Field) any { return "low" })
	registry.RegisterMatcher("high", 10, always, func(any, model.Field) any { return "high" })

	if got := registry.Format("x", model.Field{Type: model.FieldTypeText}); got != "high" {
		t.Fatalf("expected high priority matcher, got %v", got)
	}
}

func TestRegistryRegisterOverridesType(t *testing.T) {
	t.Parallel()

	registry := formatter.NewRegistry()
	registry.Register(model.FieldTypeNumber, func(v any, _ model.Field) any { return "n" })
	if got := registry.Format(5, model.Field{Type: model.FieldTypeNumber}); got != "n" {
		t.Fatalf("expected override, got %v", got)
	}
}

func TestRegistryLayoutsAndLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+2", 2*60*60)
	registry := formatter.NewRegistry(formatter.WithLayouts(formatter.Layouts{DateTime: "02.01.2006 15:04", Location: loc}))
	got := registry.Format(time.Date(2024, 1, 2, 22, 0, 0, 0, time.UTC), model.Field{Type: model.FieldTypeDateTime})
	if got != "03.01.2024 00:00" {
		t.Fatalf("unexpected datetime: %v", got)
	}
}
