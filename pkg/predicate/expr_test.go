package predicate_test

import (
	"testing"

	"github.com/goliatone/go-admingrid/pkg/predicate"
)

func TestExpressionAllow(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		expr    string
		filters map[string]string
		want    bool
	}{
		{name: "empty allows", expr: "", want: true},
		{name: "truthy set", expr: "archived", filters: map[string]string{"archived": "1"}, want: true},
		{name: "truthy zero", expr: "archived", filters: map[string]string{"archived": "0"}, want: false},
		{name: "truthy missing", expr: "archived", want: false},
		{name: "not", expr: "!archived", want: true},
		{name: "string eq", expr: `status == "open"`, filters: map[string]string{"status": "open"}, want: true},
		{name: "bare word literal", expr: "status == open", filters: map[string]string{"status": "open"}, want: true},
		{name: "string neq", expr: `status != 'open'`, filters: map[string]string{"status": "closed"}, want: true},
		{name: "number eq", expr: "level == 3", filters: map[string]string{"level": "3.0"}, want: true},
		{name: "bool eq", expr: "mine == true", filters: map[string]string{"mine": "yes"}, want: true},
		{name: "null eq", expr: "status == null", want: true},
		{name: "and or grouping", expr: `(a || b) && !c`, filters: map[string]string{"b": "1"}, want: true},
		{name: "and short circuit", expr: `a && b`, filters: map[string]string{"b": "1"}, want: false},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			expr, err := predicate.Compile(tc.expr)
			if err != nil {
				t.Fatalf("compile %q: %v", tc.expr, err)
			}
			got, err := expr.Allow(tc.filters)
			if err != nil {
				t.Fatalf("allow: %v", err)
			}
			if got != tc.want {
				t.Fatalf("%q with %v: got %v want %v", tc.expr, tc.filters, got, tc.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	for _, expr := range []string{"a = b", "a &", "(a", `a == "x`, "a ==", "== a", "a b"} {
		if _, err := predicate.Compile(expr); err == nil {
			t.Fatalf("expected error for %q", expr)
		}
	}
}

func TestMustCompilePanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	predicate.MustCompile("(")
}

func TestNilPredicateAllows(t *testing.T) {
	t.Parallel()

	ok, err := predicate.Allow(nil, nil)
	if err != nil || !ok {
		t.Fatalf("expected nil predicate to allow, got %v %v", ok, err)
	}
	ok, _ = predicate.FilterEquals("status", "open").Allow(map[string]string{"status": "open"})
	if !ok {
		t.Fatalf("expected FilterEquals to match")
	}
}
