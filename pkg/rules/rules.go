// Package rules supplies field definitions from outside the widget code,
// such as API schemas or static tables. Widgets seed their catalog from a
// Source; fields configured in code take precedence.
package rules

import (
	"context"
	"errors"

	"github.com/goliatone/go-admingrid/pkg/model"
)

// ErrUnknownScope is returned when a source has no rules for the scope.
var ErrUnknownScope = errors.New("rules: unknown scope")

// Source resolves the field rules for a scope, typically a model name.
type Source interface {
	Rules(ctx context.Context, scope string) ([]model.Field, error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context, scope string) ([]model.Field, error)

// Rules executes the wrapped function.
func (fn SourceFunc) Rules(ctx context.Context, scope string) ([]model.Field, error) {
	if fn == nil {
		return nil, ErrUnknownScope
	}
	return fn(ctx, scope)
}
