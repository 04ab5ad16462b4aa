// Package static provides an in-memory rules.Source.
package static

import (
	"context"
	"fmt"
	"sync"

	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/rules"
)

// Source serves fields registered per scope.
type Source struct {
	mu     sync.RWMutex
	scopes map[string][]model.Field
}

var _ rules.Source = (*Source)(nil)

// New returns a source seeded with scopes.
func New(scopes map[string][]model.Field) *Source {
	s := &Source{scopes: make(map[string][]model.Field, len(scopes))}
	for scope, fields := range scopes {
		s.Add(scope, fields...)
	}
	return s
}

// Add appends fields to scope.
func (s *Source) Add(scope string, fields ...model.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes[scope] = append(s.scopes[scope], fields...)
}

// Rules returns a copy of the fields registered for scope.
func (s *Source) Rules(ctx context.Context, scope string) ([]model.Field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	fields, ok := s.scopes[scope]
	if !ok {
		return nil, fmt.Errorf("%w: %s", rules.ErrUnknownScope, scope)
	}
	return append([]model.Field(nil), fields...), nil
}
