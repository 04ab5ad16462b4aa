// Package memory provides an in-process record source. It evaluates the full
// query contract (conditions, search, ordering, paging) over a slice of
// records and is used for demos, tests and small static datasets.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/query"
)

// Source implements query.Source over in-memory records.
type Source struct {
	mu      sync.RWMutex
	records []model.Record
	failOn  map[string]error
	idKey   string
}

var _ query.Source = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithIDKey overrides the record key used as identifier.
func WithIDKey(key string) Option {
	return func(s *Source) {
		if key != "" {
			s.idKey = key
		}
	}
}

// New creates a source holding records.
func New(records []model.Record, options ...Option) *Source {
	s := &Source{
		records: append([]model.Record(nil), records...),
		failOn:  make(map[string]error),
		idKey:   query.IDKey,
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Insert appends records.
func (s *Source) Insert(records ...model.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, records...)
}

// FailDeleteOn makes Delete(id) return err. Used to exercise partial
// failures.
func (s *Source) FailDeleteOn(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[id] = err
}

// Len returns the number of stored records.
func (s *Source) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *Source) Query(ctx context.Context, q query.Query) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	matched, err := s.match(q)
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if len(q.Order) > 0 {
		sort.SliceStable(matched, func(i, j int) bool {
			for _, order := range q.Order {
				a, _ := model.Lookup(matched[i], order.Field)
				b, _ := model.Lookup(matched[j], order.Field)
				cmp := compare(a, b)
				if cmp == 0 {
					continue
				}
				if order.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []model.Record{}, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, nil
}

func (s *Source) Count(ctx context.Context, q query.Query) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched, err := s.match(q)
	if err != nil {
		return 0, err
	}
	return len(matched), nil
}

func (s *Source) GetByIDs(ctx context.Context, ids []string) ([]model.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Record, 0, len(ids))
	for _, id := range ids {
		if idx := s.indexOf(id); idx >= 0 {
			out = append(out, copyRecord(s.records[idx]))
		}
	}
	return out, nil
}

func (s *Source) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failOn[id]; ok {
		return err
	}
	idx := s.indexOf(id)
	if idx < 0 {
		return fmt.Errorf("memory: delete %q: %w", id, query.ErrNotFound)
	}
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	return nil
}

func (s *Source) indexOf(id string) int {
	for i, record := range s.records {
		if fmt.Sprint(record[s.idKey]) == id {
			return i
		}
	}
	return -1
}

func (s *Source) match(q query.Query) ([]model.Record, error) {
	out := make([]model.Record, 0, len(s.records))
	for _, record := range s.records {
		ok, err := matches(record, q)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, copyRecord(record))
		}
	}
	return out, nil
}

func matches(record model.Record, q query.Query) (bool, error) {
	for _, cond := range q.Conditions {
		ok, err := evalCondition(record, cond)
		if err != nil || !ok {
			return false, err
		}
	}
	if term := strings.ToLower(strings.TrimSpace(q.Search.Term)); term != "" {
		found := false
		for _, field := range q.Search.Fields {
			value, _ := model.Lookup(record, field)
			if value != nil && strings.Contains(strings.ToLower(fmt.Sprint(value)), term) {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	return true, nil
}

func evalCondition(record model.Record, cond query.Condition) (bool, error) {
	value, present := model.Lookup(record, cond.Field)
	switch cond.Operator {
	case query.OpEq, "":
		return present && compare(value, cond.Value) == 0, nil
	case query.OpNeq:
		return !present || compare(value, cond.Value) != 0, nil
	case query.OpLt:
		return present && compare(value, cond.Value) < 0, nil
	case query.OpLte:
		return present && compare(value, cond.Value) <= 0, nil
	case query.OpGt:
		return present && compare(value, cond.Value) > 0, nil
	case query.OpGte:
		return present && compare(value, cond.Value) >= 0, nil
	case query.OpLike:
		needle := strings.ToLower(strings.Trim(fmt.Sprint(cond.Value), "%"))
		return present && strings.Contains(strings.ToLower(fmt.Sprint(value)), needle), nil
	case query.OpIn:
		candidates, ok := cond.Value.([]any)
		if !ok {
			return false, fmt.Errorf("memory: condition %q: in expects []any, got %T", cond.Field, cond.Value)
		}
		for _, candidate := range candidates {
			if present && compare(value, candidate) == 0 {
				return true, nil
			}
		}
		return false, nil
	case query.OpBetween:
		bounds, ok := cond.Value.([2]any)
		if !ok {
			return false, fmt.Errorf("memory: condition %q: between expects [2]any, got %T", cond.Field, cond.Value)
		}
		return present && compare(value, bounds[0]) >= 0 && compare(value, bounds[1]) < 0, nil
	default:
		return false, fmt.Errorf("memory: unsupported operator %q", cond.Operator)
	}
}

// copyRecord detaches the top level so callers annotating rows never write
// into the stored data.
func copyRecord(record model.Record) model.Record {
	out := make(model.Record, len(record))
	for k, v := range record {
		out[k] = v
	}
	return out
}

// compare orders two values, trying numeric, then temporal, then string
// comparison. nil sorts first.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if x, ok := model.ParseNumber(a); ok {
		if y, ok := model.ParseNumber(b); ok {
			return compareOrdered(x, y)
		}
	}
	loc := zoneOf(a, b)
	if x, ok := model.ParseTimeIn(a, loc); ok {
		if y, ok := model.ParseTimeIn(b, loc); ok {
			return x.Compare(y)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// zoneOf reads offset-less date strings in the location of a time operand,
// falling back to UTC.
func zoneOf(a, b any) *time.Location {
	for _, v := range []any{a, b} {
		switch t := v.(type) {
		case time.Time:
			return t.Location()
		case *time.Time:
			if t != nil {
				return t.Location()
			}
		}
	}
	return time.UTC
}

func compareOrdered(x, y float64) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}
