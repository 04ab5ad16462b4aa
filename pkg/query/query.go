package query

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-admingrid/pkg/model"
)

// Operator is a condition comparison.
type Operator string

const (
	OpEq      Operator = "eq"
	OpNeq     Operator = "neq"
	OpLt      Operator = "lt"
	OpLte     Operator = "lte"
	OpGt      Operator = "gt"
	OpGte     Operator = "gte"
	OpLike    Operator = "like"
	OpIn      Operator = "in"
	OpBetween Operator = "between"
)

// ParseOperator normalises raw, defaulting to OpEq.
func ParseOperator(raw string) (Operator, error) {
	switch op := Operator(strings.ToLower(strings.TrimSpace(raw))); op {
	case "":
		return OpEq, nil
	case OpEq, OpNeq, OpLt, OpLte, OpGt, OpGte, OpLike, OpIn, OpBetween:
		return op, nil
	case "=", "==":
		return OpEq, nil
	case "!=", "<>":
		return OpNeq, nil
	default:
		return "", fmt.Errorf("query: unknown operator %q", raw)
	}
}

// Condition restricts the rows returned by a source. For OpIn Value is a
// []any; for OpBetween it is a [2]any holding the half-open bounds.
type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// Order is one ORDER BY entry.
type Order struct {
	Field string
	Desc  bool
}

// Search is a free-text term matched against several fields.
type Search struct {
	Term   string
	Fields []string
}

// Query is the mutable description of a fetch. Limit 0 means unbounded.
type Query struct {
	Conditions []Condition
	Search     Search
	Order      []Order
	Limit      int
	Offset     int
}

// Where appends a condition.
func (q *Query) Where(field string, op Operator, value any) *Query {
	q.Conditions = append(q.Conditions, Condition{Field: field, Operator: op, Value: value})
	return q
}

// OrderBy appends an ordering.
func (q *Query) OrderBy(field string, desc bool) *Query {
	q.Order = append(q.Order, Order{Field: field, Desc: desc})
	return q
}

// Unbounded returns a copy with paging removed, used for counting.
func (q Query) Unbounded() Query {
	q.Limit = 0
	q.Offset = 0
	q.Order = nil
	q.Conditions = append([]Condition(nil), q.Conditions...)
	return q
}

// Clone returns a copy that can be mutated independently.
func (q Query) Clone() Query {
	q.Conditions = append([]Condition(nil), q.Conditions...)
	q.Order = append([]Order(nil), q.Order...)
	q.Search.Fields = append([]string(nil), q.Search.Fields...)
	return q
}

// Row pairs a source record with its display counterpart. Both halves share
// the ordinal position they had in the source result.
type Row struct {
	Raw       model.Record
	Formatted model.Record
}

// NewRows wraps raws into aligned rows, seeding Formatted with a shallow copy.
func NewRows(raws []model.Record) []Row {
	rows := make([]Row, len(raws))
	for i, raw := range raws {
		if raw == nil {
			raw = model.Record{}
		}
		formatted := make(model.Record, len(raw))
		for k, v := range raw {
			formatted[k] = v
		}
		rows[i] = Row{Raw: raw, Formatted: formatted}
	}
	return rows
}

// RawRecords returns the raw halves of rows.
func RawRecords(rows []Row) []model.Record {
	out := make([]model.Record, len(rows))
	for i, row := range rows {
		out[i] = row.Raw
	}
	return out
}

// FormattedRecords returns the formatted halves of rows.
func FormattedRecords(rows []Row) []model.Record {
	out := make([]model.Record, len(rows))
	for i, row := range rows {
		out[i] = row.Formatted
	}
	return out
}
