// Package sqlsource implements query.Source over a database/sql table.
// Identifiers are whitelisted and quoted; values are always bound.
//
// Columns named with a double underscore are exposed as structural paths:
// a "doctor__name" column is returned as {"doctor": {"name": ...}} and is
// addressed as "doctor.name" in conditions, search and order.
package sqlsource

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/query"
)

// ErrUnknownColumn is returned when a query names a column outside the
// whitelist.
var ErrUnknownColumn = errors.New("sqlsource: unknown column")

// PathSeparator joins nested keys in column names.
const PathSeparator = "__"

// Source reads and deletes rows of one table.
type Source struct {
	db       *sql.DB
	table    string
	columns  []string
	allowed  map[string]struct{}
	idColumn string
	logger   *zap.Logger
}

var _ query.Source = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithColumns whitelists the selectable columns. Without it the columns are
// discovered from the table.
func WithColumns(columns ...string) Option {
	return func(s *Source) {
		s.columns = append(s.columns, columns...)
	}
}

// WithIDColumn overrides the primary key column, "id" by default.
func WithIDColumn(column string) Option {
	return func(s *Source) {
		if column != "" {
			s.idColumn = column
		}
	}
}

// WithLogger attaches a logger for statement tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Source) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns a source for table.
func New(ctx context.Context, db *sql.DB, table string, options ...Option) (*Source, error) {
	if db == nil {
		return nil, errors.New("sqlsource: db is required")
	}
	if strings.TrimSpace(table) == "" {
		return nil, errors.New("sqlsource: table is required")
	}
	s := &Source{
		db:       db,
		table:    table,
		idColumn: query.IDKey,
		logger:   zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if len(s.columns) == 0 {
		columns, err := s.discover(ctx)
		if err != nil {
			return nil, err
		}
		s.columns = columns
	}
	s.allowed = make(map[string]struct{}, len(s.columns))
	for _, column := range s.columns {
		s.allowed[column] = struct{}{}
	}
	if _, ok := s.allowed[s.idColumn]; !ok {
		return nil, fmt.Errorf("%w: id column %q", ErrUnknownColumn, s.idColumn)
	}
	return s, nil
}

func (s *Source) discover(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(s.table)+" LIMIT 0")
	if err != nil {
		return nil, fmt.Errorf("sqlsource: discover columns of %s: %w", s.table, err)
	}
	defer rows.Close()
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlsource: discover columns of %s: %w", s.table, err)
	}
	return columns, rows.Err()
}

// Columns returns the whitelisted columns.
func (s *Source) Columns() []string { return append([]string(nil), s.columns...) }

// Column maps a record key to its whitelisted column.
func (s *Source) Column(key string) (string, error) {
	column := strings.ReplaceAll(key, model.PathSeparator, PathSeparator)
	if _, ok := s.allowed[column]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownColumn, key)
	}
	return column, nil
}

// Query implements query.Source.
func (s *Source) Query(ctx context.Context, q query.Query) ([]model.Record, error) {
	stmt, args, err := s.selectSQL(q)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, stmt, args)
}

// Count implements query.Source.
func (s *Source) Count(ctx context.Context, q query.Query) (int, error) {
	where, args, err := s.where(q)
	if err != nil {
		return 0, err
	}
	stmt := "SELECT COUNT(*) FROM " + quoteIdent(s.table) + where
	s.logger.Debug("sqlsource count", zap.String("sql", stmt), zap.Int("args", len(args)))
	var total int
	if err := s.db.QueryRowContext(ctx, stmt, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("sqlsource: count %s: %w", s.table, err)
	}
	return total, nil
}

// GetByIDs implements query.Source. Records come back in ids order.
func (s *Source) GetByIDs(ctx context.Context, ids []string) ([]model.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	stmt := fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s)",
		s.selectList(), quoteIdent(s.table), quoteIdent(s.idColumn), placeholders(len(ids)))
	records, err := s.fetch(ctx, stmt, args)
	if err != nil {
		return nil, err
	}
	position := make(map[string]int, len(ids))
	for i, id := range ids {
		if _, seen := position[id]; !seen {
			position[id] = i
		}
	}
	sort.SliceStable(records, func(i, j int) bool {
		return position[fmt.Sprint(records[i][s.idColumn])] < position[fmt.Sprint(records[j][s.idColumn])]
	})
	return records, nil
}

// Delete implements query.Source.
func (s *Source) Delete(ctx context.Context, id string) error {
	stmt := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", quoteIdent(s.table), quoteIdent(s.idColumn))
	res, err := s.db.ExecContext(ctx, stmt, id)
	if err != nil {
		return fmt.Errorf("sqlsource: delete %s %q: %w", s.table, id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlsource: delete %s %q: %w", s.table, id, err)
	}
	if affected == 0 {
		return fmt.Errorf("sqlsource: delete %s %q: %w", s.table, id, query.ErrNotFound)
	}
	return nil
}

func (s *Source) selectList() string {
	quoted := make([]string, len(s.columns))
	for i, column := range s.columns {
		quoted[i] = quoteIdent(column)
	}
	return strings.Join(quoted, ", ")
}

func (s *Source) selectSQL(q query.Query) (string, []any, error) {
	where, args, err := s.where(q)
	if err != nil {
		return "", nil, err
	}
	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(s.selectList())
	b.WriteString(" FROM ")
	b.WriteString(quoteIdent(s.table))
	b.WriteString(where)

	if len(q.Order) > 0 {
		parts := make([]string, 0, len(q.Order))
		for _, order := range q.Order {
			column, err := s.Column(order.Field)
			if err != nil {
				return "", nil, err
			}
			dir := "ASC"
			if order.Desc {
				dir = "DESC"
			}
			parts = append(parts, quoteIdent(column)+" "+dir)
		}
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(parts, ", "))
	}

	switch {
	case q.Limit > 0:
		b.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, q.Limit, max(q.Offset, 0))
	case q.Offset > 0:
		b.WriteString(" LIMIT -1 OFFSET ?")
		args = append(args, q.Offset)
	}
	return b.String(), args, nil
}

func (s *Source) where(q query.Query) (string, []any, error) {
	var (
		clauses []string
		args    []any
	)
	for _, cond := range q.Conditions {
		column, err := s.Column(cond.Field)
		if err != nil {
			return "", nil, err
		}
		clause, condArgs, err := compileCondition(quoteIdent(column), cond)
		if err != nil {
			return "", nil, err
		}
		clauses = append(clauses, clause)
		args = append(args, condArgs...)
	}
	if term := strings.TrimSpace(q.Search.Term); term != "" && len(q.Search.Fields) > 0 {
		parts := make([]string, 0, len(q.Search.Fields))
		for _, field := range q.Search.Fields {
			column, err := s.Column(field)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, quoteIdent(column)+" LIKE ?")
			args = append(args, "%"+term+"%")
		}
		clauses = append(clauses, "("+strings.Join(parts, " OR ")+")")
	}
	if len(clauses) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

func compileCondition(column string, cond query.Condition) (string, []any, error) {
	switch cond.Operator {
	case query.OpEq, "":
		if cond.Value == nil {
			return column + " IS NULL", nil, nil
		}
		return column + " = ?", []any{bind(cond.Value)}, nil
	case query.OpNeq:
		if cond.Value == nil {
			return column + " IS NOT NULL", nil, nil
		}
		return column + " <> ?", []any{bind(cond.Value)}, nil
	case query.OpLt:
		return column + " < ?", []any{bind(cond.Value)}, nil
	case query.OpLte:
		return column + " <= ?", []any{bind(cond.Value)}, nil
	case query.OpGt:
		return column + " > ?", []any{bind(cond.Value)}, nil
	case query.OpGte:
		return column + " >= ?", []any{bind(cond.Value)}, nil
	case query.OpLike:
		pattern := fmt.Sprint(cond.Value)
		if !strings.ContainsAny(pattern, "%_") {
			pattern = "%" + pattern + "%"
		}
		return column + " LIKE ?", []any{pattern}, nil
	case query.OpIn:
		values, ok := cond.Value.([]any)
		if !ok {
			return "", nil, fmt.Errorf("sqlsource: condition %s: in expects []any, got %T", cond.Field, cond.Value)
		}
		if len(values) == 0 {
			return "1 = 0", nil, nil
		}
		args := make([]any, len(values))
		for i, v := range values {
			args[i] = bind(v)
		}
		return column + " IN (" + placeholders(len(values)) + ")", args, nil
	case query.OpBetween:
		bounds, ok := cond.Value.([2]any)
		if !ok {
			return "", nil, fmt.Errorf("sqlsource: condition %s: between expects [2]any, got %T", cond.Field, cond.Value)
		}
		return column + " >= ? AND " + column + " < ?", []any{bind(bounds[0]), bind(bounds[1])}, nil
	default:
		return "", nil, fmt.Errorf("sqlsource: unsupported operator %q", cond.Operator)
	}
}

// TimeLayout is how temporal values are bound, in their own location. Stored
// text timestamps in the same or a longer ISO form compare correctly against
// it.
const TimeLayout = "2006-01-02 15:04:05"

func bind(v any) any {
	switch t := v.(type) {
	case time.Time:
		return t.Format(TimeLayout)
	case *time.Time:
		if t == nil {
			return nil
		}
		return t.Format(TimeLayout)
	}
	return v
}

func (s *Source) fetch(ctx context.Context, stmt string, args []any) ([]model.Record, error) {
	s.logger.Debug("sqlsource query", zap.String("sql", stmt), zap.Int("args", len(args)))
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlsource: query %s: %w", s.table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlsource: columns %s: %w", s.table, err)
	}
	var out []model.Record
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("sqlsource: scan %s: %w", s.table, err)
		}
		record := make(model.Record, len(columns))
		for i, column := range columns {
			setPath(record, column, normalise(values[i]))
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlsource: iterate %s: %w", s.table, err)
	}
	return out, nil
}

func normalise(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// setPath stores value under column, folding "a__b" into nested maps.
func setPath(record model.Record, column string, value any) {
	parts := strings.Split(column, PathSeparator)
	if len(parts) == 1 {
		record[column] = value
		return
	}
	current := map[string]any(record)
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = make(map[string]any)
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
