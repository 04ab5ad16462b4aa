package query

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-admingrid/pkg/messages"
	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/request"
)

// Result is one executed page of rows plus pagination metadata.
type Result struct {
	Rows     []Row
	Total    int
	Limit    int
	Offset   int
	Page     int
	Pages    int
	HasNext  bool
	Messages []string
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithFilters declares the named filters the executor understands.
func WithFilters(filters ...Filter) ExecutorOption {
	return func(e *Executor) {
		e.filters = append(e.filters, filters...)
	}
}

// WithSearchFields sets the fields a free-text search term is matched on.
func WithSearchFields(fields ...string) ExecutorOption {
	return func(e *Executor) {
		e.searchFields = append([]string(nil), fields...)
	}
}

// WithDebug makes source failures surface as errors instead of degrading to
// an empty result.
func WithDebug(debug bool) ExecutorOption {
	return func(e *Executor) {
		e.debug = debug
	}
}

// WithLogger sets the logger used to report degraded fetches.
func WithLogger(logger *zap.Logger) ExecutorOption {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// Executor turns request state into a Query and runs it against a Source.
type Executor struct {
	source       Source
	catalog      *model.Catalog
	filters      []Filter
	searchFields []string
	debug        bool
	logger       *zap.Logger
}

// NewExecutor builds an executor for source. The catalog resolves sort
// eligibility and aliases; a nil catalog accepts any order field verbatim.
func NewExecutor(source Source, catalog *model.Catalog, options ...ExecutorOption) *Executor {
	e := &Executor{
		source:  source,
		catalog: catalog,
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

// Filters returns the declared filters.
func (e *Executor) Filters() []Filter {
	return append([]Filter(nil), e.filters...)
}

// ActiveFilters returns the effective value of every declared filter.
func (e *Executor) ActiveFilters(rc *request.Context) map[string]string {
	return ActiveFilters(e.filters, rc)
}

// Prepare applies filters, search, ordering and pagination to a copy of base.
func (e *Executor) Prepare(base Query, rc *request.Context) (Query, error) {
	q := base.Clone()

	active := e.ActiveFilters(rc)
	for _, filter := range e.filters {
		value, ok := active[filter.Name]
		if !ok {
			continue
		}
		if err := filter.ApplyTo(&q, value); err != nil {
			return Query{}, err
		}
	}

	if rc.Search != "" && len(e.searchFields) > 0 {
		q.Search = Search{Term: rc.Search, Fields: append([]string(nil), e.searchFields...)}
	}

	if column, ok := e.orderColumn(rc.OrderField); ok {
		q.Order = append([]Order{{Field: column, Desc: rc.OrderDir == request.DirDesc}}, q.Order...)
	}

	q.Limit = rc.Limit
	q.Offset = rc.Offset()
	return q, nil
}

func (e *Executor) orderColumn(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if e.catalog == nil {
		return name, true
	}
	field, ok := e.catalog.FindBySortColumn(name)
	if !ok {
		return "", false
	}
	return field.SortColumn(), true
}

// Execute prepares and runs the query. Source failures return an error in
// debug mode; otherwise they yield an empty page whose Messages explain what
// went wrong.
func (e *Executor) Execute(ctx context.Context, base Query, rc *request.Context) (Result, error) {
	result := Result{
		Rows:   []Row{},
		Limit:  rc.Limit,
		Offset: rc.Offset(),
		Page:   rc.Page,
	}

	q, err := e.Prepare(base, rc)
	if err != nil {
		return e.degrade(result, err)
	}

	raws, err := e.source.Query(ctx, q)
	if err != nil {
		return e.degrade(result, fmt.Errorf("query: fetch rows: %w", err))
	}
	total, err := e.source.Count(ctx, q.Unbounded())
	if err != nil {
		return e.degrade(result, fmt.Errorf("query: count rows: %w", err))
	}

	result.Rows = NewRows(raws)
	result.Total = total
	result.Pages = pageCount(total, rc.Limit)
	result.HasNext = result.Offset+len(result.Rows) < total
	return result, nil
}

func (e *Executor) degrade(result Result, err error) (Result, error) {
	if e.debug {
		return Result{}, err
	}
	e.logger.Warn("record fetch degraded to empty result", zap.Error(err))
	result.Rows = []Row{}
	result.Total = 0
	result.Pages = 0
	result.HasNext = false
	result.Messages = messages.Merge(result.Messages, err.Error())
	return result, nil
}

func pageCount(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
