package widget

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-admingrid/pkg/action"
	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/query"
	"github.com/goliatone/go-admingrid/pkg/request"
	"github.com/goliatone/go-admingrid/pkg/rules"
	"github.com/goliatone/go-admingrid/pkg/schedule"
	"github.com/goliatone/go-admingrid/pkg/transform"
	"github.com/goliatone/go-admingrid/pkg/transform/formatter"
)

// Kind selects how a widget is presented.
type Kind string

const (
	KindTable    Kind = "table"
	KindList     Kind = "list"
	KindCalendar Kind = "calendar"
	KindSchedule Kind = "schedule"
	KindChart    Kind = "chart"
)

// ParseKind validates raw, defaulting to table when empty.
func ParseKind(raw string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(raw))); k {
	case "":
		return KindTable, nil
	case KindTable, KindList, KindCalendar, KindSchedule, KindChart:
		return k, nil
	default:
		return "", fmt.Errorf("widget: unknown kind %q", raw)
	}
}

// Periodic reports whether the kind restricts rows to a request period.
func (k Kind) Periodic() bool {
	return k == KindCalendar || k == KindSchedule
}

// Builder collects widget configuration. It is not safe for concurrent use.
type Builder struct {
	id           string
	kind         Kind
	source       query.Source
	catalog      *model.Catalog
	filters      []query.Filter
	actions      []action.Action
	bulk         []action.BulkAction
	defaults     request.Defaults
	base         query.Query
	searchFields []string
	dateField    string
	resource     schedule.ResourceFunc
	interval     schedule.IntervalFunc
	registry     *formatter.Registry
	passes       []transform.Pass
	debug        bool
	logger       *zap.Logger
	errs         []error
}

// Option configures a Builder.
type Option func(*Builder)

// WithKind sets the presentation kind.
func WithKind(kind Kind) Option {
	return func(b *Builder) { b.SetKind(kind) }
}

// WithDefaults sets the request defaults.
func WithDefaults(defaults request.Defaults) Option {
	return func(b *Builder) { b.defaults = defaults }
}

// WithBaseQuery sets conditions applied to every request.
func WithBaseQuery(q query.Query) Option {
	return func(b *Builder) { b.base = q.Clone() }
}

// WithSearchFields enables free-text search across fields.
func WithSearchFields(fields ...string) Option {
	return func(b *Builder) { b.Search(fields...) }
}

// WithRegistry replaces the formatter registry.
func WithRegistry(registry *formatter.Registry) Option {
	return func(b *Builder) { b.registry = registry }
}

// WithPass appends a transformation pass after the built-in ones.
func WithPass(pass transform.Pass) Option {
	return func(b *Builder) {
		if pass != nil {
			b.passes = append(b.passes, pass)
		}
	}
}

// WithDebug makes data source failures fail the request instead of
// degrading to an empty result.
func WithDebug(debug bool) Option {
	return func(b *Builder) { b.debug = debug }
}

// WithLogger attaches a logger to the widget and its components.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// New starts a widget configuration.
func New(id string, source query.Source, options ...Option) *Builder {
	b := &Builder{
		id:      strings.TrimSpace(id),
		kind:    KindTable,
		source:  source,
		catalog: model.NewCatalog(),
		logger:  zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *Builder) fail(err error) {
	if err != nil {
		b.errs = append(b.errs, err)
	}
}

// ID returns the widget id.
func (b *Builder) ID() string { return b.id }

// Catalog exposes the catalog being configured.
func (b *Builder) Catalog() *model.Catalog { return b.catalog }

// SetKind sets the presentation kind.
func (b *Builder) SetKind(kind Kind) *Builder {
	b.kind = kind
	return b
}

// Order sets the default sort.
func (b *Builder) Order(field, dir string) *Builder {
	b.defaults.OrderField = field
	b.defaults.OrderDir = dir
	return b
}

// Limit sets the default page size.
func (b *Builder) Limit(limit int) *Builder {
	b.defaults.Limit = limit
	return b
}

// MaxLimit caps the page size a request may ask for.
func (b *Builder) MaxLimit(limit int) *Builder {
	b.defaults.MaxLimit = limit
	return b
}

// Search enables free-text search across fields.
func (b *Builder) Search(fields ...string) *Builder {
	b.searchFields = append(b.searchFields, fields...)
	return b
}

// Where adds a condition applied to every request.
func (b *Builder) Where(field string, op query.Operator, value any) *Builder {
	b.base.Where(field, op, value)
	return b
}

// DateField names the field calendar and schedule widgets restrict to the
// request period.
func (b *Builder) DateField(key string) *Builder {
	b.dateField = key
	return b
}

// Field returns a configuration chain for key, creating the field if needed.
func (b *Builder) Field(key string) *model.FieldBuilder {
	return b.catalog.Field(key)
}

// Column adds a computed field rendered by fn.
func (b *Builder) Column(key, label string, fn model.FormatterFunc) *Builder {
	if fn == nil {
		b.fail(fmt.Errorf("widget: column %q needs a formatter", key))
		return b
	}
	b.fail(b.catalog.Field(key).Label(label).Compute(fn).Done())
	return b
}

// Filter declares a named filter.
func (b *Builder) Filter(filter query.Filter) *Builder {
	b.filters = append(b.filters, filter)
	return b
}

// Action declares a row action.
func (b *Builder) Action(a action.Action) *Builder {
	b.actions = append(b.actions, a)
	return b
}

// BulkAction declares a bulk action.
func (b *Builder) BulkAction(a action.BulkAction) *Builder {
	b.bulk = append(b.bulk, a)
	return b
}

// DefaultActions adds the edit link action, when editLink is set, and the
// delete bulk action.
func (b *Builder) DefaultActions(editLink string) *Builder {
	if editLink != "" {
		b.Action(action.EditAction(editLink))
	}
	return b.BulkAction(action.DeleteAction())
}

// Schedule switches the widget to schedule mode. Rows are restricted to the
// request period on dateField and laid out on tracks per resource.
func (b *Builder) Schedule(dateField string, resource schedule.ResourceFunc, interval schedule.IntervalFunc) *Builder {
	b.kind = KindSchedule
	b.dateField = dateField
	b.resource = resource
	b.interval = interval
	return b
}

// Seed merges field rules for scope from src. Fields already configured keep
// their configuration.
func (b *Builder) Seed(ctx context.Context, src rules.Source, scope string) *Builder {
	if src == nil {
		b.fail(errors.New("widget: rules source is nil"))
		return b
	}
	fields, err := src.Rules(ctx, scope)
	if err != nil {
		b.fail(fmt.Errorf("widget: seed %s: %w", scope, err))
		return b
	}
	b.fail(b.catalog.Seed(fields))
	return b
}

// Build validates the configuration and returns an immutable Widget.
func (b *Builder) Build() (*Widget, error) {
	errs := append([]error(nil), b.errs...)
	if b.id == "" {
		errs = append(errs, errors.New("widget: id is required"))
	}
	if strings.ContainsAny(b.id, " \t") {
		errs = append(errs, fmt.Errorf("widget: id %q must not contain whitespace", b.id))
	}
	if b.source == nil {
		errs = append(errs, errors.New("widget: source is required"))
	}
	if _, err := ParseKind(string(b.kind)); err != nil {
		errs = append(errs, err)
	}

	catalog := b.catalog.Clone()
	for _, filter := range b.filters {
		if strings.TrimSpace(filter.Name) == "" {
			errs = append(errs, errors.New("widget: filter name is required"))
			continue
		}
		if filter.Apply == nil && !catalog.Has(filter.Column()) {
			errs = append(errs, fmt.Errorf("widget: filter %q: unknown field %q", filter.Name, filter.Column()))
		}
	}
	if order := b.defaults.OrderField; order != "" {
		if _, ok := catalog.FindBySortColumn(order); !ok {
			errs = append(errs, fmt.Errorf("widget: default order %q is not a sortable field", order))
		}
	}
	if b.kind.Periodic() && b.dateField == "" {
		errs = append(errs, fmt.Errorf("widget: %s widget needs a date field", b.kind))
	}
	if b.kind == KindSchedule && (b.resource == nil || b.interval == nil) {
		errs = append(errs, errors.New("widget: schedule widget needs resource and interval extractors"))
	}

	dispatcher := action.NewDispatcher(action.WithFilters(b.filters...), action.WithLogger(b.logger))
	for _, a := range b.actions {
		if err := dispatcher.Add(a); err != nil {
			errs = append(errs, err)
		}
	}
	for _, a := range b.bulk {
		if err := dispatcher.AddBulk(a); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	catalog.Freeze()
	logger := b.logger.With(zap.String("widget", b.id))
	pipelineOptions := []transform.Option{transform.WithLogger(logger), transform.WithRegistry(b.registry)}
	for _, pass := range b.passes {
		pipelineOptions = append(pipelineOptions, transform.WithPass(pass))
	}

	return &Widget{
		id:       b.id,
		kind:     b.kind,
		source:   b.source,
		catalog:  catalog,
		defaults: b.defaults,
		base:     b.base.Clone(),
		executor: query.NewExecutor(b.source, catalog,
			query.WithFilters(b.filters...),
			query.WithSearchFields(b.searchFields...),
			query.WithDebug(b.debug),
			query.WithLogger(logger),
		),
		dispatcher: dispatcher,
		pipeline:   transform.New(pipelineOptions...),
		dateField:  b.dateField,
		resource:   b.resource,
		interval:   b.interval,
		logger:     logger,
	}, nil
}
