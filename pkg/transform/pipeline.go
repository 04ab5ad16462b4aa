// Package transform turns raw source rows into display rows. A Pipeline runs
// an ordered list of passes over aligned rows: path resolution, custom
// formatters, type formatting and post-processing. Each pass reads the
// output of the previous one. The row count never changes.
package transform

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/query"
	"github.com/goliatone/go-admingrid/pkg/transform/formatter"
)

// ErrCardinality reports that raw and formatted rows fell out of alignment.
var ErrCardinality = errors.New("transform: raw and formatted rows are misaligned")

// Pass mutates the formatted half of rows in place.
type Pass interface {
	Name() string
	Apply(ctx context.Context, rows []query.Row, catalog *model.Catalog) error
}

// PassFunc adapts plain functions to the Pass interface.
type PassFunc func(ctx context.Context, rows []query.Row, catalog *model.Catalog) error

// Name implements Pass.
func (fn PassFunc) Name() string { return "func" }

// Apply executes the wrapped function when non-nil.
func (fn PassFunc) Apply(ctx context.Context, rows []query.Row, catalog *model.Catalog) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, rows, catalog)
}

// Pipeline runs passes in order.
type Pipeline struct {
	passes   []Pass
	extra    []Pass
	registry *formatter.Registry
	logger   *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithRegistry sets the formatter registry used by the type pass.
func WithRegistry(registry *formatter.Registry) Option {
	return func(p *Pipeline) {
		if registry != nil {
			p.registry = registry
		}
	}
}

// WithPass appends a pass that runs after the built-in ones.
func WithPass(pass Pass) Option {
	return func(p *Pipeline) {
		if pass != nil {
			p.extra = append(p.extra, pass)
		}
	}
}

// WithLogger attaches a logger for pass tracing.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New builds the default four-pass pipeline.
func New(options ...Option) *Pipeline {
	p := &Pipeline{logger: zap.NewNop()}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	if p.registry == nil {
		p.registry = formatter.NewRegistry()
	}
	p.passes = append([]Pass{
		PathPass{},
		CustomPass{},
		TypePass{Registry: p.registry},
		PostPass{},
	}, p.extra...)
	return p
}

// Registry returns the formatter registry used by the type pass.
func (p *Pipeline) Registry() *formatter.Registry { return p.registry }

// Passes returns the pass names in execution order.
func (p *Pipeline) Passes() []string {
	names := make([]string, len(p.passes))
	for i, pass := range p.passes {
		names[i] = pass.Name()
	}
	return names
}

// Run applies every pass to rows.
func (p *Pipeline) Run(ctx context.Context, rows []query.Row, catalog *model.Catalog) error {
	if catalog == nil {
		catalog = model.NewCatalog()
	}
	if err := checkAligned(rows); err != nil {
		return err
	}
	for _, pass := range p.passes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := pass.Apply(ctx, rows, catalog); err != nil {
			return fmt.Errorf("transform: pass %s: %w", pass.Name(), err)
		}
		if err := checkAligned(rows); err != nil {
			return fmt.Errorf("%w after pass %s", err, pass.Name())
		}
		p.logger.Debug("transform pass applied", zap.String("pass", pass.Name()), zap.Int("rows", len(rows)))
	}
	return nil
}

// Transform runs the pipeline over separate raw and formatted slices and
// returns the formatted rows. The slices must have the same length.
func (p *Pipeline) Transform(ctx context.Context, raws, formatted []model.Record, catalog *model.Catalog) ([]model.Record, error) {
	if len(raws) != len(formatted) {
		return nil, fmt.Errorf("%w: %d raw, %d formatted", ErrCardinality, len(raws), len(formatted))
	}
	rows := make([]query.Row, len(raws))
	for i := range raws {
		rows[i] = query.Row{Raw: raws[i], Formatted: formatted[i]}
	}
	if err := p.Run(ctx, rows, catalog); err != nil {
		return nil, err
	}
	return query.FormattedRecords(rows), nil
}

func checkAligned(rows []query.Row) error {
	for i, row := range rows {
		if row.Raw == nil || row.Formatted == nil {
			return fmt.Errorf("%w: row %d", ErrCardinality, i)
		}
	}
	return nil
}
