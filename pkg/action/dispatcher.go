package action

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/predicate"
	"github.com/goliatone/go-admingrid/pkg/query"
	"github.com/goliatone/go-admingrid/pkg/request"
)

// Dispatcher owns the declared actions and filters of a widget.
type Dispatcher struct {
	actions []Action
	bulk    []BulkAction
	keys    map[string]struct{}
	filters []query.Filter
	logger  *zap.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithFilters declares the named filters exposed to renderers and predicates.
func WithFilters(filters ...query.Filter) Option {
	return func(d *Dispatcher) {
		d.filters = append(d.filters, filters...)
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDispatcher returns an empty dispatcher.
func NewDispatcher(options ...Option) *Dispatcher {
	d := &Dispatcher{
		keys:   make(map[string]struct{}),
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

func (d *Dispatcher) claim(key string) error {
	if _, exists := d.keys[key]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateAction, key)
	}
	d.keys[key] = struct{}{}
	return nil
}

// Add declares a row action.
func (d *Dispatcher) Add(a Action) error {
	if err := a.compile(); err != nil {
		return err
	}
	if err := d.claim(a.Key); err != nil {
		return err
	}
	d.actions = append(d.actions, a)
	return nil
}

// AddBulk declares a bulk action.
func (d *Dispatcher) AddBulk(b BulkAction) error {
	if err := b.compile(); err != nil {
		return err
	}
	switch b.Mode {
	case "":
		b.Mode = ModeSingle
	case ModeSingle, ModeBatch:
	default:
		return fmt.Errorf("action: %s: unknown mode %q", b.Key, b.Mode)
	}
	if err := d.claim(b.Key); err != nil {
		return err
	}
	d.bulk = append(d.bulk, b)
	return nil
}

// Actions lists the declared row actions.
func (d *Dispatcher) Actions() []Action { return append([]Action(nil), d.actions...) }

// BulkActions lists the declared bulk actions.
func (d *Dispatcher) BulkActions() []BulkAction { return append([]BulkAction(nil), d.bulk...) }

// FilterState describes a named filter for renderers.
type FilterState struct {
	Name    string         `json:"name"`
	Label   string         `json:"label"`
	Value   string         `json:"value,omitempty"`
	Active  bool           `json:"active"`
	Options []model.Option `json:"options,omitempty"`
}

// Filters lists the declared filters with their effective values.
func (d *Dispatcher) Filters(rc *request.Context) []FilterState {
	active := query.ActiveFilters(d.filters, rc)
	out := make([]FilterState, 0, len(d.filters))
	for _, filter := range d.filters {
		value, ok := active[filter.Name]
		label := filter.Label
		if label == "" {
			label = model.DefaultLabeler(filter.Name)
		}
		out = append(out, FilterState{
			Name:    filter.Name,
			Label:   label,
			Value:   value,
			Active:  ok,
			Options: append([]model.Option(nil), filter.Options...),
		})
	}
	return out
}

// Visible lists the actions whose predicates pass for the active filters.
func (d *Dispatcher) Visible(rc *request.Context) ([]Summary, error) {
	active := query.ActiveFilters(d.filters, rc)
	var out []Summary
	for _, a := range d.actions {
		ok, err := predicate.Allow(a.Visible, active)
		if err != nil {
			return nil, fmt.Errorf("action: %s: %w", a.Key, err)
		}
		if ok {
			out = append(out, a.summary())
		}
	}
	for _, b := range d.bulk {
		ok, err := predicate.Allow(b.Visible, active)
		if err != nil {
			return nil, fmt.Errorf("action: %s: %w", b.Key, err)
		}
		if ok {
			s := b.summary()
			s.Bulk = true
			s.Mode = b.Mode
			out = append(out, s)
		}
	}
	return out, nil
}

// Dispatch runs the action named by the request, if any. A row action takes
// precedence over a bulk action; at most one runs. Handler failures are
// reported on the outcome. Configuration problems and source errors are
// returned.
func (d *Dispatcher) Dispatch(ctx context.Context, rc *request.Context, source query.Source) (Outcome, error) {
	if rc == nil || (rc.PendingAction == "" && rc.PendingBulk == "") {
		return Outcome{}, nil
	}
	if source == nil {
		return Outcome{}, errors.New("action: source is required")
	}
	ctx = WithSource(ctx, source)
	active := query.ActiveFilters(d.filters, rc)

	var (
		outcome Outcome
		err     error
	)
	if rc.PendingAction != "" {
		outcome, err = d.dispatchRow(ctx, rc, source, active)
	} else {
		outcome, err = d.dispatchBulk(ctx, rc, source, active)
	}
	if err != nil {
		return outcome, err
	}
	if outcome.Refetch {
		rc.MarkRefetch()
	}
	fields := []zap.Field{
		zap.String("widget", rc.WidgetID),
		zap.String("action", outcome.Action),
		zap.Bool("bulk", outcome.Bulk),
		zap.Int("processed", outcome.Processed),
	}
	if outcome.Err != nil {
		d.logger.Warn("action failed", append(fields, zap.String("failed", outcome.Failed), zap.Error(outcome.Err))...)
	} else {
		d.logger.Info("action dispatched", fields...)
	}
	return outcome, nil
}

func (d *Dispatcher) dispatchRow(ctx context.Context, rc *request.Context, source query.Source, active map[string]string) (Outcome, error) {
	var found *Action
	for i := range d.actions {
		if d.actions[i].Key == rc.PendingAction {
			found = &d.actions[i]
			break
		}
	}
	if found == nil {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownAction, rc.PendingAction)
	}
	if err := allowed(found.Visible, active, found.Key); err != nil {
		return Outcome{}, err
	}
	records, err := d.resolve(ctx, source, rc.SelectedIDs)
	if err != nil {
		return Outcome{}, err
	}
	outcome := Outcome{Action: found.Key, Refetch: true}
	if err := d.run(ctx, *found, records, &outcome); err != nil {
		return outcome, err
	}
	return outcome, nil
}

func (d *Dispatcher) dispatchBulk(ctx context.Context, rc *request.Context, source query.Source, active map[string]string) (Outcome, error) {
	var found *BulkAction
	for i := range d.bulk {
		if d.bulk[i].Key == rc.PendingBulk {
			found = &d.bulk[i]
			break
		}
	}
	if found == nil {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownAction, rc.PendingBulk)
	}
	if err := allowed(found.Visible, active, found.Key); err != nil {
		return Outcome{}, err
	}
	outcome := Outcome{Action: found.Key, Bulk: true, Refetch: found.Refetch()}

	if found.Mode == ModeBatch || found.Handler == nil {
		records, err := d.resolve(ctx, source, rc.SelectedIDs)
		if err != nil {
			return Outcome{}, err
		}
		err = d.run(ctx, found.Action, records, &outcome)
		return outcome, err
	}

	for _, id := range rc.SelectedIDs {
		if err := ctx.Err(); err != nil {
			return outcome, err
		}
		records, err := source.GetByIDs(ctx, []string{id})
		if err != nil {
			return outcome, fmt.Errorf("action: resolve %s: %w", id, err)
		}
		if len(records) == 0 {
			outcome.fail(id, fmt.Errorf("%w: %s", query.ErrNotFound, id))
			break
		}
		result, err := found.Handler(ctx, records)
		outcome.merge(result)
		if err != nil {
			outcome.fail(id, err)
			break
		}
		outcome.Processed++
	}
	return outcome, nil
}

// run executes a link or handler action over records.
func (d *Dispatcher) run(ctx context.Context, a Action, records []model.Record, outcome *Outcome) error {
	if a.Handler == nil {
		for _, record := range records {
			link, err := a.RenderLink(record)
			if err != nil {
				return err
			}
			outcome.Links = append(outcome.Links, link)
		}
		outcome.Processed = len(records)
		return nil
	}
	result, err := a.Handler(ctx, records)
	outcome.merge(result)
	if err != nil {
		var recErr *RecordError
		failed := ""
		if errors.As(err, &recErr) {
			failed = recErr.ID
		}
		outcome.fail(failed, err)
		return nil
	}
	outcome.Processed = len(records)
	return nil
}

func (d *Dispatcher) resolve(ctx context.Context, source query.Source, ids []string) ([]model.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	records, err := source.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("action: resolve selection: %w", err)
	}
	return records, nil
}

func allowed(p predicate.Predicate, active map[string]string, key string) error {
	ok, err := predicate.Allow(p, active)
	if err != nil {
		return fmt.Errorf("action: %s: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotAllowed, key)
	}
	return nil
}
