package widget

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-admingrid/pkg/action"
	"github.com/goliatone/go-admingrid/pkg/messages"
	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/query"
	"github.com/goliatone/go-admingrid/pkg/request"
	"github.com/goliatone/go-admingrid/pkg/schedule"
	"github.com/goliatone/go-admingrid/pkg/transform"
)

// Widget is a validated, immutable widget configuration.
type Widget struct {
	id         string
	kind       Kind
	source     query.Source
	catalog    *model.Catalog
	defaults   request.Defaults
	base       query.Query
	executor   *query.Executor
	dispatcher *action.Dispatcher
	pipeline   *transform.Pipeline
	dateField  string
	resource   schedule.ResourceFunc
	interval   schedule.IntervalFunc
	logger     *zap.Logger
}

// ID returns the widget id.
func (w *Widget) ID() string { return w.id }

// Kind returns the presentation kind.
func (w *Widget) Kind() Kind { return w.kind }

// Fields returns a snapshot of the catalog.
func (w *Widget) Fields() []model.Field { return w.catalog.Fields() }

// Action looks up a declared row or bulk action by key.
func (w *Widget) Action(key string) (action.Action, bool) {
	for _, a := range w.dispatcher.Actions() {
		if a.Key == key {
			return a, true
		}
	}
	for _, b := range w.dispatcher.BulkActions() {
		if b.Key == key {
			return b.Action, true
		}
	}
	return action.Action{}, false
}

// Info identifies the widget in a response.
type Info struct {
	ID     string          `json:"id"`
	Kind   Kind            `json:"kind"`
	Period *request.Period `json:"period,omitempty"`
	Order  string          `json:"order,omitempty"`
	Dir    string          `json:"dir,omitempty"`
	Search string          `json:"search,omitempty"`
}

// Pagination describes the served page.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	Pages   int  `json:"pages"`
	HasNext bool `json:"hasNext"`
}

// Response is the assembled, JSON-serialisable output of Serve.
type Response struct {
	Widget      Info                 `json:"widget"`
	Fields      []model.Field        `json:"fields"`
	Rows        []model.Record       `json:"rows"`
	Pagination  Pagination           `json:"pagination"`
	Actions     []action.Summary     `json:"actions"`
	Filters     []action.FilterState `json:"filters"`
	Outcome     *action.Outcome      `json:"outcome,omitempty"`
	Tracks      []int                `json:"tracks,omitempty"`
	TrackCounts map[string]int       `json:"trackCounts,omitempty"`
	State       url.Values           `json:"state"`
	Messages    []string             `json:"messages,omitempty"`
}

// Serve derives the request context from params, dispatches any pending
// action, fetches and transforms rows, lays out schedule tracks and assembles
// the response. Actions run before the fetch so their effects are visible.
func (w *Widget) Serve(ctx context.Context, params request.Params) (Response, error) {
	started := time.Now()
	rc := request.Derive(w.id, params, w.defaults)
	if w.kind.Periodic() {
		rc.Page = 1
		rc.Limit = w.periodLimit()
	}

	outcome, err := w.dispatcher.Dispatch(ctx, rc, w.source)
	if err != nil {
		return Response{}, err
	}

	base := w.base.Clone()
	if w.kind.Periodic() {
		base.Where(w.dateField, query.OpBetween, [2]any{rc.Period.Start, rc.Period.End})
	}
	result, err := w.executor.Execute(ctx, base, rc)
	if err != nil {
		return Response{}, err
	}
	if err := w.pipeline.Run(ctx, result.Rows, w.catalog); err != nil {
		return Response{}, err
	}

	visible, err := w.dispatcher.Visible(rc)
	if err != nil {
		return Response{}, err
	}

	resp := Response{
		Widget: Info{
			ID:     w.id,
			Kind:   w.kind,
			Order:  rc.OrderField,
			Dir:    rc.OrderDir,
			Search: rc.Search,
		},
		Fields: w.catalog.Visible(),
		Rows:   query.FormattedRecords(result.Rows),
		Pagination: Pagination{
			Limit:   result.Limit,
			Offset:  result.Offset,
			Total:   result.Total,
			Page:    result.Page,
			Pages:   result.Pages,
			HasNext: result.HasNext,
		},
		Actions:  visible,
		Filters:  w.dispatcher.Filters(rc),
		State:    rc.Encode(),
		Messages: result.Messages,
	}
	if w.kind.Periodic() {
		period := rc.Period
		resp.Widget.Period = &period
	}
	if outcome.Ran() {
		resp.Outcome = &outcome
		resp.Messages = messages.Merge(resp.Messages, messages.FromErrors(outcome.Err)...)
	}
	if w.kind == KindSchedule {
		assignment := schedule.AssignTracks(result.Rows, w.resource, w.interval)
		resp.Tracks = assignment.Rows
		resp.TrackCounts = assignment.Counts
	}
	resp.Rows = project(resp.Rows, resp.Fields)

	w.logger.Debug("widget served",
		zap.Int("rows", len(resp.Rows)),
		zap.Int("total", resp.Pagination.Total),
		zap.Bool("action", outcome.Ran()),
		zap.Duration("elapsed", time.Since(started)),
	)
	return resp, nil
}

// project keeps the visible field keys of each row plus the id and track
// columns.
func project(rows []model.Record, fields []model.Field) []model.Record {
	keys := make([]string, 0, len(fields)+2)
	for _, field := range fields {
		keys = append(keys, field.Key)
	}
	keys = append(keys, query.IDKey, schedule.TrackKey)

	out := make([]model.Record, len(rows))
	for i, row := range rows {
		projected := make(model.Record, len(keys))
		for _, key := range keys {
			if value, ok := row[key]; ok {
				projected[key] = value
			}
		}
		out[i] = projected
	}
	return out
}

func (w *Widget) periodLimit() int {
	if w.defaults.MaxLimit > 0 {
		return w.defaults.MaxLimit
	}
	return request.DefaultMaxLimit
}
