package widget_test

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-admingrid/pkg/action"
	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/query"
	"github.com/goliatone/go-admingrid/pkg/request"
	"github.com/goliatone/go-admingrid/pkg/rules/static"
	"github.com/goliatone/go-admingrid/pkg/schedule"
	"github.com/goliatone/go-admingrid/pkg/testsupport"
	"github.com/goliatone/go-admingrid/pkg/widget"
)

func patientWidget(t *testing.T, configure func(b *widget.Builder)) *widget.Widget {
	t.Helper()

	b := widget.New("patients", testsupport.PatientSource(), widget.WithDefaults(request.Defaults{
		Limit:      2,
		OrderField: "name",
		Now:        testsupport.Clock(),
	}))
	steps := []error{
		b.Field("name").Sortable().Truncate(8, "…").Done(),
		b.Field("doctor.name").Label("Doctor").Done(),
		b.Field("born").Type(model.FieldTypeDate).Format("2006").Done(),
		b.Field("visits").Type(model.FieldTypeNumber).Done(),
		b.Field("status").Options(
			model.Option{Value: "active", Label: "Active"},
			model.Option{Value: "archived", Label: "Archived"},
		).Done(),
	}
	for _, err := range steps {
		if err != nil {
			t.Fatalf("configure: %v", err)
		}
	}
	b.Filter(query.Filter{Name: "status", Field: "status"})
	b.Column("summary", "Summary", func(raw model.Record) any {
		return fmt.Sprintf("%v (%v)", raw["name"], raw["visits"])
	})
	if configure != nil {
		configure(b)
	}
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	return w
}

func TestServeTable(t *testing.T) {
	t.Parallel()

	w := patientWidget(t, nil)
	resp, err := w.Serve(testsupport.Context(), testsupport.Params("patients", request.ParamFilter, "status:active"))
	if err != nil {
		t.Fatalf("serve: %v", err)
	}

	wantPage := widget.Pagination{Limit: 2, Offset: 0, Total: 3, Page: 1, Pages: 2, HasNext: true}
	if diff := cmp.Diff(wantPage, resp.Pagination); diff != "" {
		t.Fatalf("pagination mismatch (-want +got):\n%s", diff)
	}
	if len(resp.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(resp.Rows))
	}
	row := resp.Rows[0]
	want := map[string]any{
		"name":        "Ada Love…",
		"doctor.name": "Dr. Babbage",
		"born":        "1815",
		"visits":      "3",
		"status":      "Active",
		"summary":     "Ada Lovelace (3)",
	}
	for key, value := range want {
		if row[key] != value {
			t.Fatalf("row[%q] = %#v, want %#v", key, row[key], value)
		}
	}
	if resp.Rows[1]["summary"] != "Edsger Dijkstra (7)" {
		t.Fatalf("unexpected second row: %#v", resp.Rows[1])
	}
	if diff := cmp.Diff([]action.FilterState{{Name: "status", Label: "Status", Value: "active", Active: true}}, resp.Filters); diff != "" {
		t.Fatalf("filters mismatch (-want +got):\n%s", diff)
	}
	if resp.State.Get("patients_filter") != "status:active" {
		t.Fatalf("state should carry the filter, got %v", resp.State)
	}

	decoded := testsupport.RoundTripJSON(t, resp)
	if _, ok := decoded["rows"].([]any); !ok {
		t.Fatalf("response should serialise rows: %#v", decoded)
	}
}

func TestServeRowsCarryOnlyVisibleFields(t *testing.T) {
	t.Parallel()

	w := patientWidget(t, func(b *widget.Builder) {
		if err := b.Field("visits").Hide().Done(); err != nil {
			t.Fatalf("hide: %v", err)
		}
	})
	resp, err := w.Serve(testsupport.Context(), testsupport.Params("patients"))
	if err != nil {
		t.Fatalf("serve: %v", err)
	}

	row := resp.Rows[0]
	want := []string{"born", "doctor.name", "id", "name", "status", "summary"}
	got := make([]string, 0, len(row))
	for key := range row {
		got = append(got, key)
	}
	sort.Strings(got)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("row keys mismatch (-want +got):\n%s", diff)
	}
	if row["id"] != 1 {
		t.Fatalf("row should keep its id, got %#v", row["id"])
	}
}

func TestServeRunsActionBeforeFetch(t *testing.T) {
	t.Parallel()

	w := patientWidget(t, func(b *widget.Builder) {
		b.DefaultActions("/patients/{{ id }}")
	})
	resp, err := w.Serve(testsupport.Context(), testsupport.Params("patients",
		request.ParamBulk, "delete",
		request.ParamIDs, "1,2",
	))
	if err != nil {
		t.Fatalf("serve: %v", err)
	}
	if resp.Outcome == nil || resp.Outcome.Data["deleted"] != 2 {
		t.Fatalf("unexpected outcome: %+v", resp.Outcome)
	}
	if resp.Pagination.Total != 3 {
		t.Fatalf("rows should reflect the delete, total %d", resp.Pagination.Total)
	}
	keys := make([]string, 0, len(resp.Actions))
	for _, a := range resp.Actions {
		keys = append(keys, a.Key)
	}
	if diff := cmp.Diff([]string{"edit", "delete"}, keys); diff != "" {
		t.Fatalf("actions mismatch (-want +got):\n%s", diff)
	}
}

func TestServeUnknownActionFails(t *testing.T) {
	t.Parallel()

	w := patientWidget(t, nil)
	_, err := w.Serve(testsupport.Context(), testsupport.Params("patients", request.ParamAction, "nope"))
	if !errors.Is(err, action.ErrUnknownAction) {
		t.Fatalf("expected ErrUnknownAction, got %v", err)
	}
}

func TestServeSchedule(t *testing.T) {
	t.Parallel()

	b := widget.New("agenda", testsupport.AppointmentSource(), widget.WithDefaults(request.Defaults{Now: testsupport.Clock()}))
	if err := b.Field("starts_at").Type(model.FieldTypeDateTime).Format("15:04").Sortable().Done(); err != nil {
		t.Fatalf("configure: %v", err)
	}
	b.Order("starts_at", request.DirAsc)
	b.Schedule("starts_at", schedule.FieldKey("room"), schedule.FieldInterval("starts_at", "ends_at"))
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	resp, err := w.Serve(testsupport.Context(), testsupport.Params("agenda",
		request.ParamWeek, "19",
		request.ParamYear, "2024",
	))
	if err != nil {
		t.Fatalf("serve: %v", err)
	}

	ids := make([]any, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		ids = append(ids, row["id"])
	}
	if diff := cmp.Diff([]any{"a1", "a4", "a5", "a2", "a3", "a6"}, ids); diff != "" {
		t.Fatalf("rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{0, 0, 1, 1, 0, 0}, resp.Tracks); diff != "" {
		t.Fatalf("tracks mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(map[string]int{"R1": 2, "R2": 2}, resp.TrackCounts); diff != "" {
		t.Fatalf("track counts mismatch (-want +got):\n%s", diff)
	}
	if resp.Rows[0]["starts_at"] != "09:00" || resp.Rows[2][schedule.TrackKey] != 1 {
		t.Fatalf("unexpected formatted row: %#v", resp.Rows[0])
	}
	if resp.Widget.Period == nil || resp.Widget.Period.Kind != request.PeriodWeek {
		t.Fatalf("expected week period, got %+v", resp.Widget.Period)
	}
}

func TestBuildValidation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		configure func(b *widget.Builder)
		id        string
		want      string
	}{
		{name: "empty id", id: "", want: "id is required"},
		{name: "unknown filter field", id: "w", configure: func(b *widget.Builder) {
			b.Filter(query.Filter{Name: "x", Field: "missing"})
		}, want: `unknown field "missing"`},
		{name: "unknown sort alias", id: "w", configure: func(b *widget.Builder) {
			b.Order("nope", request.DirAsc)
		}, want: "not a sortable field"},
		{name: "duplicate action", id: "w", configure: func(b *widget.Builder) {
			b.Action(action.EditAction("/a"))
			b.Action(action.EditAction("/b"))
		}, want: "duplicate key"},
		{name: "calendar without date field", id: "w", configure: func(b *widget.Builder) {
			b.SetKind(widget.KindCalendar)
		}, want: "needs a date field"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			b := widget.New(tc.id, testsupport.PatientSource())
			if tc.configure != nil {
				tc.configure(b)
			}
			_, err := b.Build()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestBuildDuplicateActionIsSentinel(t *testing.T) {
	t.Parallel()

	b := widget.New("w", testsupport.PatientSource())
	b.DefaultActions("")
	b.BulkAction(action.DeleteAction())
	if _, err := b.Build(); !errors.Is(err, action.ErrDuplicateAction) {
		t.Fatalf("expected ErrDuplicateAction, got %v", err)
	}
}

func TestSeedKeepsCodeConfiguration(t *testing.T) {
	t.Parallel()

	rulesSource := static.New(map[string][]model.Field{
		"patient": {
			{Key: "name", Label: "Full name", Sortable: true},
			{Key: "status", Type: model.FieldTypeSelect, Options: []model.Option{{Value: "active", Label: "Active"}}},
		},
	})
	b := widget.New("patients", testsupport.PatientSource())
	if err := b.Field("name").Label("Name").Done(); err != nil {
		t.Fatalf("configure: %v", err)
	}
	b.Seed(testsupport.Context(), rulesSource, "patient")
	w, err := b.Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	fields := w.Fields()
	if len(fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(fields))
	}
	if fields[0].Label != "Name" || fields[0].Sortable {
		t.Fatalf("code configuration should win: %+v", fields[0])
	}
	if fields[1].Type != model.FieldTypeSelect {
		t.Fatalf("seeded field missing: %+v", fields[1])
	}

	bad := widget.New("patients", testsupport.PatientSource())
	bad.Seed(testsupport.Context(), rulesSource, "doctor")
	if _, err := bad.Build(); err == nil {
		t.Fatalf("expected unknown scope to fail the build")
	}
}
