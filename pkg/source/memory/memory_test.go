package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/query"
)

func fixture() *Source {
	return New([]model.Record{
		{"id": 1, "name": "Ada", "status": "open", "score": 7, "starts_at": time.Date(2026, 1, 2, 9, 0, 0, 0, time.UTC)},
		{"id": 2, "name": "Grace", "status": "closed", "score": 9, "starts_at": time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)},
		{"id": 3, "name": "Linus", "status": "open", "score": 3, "starts_at": time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)},
	})
}

func ids(records []model.Record) []any {
	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r["id"]
	}
	return out
}

func TestQueryConditionsAndOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := fixture()

	q := query.Query{}
	q.Where("status", query.OpEq, "open").OrderBy("score", true)
	got, err := src.Query(ctx, q)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if diff := cmp.Diff([]any{1, 3}, ids(got)); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}

	q = query.Query{}
	q.Where("score", query.OpGte, "7").OrderBy("starts_at", false)
	got, _ = src.Query(ctx, q)
	if diff := cmp.Diff([]any{2, 1}, ids(got)); diff != "" {
		t.Fatalf("numeric/time mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryBetweenInAndSearch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := fixture()

	q := query.Query{}
	q.Where("starts_at", query.OpBetween, [2]any{"2026-01-01", "2026-01-02"})
	got, _ := src.Query(ctx, q)
	if diff := cmp.Diff([]any{2}, ids(got)); diff != "" {
		t.Fatalf("between mismatch (-want +got):\n%s", diff)
	}

	q = query.Query{}
	q.Where("id", query.OpIn, []any{"1", "3"})
	got, _ = src.Query(ctx, q)
	if diff := cmp.Diff([]any{1, 3}, ids(got)); diff != "" {
		t.Fatalf("in mismatch (-want +got):\n%s", diff)
	}

	q = query.Query{Search: query.Search{Term: "RAC", Fields: []string{"name"}}}
	got, _ = src.Query(ctx, q)
	if diff := cmp.Diff([]any{2}, ids(got)); diff != "" {
		t.Fatalf("search mismatch (-want +got):\n%s", diff)
	}
}

func TestBetweenReadsStringDatesInBoundLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("X", 2*3600)
	src := New([]model.Record{
		{"id": 1, "starts_at": "2024-05-06 00:30:00"},
		{"id": 2, "starts_at": "2024-05-06 09:00:00"},
		{"id": 3, "starts_at": "2024-05-13 01:30:00"},
	})

	q := query.Query{}
	q.Where("starts_at", query.OpBetween, [2]any{
		time.Date(2024, 5, 6, 1, 0, 0, 0, loc),
		time.Date(2024, 5, 13, 1, 0, 0, 0, loc),
	})
	got, err := src.Query(context.Background(), q)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if diff := cmp.Diff([]any{2}, ids(got)); diff != "" {
		t.Fatalf("between mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryPagingAndCount(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := fixture()

	q := query.Query{Limit: 2, Offset: 2}
	q.OrderBy("id", false)
	got, _ := src.Query(ctx, q)
	if diff := cmp.Diff([]any{3}, ids(got)); diff != "" {
		t.Fatalf("paging mismatch (-want +got):\n%s", diff)
	}

	q.Offset = 10
	got, err := src.Query(ctx, q)
	if err != nil || len(got) != 0 {
		t.Fatalf("offset past end: %v, %v", got, err)
	}

	total, err := src.Count(ctx, q)
	if err != nil || total != 3 {
		t.Fatalf("Count = %d, %v", total, err)
	}
}

func TestReturnedRecordsAreDetached(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := fixture()

	got, _ := src.GetByIDs(ctx, []string{"2"})
	got[0]["_track"] = 1

	again, _ := src.GetByIDs(ctx, []string{"2"})
	if _, leaked := again[0]["_track"]; leaked {
		t.Fatalf("annotation leaked into stored record")
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := fixture()
	boom := errors.New("locked")
	src.FailDeleteOn("3", boom)

	if err := src.Delete(ctx, "1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := src.Delete(ctx, "1"); !errors.Is(err, query.ErrNotFound) {
		t.Fatalf("second delete: got %v", err)
	}
	if err := src.Delete(ctx, "3"); !errors.Is(err, boom) {
		t.Fatalf("failing delete: got %v", err)
	}
	if src.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", src.Len())
	}
}
