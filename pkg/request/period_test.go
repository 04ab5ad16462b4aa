package request

import (
	"testing"
	"time"
)

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	cases := []struct {
		name                        string
		month, year, week, from, to string
		want                        Period
	}{
		{
			name: "default month",
			want: Period{Kind: PeriodMonth, Start: day(2026, 10, 1), End: day(2026, 11, 1)},
		},
		{
			name: "explicit month", month: "2", year: "2024",
			want: Period{Kind: PeriodMonth, Start: day(2024, 2, 1), End: day(2024, 3, 1)},
		},
		{
			name: "iso week one", week: "1", year: "2026",
			want: Period{Kind: PeriodWeek, Start: day(2025, 12, 29), End: day(2026, 1, 5)},
		},
		{
			name: "inclusive range", from: "2026-10-01", to: "2026-10-03",
			want: Period{Kind: PeriodRange, Start: day(2026, 10, 1), End: day(2026, 10, 4)},
		},
		{
			name: "inverted range falls back", from: "2026-10-05", to: "2026-10-01", month: "13",
			want: Period{Kind: PeriodMonth, Start: day(2026, 10, 1), End: day(2026, 11, 1)},
		},
		{
			name: "week out of range", week: "60",
			want: Period{Kind: PeriodMonth, Start: day(2026, 10, 1), End: day(2026, 11, 1)},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ParsePeriod(tc.month, tc.year, tc.week, tc.from, tc.to, now)
			if got.Kind != tc.want.Kind || !got.Start.Equal(tc.want.Start) || !got.End.Equal(tc.want.End) {
				t.Fatalf("ParsePeriod = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestPeriodContains(t *testing.T) {
	t.Parallel()

	p := Period{Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)}
	if !p.Contains(p.Start) {
		t.Fatalf("start must be inside")
	}
	if p.Contains(p.End) {
		t.Fatalf("end must be outside")
	}
	if p.Days() != 1 {
		t.Fatalf("Days() = %d", p.Days())
	}
}
