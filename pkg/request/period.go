package request

import (
	"strconv"
	"time"
)

// Period kinds.
const (
	PeriodMonth = "month"
	PeriodWeek  = "week"
	PeriodRange = "range"
)

const dateLayout = "2006-01-02"

// Period is the half-open [Start, End) window displayed by calendar and
// schedule widgets.
type Period struct {
	Kind  string    `json:"kind"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Days returns the number of calendar days covered.
func (p Period) Days() int {
	return int(p.End.Sub(p.Start).Hours()/24 + 0.5)
}

// ParsePeriod resolves period parameters. An explicit from/to range wins over
// an ISO week, which wins over month/year. Anything unparseable falls back to
// the month containing now.
func ParsePeriod(month, year, week, from, to string, now time.Time) Period {
	loc := now.Location()

	if from != "" && to != "" {
		start, errFrom := time.ParseInLocation(dateLayout, from, loc)
		end, errTo := time.ParseInLocation(dateLayout, to, loc)
		if errFrom == nil && errTo == nil && !end.Before(start) {
			return Period{Kind: PeriodRange, Start: start, End: end.AddDate(0, 0, 1)}
		}
	}

	y := now.Year()
	if parsed, err := strconv.Atoi(year); err == nil && parsed > 0 && parsed < 10000 {
		y = parsed
	}

	if w, err := strconv.Atoi(week); err == nil && w >= 1 && w <= isoWeeksInYear(y, loc) {
		start := isoWeekStart(y, w, loc)
		return Period{Kind: PeriodWeek, Start: start, End: start.AddDate(0, 0, 7)}
	}

	m := int(now.Month())
	if parsed, err := strconv.Atoi(month); err == nil && parsed >= 1 && parsed <= 12 {
		m = parsed
	}
	start := time.Date(y, time.Month(m), 1, 0, 0, 0, 0, loc)
	return Period{Kind: PeriodMonth, Start: start, End: start.AddDate(0, 1, 0)}
}

// isoWeekStart returns the Monday starting ISO week w of year y.
func isoWeekStart(y, w int, loc *time.Location) time.Time {
	jan4 := time.Date(y, time.January, 4, 0, 0, 0, 0, loc)
	offset := (int(jan4.Weekday()) + 6) % 7
	week1 := jan4.AddDate(0, 0, -offset)
	return week1.AddDate(0, 0, (w-1)*7)
}

func isoWeeksInYear(y int, loc *time.Location) int {
	_, w := time.Date(y, time.December, 28, 0, 0, 0, 0, loc).ISOWeek()
	return w
}
