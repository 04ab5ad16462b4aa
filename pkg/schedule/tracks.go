// Package schedule lays out time intervals that share a resource on parallel
// tracks so that no two intervals on the same track overlap.
package schedule

import (
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/query"
)

// TrackKey is the record key the assigned track index is written to.
const TrackKey = "_track"

var disambiguation = regexp.MustCompile(`(#|__)\d+$`)

// NormalizeKey strips a trailing "#<n>" or "__<n>" disambiguation suffix.
func NormalizeKey(key string) string {
	return disambiguation.ReplaceAllString(key, "")
}

// Interval is a half-open [Start, End) span.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Row   int       `json:"row"`
}

// Overlaps reports whether two half-open intervals intersect.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

// ResourceFunc extracts the grouping key of a record.
type ResourceFunc func(record model.Record) string

// IntervalFunc extracts the interval of a record. ok is false when the record
// carries no usable interval.
type IntervalFunc func(record model.Record) (start, end time.Time, ok bool)

// Assignment is the result of AssignTracks.
type Assignment struct {
	// Tracks holds, per resource, the intervals placed on each track.
	Tracks map[string][][]Interval `json:"tracks"`
	// Counts holds the number of tracks opened per resource.
	Counts map[string]int `json:"counts"`
	// Rows holds the track index of every input row.
	Rows []int `json:"rows"`
}

// TrackIndex returns the track of the row at position row.
func (a Assignment) TrackIndex(row int) int {
	if row < 0 || row >= len(a.Rows) {
		return 0
	}
	return a.Rows[row]
}

// MaxTracks returns the number of tracks needed by resource, at least one.
func (a Assignment) MaxTracks(resource string) int {
	if n := a.Counts[NormalizeKey(resource)]; n > 0 {
		return n
	}
	return 1
}

type candidate struct {
	row      int
	interval Interval
}

// AssignTracks groups rows by resource and gives each row the first track on
// which it does not overlap an earlier placed interval. Rows are considered
// in start order, ties keeping their input order. Rows without a valid
// interval get track 0 and are never compared. The track index is written to
// both the raw and formatted halves of every row.
func AssignTracks(rows []query.Row, resource ResourceFunc, interval IntervalFunc) Assignment {
	out := Assignment{
		Tracks: make(map[string][][]Interval),
		Counts: make(map[string]int),
		Rows:   make([]int, len(rows)),
	}
	groups := make(map[string][]candidate)
	var order []string
	for i, row := range rows {
		start, end, ok := interval(row.Raw)
		if !ok || !end.After(start) {
			continue
		}
		key := NormalizeKey(resource(row.Raw))
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], candidate{
			row:      i,
			interval: Interval{Start: start, End: end, Row: i},
		})
	}

	for _, key := range order {
		items := groups[key]
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].interval.Start.Before(items[j].interval.Start)
		})
		var tracks [][]Interval
		for _, item := range items {
			placed := false
			for t := range tracks {
				if fits(tracks[t], item.interval) {
					tracks[t] = append(tracks[t], item.interval)
					out.Rows[item.row] = t
					placed = true
					break
				}
			}
			if !placed {
				tracks = append(tracks, []Interval{item.interval})
				out.Rows[item.row] = len(tracks) - 1
			}
		}
		out.Tracks[key] = tracks
		out.Counts[key] = len(tracks)
	}

	for i, row := range rows {
		if row.Raw != nil {
			row.Raw[TrackKey] = out.Rows[i]
		}
		if row.Formatted != nil {
			row.Formatted[TrackKey] = out.Rows[i]
		}
	}
	return out
}

func fits(track []Interval, candidate Interval) bool {
	for _, placed := range track {
		if placed.Overlaps(candidate) {
			return false
		}
	}
	return true
}

// FieldKey reads the resource key from a record field.
func FieldKey(key string) ResourceFunc {
	return func(record model.Record) string {
		value, ok := model.Lookup(record, key)
		if !ok || value == nil {
			return ""
		}
		if s, ok := value.(string); ok {
			return s
		}
		return fmt.Sprint(value)
	}
}

// FieldInterval reads an interval from two record fields. Values may be
// time.Time or strings in any model.TimeLayouts format.
func FieldInterval(startKey, endKey string) IntervalFunc {
	return func(record model.Record) (time.Time, time.Time, bool) {
		rawStart, ok := model.Lookup(record, startKey)
		if !ok {
			return time.Time{}, time.Time{}, false
		}
		rawEnd, ok := model.Lookup(record, endKey)
		if !ok {
			return time.Time{}, time.Time{}, false
		}
		start, ok := model.ParseTime(rawStart)
		if !ok {
			return time.Time{}, time.Time{}, false
		}
		end, ok := model.ParseTime(rawEnd)
		if !ok {
			return time.Time{}, time.Time{}, false
		}
		return start, end, true
	}
}
