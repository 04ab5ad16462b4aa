// Package testsupport provides record fixtures and helpers shared by package
// tests.
package testsupport

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"
	"time"

	"github.com/goliatone/go-admingrid/pkg/model"
	"github.com/goliatone/go-admingrid/pkg/request"
	"github.com/goliatone/go-admingrid/pkg/source/memory"
)

// Monday is the anchor date for appointment fixtures.
var Monday = time.Date(2024, time.May, 6, 0, 0, 0, 0, time.UTC)

// Clock returns a fixed Now func for request defaults.
func Clock() func() time.Time {
	return func() time.Time { return Monday.Add(9 * time.Hour) }
}

// Patients returns five patient records with nested doctor data.
func Patients() []model.Record {
	return []model.Record{
		{"id": 1, "name": "Ada Lovelace", "status": "active", "born": "1815-12-10", "visits": 3,
			"doctor": map[string]any{"name": "Dr. Babbage"}},
		{"id": 2, "name": "Grace Hopper", "status": "active", "born": "1906-12-09", "visits": 12,
			"doctor": map[string]any{"name": "Dr. Aiken"}},
		{"id": 3, "name": "Alan Turing", "status": "archived", "born": "1912-06-23", "visits": 1,
			"doctor": map[string]any{"name": "Dr. Church"}},
		{"id": 4, "name": "Edsger Dijkstra", "status": "active", "born": "1930-05-11", "visits": 7,
			"doctor": map[string]any{"name": "Dr. Wijngaarden"}},
		{"id": 5, "name": "Barbara Liskov", "status": "archived", "born": "1939-11-07", "visits": 2,
			"doctor": map[string]any{"name": "Dr. McCarthy"}},
	}
}

// PatientSource returns a memory source seeded with Patients.
func PatientSource() *memory.Source {
	return memory.New(Patients())
}

func slot(day, startHour, startMin, minutes int) (time.Time, time.Time) {
	start := Monday.AddDate(0, 0, day).Add(time.Duration(startHour)*time.Hour + time.Duration(startMin)*time.Minute)
	return start, start.Add(time.Duration(minutes) * time.Minute)
}

// Appointments returns appointments across two rooms in the week of Monday
// plus one in the following month.
func Appointments() []model.Record {
	type spec struct {
		id, room       string
		day, h, m, len int
	}
	specs := []spec{
		{"a1", "R1", 0, 9, 0, 60},
		{"a2", "R1", 0, 9, 30, 60},
		{"a3", "R1", 0, 11, 0, 30},
		{"a4", "R2#1", 0, 9, 0, 30},
		{"a5", "R2__2", 0, 9, 15, 30},
		{"a6", "R1", 1, 9, 0, 45},
		{"a7", "R1", 31, 9, 0, 45},
	}
	out := make([]model.Record, 0, len(specs))
	for _, s := range specs {
		start, end := slot(s.day, s.h, s.m, s.len)
		out = append(out, model.Record{"id": s.id, "room": s.room, "starts_at": start, "ends_at": end})
	}
	return out
}

// AppointmentSource returns a memory source seeded with Appointments.
func AppointmentSource() *memory.Source {
	return memory.New(Appointments())
}

// Params builds namespaced request parameters for widgetID.
func Params(widgetID string, pairs ...string) request.Params {
	params := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		params.Add(request.Key(widgetID, pairs[i]), pairs[i+1])
	}
	return params
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// RoundTripJSON marshals value and decodes it into a generic map, failing the
// test on error.
func RoundTripJSON(t *testing.T, value any) map[string]any {
	t.Helper()

	payload, err := json.Marshal(value)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(payload, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}
