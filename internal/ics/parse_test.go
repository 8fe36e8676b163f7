package ics

import (
	"errors"
	"sort"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/go-cmp/cmp"

	"calmark/internal/model"
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func sortedByUID(events []model.Event) []model.Event {
	out := append([]model.Event(nil), events...)
	sort.Slice(out, func(i, j int) bool { return out[i].UID < out[j].UID })
	return out
}

func TestParseBackends(t *testing.T) {
	body := calendar(
		[]string{"UID:a-date", "DTSTART;VALUE=DATE:20250305", "SUMMARY:Exit - Old Meetup"},
		[]string{"UID:b-utc", "DTSTART:20250305T233000Z", "SUMMARY:Late call"},
		[]string{"UID:c-tzid", "DTSTART;TZID=America/New_York:20250310T220000", "SUMMARY:NY dinner"},
		[]string{"UID:d-floating", "DTSTART:20250312T100000", "SUMMARY:Floating"},
		[]string{"UID:e-escaped", "DTSTART;VALUE=DATE:20250313", `SUMMARY:Meet\, greet\; eat`},
		[]string{"UID:f-nosummary", "DTSTART;VALUE=DATE:20250314"},
		[]string{"UID:g-nostart", "SUMMARY:Broken"},
		[]string{"UID:i-backslash", "DTSTART;VALUE=DATE:20250315", `SUMMARY:C:\\new folder\, ok`},
		[]string{"UID:h-weekly", "DTSTART;VALUE=DATE:20250303", "RRULE:FREQ=WEEKLY;COUNT=4", "EXDATE;VALUE=DATE:20250310", "SUMMARY:[1] Team Sync"},
	)

	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			t.Run("utc", func(t *testing.T) {
				cal, err := Parse(backend, body, time.UTC)
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}

				want := []model.Event{
					{UID: "a-date", Summary: "Exit - Old Meetup", Start: date(2025, 3, 5)},
					{UID: "b-utc", Summary: "Late call", Start: date(2025, 3, 5)},
					{UID: "c-tzid", Summary: "NY dinner", Start: date(2025, 3, 11)},
					{UID: "d-floating", Summary: "Floating", Start: date(2025, 3, 12)},
					{UID: "e-escaped", Summary: "Meet, greet; eat", Start: date(2025, 3, 13)},
					{UID: "f-nosummary", Summary: "", Start: date(2025, 3, 14)},
					{
						UID:     "h-weekly",
						Summary: "[1] Team Sync",
						Start:   date(2025, 3, 3),
						RRule:   "FREQ=WEEKLY;COUNT=4",
						ExDates: []civil.Date{date(2025, 3, 10)},
					},
					{UID: "i-backslash", Summary: `C:\new folder, ok`, Start: date(2025, 3, 15)},
				}
				if diff := cmp.Diff(want, sortedByUID(cal.Events())); diff != "" {
					t.Errorf("events mismatch (-want +got):\n%s", diff)
				}
			})

			t.Run("timezone shifts date-time starts only", func(t *testing.T) {
				cal, err := Parse(backend, body, mustLocation(t, "Europe/Prague"))
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				got := make(map[string]civil.Date)
				for _, ev := range cal.Events() {
					got[ev.UID] = ev.Start
				}
				// 23:30Z is already the next day in Prague.
				if got["b-utc"] != date(2025, 3, 6) {
					t.Errorf("b-utc start = %v, want 2025-03-06", got["b-utc"])
				}
				if got["a-date"] != date(2025, 3, 5) {
					t.Errorf("all-day start moved: %v", got["a-date"])
				}
				if got["d-floating"] != date(2025, 3, 12) {
					t.Errorf("floating start = %v", got["d-floating"])
				}
			})
		})
	}
}

func TestParseRejectsNonCalendar(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"whitespace", "  \r\n "},
		{"html", "<!DOCTYPE html><html><body>Sign in</body></html>"},
		{"plain text", "hello world"},
	}
	for _, backend := range backends {
		for _, tt := range tests {
			t.Run(backend+"/"+tt.name, func(t *testing.T) {
				_, err := Parse(backend, []byte(tt.body), time.UTC)
				if !errors.Is(err, ErrParse) {
					t.Fatalf("expected ErrParse, got %v", err)
				}
			})
		}
	}
}

func TestParseUnknownBackend(t *testing.T) {
	_, err := Parse("libical", calendar(), time.UTC)
	if !errors.Is(err, ErrParse) {
		t.Fatalf("expected ErrParse, got %v", err)
	}
}

func TestParseEmptyCalendar(t *testing.T) {
	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			cal, err := Parse(backend, calendar(), time.UTC)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if n := len(cal.Events()); n != 0 {
				t.Errorf("expected no events, got %d", n)
			}
		})
	}
}
