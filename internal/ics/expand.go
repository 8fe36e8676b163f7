package ics

import (
	"errors"
	"time"

	"cloud.google.com/go/civil"
	"github.com/teambition/rrule-go"

	appLog "calmark/internal/log"
	"calmark/internal/model"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// RangeStart / RangeEnd bound the produced occurrences (inclusive).
	// A zero RangeStart means "from each event's own DTSTART".
	RangeStart civil.Date
	RangeEnd   civil.Date

	// MaxOccurrencesPerEvent is a safety cap against unbounded rules.
	// If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the expanded events and the UIDs whose expansion was
// truncated by the cap.
type ExpandResult struct {
	Events          []model.Event
	TruncatedEvents []string
}

// Expand replaces every event carrying an RRULE by one event per
// occurrence inside the configured range, minus its EXDATEs. Events without RRULE
// pass through unchanged. An RRULE that cannot be parsed leaves the event
// as a single occurrence at its DTSTART.
func Expand(events []model.Event, cfg ExpandConfig) ExpandResult {
	var result ExpandResult
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	out := make([]model.Event, 0, len(events))
	for _, ev := range events {
		if ev.RRule == "" {
			out = append(out, ev)
			continue
		}

		occ, hitCap, err := expandRecurring(ev, cfg)
		if err != nil {
			appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RRule)
			out = append(out, ev)
			continue
		}
		if hitCap {
			result.TruncatedEvents = append(result.TruncatedEvents, ev.UID)
			appLog.Error("expand: truncated occurrences for UID due to cap",
				errors.New("max occurrences reached"),
				"uid", ev.UID,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
		out = append(out, occ...)
	}

	result.Events = out
	return result
}

// expandRecurring works on midnight UTC instants so that day arithmetic
// never crosses a DST boundary.
func expandRecurring(ev model.Event, cfg ExpandConfig) ([]model.Event, bool, error) {
	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		return nil, false, err
	}
	r.DTStart(ev.Start.In(time.UTC))

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(time.UTC))
	}

	from := ev.Start
	if !cfg.RangeStart.IsZero() && cfg.RangeStart.After(from) {
		from = cfg.RangeStart
	}
	if cfg.RangeEnd.Before(from) {
		return nil, false, nil
	}
	times := set.Between(from.In(time.UTC), cfg.RangeEnd.In(time.UTC), true)

	hitCap := false
	if len(times) > cfg.MaxOccurrencesPerEvent {
		times = times[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	out := make([]model.Event, 0, len(times))
	for _, t := range times {
		occ := ev
		occ.Start = civil.DateOf(t)
		occ.RRule = ""
		occ.ExDates = nil
		out = append(out, occ)
	}
	return out, hitCap, nil
}
