package ics

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"calmark/internal/model"
)

// arran4Calendar adapts github.com/arran4/golang-ical to Calendar.
type arran4Calendar struct {
	cal *ical.Calendar
	b   eventBuilder
}

func parseArran4(body []byte, loc *time.Location) (Calendar, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return &arran4Calendar{cal: cal, b: eventBuilder{loc: loc}}, nil
}

// Events converts every VEVENT. Events without a usable DTSTART are
// logged and skipped.
func (c *arran4Calendar) Events() []model.Event {
	out := make([]model.Event, 0, len(c.cal.Events()))
	for _, ve := range c.cal.Events() {
		ev, err := c.b.fromArran4(ve)
		if err != nil {
			logSkippedEvent(BackendArran4, ev.UID, err)
			continue
		}
		out = append(out, ev)
	}
	return out
}

func (b eventBuilder) fromArran4(ve *ical.VEvent) (model.Event, error) {
	var out model.Event

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	// The library has already decoded TEXT escapes in Value.
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, errors.New("missing DTSTART")
	}

	valueParam := firstParam(dtStart.ICalParameters, "VALUE")
	tzid := firstParam(dtStart.ICalParameters, "TZID")

	switch {
	case isDateValue(dtStart.Value, valueParam):
		d, err := parseDateValue(dtStart.Value)
		if err != nil {
			return out, fmt.Errorf("DTSTART %q: %w", dtStart.Value, err)
		}
		out.Start = d
	case tzid == "" && !isUTCValue(dtStart.Value):
		// Floating time: the library would pin it to the host zone.
		t, err := parseDateTimeValue(dtStart.Value, b.loc)
		if err != nil {
			return out, fmt.Errorf("DTSTART %q: %w", dtStart.Value, err)
		}
		out.Start = b.dateOf(t)
	default:
		t, err := ve.GetStartAt()
		if err != nil {
			// TZID the library cannot resolve; treat the wall time as ours.
			t, err = parseDateTimeValue(dtStart.Value, b.loc)
			if err != nil {
				return out, fmt.Errorf("DTSTART %q: %w", dtStart.Value, err)
			}
		}
		out.Start = b.dateOf(t)
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RRule = p.Value
	}
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		out.ExDates = append(out.ExDates, b.parseExDates([]string{p.Value}, firstParam(p.ICalParameters, "TZID"))...)
	}

	return out, nil
}

func firstParam(params map[string][]string, name string) string {
	if params == nil {
		return ""
	}
	if vs, ok := params[name]; ok && len(vs) > 0 {
		return vs[0]
	}
	return ""
}

func isUTCValue(v string) bool {
	return len(v) > 0 && (v[len(v)-1] == 'Z' || v[len(v)-1] == 'z')
}
