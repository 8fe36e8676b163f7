package ics

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"

	"calmark/internal/model"
)

// emersionCalendar adapts github.com/emersion/go-ical to Calendar. A feed
// may in theory carry several VCALENDAR objects; their events are merged.
type emersionCalendar struct {
	cals []*ical.Calendar
	b    eventBuilder
}

func parseEmersion(body []byte, loc *time.Location) (Calendar, error) {
	dec := ical.NewDecoder(bytes.NewReader(body))

	var cals []*ical.Calendar
	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		cals = append(cals, cal)
	}
	if len(cals) == 0 {
		return nil, fmt.Errorf("%w: no VCALENDAR object", ErrParse)
	}
	return &emersionCalendar{cals: cals, b: eventBuilder{loc: loc}}, nil
}

// Events converts every VEVENT. Events without a usable DTSTART are
// logged and skipped.
func (c *emersionCalendar) Events() []model.Event {
	var out []model.Event
	for _, cal := range c.cals {
		for _, ev := range cal.Events() {
			me, err := c.b.fromEmersion(ev)
			if err != nil {
				logSkippedEvent(BackendEmersion, me.UID, err)
				continue
			}
			out = append(out, me)
		}
	}
	return out
}

func (b eventBuilder) fromEmersion(ev ical.Event) (model.Event, error) {
	var out model.Event

	if p := ev.Props.Get(ical.PropUID); p != nil {
		out.UID = p.Value
	}
	summary, err := ev.Props.Text(ical.PropSummary)
	if err != nil {
		return out, fmt.Errorf("SUMMARY: %w", err)
	}
	out.Summary = summary

	dtStart := ev.Props.Get(ical.PropDateTimeStart)
	if dtStart == nil || dtStart.Value == "" {
		return out, errors.New("missing DTSTART")
	}

	if isDateValue(dtStart.Value, dtStart.Params.Get(ical.ParamValue)) {
		d, err := parseDateValue(dtStart.Value)
		if err != nil {
			return out, fmt.Errorf("DTSTART %q: %w", dtStart.Value, err)
		}
		out.Start = d
	} else {
		// DateTime resolves TZID and UTC forms; floating times land in b.loc.
		t, err := dtStart.DateTime(b.loc)
		if err != nil {
			t, err = parseDateTimeValue(dtStart.Value, b.loc)
			if err != nil {
				return out, fmt.Errorf("DTSTART %q: %w", dtStart.Value, err)
			}
		}
		out.Start = b.dateOf(t)
	}

	if p := ev.Props.Get(ical.PropRecurrenceRule); p != nil {
		out.RRule = p.Value
	}
	for _, p := range ev.Props.Values(ical.PropExceptionDates) {
		out.ExDates = append(out.ExDates, b.parseExDates([]string{p.Value}, p.Params.Get(ical.ParamTimezoneID))...)
	}

	return out, nil
}
