// Package agenda turns parsed calendar events into the date-keyed list
// that is published: past and tentative events dropped, status prefixes
// removed, everything sorted.
package agenda

import (
	"regexp"
	"sort"
	"strings"

	"cloud.google.com/go/civil"

	appLog "calmark/internal/log"
	"calmark/internal/model"
)

// Source is anything that can list calendar events; ics.Calendar is the
// production implementation.
type Source interface {
	Events() []model.Event
}

// List adapts a plain event slice, such as the output of recurrence
// expansion, to Source.
type List []model.Event

func (l List) Events() []model.Event { return l }

// Options controls the extraction.
type Options struct {
	// FutureOnly drops events whose start date is before Today.
	FutureOnly bool
	// Today is the reference date for FutureOnly.
	Today civil.Date
}

// statusPrefix matches the status marker some organizers put in front of
// a summary. It is removed once, and only at the start.
var statusPrefix = regexp.MustCompile(`^(?:Exit - |Exit )`)

// tentativeMarker flags an unconfirmed event.
const tentativeMarker = "?"

// Extract builds the agenda from src. A nil source yields an empty agenda.
func Extract(src Source, opts Options) model.Agenda {
	if src == nil {
		return model.Agenda{}
	}

	byDate := make(map[civil.Date][]string)
	var past, tentative int

	for _, ev := range src.Events() {
		if opts.FutureOnly && ev.Start.Before(opts.Today) {
			past++
			continue
		}

		summary, ok := CleanSummary(ev.Summary)
		if !ok {
			tentative++
			appLog.Debug("agenda: tentative event dropped", "date", ev.Start, "summary", summary)
			continue
		}

		byDate[ev.Start] = append(byDate[ev.Start], summary)
	}

	out := make(model.Agenda, 0, len(byDate))
	for date, summaries := range byDate {
		sort.Strings(summaries)
		out = append(out, model.Day{Date: date, Summaries: summaries})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})

	appLog.Info("agenda extracted",
		"days", len(out),
		"events", out.Len(),
		"dropped_past", past,
		"dropped_tentative", tentative,
	)
	return out
}

// CleanSummary trims s and strips a leading status prefix. It reports
// false when the cleaned summary is tentative and must not be published.
func CleanSummary(s string) (string, bool) {
	s = strings.TrimSpace(s)
	s = statusPrefix.ReplaceAllString(s, "")
	if strings.Contains(s, tentativeMarker) {
		return s, false
	}
	return s, true
}
