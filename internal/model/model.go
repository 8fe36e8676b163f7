package model

import "cloud.google.com/go/civil"

// Event is a single VEVENT reduced to what the agenda needs.
// Start is a calendar date; the time of day is dropped when the calendar
// is parsed.
type Event struct {
	UID     string
	Summary string
	Start   civil.Date

	// RRule and ExDates are only consulted when recurrence expansion is
	// enabled. ExDates are dates in the same timezone policy as Start.
	RRule   string
	ExDates []civil.Date
}

// Day groups the summaries of all events sharing a start date.
// Summaries are kept sorted lexicographically.
type Day struct {
	Date      civil.Date
	Summaries []string
}

// Agenda is the date-keyed event collection handed to the renderer.
// Days are sorted ascending by date and dates are unique.
type Agenda []Day

// Len returns the number of summaries across all days.
func (a Agenda) Len() int {
	n := 0
	for _, d := range a {
		n += len(d.Summaries)
	}
	return n
}
