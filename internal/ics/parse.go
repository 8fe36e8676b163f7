package ics

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	appLog "calmark/internal/log"
	"calmark/internal/model"
)

// ErrParse marks payloads that are not a well-formed iCalendar document.
var ErrParse = errors.New("parse error")

// Calendar is the parsed form of an ICS document as the agenda sees it:
// a list of VEVENT records with a typed start date and summary. The
// parsing library behind it stays an implementation detail.
type Calendar interface {
	Events() []model.Event
}

// Backend names accepted by Parse.
const (
	BackendArran4   = "arran4"
	BackendEmersion = "emersion"
)

// Parse validates body and hands it to the named backend. loc decides the
// calendar date of DATE-TIME starts and of floating times.
func Parse(backend string, body []byte, loc *time.Location) (Calendar, error) {
	if loc == nil {
		loc = time.UTC
	}
	if err := validateICalFormat(body); err != nil {
		return nil, err
	}

	switch backend {
	case "", BackendArran4:
		return parseArran4(body, loc)
	case BackendEmersion:
		return parseEmersion(body, loc)
	default:
		return nil, fmt.Errorf("%w: unknown parser backend %q", ErrParse, backend)
	}
}

// validateICalFormat rejects payloads that are obviously not iCalendar,
// most commonly an HTML login page served with status 200.
func validateICalFormat(body []byte) error {
	trimmed := strings.TrimSpace(strings.TrimPrefix(string(body), "\ufeff"))
	if trimmed == "" {
		return fmt.Errorf("%w: empty ICS body", ErrParse)
	}

	upper := strings.ToUpper(trimmed)
	if strings.HasPrefix(upper, "<!DOCTYPE") || strings.HasPrefix(upper, "<HTML") {
		return fmt.Errorf("%w: received HTML instead of iCalendar data - check if the URL requires authentication", ErrParse)
	}
	if !strings.HasPrefix(upper, "BEGIN:VCALENDAR") {
		preview := trimmed
		if len(preview) > 40 {
			preview = preview[:40]
		}
		return fmt.Errorf("%w: expected BEGIN:VCALENDAR, got %q", ErrParse, preview)
	}
	return nil
}

// eventBuilder holds the date policy shared by both backends.
type eventBuilder struct {
	loc *time.Location
}

// dateOf converts a resolved start time into a calendar date in b.loc.
func (b eventBuilder) dateOf(t time.Time) civil.Date {
	return civil.DateOf(t.In(b.loc))
}

// parseDateValue parses a DATE value (YYYYMMDD) without any zone shift.
func parseDateValue(v string) (civil.Date, error) {
	t, err := time.Parse("20060102", strings.TrimSpace(v))
	if err != nil {
		return civil.Date{}, err
	}
	return civil.DateOf(t), nil
}

// parseDateTimeValue parses a DATE-TIME value. UTC values end in Z;
// anything else is floating and interpreted in loc.
func parseDateTimeValue(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	if strings.HasSuffix(v, "Z") {
		return time.Parse("20060102T150405Z", v)
	}
	return time.ParseInLocation("20060102T150405", v, loc)
}

// isDateValue reports whether a DTSTART/EXDATE carries a plain date.
func isDateValue(value, valueParam string) bool {
	if strings.EqualFold(valueParam, "DATE") {
		return true
	}
	return !strings.Contains(value, "T")
}

// parseExDates splits comma separated EXDATE values into calendar dates.
// Entries that cannot be parsed are skipped.
func (b eventBuilder) parseExDates(values []string, tzid string) []civil.Date {
	var out []civil.Date
	loc := b.loc
	if tzid != "" {
		if l, err := time.LoadLocation(tzid); err == nil {
			loc = l
		}
	}
	for _, val := range values {
		for _, part := range strings.Split(val, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if isDateValue(part, "") {
				if d, err := parseDateValue(part); err == nil {
					out = append(out, d)
				}
				continue
			}
			if t, err := parseDateTimeValue(part, loc); err == nil {
				out = append(out, b.dateOf(t))
			}
		}
	}
	return out
}

func logSkippedEvent(backend, uid string, err error) {
	appLog.Error("ics vevent skipped", err, "backend", backend, "uid", uid)
}
