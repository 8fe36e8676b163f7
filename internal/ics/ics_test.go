package ics

import (
	"strings"
	"testing"
	"time"
	_ "time/tzdata"
)

// calendar assembles a CRLF-terminated VCALENDAR around the given VEVENT
// bodies. Each body is a list of content lines without BEGIN/END.
func calendar(events ...[]string) []byte {
	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//calmark//tests//EN",
	}
	for _, ev := range events {
		lines = append(lines, "BEGIN:VEVENT")
		lines = append(lines, ev...)
		lines = append(lines, "END:VEVENT")
	}
	lines = append(lines, "END:VCALENDAR")
	return []byte(strings.Join(lines, "\r\n") + "\r\n")
}

func mustLocation(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

var backends = []string{BackendArran4, BackendEmersion}
