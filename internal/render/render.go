package render

import (
	"fmt"
	"regexp"
	"strings"

	"cloud.google.com/go/civil"

	"calmark/internal/marker"
	"calmark/internal/model"
)

// TableID is the id attribute of the rendered table.
const TableID = "calendar"

// sortTag is the "[N] " ordering hint organizers prefix summaries with.
var sortTag = regexp.MustCompile(`\[\d\] `)

// cellEscaper escapes the characters that would break table markup. Quotes
// are left alone since cell text never sits inside an attribute.
var cellEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// Table renders the agenda as an HTML table, one row per summary in agenda
// order. An empty agenda renders a single placeholder row.
func Table(agenda model.Agenda, placeholder string) string {
	lines := []string{"<table id='" + TableID + "'>"}

	if agenda.Len() == 0 {
		lines = append(lines, "<tr><td>"+cellEscaper.Replace(placeholder)+"</td></tr>")
	} else {
		for _, day := range agenda {
			date := FormatDate(day.Date)
			for _, summary := range day.Summaries {
				lines = append(lines, fmt.Sprintf(
					"<tr><td class='date'>%s</td><td>%s</td></tr>",
					date, cellEscaper.Replace(StripSortTags(summary)),
				))
			}
		}
	}

	lines = append(lines, "</table>")
	return strings.Join(lines, "\n")
}

// StripSortTags removes every "[N] " ordering hint from s.
func StripSortTags(s string) string {
	return sortTag.ReplaceAllString(s, "")
}

// FormatDate renders d as day.month.year without leading zeros, e.g. 5.3.2025.
func FormatDate(d civil.Date) string {
	return fmt.Sprintf("%d.%d.%d", d.Day, int(d.Month), d.Year)
}

// Document renders agenda and splices the table into content between the
// start and end markers. See marker.Splice for the replacement rules.
func Document(content string, agenda model.Agenda, placeholder, start, end string) (string, bool) {
	return marker.Splice(content, Table(agenda, placeholder), start, end)
}
