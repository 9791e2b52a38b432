package parser

import (
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const monthAbbrev = `(?:JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)[A-Z]*`

// Date shapes collected from the whole document. Every match is attempted
// through the lenient day-first parser; individual failures are discarded.
var datePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\d{1,2}[/\-]\d{1,2}[/\-]\d{2,4}`),
	regexp.MustCompile(`\d{1,2}[\s\-]+` + monthAbbrev + `[,\s\-]*\d{2,4}`),
	regexp.MustCompile(monthAbbrev + `\s+\d{1,2},?\s+\d{4}`),
	regexp.MustCompile(`\d{4}[/\-]\d{1,2}[/\-]\d{1,2}`),
}

var dateLayouts = []string{
	"2/1/2006",
	"2-1-2006",
	"2/1/06",
	"2-1-06",
	"2-Jan-2006",
	"2 Jan 2006",
	"2 Jan, 2006",
	"2-January-2006",
	"2 January 2006",
	"2-Jan-06",
	"2 Jan 06",
	"Jan 2, 2006",
	"Jan 2 2006",
	"January 2, 2006",
	"January 2 2006",
	"2006/1/2",
	"2006-1-2",
}

var (
	reSept   = regexp.MustCompile(`\bSEPT\b`)
	reDashWS = regexp.MustCompile(`\s*-\s*`)
	reRunWS  = regexp.MustCompile(`\s+`)
)

// FindDate collects every date-shaped substring, parses each one day-first,
// and returns the earliest calendar date in ISO form. Invoices usually carry
// both an issue date and a later due date; the issue date sorts first.
func FindDate(upper string) *string {
	var candidates []time.Time
	for _, re := range datePatterns {
		for _, m := range re.FindAllString(upper, -1) {
			if d, ok := parseDayFirst(m); ok {
				candidates = append(candidates, d)
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	earliest := candidates[0]
	for _, d := range candidates[1:] {
		if d.Before(earliest) {
			earliest = d
		}
	}
	iso := earliest.Format("2006-01-02")
	return &iso
}

// parseDayFirst parses one date candidate, trying explicit layouts before
// falling back to lenient detection. Ambiguous numeric dates resolve
// day-first, which is how Indian invoices are written.
func parseDayFirst(s string) (time.Time, bool) {
	s = strings.Trim(s, " .,:")
	s = reSept.ReplaceAllString(s, "SEP")
	s = reDashWS.ReplaceAllString(s, "-")
	s = reRunWS.ReplaceAllString(s, " ")

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	t, err := dateparse.ParseAny(s, dateparse.PreferMonthFirst(false))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
