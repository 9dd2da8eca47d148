package event

import (
	"strconv"
	"strings"
	"time"
)

// ParseDate converts a display date such as "19 Oct Sat" into a calendar date.
//
// The listing never carries a year, so the year is taken from ref. Dates more
// than a month before ref are assumed to belong to the following year, which
// covers listings that cross New Year. Returns time.Time{} (zero value) if the
// day or month cannot be found
func ParseDate(dateText string, ref time.Time) time.Time {
	fields := strings.FieldsFunc(dateText, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) < 2 {
		return time.Time{}
	}

	day, err := strconv.Atoi(fields[0])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}
	}

	var month time.Month
	for _, f := range fields[1:] {
		if m, ok := parseMonth(f); ok {
			month = m
			break
		}
	}
	if month == 0 {
		return time.Time{}
	}

	refDay := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(ref.Year(), month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day {
		// Day overflowed into the next month, e.g. "31 Feb"
		return time.Time{}
	}
	if t.Before(refDay.AddDate(0, -1, 0)) {
		t = t.AddDate(1, 0, 0)
	}
	return t
}

// parseMonth matches full or abbreviated English month names
func parseMonth(s string) (time.Month, bool) {
	s = strings.ToLower(strings.TrimSuffix(s, "."))
	if len(s) < 3 {
		return 0, false
	}
	for m := time.January; m <= time.December; m++ {
		name := strings.ToLower(m.String())
		if strings.HasPrefix(name, s) {
			return m, true
		}
	}
	return 0, false
}

// CalendarDate returns the event's calendar date relative to ref
func (e *Event) CalendarDate(ref time.Time) time.Time {
	return ParseDate(e.Date, ref)
}
