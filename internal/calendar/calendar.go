// Package calendar provides pure date helpers for the weekly grid:
// Monday-of-week computation, weekday naming, and ISO-local date formatting.
package calendar

import "time"

// DateLayout is the ISO local date format used for week start dates.
const DateLayout = "2006-01-02"

// weekdayNames is indexed Monday=0 .. Sunday=6.
var weekdayNames = [7]string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
}

// MondayOf returns the Monday (at 00:00, same location) of the week
// containing t. Sunday counts as day 7 of the week, never day 1, so
// MondayOf(sunday) is the previous day's week. Idempotent:
// MondayOf(MondayOf(t)) == MondayOf(t).
func MondayOf(t time.Time) time.Time {
	// Go's weekday: Sunday=0, Monday=1, ..., Saturday=6
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	monday := t.AddDate(0, 0, -(wd - 1))
	return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, t.Location())
}

// WeekdayIndex returns the position of t's weekday within its week,
// Monday=0 .. Sunday=6.
func WeekdayIndex(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return wd - 1
}

// WeekdayName returns the lowercase weekday identifier for t, one of
// "monday" .. "sunday". These identifiers double as field-name suffixes
// in the entry storage schema.
func WeekdayName(t time.Time) string {
	return weekdayNames[WeekdayIndex(t)]
}

// WeekdayNames returns the seven identifiers in week order, Monday first.
func WeekdayNames() [7]string {
	return weekdayNames
}

// AddWeeks returns t shifted by n whole weeks.
func AddWeeks(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, 7*n)
}

// FormatDate renders the calendar day of t as an ISO local date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// ParseDate parses an ISO local date into a midnight local time.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.Local)
}

// SameDay reports whether two times fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
