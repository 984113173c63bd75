// Package fiscal maps calendar dates to positions in fiscal-year day arrays
// and back. The fiscal year runs April 1 through March 31.
package fiscal

import "time"

const (
	startMonth = time.April
	startDay   = 1
)

// Midnight truncates t to 00:00 UTC of its calendar date. All day-index
// arithmetic operates on these normalized instants so DST shifts in the
// stored timestamps cannot skew the index.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StartFor returns the fiscal-year start containing t: April 1 of t's year,
// or of the previous year when t falls in January through March.
func StartFor(t time.Time) time.Time {
	t = Midnight(t)
	year := t.Year()
	if t.Month() < startMonth {
		year--
	}
	return time.Date(year, startMonth, startDay, 0, 0, 0, 0, time.UTC)
}

// YearLength is the exact day count of the fiscal year beginning at start:
// 366 when the window contains February 29, otherwise 365. Derived from the
// distance between two concrete dates, never a constant.
func YearLength(start time.Time) int {
	start = Midnight(start)
	next := start.AddDate(1, 0, 0)
	return int(next.Sub(start).Hours() / 24)
}

// DayIndex resolves date to its position in the day array anchored at start.
// ok is false when the date falls outside the materialized window
// [start, start+YearLength); callers treat that as "unavailable".
func DayIndex(start, date time.Time) (int, bool) {
	start = Midnight(start)
	idx := int(Midnight(date).Sub(start).Hours() / 24)
	if idx < 0 || idx >= YearLength(start) {
		return 0, false
	}
	return idx, true
}

// DateAt is the inverse of DayIndex for indices within the window.
func DateAt(start time.Time, idx int) time.Time {
	return Midnight(start).AddDate(0, 0, idx)
}

// NextWindow returns the start and day count of the fiscal year after the
// one containing now. The rollover job provisions this window regardless of
// when its trigger actually fires.
func NextWindow(now time.Time) (time.Time, int) {
	start := StartFor(now).AddDate(1, 0, 0)
	return start, YearLength(start)
}
