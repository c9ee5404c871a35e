// Package analytics turns an owner's completed focus sessions into gap-filled daily series
// and per-category totals. Every function here is pure with respect to the instant it is
// given; the Calculator only adds loading through the session and category sources.
package analytics

import (
	"iter"
	"time"
)

const dayLayout = "2006-01-02"

// DayKey maps an instant to its UTC calendar date.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// DayStart truncates t to 00:00:00 UTC of its calendar day.
func DayStart(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayRange yields the day keys from start to end, both inclusive, one calendar day per step.
// The sequence is empty when end falls on an earlier day than start, and can be ranged over
// any number of times.
func DayRange(start, end time.Time) iter.Seq[string] {
	first := DayStart(start)
	last := DayStart(end)
	return func(yield func(string) bool) {
		for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
			if !yield(day.Format(dayLayout)) {
				return
			}
		}
	}
}
