// README: Wall-clock helpers for day and week windowing.
package clock

import "time"

// Now is the injectable clock used by services so that tests can pin
// day/week boundaries.
type Now func() time.Time

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// StartOfWeek returns Sunday 00:00 of t's calendar week in t's location.
func StartOfWeek(t time.Time) time.Time {
	d := StartOfDay(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}
