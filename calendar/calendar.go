package calendar

import (
	"time"
)

const titleLayout = "Monday 2 January"

// Date returns the civil date of t in t's own location, normalized to UTC midnight.
// Days are stored and compared in this form.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func IsWeekend(date time.Time) bool {
	wd := date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// WeekBounds returns the Monday and the Sunday of the week containing date.
// Both bounds are civil dates and inclusive.
func WeekBounds(date time.Time) (time.Time, time.Time) {
	day := Date(date)
	offset := (int(day.Weekday()) + 6) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}

func InWeek(date, reference time.Time) bool {
	start, end := WeekBounds(reference)
	day := Date(date)
	return !day.Before(start) && !day.After(end)
}

// DaysAhead returns the civil date n days after now, as seen in location.
func DaysAhead(now time.Time, location *time.Location, n int) time.Time {
	local := now.In(location)
	return Date(local).AddDate(0, 0, n)
}

func ThreadTitle(date time.Time) string {
	return date.Format(titleLayout)
}
