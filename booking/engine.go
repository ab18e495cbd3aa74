// Package booking decides which requested hours a user gets in a day thread
// and persists the outcome.
//
// A request is checked against three constraints, in order: the court's
// booking hour range (all-or-nothing), the daily quota of the thread's day
// type, and the user's weekly quota summed over every thread they booked in
// the same calendar week. Hours held by anybody else are never granted.
package booking

import (
	"court-booking-bot/calendar"
	"court-booking-bot/db"
	"time"
)

type Request struct {
	CourtId     int64
	ThreadId    int64
	UserId      int64
	DisplayName string
	Hours       []int
}

// Snapshot is the state a decision is made against. It must be read inside
// the same critical section that persists the decision.
type Snapshot struct {
	Court          db.Court
	Day            db.Day
	ThreadBookings []db.Booking
	UserBookings   []db.DatedBooking
}

type Decision struct {
	Invalid              []int
	AlreadyTaken         []int
	SkippedByDailyLimit  []int
	SkippedByWeeklyLimit []int
	Granted              []int
}

// Decide is pure: the same request and snapshot always give the same decision.
// Requested hours are de-duplicated first, keeping the first occurrence.
func Decide(req Request, snap Snapshot) Decision {
	hours := unique(req.Hours)
	court := snap.Court

	var d Decision
	for _, h := range hours {
		if h < court.StartHour || h > court.EndHour {
			d.Invalid = append(d.Invalid, h)
		}
	}
	if len(d.Invalid) > 0 {
		return d
	}

	taken := make(map[int]bool)
	bookedByUser := 0
	for _, b := range snap.ThreadBookings {
		for _, h := range b.Hours {
			taken[h] = true
		}
		if b.UserId == req.UserId {
			bookedByUser += len(b.Hours)
		}
	}

	var available []int
	for _, h := range hours {
		if taken[h] {
			d.AlreadyTaken = append(d.AlreadyTaken, h)
		} else {
			available = append(available, h)
		}
	}

	maxDaily := court.MaxHoursWeekday
	if snap.Day.Weekend {
		maxDaily = court.MaxHoursWeekend
	}
	dailyApproved, skippedDaily := split(available, maxDaily-bookedByUser)
	d.SkippedByDailyLimit = skippedDaily

	weekly := WeeklyHours(snap.UserBookings, snap.Day.Date)
	d.Granted, d.SkippedByWeeklyLimit = split(dailyApproved, court.MaxHoursWeekly-weekly)
	return d
}

// WeeklyHours sums the hours of bookings whose day falls into the calendar
// week of reference, both week ends included.
func WeeklyHours(bookings []db.DatedBooking, reference time.Time) int {
	total := 0
	for _, b := range bookings {
		if calendar.InWeek(b.Date, reference) {
			total += len(b.Hours)
		}
	}
	return total
}

// Release removes hours from held in request order. An hour not in held, or
// already removed earlier in the same request, is skipped.
func Release(held []int, hours []int) (remaining, cancelled, skipped []int) {
	remaining = append([]int(nil), held...)
	for _, h := range hours {
		i := indexOf(remaining, h)
		if i < 0 {
			skipped = append(skipped, h)
			continue
		}
		remaining = append(remaining[:i], remaining[i+1:]...)
		cancelled = append(cancelled, h)
	}
	return remaining, cancelled, skipped
}

// merge appends the hours of extra missing from hours.
func merge(hours, extra []int) []int {
	merged := append([]int(nil), hours...)
	for _, h := range extra {
		if indexOf(merged, h) < 0 {
			merged = append(merged, h)
		}
	}
	return merged
}

// split returns the first n entries and the rest. A negative n keeps nothing.
func split(hours []int, n int) ([]int, []int) {
	if n < 0 {
		n = 0
	}
	if n >= len(hours) {
		return hours, nil
	}
	return hours[:n], hours[n:]
}

func unique(hours []int) []int {
	seen := make(map[int]bool, len(hours))
	var out []int
	for _, h := range hours {
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, h)
	}
	return out
}

func indexOf(hours []int, h int) int {
	for i, v := range hours {
		if v == h {
			return i
		}
	}
	return -1
}
