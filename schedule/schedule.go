// Package schedule renders the hour-by-hour listing pinned in every day thread.
package schedule

import (
	"court-booking-bot/db"
	"fmt"
	"strings"
)

const lineFormat = "%d:00 — %s"

type Slot struct {
	Hour int
	Name string
}

// Slots flattens bookings into one slot per booked hour.
func Slots(bookings []db.Booking) []Slot {
	var slots []Slot
	for _, b := range bookings {
		for _, h := range b.Hours {
			slots = append(slots, Slot{Hour: h, Name: b.DisplayName})
		}
	}
	return slots
}

// Render lists every hour from startHour to endHour inclusive. When several
// slots claim one hour the first one wins.
func Render(startHour, endHour int, slots []Slot) string {
	lines := make([]string, 0, endHour-startHour+1)
	for h := startHour; h <= endHour; h++ {
		name := ""
		for _, s := range slots {
			if s.Hour == h {
				name = s.Name
				break
			}
		}
		lines = append(lines, fmt.Sprintf(lineFormat, h, name))
	}
	return strings.Join(lines, "\n")
}

func ForCourt(court db.Court, bookings []db.Booking) string {
	return Render(court.StartHour, court.EndHour, Slots(bookings))
}
