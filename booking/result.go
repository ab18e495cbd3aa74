package booking

import (
	"court-booking-bot/db"
	"court-booking-bot/templates"
	"fmt"
	"strconv"
	"strings"
)

const messageSeparator = "\n\n"

type Result struct {
	Decision
	Court db.Court
}

func (r Result) Success() bool {
	return len(r.Granted) > 0
}

// Message composes the reply: a headline followed by one line per non-empty
// rejection category, in the order taken, daily limit, weekly limit.
func (r Result) Message() string {
	if len(r.Invalid) > 0 {
		return fmt.Sprintf(templates.InvalidHours, JoinHours(r.Invalid), r.Court.StartHour, r.Court.EndHour)
	}
	var messages []string
	if r.Success() {
		messages = append(messages, fmt.Sprintf(templates.Booked, JoinHours(r.Granted)))
	} else {
		messages = append(messages, templates.BookFailed)
	}
	if len(r.AlreadyTaken) > 0 {
		messages = append(messages, fmt.Sprintf(templates.AlreadyTaken, JoinHours(r.AlreadyTaken)))
	}
	if len(r.SkippedByDailyLimit) > 0 {
		messages = append(
			messages,
			fmt.Sprintf(templates.DailyLimit, r.Court.MaxHoursWeekday, r.Court.MaxHoursWeekend),
		)
	}
	if len(r.SkippedByWeeklyLimit) > 0 {
		messages = append(messages, fmt.Sprintf(templates.WeeklyLimit, r.Court.MaxHoursWeekly))
	}
	return strings.Join(messages, messageSeparator)
}

type CancelRequest struct {
	CourtId  int64
	ThreadId int64
	UserId   int64
	Hours    []int
}

type CancelResult struct {
	Cancelled []int
	Skipped   []int
}

func (r CancelResult) Success() bool {
	return len(r.Cancelled) > 0
}

func (r CancelResult) Message() string {
	var messages []string
	if len(r.Cancelled) > 0 {
		messages = append(messages, fmt.Sprintf(templates.Cancelled, JoinHours(r.Cancelled)))
	}
	if len(r.Skipped) > 0 {
		messages = append(messages, fmt.Sprintf(templates.NotYours, JoinHours(r.Skipped)))
	}
	if len(messages) == 0 {
		return templates.NothingCancelled
	}
	return strings.Join(messages, messageSeparator)
}

func JoinHours(hours []int) string {
	parts := make([]string, len(hours))
	for i, h := range hours {
		parts[i] = strconv.Itoa(h)
	}
	return strings.Join(parts, ", ")
}
