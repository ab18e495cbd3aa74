// Package jobs opens a booking thread for every active court each day and
// removes threads whose day is past the retention period.
package jobs

import (
	"context"
	"court-booking-bot/calendar"
	"court-booking-bot/db"
	"court-booking-bot/schedule"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"time"
)

const (
	OpenDaysJob = "open-days"
	CleanupJob  = "cleanup"

	topicDeleteConcurrency = 4
)

var ErrUnknownJob = errors.New("unknown job")

type Store interface {
	ListActiveCourts(ctx context.Context) ([]db.Court, error)
	AddDay(ctx context.Context, d db.Day) error
	ListDaysBefore(ctx context.Context, cutoff time.Time) ([]db.Day, error)
	RemoveThread(ctx context.Context, key db.ThreadKey) error
}

// Forum manages day threads in the court chats.
type Forum interface {
	CreateTopic(ctx context.Context, courtId int64, title string) (int64, error)
	// PostSchedule sends the schedule into the thread, pins it and returns its
	// message id. The id is returned even when only pinning failed.
	PostSchedule(ctx context.Context, courtId, threadId int64, text string) (int, error)
	DeleteTopic(ctx context.Context, courtId, threadId int64) error
}

type Options struct {
	DaysAhead     int
	RetentionDays int
	// Location decides the current date for the retention cutoff.
	Location *time.Location
}

type Runner struct {
	store     Store
	forum     Forum
	locations *calendar.Locations
	options   Options
}

func NewRunner(store Store, forum Forum, locations *calendar.Locations, options Options) *Runner {
	if options.Location == nil {
		options.Location = time.UTC
	}
	return &Runner{store: store, forum: forum, locations: locations, options: options}
}

// Run executes the named job.
func (r *Runner) Run(ctx context.Context, name string, now time.Time) (BatchResult, error) {
	switch name {
	case OpenDaysJob:
		return r.OpenDays(ctx, now), nil
	case CleanupJob:
		return r.Cleanup(ctx, now), nil
	}
	return BatchResult{}, errors.Wrapf(ErrUnknownJob, "job %v", name)
}

// OpenDays creates the day thread DaysAhead days from now for every active court.
func (r *Runner) OpenDays(ctx context.Context, now time.Time) BatchResult {
	result := BatchResult{Job: OpenDaysJob}
	courts, err := r.store.ListActiveCourts(ctx)
	if err != nil {
		result.Err = err
		return result
	}
	for _, court := range courts {
		outcome := Outcome{CourtId: court.Id}
		outcome.ThreadId, outcome.Err = r.openDay(ctx, court, now)
		result.Outcomes = append(result.Outcomes, outcome)
	}
	return result
}

func (r *Runner) openDay(ctx context.Context, court db.Court, now time.Time) (int64, error) {
	location := r.locations.GetOrUTC(court.Timezone)
	date := calendar.DaysAhead(now, location, r.options.DaysAhead)

	threadId, err := r.forum.CreateTopic(ctx, court.Id, calendar.ThreadTitle(date))
	if err != nil {
		return 0, errors.Wrap(err, "unable to create topic")
	}
	text := schedule.Render(court.StartHour, court.EndHour, nil)
	// A topic must never be left without its day: the day is stored even when
	// posting or pinning the schedule fails, with whatever message id we got.
	messageId, postErr := r.forum.PostSchedule(ctx, court.Id, threadId, text)
	err = r.store.AddDay(ctx, db.Day{
		CourtId:           court.Id,
		ThreadId:          threadId,
		Date:              date,
		Weekend:           calendar.IsWeekend(date),
		ScheduleMessageId: messageId,
	})
	if err != nil {
		err = errors.Wrap(err, "unable to save day")
		if deleteErr := r.forum.DeleteTopic(ctx, court.Id, threadId); deleteErr != nil {
			err = errors.Wrapf(deleteErr, "%v; unable to delete topic", err)
		}
		return threadId, err
	}
	if postErr != nil {
		return threadId, errors.Wrap(postErr, "unable to post schedule")
	}
	return threadId, nil
}

// Cleanup removes every day older than RetentionDays together with its
// topic and bookings. A failed topic deletion does not keep the records.
func (r *Runner) Cleanup(ctx context.Context, now time.Time) BatchResult {
	result := BatchResult{Job: CleanupJob}
	cutoff := calendar.Date(now.In(r.options.Location)).AddDate(0, 0, -r.options.RetentionDays)
	days, err := r.store.ListDaysBefore(ctx, cutoff)
	if err != nil {
		result.Err = err
		return result
	}
	if len(days) == 0 {
		return result
	}

	result.Outcomes = make([]Outcome, len(days))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(topicDeleteConcurrency)
	for i, day := range days {
		result.Outcomes[i] = Outcome{CourtId: day.CourtId, ThreadId: day.ThreadId}
		g.Go(func() error {
			err := r.forum.DeleteTopic(gctx, day.CourtId, day.ThreadId)
			if err != nil {
				result.Outcomes[i].Err = errors.Wrap(err, "unable to delete topic")
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, day := range days {
		err := r.store.RemoveThread(ctx, db.ThreadKey{CourtId: day.CourtId, ThreadId: day.ThreadId})
		if err == nil {
			continue
		}
		if result.Outcomes[i].Err != nil {
			err = errors.Wrapf(err, "%v; unable to remove records", result.Outcomes[i].Err)
		} else {
			err = errors.Wrap(err, "unable to remove records")
		}
		result.Outcomes[i].Err = err
	}
	return result
}
