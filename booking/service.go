package booking

import (
	"context"
	"court-booking-bot/db"
	"court-booking-bot/mutex"
	"court-booking-bot/schedule"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"time"
)

// ErrUnknownThread means the court or the day thread was not created by the bot.
var ErrUnknownThread = errors.New("thread is not managed by the bot")

const (
	ChangeGranted   = "granted"
	ChangeCancelled = "cancelled"
)

type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context, tx db.Tx) error) error
}

// Change describes a committed mutation of a thread's bookings.
type Change struct {
	Kind     string
	CourtId  int64
	ThreadId int64
	UserId   int64
	Hours    []int
	Day      db.Day
	Schedule string
	At       time.Time
}

// Notifier is told about every committed change, in commit order per thread.
type Notifier interface {
	Notify(ctx context.Context, change Change) error
}

type Service struct {
	store     Store
	locker    mutex.Locker
	notifiers []Notifier
	now       func() time.Time
}

func NewService(store Store, locker mutex.Locker, notifiers ...Notifier) *Service {
	return &Service{
		store:     store,
		locker:    locker,
		notifiers: notifiers,
		now:       time.Now,
	}
}

// Book grants as many of the requested hours as the court rules allow.
// Rejections are reported in the Result; the error is reserved for unknown
// threads and storage failures.
func (s *Service) Book(ctx context.Context, req Request) (Result, error) {
	release, err := s.locker.Acquire(ctx, mutex.ThreadKey(req.CourtId, req.ThreadId))
	if err != nil {
		return Result{}, err
	}
	defer release()
	// The weekly total spans threads, so the user's bookings in other threads
	// must not change between reading the total and saving.
	releaseUser, err := s.locker.Acquire(ctx, mutex.UserKey(req.UserId))
	if err != nil {
		return Result{}, err
	}
	defer releaseUser()

	var result Result
	var change *Change
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx db.Tx) error {
		snap, err := loadSnapshot(ctx, tx, req)
		if err != nil {
			return err
		}
		result = Result{Decision: Decide(req, snap), Court: snap.Court}
		if !result.Success() {
			return nil
		}
		booking := db.Booking{
			CourtId:     req.CourtId,
			ThreadId:    req.ThreadId,
			UserId:      req.UserId,
			DisplayName: req.DisplayName,
		}
		for _, b := range snap.ThreadBookings {
			if b.UserId == req.UserId {
				booking = b
			}
		}
		booking.Hours = merge(booking.Hours, result.Granted)
		err = tx.SaveBooking(ctx, booking)
		if err != nil {
			return err
		}
		text, err := renderThread(ctx, tx, snap.Court, req.CourtId, req.ThreadId)
		if err != nil {
			return err
		}
		change = &Change{
			Kind:     ChangeGranted,
			CourtId:  req.CourtId,
			ThreadId: req.ThreadId,
			UserId:   req.UserId,
			Hours:    result.Granted,
			Day:      snap.Day,
			Schedule: text,
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	if change != nil {
		s.notify(ctx, *change)
	}
	return result, nil
}

// Cancel removes the requested hours from the user's booking in the thread.
func (s *Service) Cancel(ctx context.Context, req CancelRequest) (CancelResult, error) {
	release, err := s.locker.Acquire(ctx, mutex.ThreadKey(req.CourtId, req.ThreadId))
	if err != nil {
		return CancelResult{}, err
	}
	defer release()

	var result CancelResult
	var change *Change
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx db.Tx) error {
		bookings, err := tx.ThreadBookings(ctx, req.CourtId, req.ThreadId)
		if err != nil {
			return err
		}
		var held []int
		for _, b := range bookings {
			if b.UserId == req.UserId {
				held = b.Hours
			}
		}
		remaining, cancelled, skipped := Release(held, req.Hours)
		result = CancelResult{Cancelled: cancelled, Skipped: skipped}
		if !result.Success() {
			return nil
		}
		if len(remaining) == 0 {
			err = tx.RemoveBooking(ctx, req.CourtId, req.ThreadId, req.UserId)
		} else {
			err = tx.SaveBooking(ctx, db.Booking{
				CourtId:  req.CourtId,
				ThreadId: req.ThreadId,
				UserId:   req.UserId,
				Hours:    remaining,
			})
		}
		if err != nil {
			return err
		}

		court, err := tx.GetCourt(ctx, req.CourtId)
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		day, err := tx.GetDay(ctx, req.CourtId, req.ThreadId)
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		text, err := renderThread(ctx, tx, court, req.CourtId, req.ThreadId)
		if err != nil {
			return err
		}
		change = &Change{
			Kind:     ChangeCancelled,
			CourtId:  req.CourtId,
			ThreadId: req.ThreadId,
			UserId:   req.UserId,
			Hours:    cancelled,
			Day:      day,
			Schedule: text,
		}
		return nil
	})
	if err != nil {
		return CancelResult{}, err
	}
	if change != nil {
		s.notify(ctx, *change)
	}
	return result, nil
}

// Schedule renders the current schedule of a day thread.
func (s *Service) Schedule(ctx context.Context, courtId, threadId int64) (string, error) {
	var text string
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx db.Tx) error {
		court, err := tx.GetCourt(ctx, courtId)
		if errors.Is(err, db.ErrNotFound) {
			return errors.Wrapf(ErrUnknownThread, "court %v", courtId)
		}
		if err != nil {
			return err
		}
		_, err = tx.GetDay(ctx, courtId, threadId)
		if errors.Is(err, db.ErrNotFound) {
			return errors.Wrapf(ErrUnknownThread, "court %v thread %v", courtId, threadId)
		}
		if err != nil {
			return err
		}
		text, err = renderThread(ctx, tx, court, courtId, threadId)
		return err
	})
	return text, err
}

func loadSnapshot(ctx context.Context, tx db.Tx, req Request) (Snapshot, error) {
	court, err := tx.GetCourt(ctx, req.CourtId)
	if errors.Is(err, db.ErrNotFound) {
		return Snapshot{}, errors.Wrapf(ErrUnknownThread, "court %v", req.CourtId)
	}
	if err != nil {
		return Snapshot{}, err
	}
	day, err := tx.GetDay(ctx, req.CourtId, req.ThreadId)
	if errors.Is(err, db.ErrNotFound) {
		return Snapshot{}, errors.Wrapf(ErrUnknownThread, "court %v thread %v", req.CourtId, req.ThreadId)
	}
	if err != nil {
		return Snapshot{}, err
	}
	threadBookings, err := tx.ThreadBookings(ctx, req.CourtId, req.ThreadId)
	if err != nil {
		return Snapshot{}, err
	}
	userBookings, err := tx.UserBookings(ctx, req.UserId)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{
		Court:          court,
		Day:            day,
		ThreadBookings: threadBookings,
		UserBookings:   userBookings,
	}, nil
}

func renderThread(ctx context.Context, tx db.Tx, court db.Court, courtId, threadId int64) (string, error) {
	bookings, err := tx.ThreadBookings(ctx, courtId, threadId)
	if err != nil {
		return "", err
	}
	return schedule.ForCourt(court, bookings), nil
}

func (s *Service) notify(ctx context.Context, change Change) {
	change.At = s.now()
	for _, n := range s.notifiers {
		err := n.Notify(ctx, change)
		if err != nil {
			log.Warn().
				Err(err).
				Int64("court_id", change.CourtId).
				Int64("thread_id", change.ThreadId).
				Str("kind", change.Kind).
				Msg("Unable to notify about booking change")
		}
	}
}
