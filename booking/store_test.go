package booking

import (
	"context"
	"court-booking-bot/db"
	"runtime"
	"sort"
	"sync"
	"time"
)

// memStore is an in-memory db.Tx. Every call locks on its own, and RunInTx
// gives no isolation, so only the service's locker keeps a read-then-write
// sequence consistent.
type memStore struct {
	mu       sync.Mutex
	courts   map[int64]db.Court
	days     map[db.ThreadKey]db.Day
	bookings map[bookingKey]db.Booking
	failSave error
}

type bookingKey struct {
	courtId, threadId, userId int64
}

func newMemStore() *memStore {
	return &memStore{
		courts:   make(map[int64]db.Court),
		days:     make(map[db.ThreadKey]db.Day),
		bookings: make(map[bookingKey]db.Booking),
	}
}

func (m *memStore) RunInTx(ctx context.Context, fn func(ctx context.Context, tx db.Tx) error) error {
	return fn(ctx, m)
}

func (m *memStore) GetCourt(_ context.Context, id int64) (db.Court, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courts[id]
	if !ok {
		return db.Court{}, db.ErrNotFound
	}
	return c, nil
}

func (m *memStore) AddCourt(_ context.Context, c db.Court) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courts[c.Id]; ok {
		return false, nil
	}
	m.courts[c.Id] = c
	return true, nil
}

func (m *memStore) UpdateCourt(_ context.Context, c db.Court, _ ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.courts[c.Id]; !ok {
		return db.ErrNotFound
	}
	m.courts[c.Id] = c
	return nil
}

func (m *memStore) ListActiveCourts(_ context.Context) ([]db.Court, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var courts []db.Court
	for _, c := range m.courts {
		if c.Active {
			courts = append(courts, c)
		}
	}
	return courts, nil
}

func (m *memStore) GetDay(_ context.Context, courtId, threadId int64) (db.Day, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.days[db.ThreadKey{CourtId: courtId, ThreadId: threadId}]
	if !ok {
		return db.Day{}, db.ErrNotFound
	}
	return d, nil
}

func (m *memStore) AddDay(_ context.Context, d db.Day) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.days[db.ThreadKey{CourtId: d.CourtId, ThreadId: d.ThreadId}] = d
	return nil
}

func (m *memStore) ListDaysBefore(_ context.Context, cutoff time.Time) ([]db.Day, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var days []db.Day
	for _, d := range m.days {
		if d.Date.Before(cutoff) {
			days = append(days, d)
		}
	}
	return days, nil
}

func (m *memStore) RemoveThread(_ context.Context, key db.ThreadKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.bookings {
		if k.courtId == key.CourtId && k.threadId == key.ThreadId {
			delete(m.bookings, k)
		}
	}
	delete(m.days, key)
	return nil
}

func (m *memStore) ThreadBookings(_ context.Context, courtId, threadId int64) ([]db.Booking, error) {
	m.mu.Lock()
	var bookings []db.Booking
	for k, b := range m.bookings {
		if k.courtId == courtId && k.threadId == threadId {
			b.Hours = append([]int(nil), b.Hours...)
			bookings = append(bookings, b)
		}
	}
	m.mu.Unlock()
	sort.Slice(bookings, func(i, j int) bool { return bookings[i].UserId < bookings[j].UserId })
	// Widen the window between a read and the write that depends on it.
	runtime.Gosched()
	return bookings, nil
}

func (m *memStore) UserBookings(_ context.Context, userId int64) ([]db.DatedBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.DatedBooking
	for k, b := range m.bookings {
		if k.userId != userId {
			continue
		}
		d, ok := m.days[db.ThreadKey{CourtId: k.courtId, ThreadId: k.threadId}]
		if !ok {
			continue
		}
		out = append(out, db.DatedBooking{
			CourtId:  k.courtId,
			ThreadId: k.threadId,
			Date:     d.Date,
			Hours:    append([]int(nil), b.Hours...),
		})
	}
	return out, nil
}

func (m *memStore) SaveBooking(_ context.Context, b db.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave != nil {
		return m.failSave
	}
	k := bookingKey{b.CourtId, b.ThreadId, b.UserId}
	if existing, ok := m.bookings[k]; ok {
		existing.Hours = append([]int(nil), b.Hours...)
		m.bookings[k] = existing
		return nil
	}
	b.Hours = append([]int(nil), b.Hours...)
	m.bookings[k] = b
	return nil
}

func (m *memStore) RemoveBooking(_ context.Context, courtId, threadId, userId int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.bookings, bookingKey{courtId, threadId, userId})
	return nil
}

func (m *memStore) hours(courtId, threadId, userId int64) []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bookings[bookingKey{courtId, threadId, userId}].Hours
}

// recorder is a Notifier that remembers every change.
type recorder struct {
	mu      sync.Mutex
	changes []Change
	err     error
}

func (r *recorder) Notify(_ context.Context, change Change) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, change)
	return r.err
}
