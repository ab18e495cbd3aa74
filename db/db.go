package db

import (
	"context"
	"database/sql"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"
	"time"
)

var (
	ErrNotFound = errors.New("entity not found")
)

// Tx is the set of queries available both on the pool and inside a transaction.
type Tx interface {
	GetCourt(ctx context.Context, id int64) (Court, error)
	AddCourt(ctx context.Context, c Court) (bool, error)
	UpdateCourt(ctx context.Context, c Court, columns ...string) error
	ListActiveCourts(ctx context.Context) ([]Court, error)

	GetDay(ctx context.Context, courtId, threadId int64) (Day, error)
	AddDay(ctx context.Context, d Day) error
	ListDaysBefore(ctx context.Context, cutoff time.Time) ([]Day, error)
	RemoveThread(ctx context.Context, key ThreadKey) error

	ThreadBookings(ctx context.Context, courtId, threadId int64) ([]Booking, error)
	UserBookings(ctx context.Context, userId int64) ([]DatedBooking, error)
	SaveBooking(ctx context.Context, b Booking) error
	RemoveBooking(ctx context.Context, courtId, threadId, userId int64) error
}

type DB struct {
	*queries
	db *bun.DB
}

type queries struct {
	idb     bun.IDB
	timeout time.Duration
}

const defaultTimeout = time.Minute

func New(address, user, password, database string) *DB {
	connector := pgdriver.NewConnector(
		pgdriver.WithInsecure(true),
		pgdriver.WithAddr(address),
		pgdriver.WithUser(user),
		pgdriver.WithPassword(password),
		pgdriver.WithDatabase(database),
	)
	sqldb := sql.OpenDB(connector)
	db := bun.NewDB(sqldb, pgdialect.New())
	return &DB{queries: &queries{idb: db, timeout: defaultTimeout}, db: db}
}

func (d *DB) SetTimeout(duration time.Duration) {
	d.timeout = duration
}

func (d *DB) EnableDebug() {
	d.db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
}

func (d *DB) Close() error {
	return d.db.Close()
}

// RunInTx runs fn inside a single transaction. The transaction is rolled back
// when fn returns an error.
func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return d.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &queries{idb: tx, timeout: d.timeout})
	})
}

func (d *DB) CreateSchema(ctx context.Context) error {
	models := []interface{}{(*Court)(nil), (*Day)(nil), (*Booking)(nil)}
	for _, model := range models {
		_, err := d.db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		if err != nil {
			return errors.Wrapf(err, "unable to create table for %T", model)
		}
	}
	_, err := d.db.NewCreateIndex().
		Model((*Booking)(nil)).
		Index("bookings_user_id_idx").
		Column("user_id").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "unable to create bookings user index")
	}
	_, err = d.db.NewCreateIndex().
		Model((*Day)(nil)).
		Index("days_date_idx").
		Column("date").
		IfNotExists().
		Exec(ctx)
	return errors.Wrap(err, "unable to create days date index")
}

func (q *queries) GetCourt(ctx context.Context, id int64) (Court, error) {
	c := Court{Id: id}
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	err := q.idb.NewSelect().Model(&c).WherePK().Scan(ctx)
	if err != nil && errors.Is(err, sql.ErrNoRows) {
		return Court{}, ErrNotFound
	}
	if err != nil {
		return Court{}, errors.Wrap(err, "error during querying court")
	}
	return c, nil
}

// AddCourt inserts the court unless it already exists and reports whether it was created.
func (q *queries) AddCourt(ctx context.Context, c Court) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	res, err := q.idb.NewInsert().Model(&c).On("CONFLICT (id) DO NOTHING").Exec(ctx)
	if err != nil {
		return false, errors.Wrap(err, "error during adding court")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "error during adding court")
	}
	return affected > 0, nil
}

func (q *queries) UpdateCourt(ctx context.Context, c Court, columns ...string) error {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	res, err := q.idb.NewUpdate().Model(&c).Column(columns...).WherePK().Exec(ctx)
	if err != nil {
		return errors.Wrapf(err, "error during updating court %v", c.Id)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrapf(err, "error during updating court %v", c.Id)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (q *queries) ListActiveCourts(ctx context.Context) ([]Court, error) {
	var courts []Court
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	err := q.idb.NewSelect().
		Model(&courts).
		Where("active = ?", true).
		Order("id").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error during querying active courts")
	}
	return courts, nil
}

func (q *queries) GetDay(ctx context.Context, courtId, threadId int64) (Day, error) {
	d := Day{CourtId: courtId, ThreadId: threadId}
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	err := q.idb.NewSelect().Model(&d).WherePK().Scan(ctx)
	if err != nil && errors.Is(err, sql.ErrNoRows) {
		return Day{}, ErrNotFound
	}
	if err != nil {
		return Day{}, errors.Wrap(err, "error during querying day")
	}
	return d, nil
}

func (q *queries) AddDay(ctx context.Context, d Day) error {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	_, err := q.idb.NewInsert().Model(&d).Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "error during adding day")
	}
	return nil
}

func (q *queries) ListDaysBefore(ctx context.Context, cutoff time.Time) ([]Day, error) {
	var days []Day
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	err := q.idb.NewSelect().
		Model(&days).
		Where("date < ?", cutoff).
		Order("date").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error during querying stale days")
	}
	return days, nil
}

// RemoveThread deletes the day and every booking that belongs to it.
func (q *queries) RemoveThread(ctx context.Context, key ThreadKey) error {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	_, err := q.idb.NewDelete().
		Model((*Booking)(nil)).
		Where("court_id = ?", key.CourtId).
		Where("thread_id = ?", key.ThreadId).
		Exec(ctx)
	if err != nil {
		return errors.Wrapf(err, "error during removing bookings of thread %v", key.ThreadId)
	}
	_, err = q.idb.NewDelete().
		Model((*Day)(nil)).
		Where("court_id = ?", key.CourtId).
		Where("thread_id = ?", key.ThreadId).
		Exec(ctx)
	if err != nil {
		return errors.Wrapf(err, "error during removing day of thread %v", key.ThreadId)
	}
	return nil
}

func (q *queries) ThreadBookings(ctx context.Context, courtId, threadId int64) ([]Booking, error) {
	var bookings []Booking
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	err := q.idb.NewSelect().
		Model(&bookings).
		Where("court_id = ?", courtId).
		Where("thread_id = ?", threadId).
		Order("user_id").
		Scan(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "error during querying thread bookings")
	}
	return bookings, nil
}

// UserBookings returns every booking of the user across all courts, each
// joined with the date of its day. Bookings of days already removed are skipped.
func (q *queries) UserBookings(ctx context.Context, userId int64) ([]DatedBooking, error) {
	var bookings []DatedBooking
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	err := q.idb.NewSelect().
		TableExpr("bookings AS b").
		ColumnExpr("b.court_id, b.thread_id, d.date, b.hours").
		Join("JOIN days AS d ON d.court_id = b.court_id AND d.thread_id = b.thread_id").
		Where("b.user_id = ?", userId).
		Scan(ctx, &bookings)
	if err != nil {
		return nil, errors.Wrap(err, "error during querying user bookings")
	}
	return bookings, nil
}

// SaveBooking creates the booking or replaces the hours of the existing one.
// The display name of an existing booking is kept.
func (q *queries) SaveBooking(ctx context.Context, b Booking) error {
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	_, err := q.idb.NewInsert().
		Model(&b).
		On("CONFLICT (court_id, thread_id, user_id) DO UPDATE").
		Set("hours = EXCLUDED.hours").
		Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "error during saving booking")
	}
	return nil
}

func (q *queries) RemoveBooking(ctx context.Context, courtId, threadId, userId int64) error {
	b := Booking{CourtId: courtId, ThreadId: threadId, UserId: userId}
	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()
	_, err := q.idb.NewDelete().Model(&b).WherePK().Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "error during removing booking")
	}
	return nil
}

// RemoveThread on the pool removes the day and its bookings atomically.
func (d *DB) RemoveThread(ctx context.Context, key ThreadKey) error {
	return d.RunInTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.RemoveThread(ctx, key)
	})
}
