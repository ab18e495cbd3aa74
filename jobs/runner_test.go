package jobs

import (
	"context"
	"court-booking-bot/calendar"
	"court-booking-bot/db"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
)

type fakeStore struct {
	mu        sync.Mutex
	courts    []db.Court
	days      []db.Day
	removed   []db.ThreadKey
	listErr   error
	addErr    error
	removeErr map[db.ThreadKey]error
}

func (f *fakeStore) ListActiveCourts(context.Context) ([]db.Court, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var active []db.Court
	for _, c := range f.courts {
		if c.Active {
			active = append(active, c)
		}
	}
	return active, nil
}

func (f *fakeStore) AddDay(_ context.Context, d db.Day) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return f.addErr
	}
	f.days = append(f.days, d)
	return nil
}

func (f *fakeStore) ListDaysBefore(_ context.Context, cutoff time.Time) ([]db.Day, error) {
	var days []db.Day
	for _, d := range f.days {
		if d.Date.Before(cutoff) {
			days = append(days, d)
		}
	}
	return days, nil
}

func (f *fakeStore) RemoveThread(_ context.Context, key db.ThreadKey) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.removeErr[key]; err != nil {
		return err
	}
	f.removed = append(f.removed, key)
	return nil
}

type fakeForum struct {
	mu         sync.Mutex
	nextThread int64
	titles     map[int64]string
	posted     map[int64]string
	deleted    []db.ThreadKey
	createErr  map[int64]error
	sendErr    map[int64]error
	pinErr     map[int64]error
	deleteErr  map[int64]error
}

func newFakeForum() *fakeForum {
	return &fakeForum{
		nextThread: 100,
		titles:     make(map[int64]string),
		posted:     make(map[int64]string),
		createErr:  make(map[int64]error),
		sendErr:    make(map[int64]error),
		pinErr:     make(map[int64]error),
		deleteErr:  make(map[int64]error),
	}
}

func (f *fakeForum) CreateTopic(_ context.Context, courtId int64, title string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.createErr[courtId]; err != nil {
		return 0, err
	}
	f.nextThread++
	f.titles[f.nextThread] = title
	return f.nextThread, nil
}

func (f *fakeForum) PostSchedule(_ context.Context, courtId, threadId int64, text string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.sendErr[courtId]; err != nil {
		return 0, err
	}
	f.posted[threadId] = text
	return int(threadId) * 10, f.pinErr[courtId]
}

func (f *fakeForum) DeleteTopic(_ context.Context, courtId, threadId int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.deleteErr[threadId]; err != nil {
		return err
	}
	f.deleted = append(f.deleted, db.ThreadKey{CourtId: courtId, ThreadId: threadId})
	return nil
}

var now = time.Date(2026, time.October, 18, 18, 0, 0, 0, time.UTC)

func TestOpenDays(t *testing.T) {
	store := &fakeStore{courts: []db.Court{
		{Id: 1, StartHour: 8, EndHour: 9, Timezone: "UTC", Active: true},
		{Id: 2, StartHour: 8, EndHour: 9, Timezone: "UTC", Active: false},
		{Id: 3, StartHour: 10, EndHour: 11, Timezone: "UTC", Active: true},
	}}
	forum := newFakeForum()
	runner := NewRunner(store, forum, calendar.NewLocations(), Options{DaysAhead: 3, RetentionDays: 7})

	result := runner.OpenDays(context.Background(), now)
	if !result.OK() {
		t.Fatalf("result not ok: %v", result.Summary())
	}
	if len(result.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2 active courts", len(result.Outcomes))
	}
	if len(store.days) != 2 {
		t.Fatalf("days = %d, want 2", len(store.days))
	}
	day := store.days[0]
	wantDate := time.Date(2026, time.October, 21, 0, 0, 0, 0, time.UTC)
	if !day.Date.Equal(wantDate) {
		t.Errorf("Date = %v, want %v", day.Date, wantDate)
	}
	if day.Weekend {
		t.Error("wednesday is not a weekend")
	}
	if day.ScheduleMessageId != int(day.ThreadId)*10 {
		t.Errorf("ScheduleMessageId = %d", day.ScheduleMessageId)
	}
	if got := forum.titles[day.ThreadId]; got != "Wednesday 21 October" {
		t.Errorf("title = %q", got)
	}
	if got := forum.posted[day.ThreadId]; got != "8:00 — \n9:00 — " {
		t.Errorf("posted schedule = %q", got)
	}
}

func TestOpenDaysWeekend(t *testing.T) {
	store := &fakeStore{courts: []db.Court{{Id: 1, StartHour: 8, EndHour: 9, Active: true}}}
	runner := NewRunner(store, newFakeForum(), calendar.NewLocations(), Options{DaysAhead: 6})
	runner.OpenDays(context.Background(), now)
	if len(store.days) != 1 || !store.days[0].Weekend {
		t.Errorf("days = %+v, want one weekend day", store.days)
	}
}

func TestOpenDaysIsolatesFailures(t *testing.T) {
	store := &fakeStore{courts: []db.Court{
		{Id: 1, Active: true},
		{Id: 2, Active: true},
		{Id: 3, Active: true},
	}}
	forum := newFakeForum()
	forum.createErr[2] = errors.New("not enough rights to create a topic")
	runner := NewRunner(store, forum, calendar.NewLocations(), Options{DaysAhead: 3})

	result := runner.OpenDays(context.Background(), now)
	if result.OK() {
		t.Fatal("expected a failed item")
	}
	failed := result.Failed()
	if len(failed) != 1 || failed[0].CourtId != 2 {
		t.Fatalf("failed = %+v", failed)
	}
	if len(store.days) != 2 {
		t.Errorf("days = %d, want the two other courts opened", len(store.days))
	}
	if !strings.Contains(result.Summary(), "3 items, 1 failed") {
		t.Errorf("Summary = %q", result.Summary())
	}
}

func TestOpenDaysStoresDayWhenPinFails(t *testing.T) {
	store := &fakeStore{courts: []db.Court{{Id: 1, StartHour: 8, EndHour: 9, Active: true}}}
	forum := newFakeForum()
	forum.pinErr[1] = errors.New("not enough rights to pin a message")
	runner := NewRunner(store, forum, calendar.NewLocations(), Options{DaysAhead: 3})

	result := runner.OpenDays(context.Background(), now)
	failed := result.Failed()
	if len(failed) != 1 || !strings.Contains(failed[0].Err.Error(), "not enough rights to pin") {
		t.Fatalf("failed = %+v", failed)
	}
	if len(store.days) != 1 {
		t.Fatalf("days = %d, want the topic's day stored", len(store.days))
	}
	day := store.days[0]
	if day.ThreadId != failed[0].ThreadId {
		t.Errorf("day thread = %d, outcome thread = %d", day.ThreadId, failed[0].ThreadId)
	}
	if day.ScheduleMessageId != int(day.ThreadId)*10 {
		t.Errorf("ScheduleMessageId = %d, want the posted message", day.ScheduleMessageId)
	}
	if len(forum.deleted) != 0 {
		t.Errorf("deleted = %v, topic must be kept", forum.deleted)
	}
}

func TestOpenDaysStoresDayWhenSendFails(t *testing.T) {
	store := &fakeStore{courts: []db.Court{{Id: 1, Active: true}}}
	forum := newFakeForum()
	forum.sendErr[1] = errors.New("too many requests")
	runner := NewRunner(store, forum, calendar.NewLocations(), Options{DaysAhead: 3})

	result := runner.OpenDays(context.Background(), now)
	if result.OK() {
		t.Fatal("expected a failed item")
	}
	if len(store.days) != 1 || store.days[0].ScheduleMessageId != 0 {
		t.Errorf("days = %+v, want one day without a schedule message", store.days)
	}
}

func TestOpenDaysDeletesTopicWhenDayNotSaved(t *testing.T) {
	store := &fakeStore{
		courts: []db.Court{{Id: 1, Active: true}},
		addErr: errors.New("connection refused"),
	}
	forum := newFakeForum()
	runner := NewRunner(store, forum, calendar.NewLocations(), Options{DaysAhead: 3})

	result := runner.OpenDays(context.Background(), now)
	failed := result.Failed()
	if len(failed) != 1 {
		t.Fatalf("failed = %+v", failed)
	}
	if len(forum.deleted) != 1 || forum.deleted[0].ThreadId != failed[0].ThreadId {
		t.Errorf("deleted = %v, want the unsaved topic removed", forum.deleted)
	}
}

func TestOpenDaysListError(t *testing.T) {
	store := &fakeStore{listErr: errors.New("connection refused")}
	runner := NewRunner(store, newFakeForum(), calendar.NewLocations(), Options{})
	result := runner.OpenDays(context.Background(), now)
	if result.Err == nil || result.OK() {
		t.Error("expected batch error")
	}
}

func TestCleanup(t *testing.T) {
	day := func(thread int64, date time.Time) db.Day {
		return db.Day{CourtId: 1, ThreadId: thread, Date: date}
	}
	store := &fakeStore{days: []db.Day{
		day(1, time.Date(2026, time.October, 9, 0, 0, 0, 0, time.UTC)),
		day(2, time.Date(2026, time.October, 10, 0, 0, 0, 0, time.UTC)),
		day(3, time.Date(2026, time.October, 11, 0, 0, 0, 0, time.UTC)),
	}}
	forum := newFakeForum()
	forum.deleteErr[1] = errors.New("topic not found")
	runner := NewRunner(store, forum, calendar.NewLocations(), Options{RetentionDays: 7})

	result := runner.Cleanup(context.Background(), now)
	if len(result.Outcomes) != 2 {
		t.Fatalf("outcomes = %d, want 2 days before Oct 11", len(result.Outcomes))
	}
	failed := result.Failed()
	if len(failed) != 1 || failed[0].ThreadId != 1 {
		t.Fatalf("failed = %+v", failed)
	}
	if len(store.removed) != 2 {
		t.Errorf("removed = %v, want records of both stale days removed", store.removed)
	}
	if len(forum.deleted) != 1 || forum.deleted[0].ThreadId != 2 {
		t.Errorf("deleted = %v", forum.deleted)
	}
}

func TestCleanupRecordsRemoveFailure(t *testing.T) {
	key := db.ThreadKey{CourtId: 1, ThreadId: 1}
	store := &fakeStore{
		days:      []db.Day{{CourtId: 1, ThreadId: 1, Date: time.Date(2026, time.October, 1, 0, 0, 0, 0, time.UTC)}},
		removeErr: map[db.ThreadKey]error{key: errors.New("deadlock detected")},
	}
	forum := newFakeForum()
	forum.deleteErr[1] = errors.New("topic not found")
	runner := NewRunner(store, forum, calendar.NewLocations(), Options{RetentionDays: 7})

	result := runner.Cleanup(context.Background(), now)
	failed := result.Failed()
	if len(failed) != 1 {
		t.Fatalf("failed = %+v", failed)
	}
	msg := failed[0].Err.Error()
	if !strings.Contains(msg, "topic not found") || !strings.Contains(msg, "deadlock detected") {
		t.Errorf("error %q should mention both failures", msg)
	}
}

func TestCleanupNothingToDo(t *testing.T) {
	runner := NewRunner(&fakeStore{}, newFakeForum(), calendar.NewLocations(), Options{RetentionDays: 7})
	result := runner.Cleanup(context.Background(), now)
	if !result.OK() || len(result.Outcomes) != 0 {
		t.Errorf("result = %+v", result)
	}
}

func TestRunUnknownJob(t *testing.T) {
	runner := NewRunner(&fakeStore{}, newFakeForum(), calendar.NewLocations(), Options{})
	if _, err := runner.Run(context.Background(), "reindex", now); !errors.Is(err, ErrUnknownJob) {
		t.Errorf("err = %v, want ErrUnknownJob", err)
	}
	if _, err := runner.Run(context.Background(), CleanupJob, now); err != nil {
		t.Errorf("Run cleanup: %v", err)
	}
}
