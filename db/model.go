package db

import (
	"github.com/uptrace/bun"
	"time"
)

type Court struct {
	bun.BaseModel `bun:"table:courts"`

	Id              int64 `bun:",pk"`
	Name            string
	StartHour       int `bun:",notnull"`
	EndHour         int `bun:",notnull"`
	MaxHoursWeekday int `bun:",notnull"`
	MaxHoursWeekend int `bun:",notnull"`
	MaxHoursWeekly  int `bun:",notnull"`
	Timezone        string
	Active          bool      `bun:",notnull"`
	CreatedAt       time.Time `bun:",nullzero,notnull,default:current_timestamp"`
}

type Day struct {
	bun.BaseModel `bun:"table:days"`

	CourtId           int64     `bun:",pk"`
	ThreadId          int64     `bun:",pk"`
	Date              time.Time `bun:"type:date,notnull"`
	Weekend           bool      `bun:",notnull"`
	ScheduleMessageId int
}

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	CourtId     int64 `bun:",pk"`
	ThreadId    int64 `bun:",pk"`
	UserId      int64 `bun:",pk"`
	DisplayName string
	Hours       []int `bun:",array"`
}

// ThreadKey identifies a day thread inside a court.
type ThreadKey struct {
	CourtId  int64
	ThreadId int64
}

// DatedBooking is a user's booking joined with the date of its day.
type DatedBooking struct {
	CourtId  int64
	ThreadId int64
	Date     time.Time
	Hours    []int `bun:",array"`
}

func NewCourt(id int64, name string) Court {
	return Court{
		Id:              id,
		Name:            name,
		StartHour:       6,
		EndHour:         23,
		MaxHoursWeekday: 2,
		MaxHoursWeekend: 1,
		MaxHoursWeekly:  4,
		Timezone:        "Europe/Moscow",
	}
}
