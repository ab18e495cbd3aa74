package bot

import (
	ctx "context"
	"court-booking-bot/booking"
	"court-booking-bot/db"
	"court-booking-bot/templates"
	"fmt"
	"github.com/pkg/errors"
	tele "gopkg.in/telebot.v3"
)

type Booker interface {
	Book(ctx ctx.Context, req booking.Request) (booking.Result, error)
	Cancel(ctx ctx.Context, req booking.CancelRequest) (booking.CancelResult, error)
	Schedule(ctx ctx.Context, courtId, threadId int64) (string, error)
}

type Courts interface {
	AddCourt(ctx ctx.Context, c db.Court) (bool, error)
	UpdateCourt(ctx ctx.Context, c db.Court, columns ...string) error
}

type Service struct {
	booker Booker
	courts Courts
}

// command carries what the handlers need from an incoming message.
type command struct {
	ChatId      int64
	ChatTitle   string
	ThreadId    int64
	UserId      int64
	DisplayName string
	Payload     string
	Args        []string
}

type commandFunc func(ctx ctx.Context, cmd command) (string, error)

func NewService(booker Booker, courts Courts) *Service {
	return &Service{booker: booker, courts: courts}
}

func newCommand(context tele.Context) command {
	cmd := command{Args: context.Args()}
	if chat := context.Chat(); chat != nil {
		cmd.ChatId = chat.ID
		cmd.ChatTitle = chat.Title
	}
	if sender := context.Sender(); sender != nil {
		cmd.UserId = sender.ID
		cmd.DisplayName = displayName(sender.FirstName, sender.Username)
	}
	if msg := context.Message(); msg != nil {
		cmd.ThreadId = int64(msg.ThreadID)
		cmd.Payload = msg.Payload
	}
	return cmd
}

func (s *Service) handle(fn commandFunc) tele.HandlerFunc {
	return func(context tele.Context) error {
		reply, err := fn(ctx.Background(), newCommand(context))
		if err != nil {
			return err
		}
		if reply == "" {
			return nil
		}
		return context.Reply(reply)
	}
}

func (s *Service) start(ctx ctx.Context, cmd command) (string, error) {
	added, err := s.courts.AddCourt(ctx, db.NewCourt(cmd.ChatId, cmd.ChatTitle))
	if err != nil {
		return "", errors.Wrapf(err, "unable to register court %v", cmd.ChatId)
	}
	if !added {
		return templates.CourtExists, nil
	}
	return templates.CourtAdded + "\n\n" + templates.Hello, nil
}

func (s *Service) book(ctx ctx.Context, cmd command) (string, error) {
	hours := parseHours(cmd.Payload)
	if len(hours) == 0 {
		return templates.BookUsage, nil
	}
	if cmd.ThreadId == 0 {
		return templates.TopicOnly, nil
	}
	result, err := s.booker.Book(ctx, booking.Request{
		CourtId:     cmd.ChatId,
		ThreadId:    cmd.ThreadId,
		UserId:      cmd.UserId,
		DisplayName: cmd.DisplayName,
		Hours:       hours,
	})
	if errors.Is(err, booking.ErrUnknownThread) {
		return templates.UnknownThread, nil
	}
	if err != nil {
		return "", err
	}
	return result.Message(), nil
}

func (s *Service) unbook(ctx ctx.Context, cmd command) (string, error) {
	hours := parseHours(cmd.Payload)
	if len(hours) == 0 {
		return templates.UnbookUsage, nil
	}
	if cmd.ThreadId == 0 {
		return templates.TopicOnly, nil
	}
	result, err := s.booker.Cancel(ctx, booking.CancelRequest{
		CourtId:  cmd.ChatId,
		ThreadId: cmd.ThreadId,
		UserId:   cmd.UserId,
		Hours:    hours,
	})
	if err != nil {
		return "", err
	}
	return result.Message(), nil
}

func (s *Service) schedule(ctx ctx.Context, cmd command) (string, error) {
	if cmd.ThreadId == 0 {
		return templates.TopicOnly, nil
	}
	text, err := s.booker.Schedule(ctx, cmd.ChatId, cmd.ThreadId)
	if errors.Is(err, booking.ErrUnknownThread) {
		return templates.UnknownThread, nil
	}
	if err != nil {
		return "", err
	}
	return text, nil
}

func (s *Service) setBookingHours(ctx ctx.Context, cmd command) (string, error) {
	start, end, ok := parseBookingHours(cmd.Args)
	if !ok {
		return templates.BookingHoursUsage, nil
	}
	court := db.Court{Id: cmd.ChatId, StartHour: start, EndHour: end}
	return s.updateCourt(ctx, court, fmt.Sprintf(templates.BookingHoursSet, start, end), "start_hour", "end_hour")
}

func (s *Service) setMaxHours(ctx ctx.Context, cmd command) (string, error) {
	weekday, weekend, ok := parseMaxHours(cmd.Args)
	if !ok {
		return templates.MaxHoursUsage, nil
	}
	court := db.Court{Id: cmd.ChatId, MaxHoursWeekday: weekday, MaxHoursWeekend: weekend}
	reply := fmt.Sprintf(templates.MaxHoursSet, weekday, weekend)
	return s.updateCourt(ctx, court, reply, "max_hours_weekday", "max_hours_weekend")
}

func (s *Service) setMaxHoursWeekly(ctx ctx.Context, cmd command) (string, error) {
	weekly, ok := parseWeeklyHours(cmd.Args)
	if !ok {
		return templates.WeeklyUsage, nil
	}
	court := db.Court{Id: cmd.ChatId, MaxHoursWeekly: weekly}
	return s.updateCourt(ctx, court, fmt.Sprintf(templates.WeeklySet, weekly), "max_hours_weekly")
}

func (s *Service) setTimezone(ctx ctx.Context, cmd command) (string, error) {
	timezone, ok := parseTimezone(cmd.Args)
	if !ok {
		return templates.TimezoneUsage, nil
	}
	court := db.Court{Id: cmd.ChatId, Timezone: timezone}
	return s.updateCourt(ctx, court, fmt.Sprintf(templates.TimezoneSet, timezone), "timezone")
}

func (s *Service) startBot(ctx ctx.Context, cmd command) (string, error) {
	return s.updateCourt(ctx, db.Court{Id: cmd.ChatId, Active: true}, templates.BotStarted, "active")
}

func (s *Service) stopBot(ctx ctx.Context, cmd command) (string, error) {
	return s.updateCourt(ctx, db.Court{Id: cmd.ChatId, Active: false}, templates.BotStopped, "active")
}

func (s *Service) updateCourt(ctx ctx.Context, court db.Court, reply string, columns ...string) (string, error) {
	err := s.courts.UpdateCourt(ctx, court, columns...)
	if errors.Is(err, db.ErrNotFound) {
		return templates.CourtNotFound, nil
	}
	if err != nil {
		return "", err
	}
	return reply, nil
}
