package bot

import (
	"context"
	"court-booking-bot/booking"
	"github.com/pkg/errors"
	tele "gopkg.in/telebot.v3"
	"strconv"
	"strings"
)

const notModified = "message is not modified"

// Forum manages day topics in court chats and keeps their pinned schedule
// messages up to date.
type Forum struct {
	bot *tele.Bot
}

func NewForum(bot *tele.Bot) *Forum {
	return &Forum{bot: bot}
}

func (f *Forum) CreateTopic(_ context.Context, courtId int64, title string) (int64, error) {
	topic, err := f.bot.CreateTopic(&tele.Chat{ID: courtId}, &tele.Topic{Name: title})
	if err != nil {
		return 0, errors.Wrapf(err, "unable to create topic in chat %v", courtId)
	}
	return int64(topic.ThreadID), nil
}

func (f *Forum) PostSchedule(_ context.Context, courtId, threadId int64, text string) (int, error) {
	msg, err := f.bot.Send(&tele.Chat{ID: courtId}, text, &tele.SendOptions{ThreadID: int(threadId)})
	if err != nil {
		return 0, errors.Wrapf(err, "unable to send schedule to thread %v", threadId)
	}
	err = f.bot.Pin(msg, tele.Silent)
	if err != nil {
		return msg.ID, errors.Wrapf(err, "unable to pin schedule in thread %v", threadId)
	}
	return msg.ID, nil
}

func (f *Forum) DeleteTopic(_ context.Context, courtId, threadId int64) error {
	err := f.bot.DeleteTopic(&tele.Chat{ID: courtId}, &tele.Topic{ThreadID: int(threadId)})
	if err != nil {
		return errors.Wrapf(err, "unable to delete topic %v in chat %v", threadId, courtId)
	}
	return nil
}

// Notify edits the pinned schedule of the changed day.
func (f *Forum) Notify(_ context.Context, change booking.Change) error {
	messageId := change.Day.ScheduleMessageId
	if messageId == 0 {
		return nil
	}
	msg := tele.StoredMessage{MessageID: strconv.Itoa(messageId), ChatID: change.CourtId}
	_, err := f.bot.Edit(msg, change.Schedule)
	if err != nil && !strings.Contains(err.Error(), notModified) {
		return errors.Wrapf(err, "unable to edit schedule of thread %v", change.ThreadId)
	}
	return nil
}
