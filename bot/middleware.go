package bot

import (
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
	"time"
)

// ignoreOld drops commands that were sent more than maxAge ago, e.g. the ones
// queued while the bot was offline.
func ignoreOld(maxAge time.Duration, now func() time.Time) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(context tele.Context) error {
			msg := context.Message()
			if msg != nil && isStale(msg.Time(), now(), maxAge) {
				log.Debug().
					Int64("chat_id", context.Chat().ID).
					Time("sent", msg.Time()).
					Msg("ignoring stale command")
				return nil
			}
			return next(context)
		}
	}
}

func isStale(sent, now time.Time, maxAge time.Duration) bool {
	return maxAge > 0 && now.Sub(sent) > maxAge
}

func onlyAdmin(next tele.HandlerFunc) tele.HandlerFunc {
	return func(context tele.Context) error {
		member, err := context.Bot().ChatMemberOf(context.Chat(), context.Sender())
		if err != nil {
			return errors.Wrap(err, "unable to get chat member")
		}
		if !isAdmin(member.Role) {
			return nil
		}
		return next(context)
	}
}

func isAdmin(role tele.MemberStatus) bool {
	return role == tele.Creator || role == tele.Administrator
}
