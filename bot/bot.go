package bot

import (
	"context"
	"court-booking-bot/api"
	"court-booking-bot/booking"
	"court-booking-bot/calendar"
	"court-booking-bot/config"
	"court-booking-bot/db"
	"court-booking-bot/jobs"
	"court-booking-bot/mq"
	"court-booking-bot/mutex"
	"court-booking-bot/templates"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"
	"net/http"
	"time"
)

const shutdownTimeout = time.Second * 10

var commands = []tele.Command{
	{Text: "book", Description: "Book hours, e.g. /book 14,15"},
	{Text: "unbook", Description: "Cancel your hours, e.g. /unbook 14"},
	{Text: "schedule", Description: "Show the schedule of this topic"},
	{Text: "help", Description: "Show help"},
}

func Start(ctx context.Context, config config.Config, confirm chan<- struct{}) error {
	dbService := db.New(config.Database.Addr, config.Database.User, config.Database.Password, config.Database.Name)
	dbService.SetTimeout(config.Database.Timeout)
	if config.Database.Debug {
		dbService.EnableDebug()
	}
	err := dbService.CreateSchema(ctx)
	if err != nil {
		return err
	}

	var locker mutex.Locker = mutex.NewRegistry()
	if config.Redis.Addr != "" {
		locker = mutex.NewRedis(config.Redis.Addr, config.Redis.LockExpiry)
	}

	s := tele.Settings{
		Token: config.Telegram.Token,
		Poller: &tele.LongPoller{
			Timeout: config.Telegram.PollTimeout,
		},
		OnError: func(err error, context tele.Context) {
			log.Error().Err(err).Msg("Unable to handle update")
			if context == nil {
				return
			}
			err = context.Reply(templates.UnexpectedError)
			if err != nil {
				log.Warn().Err(err).Msg("Unable to send error reply")
			}
		},
	}
	bot, err := tele.NewBot(s)
	if err != nil {
		return errors.Wrap(err, "error during creation of a new bot")
	}
	forum := NewForum(bot)

	notifiers := []booking.Notifier{forum}
	var publisher *mq.Publisher
	if config.AMQP.URL != "" {
		publisher, err = mq.NewPublisher(config.AMQP.URL, config.AMQP.Exchange)
		if err != nil {
			return err
		}
		notifiers = append(notifiers, publisher)
	}
	bookingService := booking.NewService(dbService, locker, notifiers...)

	locations := calendar.NewLocations()
	jobsLocation, err := locations.Get(config.Jobs.Timezone)
	if err != nil {
		return err
	}
	runner := jobs.NewRunner(dbService, forum, locations, jobs.Options{
		DaysAhead:     config.Jobs.DaysAhead,
		RetentionDays: config.Jobs.RetentionDays,
		Location:      jobsLocation,
	})
	scheduler, err := jobs.NewScheduler(jobsLocation)
	if err != nil {
		return err
	}
	err = jobs.Register(scheduler, runner, config.Jobs.OpenCron, config.Jobs.CleanupCron)
	if err != nil {
		return err
	}

	botService := NewService(bookingService, dbService)
	botService.Register(bot, config.Telegram.IgnoreOlderThan)

	err = bot.SetCommands(commands)
	if err != nil {
		log.Warn().Err(err).Msg("Unable to set bot commands")
	}

	var server *http.Server
	if config.HTTP.Addr != "" {
		server = &http.Server{
			Addr:              config.HTTP.Addr,
			Handler:           api.NewHandler(bookingService, runner).Router(),
			ReadHeaderTimeout: time.Second * 5,
		}
		go func() {
			err := server.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Ops server failed")
			}
		}()
		log.Info().Str("addr", config.HTTP.Addr).Msg("Started ops server")
	}

	go func() {
		<-ctx.Done()
		bot.Stop()
		if err := scheduler.Stop(); err != nil {
			log.Warn().Err(err).Msg("Unable to stop scheduler")
		}
		if server != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("Unable to stop ops server")
			}
			cancel()
		}
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				log.Warn().Err(err).Msg("Unable to close publisher")
			}
		}
		if err := dbService.Close(); err != nil {
			log.Warn().Err(err).Msg("Unable to close database")
		}
		confirm <- struct{}{}
	}()

	scheduler.Start()
	log.Info().Str("timezone", jobsLocation.String()).Msg("Started job scheduler")
	// Blocks until stop
	bot.Start()
	return nil
}

// Register binds the command handlers to bot.
func (s *Service) Register(bot *tele.Bot, ignoreOlderThan time.Duration) {
	bot.Use(ignoreOld(ignoreOlderThan, time.Now))

	bot.Handle("/help", func(context tele.Context) error {
		return context.Reply(templates.Hello)
	})
	bot.Handle("/book", s.handle(s.book))
	bot.Handle("/unbook", s.handle(s.unbook))
	bot.Handle("/schedule", s.handle(s.schedule))

	admin := bot.Group()
	admin.Use(onlyAdmin)
	admin.Handle("/start", s.handle(s.start))
	admin.Handle("/set_booking_hours", s.handle(s.setBookingHours))
	admin.Handle("/set_max_hours", s.handle(s.setMaxHours))
	admin.Handle("/set_max_hours_weekly", s.handle(s.setMaxHoursWeekly))
	admin.Handle("/set_timezone", s.handle(s.setTimezone))
	admin.Handle("/start_bot", s.handle(s.startBot))
	admin.Handle("/stop_bot", s.handle(s.stopBot))
}
