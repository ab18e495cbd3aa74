package main

import (
	"context"
	"court-booking-bot/bot"
	"court-booking-bot/config"
	"flag"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	path := flag.String("config", "./config.yaml", "path to the YAML config file")
	flag.Parse()

	c, err := config.Load(*path)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to load config")
		return
	}
	setupLogger(c)

	ctx, cancel := context.WithCancel(context.Background())
	confirm := make(chan struct{})
	go func() {
		err := bot.Start(ctx, c, confirm)
		if err != nil {
			log.Fatal().Err(err).Msg("Unable to start bot")
		}
	}()
	s := make(chan os.Signal, 1)
	signal.Notify(s, os.Interrupt, syscall.SIGTERM)
	<-s
	log.Info().Msg("Shutting down")
	cancel()
	<-confirm
}

func setupLogger(c config.Config) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if c.Log.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if c.Log.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
