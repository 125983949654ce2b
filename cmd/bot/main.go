// Command bot starts the scrim-rooms bot process.
//
// This binary:
//  1. loads config from environment variables (.env during dev)
//  2. opens the flat-file match store
//  3. creates a discord session and registers the app handlers
//  4. reconciles persisted matches against live guild state
//  5. runs until it gets a signal from the OS
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/jose-valero/scrim-rooms-bot/internal/app"
	"github.com/jose-valero/scrim-rooms-bot/internal/store"
	"github.com/jose-valero/scrim-rooms-bot/pkg/config"
)

func main() {
	// load .env for local development
	_ = godotenv.Load()

	log := logrus.New()
	log.SetLevel(logrus.InfoLevel)
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if lvl, err := logrus.ParseLevel(v); err == nil {
			log.SetLevel(lvl)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("config error")
	}

	st, err := store.Open(cfg.DataFile, log)
	if err != nil {
		log.WithError(err).Fatal("store error")
	}

	// the prefix "Bot " is required for bot tokens
	sess, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		log.WithError(err).Fatal("discord session error")
	}

	sess.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates // join/leave events for room tracking

	// voice transitions for a room must be observed in arrival order:
	// a leave-then-join pair reordered into join-then-leave would delete
	// an occupied room
	sess.SyncEvents = true

	b := app.NewBot(sess, cfg, log, st)
	b.RegisterHandlers()

	if err := sess.Open(); err != nil {
		log.WithError(err).Fatal("open gateway error")
	}
	defer sess.Close()

	// repair drift from whatever happened while we were down, then start
	// the safety sweep
	b.Orch.ReconcileOnStartup()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b.Orch.StartSweep(ctx)

	log.Infof("🤖 bot ready - %s", cfg.Redacted())

	// block the process until SIGINT/SIGTERM for a clean shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop

	b.Stop()
}
