package app

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	disc "github.com/jose-valero/scrim-rooms-bot/internal/adapters/discord"
	"github.com/jose-valero/scrim-rooms-bot/internal/orchestrator"
	"github.com/jose-valero/scrim-rooms-bot/internal/store"
	"github.com/jose-valero/scrim-rooms-bot/pkg/config"
)

type Bot struct {
	Sess    *discordgo.Session
	Cfg     *config.Config
	Log     *logrus.Logger
	Store   *store.Store
	Gateway *disc.Gateway
	Orch    *orchestrator.Orchestrator

	cancelBus func()
}

func NewBot(s *discordgo.Session, cfg *config.Config, log *logrus.Logger, st *store.Store) *Bot {
	gw := disc.NewGateway(s, log)
	orch := orchestrator.New(gw, st, orchestrator.Options{
		CategoryName:        cfg.CategoryName,
		RoomCapacity:        cfg.RoomCapacity,
		Grace:               cfg.Grace,
		SweepEvery:          cfg.SweepEvery,
		MatchTimeout:        cfg.MatchTimeout,
		WaitingRoomID:       cfg.WaitingRoomID,
		ReturnToWaitingRoom: cfg.ReturnToWaitingRoom,
	}, log)

	return &Bot{
		Sess:    s,
		Cfg:     cfg,
		Log:     log,
		Store:   st,
		Gateway: gw,
		Orch:    orch,
	}
}

func (b *Bot) RegisterHandlers() {
	// 1) Command authorization
	disc.SetAdminRoles(b.Cfg.AdminRoleIDs)

	// 2) Voice events feed the occupancy watcher
	tracker := disc.NewVoiceTracker(b.Gateway, b.Orch.Watcher(), b.Log)
	b.Sess.AddHandler(tracker.HandleVoiceStateUpdate)

	// 3) Slash command router
	b.Sess.AddHandler(b.handleInteraction)

	// 4) Bus subscribers keep the public board fresh
	b.cancelBus = b.StartEventSubscribers()

	// 5) Register/refresh guild commands
	if err := RegisterCommands(b.Sess, b.Cfg.AppID, b.Cfg.GuildID); err != nil {
		b.Log.WithError(err).Error("command registration failed")
	}
}

// Stop tears down bus subscriptions and pending deletion timers.
func (b *Bot) Stop() {
	if b.cancelBus != nil {
		b.cancelBus()
	}
	b.Orch.Shutdown()
}
