// internal/app/router.go
package app

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	d "github.com/jose-valero/scrim-rooms-bot/internal/adapters/discord"
	"github.com/jose-valero/scrim-rooms-bot/internal/orchestrator"
	"github.com/jose-valero/scrim-rooms-bot/internal/store"
	"github.com/jose-valero/scrim-rooms-bot/internal/ui"
)

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	b.handleSlash(s, i)
}

func (b *Bot) handleSlash(s *discordgo.Session, i *discordgo.InteractionCreate) {
	name := i.ApplicationCommandData().Name
	b.Log.WithFields(logrus.Fields{
		"command": name,
		"channel": i.ChannelID,
	}).Info("slash command")

	switch name {

	case "startmatch":
		if !d.RequirePrivileged(s, i) {
			return
		}
		waiting, err := b.Gateway.RoomMembers(b.Cfg.WaitingRoomID)
		if err != nil {
			_ = d.SendEphemeral(s, i, "⚠️ Could not read the waiting room.")
			return
		}
		u := d.UserOf(i)
		m, err := b.Orch.StartMatch(b.Cfg.GuildID, waiting, d.SafeName(u))
		if err != nil {
			switch {
			case errors.Is(err, orchestrator.ErrNoParticipants):
				_ = d.SendEphemeral(s, i, "⚠️ The waiting room is empty.")
			case errors.Is(err, orchestrator.ErrRoomUnavailable):
				_ = d.SendEphemeral(s, i, "⚠️ Could not provision voice rooms, try again shortly.")
			default:
				_ = d.SendEphemeral(s, i, "⚠️ "+err.Error())
			}
			return
		}
		rooms := "room"
		if len(m.RoomIDs) == 2 {
			rooms = "rooms"
		}
		_ = d.SendEphemeral(s, i, fmt.Sprintf("✅ Match `%s` started: %d players across %d %s.",
			m.ID, len(m.Participants), len(m.RoomIDs), rooms))
		return

	case "endmatch":
		if !d.RequirePrivileged(s, i) {
			return
		}
		opts := i.ApplicationCommandData().Options
		if len(opts) == 0 {
			_ = d.SendEphemeral(s, i, "⚠️ Missing match id.")
			return
		}
		matchID := opts[0].StringValue()
		u := d.UserOf(i)
		if err := b.Orch.EndMatch(matchID, d.SafeName(u)); err != nil {
			switch {
			case errors.Is(err, orchestrator.ErrUnknownMatch):
				_ = d.SendEphemeral(s, i, "⚠️ No match with that id.")
			case errors.Is(err, store.ErrPersistence):
				_ = d.SendEphemeral(s, i, "⚠️ Could not record the end of the match, try again.")
			default:
				_ = d.SendEphemeral(s, i, "⚠️ "+err.Error())
			}
			return
		}
		_ = d.SendEphemeral(s, i, fmt.Sprintf("🏁 Match `%s` ended.", matchID))
		return

	case "matches":
		active := b.Store.Active()
		if len(active) == 1 {
			_ = d.SendEphemeralEmbed(s, i, ui.RenderMatchDetail(active[0]))
			return
		}
		_ = d.SendEphemeralEmbed(s, i, ui.RenderBoard(active))
		return
	}
}
