// Voice event plumbing: translate gateway VoiceStateUpdate events into
// join/leave calls on the occupancy watcher. Only rooms the watcher tracks
// cost anything; the rest of the guild's voice traffic falls through.

package discord

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"github.com/jose-valero/scrim-rooms-bot/internal/watcher"
)

type VoiceTracker struct {
	gw    *Gateway
	watch *watcher.Watcher
	log   *logrus.Logger
}

func NewVoiceTracker(gw *Gateway, watch *watcher.Watcher, log *logrus.Logger) *VoiceTracker {
	return &VoiceTracker{gw: gw, watch: watch, log: log}
}

// HandleVoiceStateUpdate is registered as a discordgo handler. The session
// must run with SyncEvents so transitions for the same room arrive in order:
// a leave-then-join pair must never be observed as join-then-leave.
//
// It does not matter who moved the member (the member themselves, an admin
// drag, a moderation removal): every transition is just a leave and/or a
// join on the rooms involved.
func (vt *VoiceTracker) HandleVoiceStateUpdate(_ *discordgo.Session, ev *discordgo.VoiceStateUpdate) {
	if ev == nil || ev.VoiceState == nil {
		return
	}

	var before string
	if ev.BeforeUpdate != nil {
		before = ev.BeforeUpdate.ChannelID
	}
	after := ev.ChannelID
	if before == after {
		return // mute/deafen toggle, not a movement
	}

	if before != "" && vt.watch.Tracked(before) {
		n, err := vt.gw.RoomOccupancy(before)
		if err != nil {
			vt.log.WithError(err).WithField("room_id", before).Warn("occupancy after leave unknown")
		} else {
			vt.watch.HandleLeave(before, n)
		}
	}
	if after != "" && vt.watch.Tracked(after) {
		n, err := vt.gw.RoomOccupancy(after)
		if err != nil {
			vt.log.WithError(err).WithField("room_id", after).Warn("occupancy after join unknown")
		} else {
			vt.watch.HandleJoin(after, n)
		}
	}
}
