// internal/app/subscribers.go
package app

import (
	d "github.com/jose-valero/scrim-rooms-bot/internal/adapters/discord"
	"github.com/jose-valero/scrim-rooms-bot/internal/domain/events"
	"github.com/jose-valero/scrim-rooms-bot/internal/ui"
)

// StartEventSubscribers wires the lifecycle events to the public board.
// Returns a cancel func that detaches everything.
func (b *Bot) StartEventSubscribers() func() {
	var cancels []func()

	refresh := func() {
		emb := ui.RenderBoard(b.Store.Active())
		if err := d.PublishOrEditBoardMessage(b.Sess, b.Cfg.BoardChannelID, emb); err != nil {
			b.Log.WithError(err).Warn("board refresh failed")
		}
	}

	cancels = append(cancels, events.Subscribe(func(ev events.MatchStarted) {
		b.Log.WithField("match_id", ev.MatchID).Debug("board: match started")
		refresh()
	}))

	cancels = append(cancels, events.Subscribe(func(ev events.MatchEnded) {
		b.Log.WithField("match_id", ev.MatchID).Debug("board: match ended")
		refresh()
	}))

	cancels = append(cancels, events.Subscribe(func(ev events.RoomEmptied) {
		b.Log.WithField("room_id", ev.RoomID).Debug("board: room emptied")
	}))

	cancels = append(cancels, events.Subscribe(func(ev events.RoomReoccupied) {
		b.Log.WithField("room_id", ev.RoomID).Debug("board: room reoccupied")
	}))

	return func() {
		for _, c := range cancels {
			c()
		}
	}
}
