// Package orchestrator - sweep.go
// Low-frequency safety net behind the edge-triggered watcher.
package orchestrator

import (
	"context"
	"time"
)

// StartSweep launches the periodic rescan of all active matches. The sweep is
// idempotent with the event path: arming an armed timer is a no-op, deleting a
// deleted room is tolerated, and the terminal transition happens once no
// matter who requests it. It exists to catch missed or reordered gateway
// events, and it enforces the hard match timeout.
func (o *Orchestrator) StartSweep(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(o.opts.SweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				o.sweepOnce(time.Now())
			}
		}
	}()
}

func (o *Orchestrator) sweepOnce(now time.Time) {
	for _, m := range o.store.Active() {
		if now.Sub(m.StartedAt) > o.opts.MatchTimeout {
			if err := o.EndMatch(m.ID, EndedByTimeout); err != nil {
				o.log.WithError(err).WithField("match_id", m.ID).Error("timeout end failed")
			}
			continue
		}

		if o.anyRoomMissing(m) {
			if err := o.EndMatch(m.ID, EndedByRecovery); err != nil {
				o.log.WithError(err).WithField("match_id", m.ID).Error("sweep recovery end failed")
			}
			continue
		}

		o.watch.Track(m.RoomIDs...) // no-op when already tracked
		for _, r := range m.RoomIDs {
			n, err := o.platform.RoomOccupancy(r)
			if err != nil {
				o.log.WithError(err).WithField("room_id", r).Debug("sweep: occupancy check failed")
				continue
			}
			if n == 0 {
				// arm directly: an idle sweep pass is not match activity
				o.timers.Arm(r)
			} else {
				o.watch.HandleJoin(r, n)
			}
		}
	}
}
