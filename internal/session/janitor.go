package session

import (
	"context"
	"time"

	"github.com/Fize/vbrpg-sub001/internal/room"
)

// StartJanitor runs the deadline sweeps: human turn expiry, reconnection
// window expiry, paused-room probing and termination, and eviction of
// long-completed rooms.
func (c *Coordinator) StartJanitor(ctx context.Context) {
	ticker := time.NewTicker(coordinatorSweepInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				c.sweep(now)
			}
		}
	}()
}

func (c *Coordinator) sweep(now time.Time) {
	c.mu.Lock()
	rts := make([]*roomRuntime, 0, len(c.rooms))
	for _, rt := range c.rooms {
		rts = append(rts, rt)
	}
	c.mu.Unlock()

	var evict []string
	for _, rt := range rts {
		rt.mu.Lock()
		c.sweepRoomLocked(rt, now)
		if rt.room.Status == room.StatusCompleted && !rt.evictAt.IsZero() && now.After(rt.evictAt) {
			evict = append(evict, rt.room.JoinCode)
		}
		rt.mu.Unlock()
	}
	if len(evict) > 0 {
		c.mu.Lock()
		for _, code := range evict {
			delete(c.rooms, code)
		}
		c.mu.Unlock()
	}
}

func (c *Coordinator) sweepRoomLocked(rt *roomRuntime, now time.Time) {
	// expired reconnection windows first so a substituted seat can take
	// over its own pending turn in the same sweep
	for _, w := range rt.windows {
		if now.After(w.expiresAt) {
			c.substituteLocked(rt, w)
		}
	}
	if rt.room.Status != room.StatusInProgress {
		return
	}
	if rt.paused {
		if now.Sub(rt.pausedAt) >= c.cfg.AIOutageLimit {
			c.terminateLocked(rt, "service_unavailable")
			return
		}
		if rt.pendingAI == nil && !rt.nextProbeAt.IsZero() && now.After(rt.nextProbeAt) {
			if p := rt.reg.BySeat(rt.state.CurrentTurnSeat); p != nil && p.Kind == room.KindAI {
				rt.nextProbeAt = now.Add(c.cfg.AIProbeInterval)
				c.dispatchAILocked(rt, p)
			}
		}
		return
	}
	if !rt.turnDeadline.IsZero() && now.After(rt.turnDeadline) {
		c.forcedPassLocked(rt, rt.state.CurrentTurnSeat, "turn_timeout")
	}
}
