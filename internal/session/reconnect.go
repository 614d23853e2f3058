package session

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Fize/vbrpg-sub001/internal/room"
)

// HandleDisconnect is called by the gateway when a connection drops. Rooms
// are few enough per process that scanning them is fine.
func (c *Coordinator) HandleDisconnect(connID string) {
	c.mu.Lock()
	rts := make([]*roomRuntime, 0, len(c.rooms))
	for _, rt := range c.rooms {
		rts = append(rts, rt)
	}
	c.mu.Unlock()

	for _, rt := range rts {
		rt.mu.Lock()
		p := rt.reg.ByConn(connID)
		if p == nil || p.Liveness != room.LivenessConnected {
			rt.mu.Unlock()
			continue
		}
		switch rt.room.Status {
		case room.StatusWaiting:
			rt.reg.Remove(p.Seat)
			c.broadcast(rt, room.EventPlayerLeft, map[string]any{
				"seat":           p.Seat,
				"participant_id": p.ID,
				"occupied":       rt.reg.Occupied(),
			})
		case room.StatusInProgress:
			c.openReconnectWindowLocked(rt, p)
		}
		rt.mu.Unlock()
	}
}

func (c *Coordinator) openReconnectWindowLocked(rt *roomRuntime, p *room.Participant) {
	if rt.windows[p.Seat] != nil {
		return
	}
	now := time.Now()
	w := &reconnectWindow{
		participantID:  p.ID,
		seat:           p.Seat,
		disconnectedAt: now,
		expiresAt:      now.Add(c.cfg.ReconnectGrace),
	}
	rt.windows[p.Seat] = w
	p.Liveness = room.LivenessDisconnected
	p.ConnID = ""
	c.broadcast(rt, room.EventPlayerLeft, map[string]any{
		"seat":           p.Seat,
		"participant_id": p.ID,
		"grace_ms":       c.cfg.ReconnectGrace.Milliseconds(),
		"expires_at_ts":  w.expiresAt.UnixMilli(),
	})
	log.Info().Str("room_code", rt.room.JoinCode).Int("seat", p.Seat).
		Time("expires_at", w.expiresAt).Msg("reconnect_window_opened")
}

// Reconnect restores a disconnected participant strictly before the window
// expires. After substitution the seat is gone for good: the returning
// client gets seat_already_replaced, never an un-substitution.
func (c *Coordinator) Reconnect(code, participantID, connID string) (room.Snapshot, error) {
	rt := c.runtimeByCode(code)
	if rt == nil {
		return room.Snapshot{}, room.ErrRoomNotFound
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	p := rt.reg.ByID(participantID)
	if p == nil || p.Liveness == room.LivenessReplaced {
		return room.Snapshot{}, room.ErrSeatAlreadyReplaced
	}
	if p.Kind != room.KindHuman {
		return room.Snapshot{}, room.ErrSeatAlreadyReplaced
	}
	if p.Liveness == room.LivenessConnected {
		// same participant re-attaching over a fresh connection
		p.ConnID = connID
		snap := rt.snapshotLocked()
		c.sendTo(connID, rt, room.EventReconnected, map[string]any{"snapshot": snap})
		return snap, nil
	}
	w := rt.windows[p.Seat]
	if w == nil || w.participantID != participantID {
		return room.Snapshot{}, room.ErrSeatAlreadyReplaced
	}
	// the absolute deadline decides, not the sweep cadence: a late arrival
	// triggers the substitution right here instead of waiting for the janitor
	if time.Now().After(w.expiresAt) {
		c.substituteLocked(rt, w)
		return room.Snapshot{}, room.ErrSeatAlreadyReplaced
	}
	delete(rt.windows, p.Seat)
	p.Liveness = room.LivenessConnected
	p.ConnID = connID
	snap := rt.snapshotLocked()
	// private full snapshot to the returning participant, then the
	// mandatory post-reconnection snapshot for everyone else
	c.sendTo(connID, rt, room.EventReconnected, map[string]any{"snapshot": snap})
	c.broadcast(rt, room.EventGameStateUpdate, map[string]any{
		"snapshot": snap,
		"source":   "reconnect",
	})
	log.Info().Str("room_code", rt.room.JoinCode).Int("seat", p.Seat).Msg("participant_reconnected")
	return snap, nil
}

// substituteLocked retires an expired seat and hands it to a fresh AI
// participant. If that seat held the active turn the turn is re-dispatched
// to the substitute instead of waiting out a second timer.
func (c *Coordinator) substituteLocked(rt *roomRuntime, w *reconnectWindow) {
	delete(rt.windows, w.seat)
	profile := rt.profileFor(w.seat, c.cfg.AIProfiles)
	sub, err := rt.reg.ReplaceWithAI(w.seat, profile)
	if err != nil {
		log.Error().Err(err).Str("room_code", rt.room.JoinCode).Int("seat", w.seat).Msg("substitute failed")
		return
	}
	c.broadcast(rt, room.EventPlayerReplacedByAI, map[string]any{
		"seat":               w.seat,
		"old_participant_id": w.participantID,
		"participant_id":     sub.ID,
		"profile":            sub.Profile,
	})
	log.Info().Str("room_code", rt.room.JoinCode).Int("seat", w.seat).
		Str("profile", profile).Msg("seat_replaced_by_ai")
	if rt.room.Status == room.StatusInProgress && !rt.paused &&
		rt.state.CurrentTurnSeat == w.seat && rt.pendingAI == nil {
		rt.turnDeadline = time.Time{}
		c.dispatchAILocked(rt, sub)
	}
}
