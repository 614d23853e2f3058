package session

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Fize/vbrpg-sub001/internal/room"
)

// SubmitAction is the human entry point: the submitter is identified by its
// participant id (websocket gateway resolves connections to participants,
// the MCP surface passes ids straight through).
func (c *Coordinator) SubmitAction(code, participantID string, act room.Action) (room.Snapshot, error) {
	rt := c.runtimeByCode(code)
	if rt == nil {
		return room.Snapshot{}, room.ErrRoomNotFound
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	p := rt.reg.ByID(participantID)
	if p == nil {
		return room.Snapshot{}, room.ErrParticipantNotFound
	}
	if err := c.applyActionLocked(rt, p.Seat, act, "action", nil); err != nil {
		return room.Snapshot{}, err
	}
	return rt.snapshotLocked(), nil
}

func (c *Coordinator) SubmitActionByConn(code, connID string, act room.Action) (room.Snapshot, error) {
	rt := c.runtimeByCode(code)
	if rt == nil {
		return room.Snapshot{}, room.ErrRoomNotFound
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	p := rt.reg.ByConn(connID)
	if p == nil {
		return room.Snapshot{}, room.ErrParticipantNotFound
	}
	if err := c.applyActionLocked(rt, p.Seat, act, "action", nil); err != nil {
		return room.Snapshot{}, err
	}
	return rt.snapshotLocked(), nil
}

// applyActionLocked is the single mutation path for a room's game state.
// Every accepted mutation bumps the version by exactly one and cancels the
// turn's timer and any in-flight AI dispatch before the next turn begins.
// announce, when set, runs after the version bump and before the state
// broadcast; it fires only for accepted actions.
func (c *Coordinator) applyActionLocked(rt *roomRuntime, seat int, act room.Action, source string, announce func()) error {
	switch rt.room.Status {
	case room.StatusWaiting:
		return room.ErrRoomNotJoinable
	case room.StatusCompleted:
		return room.ErrRoomCompleted
	}
	if rt.paused {
		return room.ErrRoomPaused
	}
	if seat != rt.state.CurrentTurnSeat {
		return room.ErrNotYourTurn
	}
	act.Seat = seat
	if act.Kind != room.ActionPass {
		if err := rt.rules.Validate(rt.state, act); err != nil {
			return room.ErrInvalidAction
		}
	}
	next, outcome, err := rt.rules.Apply(rt.state, act)
	if err != nil {
		return room.ErrInvalidAction
	}

	// cancel before advancing: no orphaned timer may double-advance
	rt.turnDeadline = time.Time{}
	rt.pendingAI = nil

	next.Version = rt.state.Version + 1
	next.TurnNumber = rt.state.TurnNumber
	next.CurrentTurnSeat = rt.state.CurrentTurnSeat
	rt.state = next

	if announce != nil {
		announce()
	}
	c.broadcast(rt, room.EventGameStateUpdate, map[string]any{
		"action": act,
		"phase":  rt.state.Phase,
		"source": source,
	})
	if outcome.Done {
		c.completeLocked(rt, outcome.Reason, outcome.WinnerSeat)
		return nil
	}
	rt.state.CurrentTurnSeat = rt.reg.NextSeat(seat)
	rt.state.TurnNumber++
	c.beginTurnLocked(rt)
	return nil
}

// beginTurnLocked arms either the human turn timer or an AI dispatch for
// the current seat.
func (c *Coordinator) beginTurnLocked(rt *roomRuntime) {
	seat := rt.state.CurrentTurnSeat
	p := rt.reg.BySeat(seat)
	if p == nil {
		c.terminateLocked(rt, "internal_error")
		return
	}
	if p.Kind == room.KindHuman {
		rt.turnDeadline = time.Now().Add(c.cfg.TurnTimeout)
	} else {
		rt.turnDeadline = time.Time{}
	}
	data := map[string]any{
		"seat":        seat,
		"kind":        p.Kind,
		"turn_number": rt.state.TurnNumber,
	}
	if !rt.turnDeadline.IsZero() {
		data["deadline_ts"] = rt.turnDeadline.UnixMilli()
		data["timeout_ms"] = c.cfg.TurnTimeout.Milliseconds()
	}
	c.broadcast(rt, room.EventTurnChanged, data)
	if p.Kind == room.KindAI {
		c.dispatchAILocked(rt, p)
	}
}

// forcedPassLocked applies the automatic pass for an elapsed deadline. The
// race with a late real action is settled by the runtime lock: whichever
// grabs it first wins, the loser sees NotYourTurn.
func (c *Coordinator) forcedPassLocked(rt *roomRuntime, seat int, source string) {
	if rt.room.Status != room.StatusInProgress || seat != rt.state.CurrentTurnSeat {
		return
	}
	if err := c.applyActionLocked(rt, seat, room.PassAction(seat), source, nil); err != nil {
		log.Error().Err(err).Str("room_code", rt.room.JoinCode).Int("seat", seat).Msg("forced pass rejected")
	}
}

func (c *Coordinator) completeLocked(rt *roomRuntime, reason string, winnerSeat int) {
	rt.room.Status = room.StatusCompleted
	rt.room.CompletedAt = time.Now()
	rt.endReason = reason
	rt.winnerSeat = winnerSeat
	rt.cancelAllLocked()
	rt.evictAt = time.Now().Add(completedRoomTTL)
	snap := rt.snapshotLocked()
	c.broadcast(rt, room.EventGameEnded, map[string]any{
		"reason":      reason,
		"winner_seat": winnerSeat,
		"snapshot":    snap,
	})
	log.Info().Str("room_code", rt.room.JoinCode).Str("reason", reason).
		Int64("final_version", rt.state.Version).Msg("game_ended")
	c.archiveCompleted(snap, reason, winnerSeat)
}

// terminateLocked is the forced path: service outage past the limit or an
// invariant violation. Terminal broadcast differs from a normal game end.
func (c *Coordinator) terminateLocked(rt *roomRuntime, reason string) {
	if rt.room.Status == room.StatusCompleted {
		return
	}
	rt.room.Status = room.StatusCompleted
	rt.room.CompletedAt = time.Now()
	rt.endReason = reason
	rt.winnerSeat = -1
	rt.cancelAllLocked()
	rt.evictAt = time.Now().Add(completedRoomTTL)
	snap := rt.snapshotLocked()
	c.broadcast(rt, room.EventGameTerminated, map[string]any{
		"reason":   reason,
		"snapshot": snap,
	})
	log.Warn().Str("room_code", rt.room.JoinCode).Str("reason", reason).Msg("game_terminated")
	c.archiveCompleted(snap, reason, -1)
}

// cancelAllLocked clears timers, pending AI dispatch, and reconnection
// windows as one batch when a room closes.
func (rt *roomRuntime) cancelAllLocked() {
	rt.turnDeadline = time.Time{}
	rt.pendingAI = nil
	rt.windows = map[int]*reconnectWindow{}
	rt.paused = false
	rt.nextProbeAt = time.Time{}
}

func (c *Coordinator) archiveCompleted(snap room.Snapshot, reason string, winnerSeat int) {
	if c.arch == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.arch.RecordCompleted(ctx, snap, reason, winnerSeat); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("room_code", snap.RoomCode).Msg("archive completed room failed")
		}
	}()
}
