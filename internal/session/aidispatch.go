package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Fize/vbrpg-sub001/internal/aibridge"
	"github.com/Fize/vbrpg-sub001/internal/room"
)

// dispatchAILocked opens the single in-flight decision for the current AI
// turn. Request ids increase monotonically per room; a response carrying a
// superseded id is dropped on delivery.
func (c *Coordinator) dispatchAILocked(rt *roomRuntime, p *room.Participant) {
	if rt.pendingAI != nil {
		return
	}
	rt.nextReqID++
	now := time.Now()
	pd := &pendingDecision{
		seat:         p.Seat,
		requestID:    rt.nextReqID,
		dispatchedAt: now,
		deadline:     now.Add(c.cfg.AIDecisionTimeout),
	}
	rt.pendingAI = pd
	c.broadcast(rt, room.EventAIThinking, map[string]any{
		"seat":        p.Seat,
		"profile":     p.Profile,
		"estimate_ms": c.cfg.AIDecisionTimeout.Milliseconds(),
	})
	req := aibridge.Request{
		RoomCode:  rt.room.JoinCode,
		Seat:      p.Seat,
		Profile:   p.Profile,
		RequestID: pd.requestID,
		State:     rt.snapshotLocked(),
	}
	go c.runAIDecision(rt, req, pd.deadline)
}

func (c *Coordinator) runAIDecision(rt *roomRuntime, req aibridge.Request, deadline time.Time) {
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()
	act, err := c.decider.Decide(ctx, req)
	c.deliverAIDecision(rt, req.RequestID, act, err)
}

// deliverAIDecision re-enters the room's serialized path with the result of
// one dispatch. Success resets the outage clock; failures accrue toward the
// pause and termination thresholds.
func (c *Coordinator) deliverAIDecision(rt *roomRuntime, requestID int64, act room.Action, decideErr error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.room.Status != room.StatusInProgress {
		return
	}
	pd := rt.pendingAI
	if pd == nil || pd.requestID != requestID {
		log.Debug().Str("room_code", rt.room.JoinCode).Int64("request_id", requestID).
			Msg("stale ai decision dropped")
		return
	}
	rt.pendingAI = nil
	now := time.Now()

	if decideErr == nil {
		act.Seat = pd.seat
		if act.Kind != room.ActionPass {
			if err := rt.rules.Validate(rt.state, act); err != nil {
				decideErr = aibridge.ErrInvalidDecision
			}
		}
	}

	if decideErr == nil {
		rt.aiOutage = 0
		if rt.paused {
			rt.paused = false
			rt.pausedAt = time.Time{}
			rt.nextProbeAt = time.Time{}
			c.broadcast(rt, room.EventGameError, map[string]any{
				"severity": "info",
				"paused":   false,
				"code":     "decision_service_recovered",
			})
		}
		announce := func() {
			c.broadcast(rt, room.EventAIAction, map[string]any{
				"seat":   pd.seat,
				"action": act,
			})
		}
		if err := c.applyActionLocked(rt, pd.seat, act, "ai", announce); err != nil {
			log.Error().Err(err).Str("room_code", rt.room.JoinCode).Int("seat", pd.seat).
				Msg("ai action rejected, forcing pass")
			c.forcedPassLocked(rt, pd.seat, "ai_invalid")
		}
		return
	}

	rt.aiOutage += now.Sub(pd.dispatchedAt)
	log.Warn().Err(decideErr).Str("room_code", rt.room.JoinCode).Int("seat", pd.seat).
		Dur("outage", rt.aiOutage).Msg("ai decision failed")

	if rt.paused {
		if now.Sub(rt.pausedAt) >= c.cfg.AIOutageLimit {
			c.terminateLocked(rt, "service_unavailable")
			return
		}
		rt.nextProbeAt = now.Add(c.cfg.AIProbeInterval)
		return
	}
	if rt.aiOutage >= c.cfg.AIOutageLimit {
		rt.paused = true
		rt.pausedAt = now
		rt.nextProbeAt = now.Add(c.cfg.AIProbeInterval)
		rt.turnDeadline = time.Time{}
		c.broadcast(rt, room.EventGameError, map[string]any{
			"severity": "critical",
			"paused":   true,
			"code":     "service_unavailable",
		})
		return
	}
	c.forcedPassLocked(rt, pd.seat, "ai_timeout")
}
