package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Fize/vbrpg-sub001/internal/aibridge"
	"github.com/Fize/vbrpg-sub001/internal/game/roundrobin"
	"github.com/Fize/vbrpg-sub001/internal/room"
)

type captureBroadcaster struct {
	mu     sync.Mutex
	events []room.Event
	direct []room.Event
}

func (b *captureBroadcaster) Broadcast(_ string, ev room.Event) {
	b.mu.Lock()
	b.events = append(b.events, ev)
	b.mu.Unlock()
}

func (b *captureBroadcaster) SendTo(_ string, ev room.Event) {
	b.mu.Lock()
	b.direct = append(b.direct, ev)
	b.mu.Unlock()
}

func (b *captureBroadcaster) find(t room.EventType) (room.Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ev := range b.events {
		if ev.Type == t {
			return ev, true
		}
	}
	return room.Event{}, false
}

func (b *captureBroadcaster) has(t room.EventType) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ev := range b.events {
		if ev.Type == t {
			return true
		}
	}
	return false
}

// blockingDecider parks every decision until the context expires; tests
// deliver results by hand through deliverAIDecision for determinism.
type blockingDecider struct{}

func (blockingDecider) Decide(ctx context.Context, _ aibridge.Request) (room.Action, error) {
	<-ctx.Done()
	return room.Action{}, aibridge.ErrDecisionTimeout
}

func newTestCoordinator(decider aibridge.Decider) (*Coordinator, *captureBroadcaster) {
	c := NewCoordinator(Config{
		Bounds:            room.Bounds{MinSeats: 2, MaxSeats: 8},
		TurnTimeout:       time.Minute,
		AIDecisionTimeout: time.Hour,
		ReconnectGrace:    time.Minute,
		AIOutageLimit:     time.Minute,
		AIProbeInterval:   time.Second,
		AIProfiles:        []string{"balanced", "cautious"},
	}, decider, nil)
	c.RegisterTitle("roundrobin", roundrobin.New(3))
	bc := &captureBroadcaster{}
	c.SetBroadcaster(bc)
	return c, bc
}

func mustCreate(t *testing.T, c *Coordinator, minSeats, maxSeats int) *room.Room {
	t.Helper()
	r, err := c.CreateRoom(room.Config{Title: "roundrobin", MinSeats: minSeats, MaxSeats: maxSeats})
	if err != nil {
		t.Fatalf("create room: %v", err)
	}
	return r
}

func mustJoin(t *testing.T, c *Coordinator, code, name, connID string) *room.Participant {
	t.Helper()
	p, err := c.JoinRoom(code, name, connID)
	if err != nil {
		t.Fatalf("join %s: %v", name, err)
	}
	return p
}

func TestCreateRoomUnknownTitle(t *testing.T) {
	c, _ := newTestCoordinator(blockingDecider{})
	_, err := c.CreateRoom(room.Config{Title: "nope", MinSeats: 2, MaxSeats: 4})
	if err != room.ErrUnknownTitle {
		t.Fatalf("expected ErrUnknownTitle, got %v", err)
	}
}

func TestStartFillsEmptySeatsWithAI(t *testing.T) {
	c, bc := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 4, 6)
	mustJoin(t, c, r.JoinCode, "alice", "c1")
	mustJoin(t, c, r.JoinCode, "bob", "c2")

	if err := c.StartGame(r.JoinCode, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	snap, err := c.Snapshot(r.JoinCode)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snap.Status != room.StatusInProgress {
		t.Fatalf("expected in_progress, got %s", snap.Status)
	}
	if len(snap.Seats) != 4 {
		t.Fatalf("expected 4 seats, got %d", len(snap.Seats))
	}
	ai := 0
	for _, s := range snap.Seats {
		if s.Kind == room.KindAI {
			ai++
		}
	}
	if ai != 2 {
		t.Fatalf("expected 2 AI seats, got %d", ai)
	}
	if !bc.has(room.EventGameStarted) || !bc.has(room.EventTurnChanged) {
		t.Fatalf("missing start broadcasts")
	}
	if snap.State.Version != 0 || snap.State.TurnNumber != 1 || snap.State.CurrentTurnSeat != 0 {
		t.Fatalf("bad initial state: %+v", snap.State)
	}
}

func TestStartRequiresMembership(t *testing.T) {
	c, _ := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 2, 4)
	mustJoin(t, c, r.JoinCode, "alice", "c1")
	if err := c.StartGame(r.JoinCode, "stranger"); err != room.ErrParticipantNotFound {
		t.Fatalf("expected ErrParticipantNotFound, got %v", err)
	}
}

func TestVersionBumpsByOnePerAcceptedAction(t *testing.T) {
	c, _ := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 2, 4)
	p1 := mustJoin(t, c, r.JoinCode, "alice", "c1")
	p2 := mustJoin(t, c, r.JoinCode, "bob", "c2")
	if err := c.StartGame(r.JoinCode, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	snap, err := c.SubmitAction(r.JoinCode, p1.ID, room.Action{Kind: roundrobin.ActionMove})
	if err != nil {
		t.Fatalf("action 1: %v", err)
	}
	if snap.State.Version != 1 || snap.State.CurrentTurnSeat != 1 || snap.State.TurnNumber != 2 {
		t.Fatalf("bad state after first action: %+v", snap.State)
	}
	snap, err = c.SubmitAction(r.JoinCode, p2.ID, room.Action{Kind: room.ActionPass})
	if err != nil {
		t.Fatalf("action 2: %v", err)
	}
	if snap.State.Version != 2 || snap.State.CurrentTurnSeat != 0 {
		t.Fatalf("bad state after second action: %+v", snap.State)
	}
}

func TestRejectedActionNeverBumpsVersion(t *testing.T) {
	c, _ := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 2, 4)
	mustJoin(t, c, r.JoinCode, "alice", "c1")
	p2 := mustJoin(t, c, r.JoinCode, "bob", "c2")
	if err := c.StartGame(r.JoinCode, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := c.SubmitAction(r.JoinCode, p2.ID, room.Action{Kind: roundrobin.ActionMove}); err != room.ErrNotYourTurn {
		t.Fatalf("expected ErrNotYourTurn, got %v", err)
	}
	if _, err := c.SubmitActionByConn(r.JoinCode, "c1", room.Action{Kind: "bogus"}); err != room.ErrInvalidAction {
		t.Fatalf("expected ErrInvalidAction, got %v", err)
	}
	snap, _ := c.Snapshot(r.JoinCode)
	if snap.State.Version != 0 {
		t.Fatalf("rejected actions bumped version to %d", snap.State.Version)
	}
}

func TestGameCompletesAfterFixedRounds(t *testing.T) {
	c, bc := newTestCoordinator(blockingDecider{})
	c.RegisterTitle("short", roundrobin.New(1))
	r, err := c.CreateRoom(room.Config{Title: "short", MinSeats: 2, MaxSeats: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	p1 := mustJoin(t, c, r.JoinCode, "alice", "c1")
	p2 := mustJoin(t, c, r.JoinCode, "bob", "c2")
	if err := c.StartGame(r.JoinCode, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	if _, err := c.SubmitAction(r.JoinCode, p1.ID, room.Action{Kind: roundrobin.ActionMove}); err != nil {
		t.Fatalf("action 1: %v", err)
	}
	if _, err := c.SubmitAction(r.JoinCode, p2.ID, room.Action{Kind: roundrobin.ActionMove}); err != nil {
		t.Fatalf("action 2: %v", err)
	}
	snap, _ := c.Snapshot(r.JoinCode)
	if snap.Status != room.StatusCompleted {
		t.Fatalf("expected completed, got %s", snap.Status)
	}
	if !bc.has(room.EventGameEnded) {
		t.Fatalf("missing game_ended broadcast")
	}
	if _, err := c.SubmitAction(r.JoinCode, p1.ID, room.Action{Kind: room.ActionPass}); err != room.ErrRoomCompleted {
		t.Fatalf("expected ErrRoomCompleted, got %v", err)
	}
}

func TestTurnTimeoutForcesPass(t *testing.T) {
	c, _ := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 2, 4)
	mustJoin(t, c, r.JoinCode, "alice", "c1")
	mustJoin(t, c, r.JoinCode, "bob", "c2")
	if err := c.StartGame(r.JoinCode, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	c.sweep(time.Now().Add(2 * time.Minute))
	snap, _ := c.Snapshot(r.JoinCode)
	if snap.State.Version != 1 {
		t.Fatalf("expected forced pass to bump version to 1, got %d", snap.State.Version)
	}
	if snap.State.CurrentTurnSeat != 1 {
		t.Fatalf("expected turn to advance to seat 1, got %d", snap.State.CurrentTurnSeat)
	}
}

func TestSweepLeavesFreshDeadlinesAlone(t *testing.T) {
	c, _ := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 2, 4)
	mustJoin(t, c, r.JoinCode, "alice", "c1")
	mustJoin(t, c, r.JoinCode, "bob", "c2")
	if err := c.StartGame(r.JoinCode, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	c.sweep(time.Now())
	snap, _ := c.Snapshot(r.JoinCode)
	if snap.State.Version != 0 {
		t.Fatalf("sweep before the deadline mutated state: %+v", snap.State)
	}
}

func TestReconnectWithinGrace(t *testing.T) {
	c, bc := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 2, 4)
	mustJoin(t, c, r.JoinCode, "alice", "c1")
	p2 := mustJoin(t, c, r.JoinCode, "bob", "c2")
	if err := c.StartGame(r.JoinCode, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	c.HandleDisconnect("c2")
	snap, _ := c.Snapshot(r.JoinCode)
	if snap.Seats[1].Liveness != room.LivenessDisconnected {
		t.Fatalf("expected disconnected seat, got %s", snap.Seats[1].Liveness)
	}

	snap, err := c.Reconnect(r.JoinCode, p2.ID, "c9")
	if err != nil {
		t.Fatalf("reconnect: %v", err)
	}
	if snap.Seats[1].Liveness != room.LivenessConnected {
		t.Fatalf("expected connected after reconnect, got %s", snap.Seats[1].Liveness)
	}
	bc.mu.Lock()
	gotPrivate := len(bc.direct) > 0 && bc.direct[len(bc.direct)-1].Type == room.EventReconnected
	bc.mu.Unlock()
	if !gotPrivate {
		t.Fatalf("missing private reconnected snapshot")
	}
}

func TestExpiredWindowSubstitutesAI(t *testing.T) {
	c, bc := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 2, 4)
	mustJoin(t, c, r.JoinCode, "alice", "c1")
	p2 := mustJoin(t, c, r.JoinCode, "bob", "c2")
	if err := c.StartGame(r.JoinCode, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	c.HandleDisconnect("c2")
	rt := c.runtimeByCode(r.JoinCode)
	rt.mu.Lock()
	rt.windows[1].expiresAt = time.Now().Add(-time.Second)
	// keep the human turn deadline out of this sweep's way
	rt.turnDeadline = time.Now().Add(time.Hour)
	rt.mu.Unlock()

	c.sweep(time.Now())
	snap, _ := c.Snapshot(r.JoinCode)
	if snap.Seats[1].Kind != room.KindAI {
		t.Fatalf("expected AI substitute at seat 1, got %s", snap.Seats[1].Kind)
	}
	if !bc.has(room.EventPlayerReplacedByAI) {
		t.Fatalf("missing player_replaced_by_ai broadcast")
	}
	if _, err := c.Reconnect(r.JoinCode, p2.ID, "c9"); err != room.ErrSeatAlreadyReplaced {
		t.Fatalf("expected ErrSeatAlreadyReplaced, got %v", err)
	}
}

func TestSubstituteTakesOverCurrentTurn(t *testing.T) {
	c, _ := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 2, 4)
	mustJoin(t, c, r.JoinCode, "alice", "c1")
	mustJoin(t, c, r.JoinCode, "bob", "c2")
	if err := c.StartGame(r.JoinCode, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	// seat 0 holds the turn and drops
	c.HandleDisconnect("c1")
	rt := c.runtimeByCode(r.JoinCode)
	rt.mu.Lock()
	rt.windows[0].expiresAt = time.Now().Add(-time.Second)
	rt.mu.Unlock()

	c.sweep(time.Now())
	rt.mu.Lock()
	pending := rt.pendingAI
	deadline := rt.turnDeadline
	rt.mu.Unlock()
	if pending == nil || pending.seat != 0 {
		t.Fatalf("expected AI dispatch for seat 0, got %+v", pending)
	}
	if !deadline.IsZero() {
		t.Fatalf("human turn deadline must be cleared for an AI seat")
	}
}

func TestStaleAIDecisionDropped(t *testing.T) {
	c, _ := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 2, 4)
	p1 := mustJoin(t, c, r.JoinCode, "alice", "c1")
	if err := c.StartGame(r.JoinCode, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	// seat 1 is an AI fill; seat 0 acts, putting the AI turn in flight
	if _, err := c.SubmitAction(r.JoinCode, p1.ID, room.Action{Kind: roundrobin.ActionMove}); err != nil {
		t.Fatalf("action: %v", err)
	}
	rt := c.runtimeByCode(r.JoinCode)
	rt.mu.Lock()
	if rt.pendingAI == nil {
		rt.mu.Unlock()
		t.Fatalf("expected pending AI dispatch")
	}
	current := rt.pendingAI.requestID
	rt.mu.Unlock()

	// a response for a superseded request id must not touch state
	c.deliverAIDecision(rt, current-1, room.Action{Kind: roundrobin.ActionMove}, nil)
	snap, _ := c.Snapshot(r.JoinCode)
	if snap.State.Version != 1 {
		t.Fatalf("stale decision mutated state to version %d", snap.State.Version)
	}

	c.deliverAIDecision(rt, current, room.Action{Kind: roundrobin.ActionMove}, nil)
	snap, _ = c.Snapshot(r.JoinCode)
	if snap.State.Version != 2 {
		t.Fatalf("expected version 2 after AI action, got %d", snap.State.Version)
	}
	if snap.State.CurrentTurnSeat != 0 {
		t.Fatalf("expected turn back at seat 0, got %d", snap.State.CurrentTurnSeat)
	}
}

func TestAIDispatchIsSingleFlight(t *testing.T) {
	c, _ := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 2, 4)
	p1 := mustJoin(t, c, r.JoinCode, "alice", "c1")
	if err := c.StartGame(r.JoinCode, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := c.SubmitAction(r.JoinCode, p1.ID, room.Action{Kind: roundrobin.ActionMove}); err != nil {
		t.Fatalf("action: %v", err)
	}
	rt := c.runtimeByCode(r.JoinCode)
	rt.mu.Lock()
	first := rt.pendingAI.requestID
	c.dispatchAILocked(rt, rt.reg.BySeat(1))
	second := rt.pendingAI.requestID
	rt.mu.Unlock()
	if first != second {
		t.Fatalf("second dispatch replaced the in-flight one: %d -> %d", first, second)
	}
}

func TestAIFailureForcesPassBelowOutageLimit(t *testing.T) {
	c, _ := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 2, 4)
	p1 := mustJoin(t, c, r.JoinCode, "alice", "c1")
	if err := c.StartGame(r.JoinCode, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := c.SubmitAction(r.JoinCode, p1.ID, room.Action{Kind: roundrobin.ActionMove}); err != nil {
		t.Fatalf("action: %v", err)
	}
	rt := c.runtimeByCode(r.JoinCode)
	rt.mu.Lock()
	reqID := rt.pendingAI.requestID
	rt.mu.Unlock()

	c.deliverAIDecision(rt, reqID, room.Action{}, aibridge.ErrDecisionTimeout)
	snap, _ := c.Snapshot(r.JoinCode)
	if snap.State.Version != 2 {
		t.Fatalf("expected forced pass at version 2, got %d", snap.State.Version)
	}
	if snap.Paused {
		t.Fatalf("single failure must not pause the room")
	}
}

func TestAIOutagePausesThenTerminates(t *testing.T) {
	c, bc := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 2, 4)
	p1 := mustJoin(t, c, r.JoinCode, "alice", "c1")
	if err := c.StartGame(r.JoinCode, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	// a second healthy room must not be affected by the outage handling
	other := mustCreate(t, c, 2, 4)
	mustJoin(t, c, other.JoinCode, "carol", "c3")
	mustJoin(t, c, other.JoinCode, "dave", "c4")
	if err := c.StartGame(other.JoinCode, "c3"); err != nil {
		t.Fatalf("start other: %v", err)
	}

	if _, err := c.SubmitAction(r.JoinCode, p1.ID, room.Action{Kind: roundrobin.ActionMove}); err != nil {
		t.Fatalf("action: %v", err)
	}
	rt := c.runtimeByCode(r.JoinCode)
	rt.mu.Lock()
	reqID := rt.pendingAI.requestID
	rt.aiOutage = time.Minute // accumulated failures right at the limit
	rt.mu.Unlock()

	c.deliverAIDecision(rt, reqID, room.Action{}, aibridge.ErrServiceUnavailable)
	snap, _ := c.Snapshot(r.JoinCode)
	if !snap.Paused {
		t.Fatalf("expected paused room")
	}
	if !bc.has(room.EventGameError) {
		t.Fatalf("missing game_error broadcast")
	}
	if _, err := c.SubmitAction(r.JoinCode, p1.ID, room.Action{Kind: room.ActionPass}); err != room.ErrRoomPaused {
		t.Fatalf("expected ErrRoomPaused, got %v", err)
	}

	// pause that never recovers terminates once the limit elapses again
	c.sweep(time.Now().Add(2 * time.Minute))
	snap, _ = c.Snapshot(r.JoinCode)
	if snap.Status != room.StatusCompleted {
		t.Fatalf("expected terminated room, got %s", snap.Status)
	}
	if !bc.has(room.EventGameTerminated) {
		t.Fatalf("missing game_terminated broadcast")
	}

	otherSnap, _ := c.Snapshot(other.JoinCode)
	if otherSnap.Status != room.StatusInProgress {
		t.Fatalf("healthy room affected by outage: %s", otherSnap.Status)
	}
}

func TestAIRecoveryUnpauses(t *testing.T) {
	c, _ := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 2, 4)
	p1 := mustJoin(t, c, r.JoinCode, "alice", "c1")
	if err := c.StartGame(r.JoinCode, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := c.SubmitAction(r.JoinCode, p1.ID, room.Action{Kind: roundrobin.ActionMove}); err != nil {
		t.Fatalf("action: %v", err)
	}
	rt := c.runtimeByCode(r.JoinCode)
	rt.mu.Lock()
	reqID := rt.pendingAI.requestID
	rt.aiOutage = time.Minute
	rt.mu.Unlock()
	c.deliverAIDecision(rt, reqID, room.Action{}, aibridge.ErrServiceUnavailable)

	// the janitor probes the paused room and re-dispatches
	rt.mu.Lock()
	rt.nextProbeAt = time.Now().Add(-time.Second)
	rt.mu.Unlock()
	c.sweep(time.Now())
	rt.mu.Lock()
	pd := rt.pendingAI
	rt.mu.Unlock()
	if pd == nil {
		t.Fatalf("expected probe re-dispatch while paused")
	}

	c.deliverAIDecision(rt, pd.requestID, room.Action{Kind: roundrobin.ActionMove}, nil)
	snap, _ := c.Snapshot(r.JoinCode)
	if snap.Paused {
		t.Fatalf("expected unpaused room after recovery")
	}
	if snap.State.Version != 2 {
		t.Fatalf("expected version 2 after recovered action, got %d", snap.State.Version)
	}
}

func TestLeaveWhileWaitingFreesSeat(t *testing.T) {
	c, _ := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 2, 4)
	mustJoin(t, c, r.JoinCode, "alice", "c1")
	mustJoin(t, c, r.JoinCode, "bob", "c2")

	if err := c.LeaveRoom(r.JoinCode, "c1"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	snap, _ := c.Snapshot(r.JoinCode)
	if len(snap.Seats) != 1 || snap.Seats[0].Name != "bob" {
		t.Fatalf("expected bob alone at seat 0, got %+v", snap.Seats)
	}
}

func TestCompletedRoomEvicted(t *testing.T) {
	c, _ := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 2, 4)
	mustJoin(t, c, r.JoinCode, "alice", "c1")
	mustJoin(t, c, r.JoinCode, "bob", "c2")
	if err := c.StartGame(r.JoinCode, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.CloseRoom(r.JoinCode, "closed_by_operator"); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.CloseRoom(r.JoinCode, "again"); err != room.ErrRoomCompleted {
		t.Fatalf("expected ErrRoomCompleted, got %v", err)
	}

	c.sweep(time.Now().Add(2 * time.Hour))
	if _, err := c.Snapshot(r.JoinCode); err != room.ErrRoomNotFound {
		t.Fatalf("expected eviction, got %v", err)
	}
}

func TestReconnectAfterDeadlineRejectedWithoutSweep(t *testing.T) {
	c, _ := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 2, 4)
	mustJoin(t, c, r.JoinCode, "alice", "c1")
	p2 := mustJoin(t, c, r.JoinCode, "bob", "c2")
	if err := c.StartGame(r.JoinCode, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}

	c.HandleDisconnect("c2")
	rt := c.runtimeByCode(r.JoinCode)
	rt.mu.Lock()
	rt.windows[1].expiresAt = time.Now().Add(-10 * time.Second)
	rt.mu.Unlock()

	// the deadline is authoritative even if no janitor sweep has run yet
	if _, err := c.Reconnect(r.JoinCode, p2.ID, "c9"); err != room.ErrSeatAlreadyReplaced {
		t.Fatalf("expected ErrSeatAlreadyReplaced, got %v", err)
	}
	snap, _ := c.Snapshot(r.JoinCode)
	if snap.Seats[1].Kind != room.KindAI {
		t.Fatalf("expected AI substitute at seat 1 after late reconnect, got %s", snap.Seats[1].Kind)
	}
	if _, err := c.Reconnect(r.JoinCode, p2.ID, "c9"); err != room.ErrSeatAlreadyReplaced {
		t.Fatalf("expected stable rejection, got %v", err)
	}
}

func TestAIActionCarriesPostApplyVersion(t *testing.T) {
	c, bc := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 2, 4)
	p1 := mustJoin(t, c, r.JoinCode, "alice", "c1")
	if err := c.StartGame(r.JoinCode, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := c.SubmitAction(r.JoinCode, p1.ID, room.Action{Kind: roundrobin.ActionMove}); err != nil {
		t.Fatalf("action: %v", err)
	}
	rt := c.runtimeByCode(r.JoinCode)
	rt.mu.Lock()
	reqID := rt.pendingAI.requestID
	rt.mu.Unlock()

	c.deliverAIDecision(rt, reqID, room.Action{Kind: roundrobin.ActionMove}, nil)
	ev, ok := bc.find(room.EventAIAction)
	if !ok {
		t.Fatalf("missing ai_action broadcast")
	}
	if ev.Version != 2 {
		t.Fatalf("ai_action carries version %d, want the post-apply 2", ev.Version)
	}
}

func TestAIActionNotAnnouncedWhenApplyRejects(t *testing.T) {
	c, bc := newTestCoordinator(blockingDecider{})
	r := mustCreate(t, c, 2, 4)
	p1 := mustJoin(t, c, r.JoinCode, "alice", "c1")
	if err := c.StartGame(r.JoinCode, "c1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := c.SubmitAction(r.JoinCode, p1.ID, room.Action{Kind: roundrobin.ActionMove}); err != nil {
		t.Fatalf("action: %v", err)
	}
	rt := c.runtimeByCode(r.JoinCode)
	rt.mu.Lock()
	reqID := rt.pendingAI.requestID
	// corrupt the title payload so Apply rejects what Validate accepted
	rt.state.Payload = []byte("{")
	rt.mu.Unlock()

	c.deliverAIDecision(rt, reqID, room.Action{Kind: roundrobin.ActionMove}, nil)
	if bc.has(room.EventAIAction) {
		t.Fatalf("ai_action announced for a rejected action")
	}
	snap, _ := c.Snapshot(r.JoinCode)
	if snap.State.Version != 1 {
		t.Fatalf("rejected AI action mutated version to %d", snap.State.Version)
	}
}

func TestListWaitingRoomsStableOrder(t *testing.T) {
	c, _ := newTestCoordinator(blockingDecider{})
	for i := 0; i < 5; i++ {
		mustCreate(t, c, 2, 4)
	}
	first := c.ListWaitingRooms()
	second := c.ListWaitingRooms()
	if len(first) != 5 || len(second) != 5 {
		t.Fatalf("expected 5 rooms, got %d and %d", len(first), len(second))
	}
	for i := range first {
		if first[i].JoinCode != second[i].JoinCode {
			t.Fatalf("listing order unstable at %d: %s vs %s", i, first[i].JoinCode, second[i].JoinCode)
		}
		if i > 0 && first[i].CreatedAt.Before(first[i-1].CreatedAt) {
			t.Fatalf("listing not ordered by creation time at %d", i)
		}
	}
}
