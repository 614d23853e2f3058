package session

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Fize/vbrpg-sub001/internal/room"
)

func (c *Coordinator) CreateRoom(cfg room.Config) (*room.Room, error) {
	if err := cfg.Validate(c.cfg.Bounds); err != nil {
		return nil, err
	}
	c.mu.Lock()
	rules, ok := c.titles[cfg.Title]
	if !ok {
		c.mu.Unlock()
		return nil, room.ErrUnknownTitle
	}
	r := room.New(cfg)
	for c.rooms[r.JoinCode] != nil {
		r.JoinCode = room.NewJoinCode()
	}
	rt := &roomRuntime{
		room:       r,
		reg:        room.NewRegistry(cfg.MaxSeats),
		rules:      rules,
		windows:    map[int]*reconnectWindow{},
		winnerSeat: -1,
	}
	c.rooms[r.JoinCode] = rt
	c.mu.Unlock()

	log.Info().Str("room_code", r.JoinCode).Str("title", cfg.Title).
		Int("min_seats", cfg.MinSeats).Int("max_seats", cfg.MaxSeats).Msg("room_created")
	out := *r
	return &out, nil
}

func (c *Coordinator) JoinRoom(code, name, connID string) (*room.Participant, error) {
	rt := c.runtimeByCode(code)
	if rt == nil {
		return nil, room.ErrRoomNotFound
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.room.Status != room.StatusWaiting {
		return nil, room.ErrRoomNotJoinable
	}
	p, err := rt.reg.AddHuman(name, connID)
	if err != nil {
		return nil, err
	}
	c.broadcast(rt, room.EventPlayerJoined, map[string]any{
		"seat":           p.Seat,
		"participant_id": p.ID,
		"name":           p.Name,
		"kind":           p.Kind,
		"occupied":       rt.reg.Occupied(),
		"max_seats":      rt.room.Config.MaxSeats,
	})
	out := *p
	return &out, nil
}

// LeaveRoom in the waiting phase frees the seat outright. Once the game is
// in progress a leave is a disconnect: the reconnection grace machinery in
// reconnect.go takes over.
func (c *Coordinator) LeaveRoom(code, connID string) error {
	rt := c.runtimeByCode(code)
	if rt == nil {
		return room.ErrRoomNotFound
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	p := rt.reg.ByConn(connID)
	if p == nil {
		return room.ErrParticipantNotFound
	}
	if rt.room.Status != room.StatusWaiting {
		c.openReconnectWindowLocked(rt, p)
		return nil
	}
	rt.reg.Remove(p.Seat)
	c.broadcast(rt, room.EventPlayerLeft, map[string]any{
		"seat":           p.Seat,
		"participant_id": p.ID,
		"occupied":       rt.reg.Occupied(),
	})
	return nil
}

// StartGame fills empty seats up to the minimum with AI participants,
// establishes version 0, and begins the first turn.
func (c *Coordinator) StartGame(code, connID string) error {
	rt := c.runtimeByCode(code)
	if rt == nil {
		return room.ErrRoomNotFound
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.room.Status != room.StatusWaiting {
		return room.ErrRoomNotJoinable
	}
	if connID != "" && rt.reg.ByConn(connID) == nil {
		return room.ErrParticipantNotFound
	}
	filled, err := rt.reg.FillWithAI(rt.room.Config.MinSeats, func(seat int) string {
		return rt.profileFor(seat, c.cfg.AIProfiles)
	})
	if err != nil {
		return err
	}
	if rt.reg.Occupied() < rt.room.Config.MinSeats {
		// unreachable while min <= max is enforced at creation, checked anyway
		return room.ErrNotEnoughParticipants
	}
	for _, p := range filled {
		c.broadcast(rt, room.EventPlayerJoined, map[string]any{
			"seat":           p.Seat,
			"participant_id": p.ID,
			"name":           p.Name,
			"kind":           p.Kind,
			"profile":        p.Profile,
			"occupied":       rt.reg.Occupied(),
			"max_seats":      rt.room.Config.MaxSeats,
		})
	}

	now := time.Now()
	rt.room.Status = room.StatusInProgress
	rt.room.StartedAt = now
	init := rt.rules.InitialState(rt.reg.Occupied())
	rt.state = room.GameState{
		Version:         0,
		Phase:           init.Phase,
		CurrentTurnSeat: 0,
		TurnNumber:      1,
		Payload:         init.Payload,
	}
	log.Info().Str("room_code", rt.room.JoinCode).Int("seats", rt.reg.Occupied()).Msg("game_started")
	c.broadcast(rt, room.EventGameStarted, map[string]any{"snapshot": rt.snapshotLocked()})
	c.beginTurnLocked(rt)
	return nil
}

func (c *Coordinator) Snapshot(code string) (room.Snapshot, error) {
	rt := c.runtimeByCode(code)
	if rt == nil {
		return room.Snapshot{}, room.ErrRoomNotFound
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.snapshotLocked(), nil
}

func (c *Coordinator) GetRoom(code string) (*room.Room, error) {
	rt := c.runtimeByCode(code)
	if rt == nil {
		return nil, room.ErrRoomNotFound
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	out := *rt.room
	return &out, nil
}

// CloseRoom force-terminates a room; all timers, pending dispatches, and
// reconnection windows are cancelled as one batch.
func (c *Coordinator) CloseRoom(code, reason string) error {
	rt := c.runtimeByCode(code)
	if rt == nil {
		return room.ErrRoomNotFound
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.room.Status == room.StatusCompleted {
		return room.ErrRoomCompleted
	}
	c.terminateLocked(rt, reason)
	return nil
}

// ListWaitingRooms backs room discovery; only joinable rooms are listed.
func (c *Coordinator) ListWaitingRooms() []room.Room {
	c.mu.Lock()
	rts := make([]*roomRuntime, 0, len(c.rooms))
	for _, rt := range c.rooms {
		rts = append(rts, rt)
	}
	c.mu.Unlock()

	out := []room.Room{}
	for _, rt := range rts {
		rt.mu.Lock()
		if rt.room.Status == room.StatusWaiting {
			out = append(out, *rt.room)
		}
		rt.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].JoinCode < out[j].JoinCode
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
