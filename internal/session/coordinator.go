package session

import (
	"context"
	"sync"
	"time"

	"github.com/Fize/vbrpg-sub001/internal/aibridge"
	"github.com/Fize/vbrpg-sub001/internal/room"
)

const (
	defaultTurnTimeout       = 60 * time.Second
	defaultAIDecisionTimeout = 10 * time.Second
	defaultReconnectGrace    = 5 * time.Minute
	defaultAIOutageLimit     = 2 * time.Minute
	defaultAIProbeInterval   = 5 * time.Second
	coordinatorSweepInterval = 500 * time.Millisecond
	completedRoomTTL         = time.Hour
)

// Broadcaster fans out events to a room's observers. SendTo targets one
// connection (the private reconnected snapshot).
type Broadcaster interface {
	Broadcast(roomCode string, ev room.Event)
	SendTo(connID string, ev room.Event)
}

// Archiver records the terminal snapshot of a completed room. Nil-safe at
// the call sites so rooms run fine without a database.
type Archiver interface {
	RecordCompleted(ctx context.Context, snap room.Snapshot, reason string, winnerSeat int) error
}

type Config struct {
	Bounds            room.Bounds
	TurnTimeout       time.Duration
	AIDecisionTimeout time.Duration
	ReconnectGrace    time.Duration
	AIOutageLimit     time.Duration
	AIProbeInterval   time.Duration
	AIProfiles        []string
}

func (c Config) withDefaults() Config {
	if c.Bounds.MinSeats <= 0 {
		c.Bounds.MinSeats = 2
	}
	if c.Bounds.MaxSeats <= 0 {
		c.Bounds.MaxSeats = 12
	}
	if c.TurnTimeout <= 0 {
		c.TurnTimeout = defaultTurnTimeout
	}
	if c.AIDecisionTimeout <= 0 {
		c.AIDecisionTimeout = defaultAIDecisionTimeout
	}
	if c.ReconnectGrace <= 0 {
		c.ReconnectGrace = defaultReconnectGrace
	}
	if c.AIOutageLimit <= 0 {
		c.AIOutageLimit = defaultAIOutageLimit
	}
	if c.AIProbeInterval <= 0 {
		c.AIProbeInterval = defaultAIProbeInterval
	}
	if len(c.AIProfiles) == 0 {
		c.AIProfiles = []string{"balanced"}
	}
	return c
}

// Coordinator owns every room runtime. Its mutex guards only the registry
// maps; each room serializes its own mutations behind its runtime mutex.
type Coordinator struct {
	cfg     Config
	decider aibridge.Decider
	arch    Archiver
	bc      Broadcaster

	mu     sync.Mutex
	rooms  map[string]*roomRuntime
	titles map[string]room.Rules
}

func NewCoordinator(cfg Config, decider aibridge.Decider, arch Archiver) *Coordinator {
	if decider == nil {
		decider = aibridge.PassDecider{}
	}
	return &Coordinator{
		cfg:     cfg.withDefaults(),
		decider: decider,
		arch:    arch,
		rooms:   map[string]*roomRuntime{},
		titles:  map[string]room.Rules{},
	}
}

// SetBroadcaster wires the gateway in after construction; the gateway needs
// the coordinator first.
func (c *Coordinator) SetBroadcaster(bc Broadcaster) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bc = bc
}

func (c *Coordinator) RegisterTitle(title string, rules room.Rules) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.titles[title] = rules
}

// roomRuntime is the single-writer serialization domain of one room. Every
// mutation of state, registry, or scheduler fields happens under mu.
type roomRuntime struct {
	mu    sync.Mutex
	room  *room.Room
	reg   *room.Registry
	rules room.Rules
	state room.GameState

	turnDeadline time.Time
	pendingAI    *pendingDecision
	nextReqID    int64
	windows      map[int]*reconnectWindow

	aiOutage    time.Duration
	paused      bool
	pausedAt    time.Time
	nextProbeAt time.Time

	endReason  string
	winnerSeat int
	evictAt    time.Time
}

// pendingDecision is the at-most-one in-flight AI dispatch for a room.
type pendingDecision struct {
	seat         int
	requestID    int64
	dispatchedAt time.Time
	deadline     time.Time
}

type reconnectWindow struct {
	participantID  string
	seat           int
	disconnectedAt time.Time
	expiresAt      time.Time
}

func (c *Coordinator) runtimeByCode(code string) *roomRuntime {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rooms[code]
}

func (c *Coordinator) broadcast(rt *roomRuntime, t room.EventType, data any) {
	if c.bc == nil {
		return
	}
	c.bc.Broadcast(rt.room.JoinCode, room.NewEvent(t, rt.room.JoinCode, rt.state.Version, data))
}

func (c *Coordinator) sendTo(connID string, rt *roomRuntime, t room.EventType, data any) {
	if c.bc == nil || connID == "" {
		return
	}
	c.bc.SendTo(connID, room.NewEvent(t, rt.room.JoinCode, rt.state.Version, data))
}

func (rt *roomRuntime) snapshotLocked() room.Snapshot {
	snap := room.Snapshot{
		RoomCode: rt.room.JoinCode,
		Status:   rt.room.Status,
		State:    rt.state,
		Seats:    rt.reg.Views(),
		Paused:   rt.paused,
	}
	if !rt.turnDeadline.IsZero() {
		snap.TurnDeadlineTS = rt.turnDeadline.UnixMilli()
	}
	return snap
}

func (rt *roomRuntime) profileFor(seat int, profiles []string) string {
	return profiles[seat%len(profiles)]
}
