package room

import "encoding/json"

// GameState is the authoritative, versioned state of one in-progress room.
// Version and CurrentTurnSeat are owned by the orchestration core; Phase and
// Payload are owned by the title's rule engine and opaque here.
type GameState struct {
	Version         int64           `json:"version"`
	Phase           string          `json:"phase"`
	CurrentTurnSeat int             `json:"current_turn_seat"`
	TurnNumber      int             `json:"turn_number"`
	Payload         json.RawMessage `json:"payload,omitempty"`
}

// Snapshot is the full authoritative view fanned out on game_started,
// reconnect, and whenever a client reports a version gap. Deltas are an
// optimization; the snapshot is always the source of truth.
type Snapshot struct {
	RoomCode       string     `json:"room_code"`
	Status         Status     `json:"status"`
	State          GameState  `json:"state"`
	Seats          []SeatView `json:"seats"`
	TurnDeadlineTS int64      `json:"turn_deadline_ts,omitempty"`
	Paused         bool       `json:"paused,omitempty"`
}

type SeatView struct {
	Seat     int      `json:"seat"`
	Name     string   `json:"name"`
	Kind     Kind     `json:"kind"`
	Liveness Liveness `json:"liveness"`
	Profile  string   `json:"profile,omitempty"`
}
