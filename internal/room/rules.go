package room

import "encoding/json"

// ActionPass is applied automatically when a turn deadline elapses or an AI
// decision fails. Every rule engine must accept it in every phase.
const ActionPass = "pass"

type Action struct {
	Seat int             `json:"seat"`
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data,omitempty"`
}

func PassAction(seat int) Action {
	return Action{Seat: seat, Kind: ActionPass}
}

// Outcome reports whether an applied action ended the game. WinnerSeat is -1
// when there is no single winner.
type Outcome struct {
	Done       bool   `json:"done"`
	WinnerSeat int    `json:"winner_seat"`
	Reason     string `json:"reason,omitempty"`
}

// Rules is the per-title collaborator boundary. Validate rejects an action
// with ErrInvalidAction; Apply returns the next state. Implementations must
// not touch Version, CurrentTurnSeat, or TurnNumber: the core owns those.
type Rules interface {
	Validate(state GameState, act Action) error
	Apply(state GameState, act Action) (GameState, Outcome, error)
	InitialState(seats int) GameState
}
