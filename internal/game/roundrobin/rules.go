// Package roundrobin is the minimal built-in title: every seat acts once
// per round, any well-formed move is legal, and the game completes after a
// fixed number of rounds. Real titles plug in through room.Rules the same
// way; this one keeps the orchestration core exercised without shipping a
// rule book.
package roundrobin

import (
	"encoding/json"
	"errors"

	"github.com/Fize/vbrpg-sub001/internal/room"
)

const (
	ActionMove = "move"

	phasePlay = "play"
)

type payload struct {
	Seats      int `json:"seats"`
	Rounds     int `json:"rounds"`
	TurnsTaken int `json:"turns_taken"`
}

type Rules struct {
	Rounds int
}

func New(rounds int) Rules {
	if rounds <= 0 {
		rounds = 3
	}
	return Rules{Rounds: rounds}
}

func (r Rules) InitialState(seats int) room.GameState {
	raw, _ := json.Marshal(payload{Seats: seats, Rounds: r.Rounds})
	return room.GameState{Phase: phasePlay, Payload: raw}
}

func (r Rules) Validate(state room.GameState, act room.Action) error {
	switch act.Kind {
	case ActionMove, room.ActionPass:
		return nil
	default:
		return errors.New("invalid_action")
	}
}

func (r Rules) Apply(state room.GameState, act room.Action) (room.GameState, room.Outcome, error) {
	if err := r.Validate(state, act); err != nil {
		return state, room.Outcome{}, err
	}
	var p payload
	if err := json.Unmarshal(state.Payload, &p); err != nil {
		return state, room.Outcome{}, err
	}
	p.TurnsTaken++
	raw, err := json.Marshal(p)
	if err != nil {
		return state, room.Outcome{}, err
	}
	next := state
	next.Payload = raw
	if p.TurnsTaken >= p.Seats*p.Rounds {
		return next, room.Outcome{Done: true, WinnerSeat: -1, Reason: "rounds_exhausted"}, nil
	}
	return next, room.Outcome{WinnerSeat: -1}, nil
}
