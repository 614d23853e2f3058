package room

import (
	"fmt"
	"time"
)

type Kind string

const (
	KindHuman Kind = "human"
	KindAI    Kind = "ai"
)

type Liveness string

const (
	LivenessConnected    Liveness = "connected"
	LivenessDisconnected Liveness = "disconnected"
	LivenessReplaced     Liveness = "replaced"
)

// Participant occupies exactly one seat. Exactly one of ConnID (human) or
// Profile (ai) is set.
type Participant struct {
	ID       string    `json:"id"`
	Seat     int       `json:"seat"`
	Name     string    `json:"name"`
	Kind     Kind      `json:"kind"`
	ConnID   string    `json:"-"`
	Profile  string    `json:"profile,omitempty"`
	Liveness Liveness  `json:"liveness"`
	JoinedAt time.Time `json:"joined_at"`
	LeftAt   time.Time `json:"left_at,omitempty"`
}

// Registry tracks the seats of one room. Not safe for concurrent use; the
// owning room runtime serializes access.
type Registry struct {
	maxSeats int
	seats    []*Participant
	replaced []*Participant
}

func NewRegistry(maxSeats int) *Registry {
	return &Registry{maxSeats: maxSeats}
}

func (r *Registry) Occupied() int {
	return len(r.seats)
}

func (r *Registry) AddHuman(name, connID string) (*Participant, error) {
	if len(r.seats) >= r.maxSeats {
		return nil, ErrRoomFull
	}
	p := &Participant{
		ID:       NewID(),
		Seat:     len(r.seats),
		Name:     name,
		Kind:     KindHuman,
		ConnID:   connID,
		Liveness: LivenessConnected,
		JoinedAt: time.Now(),
	}
	r.seats = append(r.seats, p)
	return p, nil
}

func (r *Registry) AddAI(profile string) (*Participant, error) {
	if len(r.seats) >= r.maxSeats {
		return nil, ErrRoomFull
	}
	p := &Participant{
		ID:       NewID(),
		Seat:     len(r.seats),
		Name:     fmt.Sprintf("AI %s", profile),
		Kind:     KindAI,
		Profile:  profile,
		Liveness: LivenessConnected,
		JoinedAt: time.Now(),
	}
	r.seats = append(r.seats, p)
	return p, nil
}

// FillWithAI appends AI participants until min seats are occupied.
func (r *Registry) FillWithAI(min int, profileFor func(seat int) string) ([]*Participant, error) {
	added := []*Participant{}
	for len(r.seats) < min {
		p, err := r.AddAI(profileFor(len(r.seats)))
		if err != nil {
			return added, err
		}
		added = append(added, p)
	}
	return added, nil
}

func (r *Registry) BySeat(seat int) *Participant {
	if seat < 0 || seat >= len(r.seats) {
		return nil
	}
	return r.seats[seat]
}

func (r *Registry) ByID(id string) *Participant {
	for _, p := range r.seats {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Registry) ByConn(connID string) *Participant {
	if connID == "" {
		return nil
	}
	for _, p := range r.seats {
		if p.Kind == KindHuman && p.ConnID == connID {
			return p
		}
	}
	return nil
}

// ReplaceWithAI retires the human at seat (terminal Replaced liveness) and
// seats a fresh AI participant record in its place.
func (r *Registry) ReplaceWithAI(seat int, profile string) (*Participant, error) {
	old := r.BySeat(seat)
	if old == nil {
		return nil, ErrParticipantNotFound
	}
	if old.Kind != KindHuman {
		return nil, ErrSeatAlreadyReplaced
	}
	old.Liveness = LivenessReplaced
	old.LeftAt = time.Now()
	old.ConnID = ""
	r.replaced = append(r.replaced, old)

	sub := &Participant{
		ID:       NewID(),
		Seat:     seat,
		Name:     fmt.Sprintf("AI %s", profile),
		Kind:     KindAI,
		Profile:  profile,
		Liveness: LivenessConnected,
		JoinedAt: time.Now(),
	}
	r.seats[seat] = sub
	return sub, nil
}

// Remove frees a seat before the game starts, renumbering later seats to
// keep join order contiguous. Never valid once a game is in progress.
func (r *Registry) Remove(seat int) *Participant {
	p := r.BySeat(seat)
	if p == nil {
		return nil
	}
	r.seats = append(r.seats[:seat], r.seats[seat+1:]...)
	for i := seat; i < len(r.seats); i++ {
		r.seats[i].Seat = i
	}
	p.LeftAt = time.Now()
	return p
}

// NextSeat advances the rotation in join order. Seats stay in rotation after
// substitution; eliminating a seat is a rule-engine concern, not ours.
func (r *Registry) NextSeat(from int) int {
	if len(r.seats) == 0 {
		return 0
	}
	return (from + 1) % len(r.seats)
}

func (r *Registry) Views() []SeatView {
	out := make([]SeatView, 0, len(r.seats))
	for _, p := range r.seats {
		out = append(out, SeatView{
			Seat:     p.Seat,
			Name:     p.Name,
			Kind:     p.Kind,
			Liveness: p.Liveness,
			Profile:  p.Profile,
		})
	}
	return out
}
