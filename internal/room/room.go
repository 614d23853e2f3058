package room

import "time"

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Bounds is the platform-wide admissible seat range. Room configs outside
// it are rejected at creation.
type Bounds struct {
	MinSeats int
	MaxSeats int
}

type Config struct {
	Title    string `json:"title"`
	MinSeats int    `json:"min_seats"`
	MaxSeats int    `json:"max_seats"`
}

func (c Config) Validate(b Bounds) error {
	if c.MinSeats < b.MinSeats || c.MaxSeats > b.MaxSeats {
		return ErrInvalidConfiguration
	}
	if c.MinSeats > c.MaxSeats {
		return ErrInvalidConfiguration
	}
	return nil
}

type Room struct {
	ID          string    `json:"id"`
	JoinCode    string    `json:"join_code"`
	Config      Config    `json:"config"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	StartedAt   time.Time `json:"started_at,omitempty"`
	CompletedAt time.Time `json:"completed_at,omitempty"`
}

func New(cfg Config) *Room {
	return &Room{
		ID:        NewID(),
		JoinCode:  NewJoinCode(),
		Config:    cfg,
		Status:    StatusWaiting,
		CreatedAt: time.Now(),
	}
}
