package aibridge

import (
	"context"
	"errors"
	"time"

	"github.com/Fize/vbrpg-sub001/internal/room"
)

// Failure classes for a decision call. Timeouts are terminal for the turn;
// service errors may be retried once inside the remaining deadline budget.
var (
	ErrDecisionTimeout    = errors.New("decision_timeout")
	ErrServiceUnavailable = errors.New("decision_service_unavailable")
	ErrInvalidDecision    = errors.New("invalid_decision")
)

// Request carries everything a decision service needs for one turn. The
// RequestID is monotonically increasing per room so a late response to a
// superseded request can be detected and discarded.
type Request struct {
	RoomCode  string        `json:"room_code"`
	Seat      int           `json:"seat"`
	Profile   string        `json:"profile"`
	RequestID int64         `json:"request_id"`
	State     room.Snapshot `json:"state"`
}

type Decider interface {
	Decide(ctx context.Context, req Request) (room.Action, error)
}

// Bridge wraps a transport-specific Decider with the uniform contract: one
// transient retry inside the remaining deadline budget, never past it, and
// classified errors.
type Bridge struct {
	decider   Decider
	retryWait time.Duration
}

func New(d Decider) *Bridge {
	return &Bridge{decider: d, retryWait: 200 * time.Millisecond}
}

func (b *Bridge) Decide(ctx context.Context, req Request) (room.Action, error) {
	act, err := b.decider.Decide(ctx, req)
	if err == nil {
		return act, nil
	}
	if errors.Is(err, ErrDecisionTimeout) || ctx.Err() != nil {
		return room.Action{}, ErrDecisionTimeout
	}
	deadline, ok := ctx.Deadline()
	if !ok || time.Until(deadline) < 2*b.retryWait {
		return room.Action{}, classify(err)
	}
	select {
	case <-ctx.Done():
		return room.Action{}, ErrDecisionTimeout
	case <-time.After(b.retryWait):
	}
	act, err = b.decider.Decide(ctx, req)
	if err != nil {
		return room.Action{}, classify(err)
	}
	return act, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, ErrDecisionTimeout),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return ErrDecisionTimeout
	case errors.Is(err, ErrInvalidDecision):
		return ErrInvalidDecision
	default:
		return ErrServiceUnavailable
	}
}

// PassDecider is the built-in fallback when no decision service is
// configured: every AI turn becomes a pass. Keeps rooms progressing in
// development setups.
type PassDecider struct{}

func (PassDecider) Decide(_ context.Context, req Request) (room.Action, error) {
	return room.PassAction(req.Seat), nil
}
