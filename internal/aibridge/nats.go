package aibridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Fize/vbrpg-sub001/internal/room"
)

// NATSDecider sends the decision request over NATS request/reply. The reply
// payload matches the HTTP decider's response shape.
type NATSDecider struct {
	conn    *nats.Conn
	subject string
}

func NewNATSDecider(url, subject string) (*NATSDecider, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	return &NATSDecider{conn: nc, subject: subject}, nil
}

func (d *NATSDecider) Close() {
	if d.conn != nil {
		d.conn.Close()
	}
}

func (d *NATSDecider) Decide(ctx context.Context, req Request) (room.Action, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return room.Action{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	msg, err := d.conn.RequestWithContext(ctx, d.subject, payload)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, nats.ErrTimeout):
			return room.Action{}, ErrDecisionTimeout
		case errors.Is(err, nats.ErrNoResponders):
			return room.Action{}, fmt.Errorf("%w: no responders", ErrServiceUnavailable)
		default:
			return room.Action{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
		}
	}
	var out decideResponse
	if err := json.Unmarshal(msg.Data, &out); err != nil {
		return room.Action{}, fmt.Errorf("%w: %v", ErrInvalidDecision, err)
	}
	if out.Error != "" {
		return room.Action{}, fmt.Errorf("%w: %s", ErrInvalidDecision, out.Error)
	}
	return out.Action, nil
}
