package aibridge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Fize/vbrpg-sub001/internal/room"
)

// scriptedDecider plays back one error per invocation and counts every
// call, including the first.
type scriptedDecider struct {
	calls   int
	results []error
	action  room.Action
}

func (d *scriptedDecider) Decide(_ context.Context, _ Request) (room.Action, error) {
	i := d.calls
	d.calls++
	if i >= len(d.results) {
		i = len(d.results) - 1
	}
	if err := d.results[i]; err != nil {
		return room.Action{}, err
	}
	return d.action, nil
}

func TestBridgeRetriesTransientFailureOnce(t *testing.T) {
	d := &scriptedDecider{
		results: []error{ErrServiceUnavailable, nil},
		action:  room.Action{Kind: "move"},
	}
	b := New(d)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	act, err := b.Decide(ctx, Request{RoomCode: "ABCDEF", Seat: 1})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if act.Kind != "move" {
		t.Fatalf("wrong action: %+v", act)
	}
	if d.calls != 2 {
		t.Fatalf("expected exactly two calls (initial plus one retry), got %d", d.calls)
	}
}

func TestBridgeNoRetryWithoutDeadlineBudget(t *testing.T) {
	d := &scriptedDecider{results: []error{ErrServiceUnavailable, nil}}
	b := New(d)

	// no deadline at all: fail immediately rather than retry blind
	_, err := b.Decide(context.Background(), Request{})
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable, got %v", err)
	}
	if d.calls != 1 {
		t.Fatalf("expected a single call, got %d", d.calls)
	}
}

func TestBridgeTimeoutIsTerminal(t *testing.T) {
	d := &scriptedDecider{results: []error{ErrDecisionTimeout, nil}}
	b := New(d)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := b.Decide(ctx, Request{})
	if !errors.Is(err, ErrDecisionTimeout) {
		t.Fatalf("expected ErrDecisionTimeout, got %v", err)
	}
	if d.calls != 1 {
		t.Fatalf("timeout must not be retried, got %d calls", d.calls)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		in   error
		want error
	}{
		{context.DeadlineExceeded, ErrDecisionTimeout},
		{context.Canceled, ErrDecisionTimeout},
		{ErrInvalidDecision, ErrInvalidDecision},
		{errors.New("connection refused"), ErrServiceUnavailable},
	}
	for _, tc := range cases {
		if got := classify(tc.in); !errors.Is(got, tc.want) {
			t.Fatalf("classify(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPassDecider(t *testing.T) {
	act, err := PassDecider{}.Decide(context.Background(), Request{Seat: 3})
	if err != nil {
		t.Fatalf("pass decider errored: %v", err)
	}
	if act.Kind != room.ActionPass || act.Seat != 3 {
		t.Fatalf("wrong pass action: %+v", act)
	}
}
