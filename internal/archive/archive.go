// Package archive persists terminal room snapshots to Postgres. Rooms run
// fine without it; the coordinator treats a nil archiver as disabled.
package archive

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/Fize/vbrpg-sub001/internal/room"
)

const schema = `
CREATE TABLE IF NOT EXISTS completed_rooms (
    id            BIGSERIAL PRIMARY KEY,
    room_code     TEXT        NOT NULL,
    reason        TEXT        NOT NULL,
    winner_seat   INT         NOT NULL,
    final_version BIGINT      NOT NULL,
    turn_number   INT         NOT NULL,
    seats         JSONB       NOT NULL,
    state         JSONB       NOT NULL,
    completed_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS completed_rooms_room_code_idx ON completed_rooms (room_code);
`

type Store struct {
	Pool *pgxpool.Pool
}

func New(dsn string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schema)
	return err
}

// RecordCompleted implements session.Archiver.
func (s *Store) RecordCompleted(ctx context.Context, snap room.Snapshot, reason string, winnerSeat int) error {
	seats, err := json.Marshal(snap.Seats)
	if err != nil {
		return err
	}
	state, err := json.Marshal(snap.State)
	if err != nil {
		return err
	}
	_, err = s.Pool.Exec(ctx,
		`INSERT INTO completed_rooms (room_code, reason, winner_seat, final_version, turn_number, seats, state)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		snap.RoomCode, reason, winnerSeat, snap.State.Version, snap.State.TurnNumber, seats, state)
	if err != nil {
		return err
	}
	log.Debug().Str("room_code", snap.RoomCode).Str("reason", reason).Msg("completed room archived")
	return nil
}

// CompletedRoom is the read-side row shape for the history endpoint.
type CompletedRoom struct {
	RoomCode     string          `json:"room_code"`
	Reason       string          `json:"reason"`
	WinnerSeat   int             `json:"winner_seat"`
	FinalVersion int64           `json:"final_version"`
	TurnNumber   int             `json:"turn_number"`
	Seats        json.RawMessage `json:"seats"`
	State        json.RawMessage `json:"state"`
	CompletedAt  time.Time       `json:"completed_at"`
}

func (s *Store) History(ctx context.Context, roomCode string, limit int) ([]CompletedRoom, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT room_code, reason, winner_seat, final_version, turn_number, seats, state, completed_at
		 FROM completed_rooms
		 WHERE ($1 = '' OR room_code = $1)
		 ORDER BY completed_at DESC
		 LIMIT $2`, roomCode, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []CompletedRoom{}
	for rows.Next() {
		var cr CompletedRoom
		if err := rows.Scan(&cr.RoomCode, &cr.Reason, &cr.WinnerSeat, &cr.FinalVersion,
			&cr.TurnNumber, &cr.Seats, &cr.State, &cr.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, cr)
	}
	return out, rows.Err()
}
