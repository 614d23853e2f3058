package gateway

import (
	"encoding/json"
	"errors"

	"github.com/Fize/vbrpg-sub001/internal/room"
)

// Inbound message vocabulary. Anything outside this set is answered with
// an invalid_message result and the connection stays open.
const (
	MsgJoinRoom     = "join_room"
	MsgLeaveRoom    = "leave_room"
	MsgStartGame    = "start_game"
	MsgSubmitAction = "submit_action"
	MsgReconnect    = "reconnect"
)

type JoinRoomMessage struct {
	Type     string `json:"type"`
	RoomCode string `json:"room_code"`
	Name     string `json:"name"`
}

type LeaveRoomMessage struct {
	Type     string `json:"type"`
	RoomCode string `json:"room_code"`
}

type StartGameMessage struct {
	Type     string `json:"type"`
	RoomCode string `json:"room_code"`
}

type SubmitActionMessage struct {
	Type     string          `json:"type"`
	RoomCode string          `json:"room_code"`
	Kind     string          `json:"kind"`
	Data     json.RawMessage `json:"data,omitempty"`
}

type ReconnectMessage struct {
	Type          string `json:"type"`
	RoomCode      string `json:"room_code"`
	ParticipantID string `json:"participant_id"`
}

// Result acknowledges each inbound message on the submitting connection.
// Broadcast events carry the actual state; the result only says whether
// the request was accepted.
type Result struct {
	Type          string `json:"type"`
	Op            string `json:"op"`
	Ok            bool   `json:"ok"`
	Error         string `json:"error,omitempty"`
	RoomCode      string `json:"room_code,omitempty"`
	ParticipantID string `json:"participant_id,omitempty"`
	Seat          *int   `json:"seat,omitempty"`
	Version       *int64 `json:"version,omitempty"`
}

func errorCode(err error) string {
	for _, sentinel := range []error{
		room.ErrInvalidConfiguration,
		room.ErrRoomNotFound,
		room.ErrRoomFull,
		room.ErrRoomNotJoinable,
		room.ErrNotEnoughParticipants,
		room.ErrNotYourTurn,
		room.ErrInvalidAction,
		room.ErrSeatAlreadyReplaced,
		room.ErrRoomPaused,
		room.ErrRoomCompleted,
		room.ErrParticipantNotFound,
		room.ErrUnknownTitle,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return "internal_error"
}
