package room

import "errors"

// Closed set of client-facing failure reasons. Raw internal errors never
// cross the gateway; anything outside this set maps to internal_error.
var (
	ErrInvalidConfiguration  = errors.New("invalid_configuration")
	ErrRoomNotFound          = errors.New("room_not_found")
	ErrRoomFull              = errors.New("room_full")
	ErrRoomNotJoinable       = errors.New("room_not_joinable")
	ErrNotEnoughParticipants = errors.New("not_enough_participants")
	ErrNotYourTurn           = errors.New("not_your_turn")
	ErrInvalidAction         = errors.New("invalid_action")
	ErrSeatAlreadyReplaced   = errors.New("seat_already_replaced")
	ErrRoomPaused            = errors.New("room_paused")
	ErrRoomCompleted         = errors.New("room_completed")
	ErrParticipantNotFound   = errors.New("participant_not_found")
	ErrUnknownTitle          = errors.New("unknown_title")
)
