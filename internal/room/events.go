package room

import "time"

// EventType is the closed outbound vocabulary. The gateway switches on it
// exhaustively; adding a broadcast means adding a constant here.
type EventType string

const (
	EventPlayerJoined       EventType = "player_joined"
	EventPlayerLeft         EventType = "player_left"
	EventPlayerReplacedByAI EventType = "player_replaced_by_ai"
	EventGameStarted        EventType = "game_started"
	EventGameStateUpdate    EventType = "game_state_update"
	EventTurnChanged        EventType = "turn_changed"
	EventAIThinking         EventType = "ai_thinking"
	EventAIAction           EventType = "ai_action"
	EventGameEnded          EventType = "game_ended"
	EventGameError          EventType = "game_error"
	EventGameTerminated     EventType = "game_terminated"
	EventReconnected        EventType = "reconnected"
)

// Event is one broadcast to the observers of a room. Version is the state
// version after the mutation that produced the event (0 before start).
type Event struct {
	Type     EventType `json:"type"`
	RoomCode string    `json:"room_code"`
	Version  int64     `json:"version"`
	ServerTS int64     `json:"server_ts"`
	Data     any       `json:"data,omitempty"`
}

func NewEvent(t EventType, code string, version int64, data any) Event {
	return Event{
		Type:     t,
		RoomCode: code,
		Version:  version,
		ServerTS: time.Now().UnixMilli(),
		Data:     data,
	}
}
