// sim-player joins a room over the websocket gateway and plays every turn
// it is given: mostly moves, the occasional pass. Useful for exercising a
// room end to end without real clients.
package main

import (
	"encoding/json"
	"log"
	"math/rand"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Fize/vbrpg-sub001/internal/config"
)

type envelope struct {
	Type string          `json:"type"`
	Op   string          `json:"op"`
	Ok   bool            `json:"ok"`
	Seat *int            `json:"seat,omitempty"`
	Data json.RawMessage `json:"data"`
}

type turnChanged struct {
	Seat int    `json:"seat"`
	Kind string `json:"kind"`
}

func main() {
	cfg, err := config.LoadSimPlayer()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.RoomCode == "" {
		log.Fatal("ROOM_CODE is required")
	}

	conn, _, err := websocket.DefaultDialer.Dial(cfg.WSURL, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer conn.Close()

	join, _ := json.Marshal(map[string]any{
		"type": "join_room", "room_code": cfg.RoomCode, "name": cfg.Name,
	})
	_ = conn.WriteMessage(websocket.TextMessage, join)

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	seat := -1
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		switch env.Type {
		case "result":
			if env.Op == "join_room" && env.Ok && env.Seat != nil {
				seat = *env.Seat
				log.Printf("joined room %s at seat %d", cfg.RoomCode, seat)
			}
		case "turn_changed":
			var tc turnChanged
			if err := json.Unmarshal(env.Data, &tc); err != nil || tc.Seat != seat {
				continue
			}
			act, _ := json.Marshal(map[string]any{
				"type": "submit_action", "room_code": cfg.RoomCode, "kind": pickKind(rnd),
			})
			_ = conn.WriteMessage(websocket.TextMessage, act)
		case "game_ended", "game_terminated":
			log.Printf("room %s finished", cfg.RoomCode)
			return
		}
	}
}

func pickKind(rnd *rand.Rand) string {
	if rnd.Intn(5) == 0 {
		return "pass"
	}
	return "move"
}
