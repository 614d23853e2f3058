// Package gateway is the websocket edge: one Client per connection, a send
// channel drained by a write loop, and a per-room registry that backs the
// coordinator's broadcast fan-out.
package gateway

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/Fize/vbrpg-sub001/internal/room"
	"github.com/Fize/vbrpg-sub001/internal/session"
)

const sendBuffer = 32

type Client struct {
	id       string
	conn     *websocket.Conn
	send     chan []byte
	mu       sync.Mutex
	roomCode string
}

func (c *Client) setRoom(code string) {
	c.mu.Lock()
	c.roomCode = code
	c.mu.Unlock()
}

func (c *Client) room() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.roomCode
}

type Gateway struct {
	coord    *session.Coordinator
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]*Client
	rooms map[string]map[*Client]bool
}

func New(coord *session.Coordinator) *Gateway {
	return &Gateway{
		coord:    coord,
		upgrader: websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }},
		conns:    map[string]*Client{},
		rooms:    map[string]map[*Client]bool{},
	}
}

func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &Client{id: uuid.NewString(), conn: conn, send: make(chan []byte, sendBuffer)}
	g.mu.Lock()
	g.conns[client.id] = client
	g.mu.Unlock()

	go g.writeLoop(client)
	g.readLoop(client)
}

func (g *Gateway) readLoop(c *Client) {
	defer func() {
		g.unregister(c)
		_ = c.conn.Close()
	}()

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var base struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(msg, &base); err != nil {
			g.sendResult(c, Result{Type: "result", Op: "", Ok: false, Error: "invalid_message"})
			continue
		}
		switch base.Type {
		case MsgJoinRoom:
			var m JoinRoomMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				g.sendResult(c, Result{Type: "result", Op: base.Type, Ok: false, Error: "invalid_message"})
				continue
			}
			g.handleJoin(c, m)
		case MsgLeaveRoom:
			var m LeaveRoomMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				g.sendResult(c, Result{Type: "result", Op: base.Type, Ok: false, Error: "invalid_message"})
				continue
			}
			g.handleLeave(c, m)
		case MsgStartGame:
			var m StartGameMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				g.sendResult(c, Result{Type: "result", Op: base.Type, Ok: false, Error: "invalid_message"})
				continue
			}
			g.handleStart(c, m)
		case MsgSubmitAction:
			var m SubmitActionMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				g.sendResult(c, Result{Type: "result", Op: base.Type, Ok: false, Error: "invalid_message"})
				continue
			}
			g.handleAction(c, m)
		case MsgReconnect:
			var m ReconnectMessage
			if err := json.Unmarshal(msg, &m); err != nil {
				g.sendResult(c, Result{Type: "result", Op: base.Type, Ok: false, Error: "invalid_message"})
				continue
			}
			g.handleReconnect(c, m)
		default:
			g.sendResult(c, Result{Type: "result", Op: base.Type, Ok: false, Error: "invalid_message"})
		}
	}
}

func (g *Gateway) writeLoop(c *Client) {
	for msg := range c.send {
		_ = c.conn.WriteMessage(websocket.TextMessage, msg)
	}
}

func (g *Gateway) handleJoin(c *Client, m JoinRoomMessage) {
	p, err := g.coord.JoinRoom(m.RoomCode, m.Name, c.id)
	if err != nil {
		g.sendResult(c, Result{Type: "result", Op: MsgJoinRoom, Ok: false, Error: errorCode(err)})
		return
	}
	g.attach(c, m.RoomCode)
	seat := p.Seat
	g.sendResult(c, Result{
		Type: "result", Op: MsgJoinRoom, Ok: true,
		RoomCode: m.RoomCode, ParticipantID: p.ID, Seat: &seat,
	})
}

func (g *Gateway) handleLeave(c *Client, m LeaveRoomMessage) {
	err := g.coord.LeaveRoom(m.RoomCode, c.id)
	if err != nil {
		g.sendResult(c, Result{Type: "result", Op: MsgLeaveRoom, Ok: false, Error: errorCode(err)})
		return
	}
	g.detach(c)
	g.sendResult(c, Result{Type: "result", Op: MsgLeaveRoom, Ok: true, RoomCode: m.RoomCode})
}

func (g *Gateway) handleStart(c *Client, m StartGameMessage) {
	if err := g.coord.StartGame(m.RoomCode, c.id); err != nil {
		g.sendResult(c, Result{Type: "result", Op: MsgStartGame, Ok: false, Error: errorCode(err)})
		return
	}
	g.sendResult(c, Result{Type: "result", Op: MsgStartGame, Ok: true, RoomCode: m.RoomCode})
}

func (g *Gateway) handleAction(c *Client, m SubmitActionMessage) {
	snap, err := g.coord.SubmitActionByConn(m.RoomCode, c.id, room.Action{Kind: m.Kind, Data: m.Data})
	if err != nil {
		g.sendResult(c, Result{Type: "result", Op: MsgSubmitAction, Ok: false, Error: errorCode(err)})
		return
	}
	v := snap.State.Version
	g.sendResult(c, Result{Type: "result", Op: MsgSubmitAction, Ok: true, RoomCode: m.RoomCode, Version: &v})
}

func (g *Gateway) handleReconnect(c *Client, m ReconnectMessage) {
	snap, err := g.coord.Reconnect(m.RoomCode, m.ParticipantID, c.id)
	if err != nil {
		g.sendResult(c, Result{Type: "result", Op: MsgReconnect, Ok: false, Error: errorCode(err)})
		return
	}
	g.attach(c, m.RoomCode)
	v := snap.State.Version
	g.sendResult(c, Result{
		Type: "result", Op: MsgReconnect, Ok: true,
		RoomCode: m.RoomCode, ParticipantID: m.ParticipantID, Version: &v,
	})
}

func (g *Gateway) attach(c *Client, code string) {
	g.mu.Lock()
	if old := c.room(); old != "" && old != code {
		if set := g.rooms[old]; set != nil {
			delete(set, c)
		}
	}
	set := g.rooms[code]
	if set == nil {
		set = map[*Client]bool{}
		g.rooms[code] = set
	}
	set[c] = true
	g.mu.Unlock()
	c.setRoom(code)
}

func (g *Gateway) detach(c *Client) {
	code := c.room()
	if code == "" {
		return
	}
	g.mu.Lock()
	if set := g.rooms[code]; set != nil {
		delete(set, c)
		if len(set) == 0 {
			delete(g.rooms, code)
		}
	}
	g.mu.Unlock()
	c.setRoom("")
}

func (g *Gateway) unregister(c *Client) {
	g.detach(c)
	g.mu.Lock()
	delete(g.conns, c.id)
	g.mu.Unlock()
	g.coord.HandleDisconnect(c.id)
	safeClose(c.send)
}

// Broadcast implements session.Broadcaster: every connection attached to
// the room gets the event, slow consumers are skipped rather than blocked
// on.
func (g *Gateway) Broadcast(roomCode string, ev room.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Error().Err(err).Str("event", string(ev.Type)).Msg("event marshal failed")
		return
	}
	g.mu.Lock()
	clients := make([]*Client, 0, len(g.rooms[roomCode]))
	for c := range g.rooms[roomCode] {
		clients = append(clients, c)
	}
	g.mu.Unlock()
	for _, c := range clients {
		safeSend(c.send, msg)
	}
}

func (g *Gateway) SendTo(connID string, ev room.Event) {
	g.mu.Lock()
	c := g.conns[connID]
	g.mu.Unlock()
	if c == nil {
		return
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		return
	}
	safeSend(c.send, msg)
}

func (g *Gateway) sendResult(c *Client, res Result) {
	msg, _ := json.Marshal(res)
	safeSend(c.send, msg)
}

func safeClose(ch chan []byte) {
	defer func() {
		_ = recover()
	}()
	close(ch)
}

// safeSend drops the message if the buffer is full or the channel closed;
// broadcast must never block the room lock holder.
func safeSend(ch chan []byte, msg []byte) {
	defer func() {
		_ = recover()
	}()
	select {
	case ch <- msg:
	default:
	}
}
