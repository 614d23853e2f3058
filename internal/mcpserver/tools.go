package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Fize/vbrpg-sub001/internal/room"
)

func (s *Server) registerRoomTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"create_room",
			mcp.WithDescription("Create a room for a game title"),
			mcp.WithString("title", mcp.Required(), mcp.Description("Registered game title")),
			mcp.WithNumber("min_seats", mcp.Description("Minimum seats, server default if omitted")),
			mcp.WithNumber("max_seats", mcp.Description("Maximum seats, server default if omitted")),
		),
		s.handleCreateRoom,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_rooms",
			mcp.WithDescription("List joinable rooms"),
		),
		s.handleListRooms,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"join_room",
			mcp.WithDescription("Join a waiting room; returns the participant id used for submit_action"),
			mcp.WithString("room_code", mcp.Required(), mcp.Description("Join code")),
			mcp.WithString("name", mcp.Required(), mcp.Description("Display name")),
		),
		s.handleJoinRoom,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"start_game",
			mcp.WithDescription("Start the game; empty seats up to the minimum are filled with AI"),
			mcp.WithString("room_code", mcp.Required(), mcp.Description("Join code")),
		),
		s.handleStartGame,
	)
}

func (s *Server) registerPlayTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"get_state",
			mcp.WithDescription("Get the room snapshot: status, seats, versioned game state, turn deadline"),
			mcp.WithString("room_code", mcp.Required(), mcp.Description("Join code")),
		),
		s.handleGetState,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"submit_action",
			mcp.WithDescription("Submit an action for the current turn"),
			mcp.WithString("room_code", mcp.Required(), mcp.Description("Join code")),
			mcp.WithString("participant_id", mcp.Required(), mcp.Description("Participant id from join_room")),
			mcp.WithString("kind", mcp.Required(), mcp.Description("Action kind, title specific; pass is always accepted")),
			mcp.WithString("data", mcp.Description("Action payload as a JSON document")),
		),
		s.handleSubmitAction,
	)
}

func (s *Server) handleCreateRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	created, err := s.coord.CreateRoom(room.Config{
		Title:    request.GetString("title", ""),
		MinSeats: request.GetInt("min_seats", 0),
		MaxSeats: request.GetInt("max_seats", 0),
	})
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(created), nil
}

func (s *Server) handleListRooms(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return toolResult(map[string]any{"rooms": s.coord.ListWaitingRooms()}), nil
}

func (s *Server) handleJoinRoom(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := s.coord.JoinRoom(request.GetString("room_code", ""), request.GetString("name", ""), "")
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(map[string]any{"participant_id": p.ID, "seat": p.Seat}), nil
}

func (s *Server) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	code := request.GetString("room_code", "")
	if err := s.coord.StartGame(code, ""); err != nil {
		return mapDomainError(err), nil
	}
	snap, err := s.coord.Snapshot(code)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(snap), nil
}

func (s *Server) handleGetState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.coord.Snapshot(request.GetString("room_code", ""))
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(snap), nil
}

func (s *Server) handleSubmitAction(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var data json.RawMessage
	if raw := request.GetString("data", ""); raw != "" {
		if !json.Valid([]byte(raw)) {
			return toolError("invalid_action", "data must be valid JSON"), nil
		}
		data = json.RawMessage(raw)
	}
	snap, err := s.coord.SubmitAction(
		request.GetString("room_code", ""),
		request.GetString("participant_id", ""),
		room.Action{Kind: request.GetString("kind", ""), Data: data},
	)
	if err != nil {
		return mapDomainError(err), nil
	}
	return toolResult(snap), nil
}
