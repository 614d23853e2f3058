package mcpserver

import (
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/Fize/vbrpg-sub001/internal/room"
)

func toolResult(data any) *mcp.CallToolResult {
	return mcp.NewToolResultStructuredOnly(data)
}

func toolError(code, message string) *mcp.CallToolResult {
	result := mcp.NewToolResultStructured(
		map[string]any{
			"error": map[string]any{
				"code":    code,
				"message": message,
			},
		},
		fmt.Sprintf("%s: %s", code, message),
	)
	result.IsError = true
	return result
}

func mapDomainError(err error) *mcp.CallToolResult {
	if err == nil {
		return toolError("internal_error", "unknown error")
	}
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
			return toolError(sentinel.Error(), err.Error())
		}
	}
	return toolError("internal_error", err.Error())
}
