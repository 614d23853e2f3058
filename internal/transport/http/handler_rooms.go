package httptransport

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/Fize/vbrpg-sub001/internal/archive"
	"github.com/Fize/vbrpg-sub001/internal/room"
	"github.com/Fize/vbrpg-sub001/internal/session"
)

type RoomHandlers struct {
	coord         *session.Coordinator
	arch          *archive.Store
	publicBaseURL string
}

func NewRoomHandlers(coord *session.Coordinator, arch *archive.Store, publicBaseURL string) *RoomHandlers {
	return &RoomHandlers{coord: coord, arch: arch, publicBaseURL: publicBaseURL}
}

type createRoomRequest struct {
	Title    string `json:"title"`
	MinSeats int    `json:"min_seats"`
	MaxSeats int    `json:"max_seats"`
}

func (h *RoomHandlers) Create() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteHTTPError(w, http.StatusBadRequest, "invalid_body")
			return
		}
		created, err := h.coord.CreateRoom(room.Config{
			Title:    req.Title,
			MinSeats: req.MinSeats,
			MaxSeats: req.MaxSeats,
		})
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusCreated, created)
	}
}

func (h *RoomHandlers) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"rooms": h.coord.ListWaitingRooms()})
	}
}

func (h *RoomHandlers) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm, err := h.coord.GetRoom(chi.URLParam(r, "room_code"))
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, rm)
	}
}

func (h *RoomHandlers) State() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := h.coord.Snapshot(chi.URLParam(r, "room_code"))
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, snap)
	}
}

func (h *RoomHandlers) Close() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "room_code")
		if err := h.coord.CloseRoom(code, "closed_by_operator"); err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"room_code": code, "closed": true})
	}
}

// QR renders the join link as a PNG so a room can be shared by pointing a
// phone at a screen.
func (h *RoomHandlers) QR() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "room_code")
		if _, err := h.coord.GetRoom(code); err != nil {
			WriteDomainError(w, err)
			return
		}
		joinURL := fmt.Sprintf("%s/join?room_code=%s", h.publicBaseURL, code)
		png, err := qrcode.Encode(joinURL, qrcode.Medium, 256)
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(png)
	}
}

func (h *RoomHandlers) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h.arch == nil {
			WriteHTTPError(w, http.StatusServiceUnavailable, "archive_disabled")
			return
		}
		rows, err := h.arch.History(r.Context(), r.URL.Query().Get("room_code"), ParseLimit(r))
		if err != nil {
			WriteHTTPError(w, http.StatusInternalServerError, "internal_error")
			return
		}
		WriteJSON(w, http.StatusOK, map[string]any{"completed": rows})
	}
}
