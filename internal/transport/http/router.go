package httptransport

import (
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Fize/vbrpg-sub001/internal/archive"
	"github.com/Fize/vbrpg-sub001/internal/config"
	"github.com/Fize/vbrpg-sub001/internal/gateway"
	"github.com/Fize/vbrpg-sub001/internal/mcpserver"
	"github.com/Fize/vbrpg-sub001/internal/session"
)

func NewRouter(coord *session.Coordinator, gw *gateway.Gateway, arch *archive.Store, cfg config.ServerConfig) *chi.Mux {
	roomHandlers := NewRoomHandlers(coord, arch, cfg.PublicBaseURL)
	mcpSrv := mcpserver.New(coord)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.With(APILogMiddleware()).Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.With(APILogMiddleware()).MethodFunc(http.MethodOptions, "/mcp", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Allow", "POST, GET, DELETE, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
	})
	r.With(APILogMiddleware()).Method(http.MethodPost, "/mcp", mcpSrv.Handler())
	r.With(APILogMiddleware()).Method(http.MethodGet, "/mcp", mcpSrv.Handler())
	r.With(APILogMiddleware()).Method(http.MethodDelete, "/mcp", mcpSrv.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(APILogMiddleware())
		r.Post("/rooms", roomHandlers.Create())
		r.Get("/rooms", roomHandlers.List())
		r.Get("/rooms/{room_code}", roomHandlers.Get())
		r.Delete("/rooms/{room_code}", roomHandlers.Close())
		r.Get("/rooms/{room_code}/state", roomHandlers.State())
		r.Get("/rooms/{room_code}/qr", roomHandlers.QR())
		r.Get("/history", roomHandlers.History())
	})

	r.Get("/ws", gw.HandleWS)
	return r
}

func LogRoutes(r chi.Router) {
	type routeDef struct {
		Method string
		Path   string
	}
	routes := make([]routeDef, 0, 16)
	err := chi.Walk(r, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, routeDef{Method: method, Path: route})
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("route walk failed")
		return
	}
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].Path == routes[j].Path {
			return routes[i].Method < routes[j].Method
		}
		return routes[i].Path < routes[j].Path
	})
	for _, rt := range routes {
		log.Debug().Str("method", rt.Method).Str("route", rt.Path).Msg("route registered")
	}
}
