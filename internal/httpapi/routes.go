package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-hq/atelier-backend/internal/session"
)

// RealtimeHandlers carries the push endpoints wired by main. A nil handler
// means the transport is disabled and its route is not mounted.
type RealtimeHandlers struct {
	LobbySocket http.HandlerFunc
	GameSocket  http.HandlerFunc
	LobbyStream http.HandlerFunc
	GameStream  http.HandlerFunc
	GameActions http.HandlerFunc
	Health      http.HandlerFunc
}

func SetupRoutes(m *session.Manager, rt RealtimeHandlers) http.Handler {
	r := chi.NewRouter()

	r.Get("/health", Healthz)
	r.Get("/healthz", Healthz)

	r.Route("/lobby", func(r chi.Router) {
		r.Post("/create", CreateLobby(m))
		r.Route("/{gameID}", func(r chi.Router) {
			r.Get("/", GetLobby(m))
			r.Post("/join", JoinLobby(m))
			r.Post("/leave", LeaveLobby(m))
			r.Post("/start", StartGame(m))
		})
	})

	r.Get("/games/{gameID}", GetGameState(m))

	r.Route("/realtime", func(r chi.Router) {
		if rt.Health != nil {
			r.Get("/health", rt.Health)
		}
		if rt.LobbySocket != nil {
			r.Get("/lobby", rt.LobbySocket)
		}
		if rt.GameSocket != nil {
			r.Get("/game", rt.GameSocket)
		}
		if rt.LobbyStream != nil {
			r.Get("/lobby/stream", rt.LobbyStream)
		}
		if rt.GameStream != nil {
			r.Get("/game/stream", rt.GameStream)
		}
		if rt.GameActions != nil {
			r.Post("/game/actions", rt.GameActions)
		}
	})

	return r
}
