package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/atelier-hq/atelier-backend/internal/session"
)

type playerRequest struct {
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName"`
}

type startRequest struct {
	PlayerID string `json:"playerId"`
	session.StartPayload
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// errorStatus maps boundary errors to HTTP statuses. Engine rule violations
// and everything unrecognized fall through to 400: the request was
// well-formed, the move was not.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrGameNotFound), errors.Is(err, session.ErrPlayerNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrNotHost), errors.Is(err, session.ErrForbiddenActor):
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

func respondFailure(w http.ResponseWriter, err error) {
	respondError(w, errorStatus(err), err.Error())
}

func decodePlayer(w http.ResponseWriter, r *http.Request) (playerRequest, bool) {
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return playerRequest{}, false
	}
	if req.PlayerID == "" {
		respondError(w, http.StatusBadRequest, "playerId is required")
		return playerRequest{}, false
	}
	return req, true
}

func CreateLobby(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodePlayer(w, r)
		if !ok {
			return
		}
		if req.DisplayName == "" {
			req.DisplayName = req.PlayerID
		}
		snap := m.CreateSession(session.PlayerProfile{ID: req.PlayerID, DisplayName: req.DisplayName})
		respondJSON(w, http.StatusCreated, snap)
	}
}

func JoinLobby(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodePlayer(w, r)
		if !ok {
			return
		}
		if req.DisplayName == "" {
			req.DisplayName = req.PlayerID
		}
		snap, err := m.JoinGame(chi.URLParam(r, "gameID"), session.PlayerProfile{ID: req.PlayerID, DisplayName: req.DisplayName})
		if err != nil {
			respondFailure(w, err)
			return
		}
		respondJSON(w, http.StatusOK, snap)
	}
}

func LeaveLobby(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodePlayer(w, r)
		if !ok {
			return
		}
		snap, err := m.LeaveGame(chi.URLParam(r, "gameID"), req.PlayerID)
		if err != nil {
			respondFailure(w, err)
			return
		}
		respondJSON(w, http.StatusOK, snap)
	}
}

func GetLobby(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := m.FetchLobby(chi.URLParam(r, "gameID"))
		if err != nil {
			respondFailure(w, err)
			return
		}
		respondJSON(w, http.StatusOK, snap)
	}
}

func StartGame(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req startRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "malformed request body")
			return
		}
		if req.PlayerID == "" {
			respondError(w, http.StatusBadRequest, "playerId is required")
			return
		}
		state, err := m.StartGame(r.Context(), chi.URLParam(r, "gameID"), req.StartPayload, req.PlayerID)
		if err != nil {
			respondFailure(w, err)
			return
		}
		respondJSON(w, http.StatusOK, state)
	}
}

func GetGameState(m *session.Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := m.FetchState(chi.URLParam(r, "gameID"))
		if err != nil {
			respondFailure(w, err)
			return
		}
		respondJSON(w, http.StatusOK, state)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}
