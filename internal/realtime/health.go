package realtime

import (
	"encoding/json"
	"net/http"
	"time"
)

type transportHealth struct {
	Name        string `json:"name"`
	Scope       string `json:"scope"`
	Connections int    `json:"connections"`
}

type healthReport struct {
	Status            string            `json:"status"`
	ActiveGames       int               `json:"activeGames"`
	ActiveConnections int               `json:"activeConnections"`
	LastBroadcastAt   string            `json:"lastBroadcastAt,omitempty"`
	Transports        []transportHealth `json:"transports"`
}

// HealthHandler reports realtime reach: distinct game rooms with at least one
// live connection, total connections and per-transport counts.
func (f *Fanout) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := healthReport{Status: "ok"}

		games := map[string]struct{}{}
		collect := func(scope Scope, transports []RoomTransport) {
			for _, t := range transports {
				for _, id := range t.RoomIDs() {
					games[id] = struct{}{}
				}
				report.ActiveConnections += t.Connections()
				report.Transports = append(report.Transports, transportHealth{
					Name:        t.Name(),
					Scope:       string(scope),
					Connections: t.Connections(),
				})
			}
		}
		collect(ScopeLobby, f.lobby)
		collect(ScopeGame, f.game)
		report.ActiveGames = len(games)

		if at := f.LastBroadcastAt(); !at.IsZero() {
			report.LastBroadcastAt = at.Format(time.RFC3339Nano)
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(report)
	}
}
