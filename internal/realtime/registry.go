package realtime

import "sync"

// registry tracks which connection handles belong to which room. One handle
// lives in at most one room; a second add moves it.
type registry[H comparable] struct {
	mu       sync.RWMutex
	rooms    map[string]map[H]struct{}
	byHandle map[H]string
}

func newRegistry[H comparable]() *registry[H] {
	return &registry[H]{
		rooms:    map[string]map[H]struct{}{},
		byHandle: map[H]string{},
	}
}

func (r *registry[H]) add(roomID string, h H) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byHandle[h]; ok {
		r.dropLocked(prev, h)
	}
	room, ok := r.rooms[roomID]
	if !ok {
		room = map[H]struct{}{}
		r.rooms[roomID] = room
	}
	room[h] = struct{}{}
	r.byHandle[h] = roomID
}

func (r *registry[H]) remove(h H) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	roomID, ok := r.byHandle[h]
	if !ok {
		return "", false
	}
	r.dropLocked(roomID, h)
	return roomID, true
}

func (r *registry[H]) dropLocked(roomID string, h H) {
	delete(r.byHandle, h)
	if room, ok := r.rooms[roomID]; ok {
		delete(room, h)
		if len(room) == 0 {
			delete(r.rooms, roomID)
		}
	}
}

func (r *registry[H]) handles(roomID string) []H {
	r.mu.RLock()
	defer r.mu.RUnlock()
	room := r.rooms[roomID]
	out := make([]H, 0, len(room))
	for h := range room {
		out = append(out, h)
	}
	return out
}

func (r *registry[H]) roomIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		out = append(out, id)
	}
	return out
}

func (r *registry[H]) connections() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byHandle)
}
