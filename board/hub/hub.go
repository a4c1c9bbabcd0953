// board/hub/hub.go
package hub

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// Hub tracks live viewer sessions and the rooms they joined. Broadcasts
// encode the event once and enqueue it without blocking, so a slow or dead
// viewer never holds up the caller.
type Hub struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	rooms    map[string]map[string]*Session
}

func New() *Hub {
	return &Hub{
		sessions: make(map[string]*Session),
		rooms:    make(map[string]map[string]*Session),
	}
}

func (h *Hub) Add(s *Session) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions[s.ID] = s
}

// Remove drops the session from the hub and from every room, then closes it.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	s, ok := h.sessions[id]
	delete(h.sessions, id)
	for room, members := range h.rooms {
		delete(members, id)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	h.mu.Unlock()

	if ok {
		s.Close()
	}
}

// Join adds a connected session to room.
func (h *Hub) Join(id, room string) error {
	if room == "" {
		return fmt.Errorf("room name must not be empty")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	s, ok := h.sessions[id]
	if !ok {
		return fmt.Errorf("session %s is not connected", id)
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[string]*Session)
		h.rooms[room] = members
	}
	members[id] = s
	return nil
}

// BroadcastAll sends ev to every session and returns how many accepted it.
func (h *Hub) BroadcastAll(ev Event) int {
	frame, err := json.Marshal(ev)
	if err != nil {
		log.Printf("ERROR: Failed to encode %s event: %v", ev.Type, err)
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return deliver(h.sessions, frame)
}

// BroadcastRoom sends ev to the sessions that joined room.
func (h *Hub) BroadcastRoom(room string, ev Event) int {
	frame, err := json.Marshal(ev)
	if err != nil {
		log.Printf("ERROR: Failed to encode %s event for room %s: %v", ev.Type, room, err)
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return deliver(h.rooms[room], frame)
}

func deliver(targets map[string]*Session, frame []byte) int {
	delivered := 0
	for _, s := range targets {
		if s.enqueue(frame) {
			delivered++
		}
	}
	return delivered
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
