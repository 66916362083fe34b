package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/Vovarama1992/grenades/internal/ports"
	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

type Hub struct {
	mu    sync.Mutex
	rooms map[string]map[*websocket.Conn]bool
}

func NewHub() *Hub {
	log.Printf("[hub] init")
	return &Hub{
		rooms: make(map[string]map[*websocket.Conn]bool),
	}
}

func (h *Hub) Register(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[roomID]; !ok {
		h.rooms[roomID] = make(map[*websocket.Conn]bool)
		log.Printf("[hub] create room=%s", roomID)
	}

	h.rooms[roomID][conn] = true
	log.Printf("[hub] register room=%s conns=%d", roomID, len(h.rooms[roomID]))
}

func (h *Hub) Unregister(roomID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.rooms[roomID]
	if !ok {
		return
	}

	if _, ok := conns[conn]; ok {
		delete(conns, conn)
		conn.Close()
		log.Printf("[hub] unregister room=%s conns=%d", roomID, len(conns))
	}

	if len(conns) == 0 {
		delete(h.rooms, roomID)
		log.Printf("[hub] delete room=%s", roomID)
	}
}

// RoomSize reports how many connections are subscribed to roomID.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[roomID])
}

// SendToRoom writes msg to every connection in roomID. Writes are serialized
// under the hub lock since a websocket conn allows one writer at a time.
func (h *Hub) SendToRoom(roomID string, msg []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.rooms[roomID]
	if len(conns) == 0 {
		return
	}

	for conn := range conns {
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			log.Printf("[hub][SEND-ERR] room=%s err=%v", roomID, err)
		}
	}
}

type invalidationMsg struct {
	Type string   `json:"type"`
	Room string   `json:"room"`
	Keys []string `json:"keys"`
}

// Forward relays invalidation events to their rooms until events is closed.
func (h *Hub) Forward(events <-chan ports.Invalidation) {
	for ev := range events {
		payload, err := json.Marshal(invalidationMsg{
			Type: "invalidate",
			Room: ev.Room,
			Keys: ev.Keys,
		})
		if err != nil {
			log.Printf("[hub][ERR] json marshal failed: %v", err)
			continue
		}
		h.SendToRoom(ev.Room, payload)
	}
}

var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}
