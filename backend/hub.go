package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// jobEventDTO describes the job a progress event belongs to.
type jobEventDTO struct {
	ID        string `json:"id"`
	State     string `json:"state"`
	Algorithm string `json:"algorithm"`
	Heuristic string `json:"heuristic"`
	Start     string `json:"start"`
	Goal      string `json:"goal"`
	Hits      int    `json:"hits,omitempty"`
	Found     *bool  `json:"found,omitempty"`
	MoveCount int    `json:"move_count,omitempty"`
}

type progressPayload struct {
	Event        string          `json:"event"`
	Job          *jobEventDTO    `json:"job,omitempty"`
	Progress     *SearchProgress `json:"progress,omitempty"`
	TotalInQueue int             `json:"total_in_queue"`
	UpdatedAt    int64           `json:"updated_at_ms"`
}

type ProgressClient struct {
	hub  *ProgressHub
	conn *websocket.Conn
	send chan []byte
}

// ProgressHub fans job lifecycle and mid-search progress events out to
// websocket subscribers. Publishing never blocks: with no room in the
// broadcast channel or a slow client, events are dropped.
type ProgressHub struct {
	mu        sync.Mutex
	clients   map[*ProgressClient]struct{}
	broadcast chan progressPayload
}

func NewProgressHub() *ProgressHub {
	return &ProgressHub{
		clients:   make(map[*ProgressClient]struct{}),
		broadcast: make(chan progressPayload, 64),
	}
}

func (h *ProgressHub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case payload := <-h.broadcast:
			h.mu.Lock()
			if len(h.clients) == 0 {
				h.mu.Unlock()
				continue
			}
			for client := range h.clients {
				client.sendJSON(wsMessage{Type: "progress", Payload: mustMarshal(payload)})
			}
			h.mu.Unlock()
		}
	}
}

func (h *ProgressHub) Publish(payload progressPayload) {
	select {
	case h.broadcast <- payload:
	default:
	}
}

func (h *ProgressHub) Register(c *ProgressClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *ProgressHub) Unregister(c *ProgressClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *ProgressHub) HasClients() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

func (c *ProgressClient) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func serveProgressWS(hub *ProgressHub, backlog *solveBacklog, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	client := &ProgressClient{hub: hub, conn: conn, send: make(chan []byte, 16)}
	hub.Register(client)

	initial := progressPayload{
		Event:        "snapshot",
		TotalInQueue: backlog.PendingLen(),
		UpdatedAt:    time.Now().UnixMilli(),
	}
	client.sendJSON(wsMessage{Type: "progress", Payload: mustMarshal(initial)})

	go client.writePump()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			hub.Unregister(client)
			return
		}
	}
}
