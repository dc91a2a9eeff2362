// Package ws pushes entity change events to connected portal clients.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/coder/websocket"
)

// event is the wire shape pushed to portal clients. Type reuses the audit
// action names (organization.created, deliverable.approved, ...).
type event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Hub fans entity change events out to every connected portal client.
// Clients only listen; inbound frames are read and discarded so the hub
// notices a hang-up.
type Hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]context.CancelFunc
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]context.CancelFunc)}
}

// HandleWS upgrades the request and keeps the client registered until it
// disconnects.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // CORS handled by middleware
	})
	if err != nil {
		slog.Error("websocket accept failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	h.mu.Lock()
	h.clients[c] = cancel
	h.mu.Unlock()
	slog.Info("portal client connected", "remote", r.RemoteAddr)

	go func() {
		defer func() {
			h.drop(c)
			_ = c.Close(websocket.StatusNormalClosure, "")
		}()
		for {
			if _, _, err := c.Read(ctx); err != nil {
				return
			}
		}
	}()
}

// BroadcastEvent pushes one entity change to every connected client. A
// client whose write fails is dropped instead of blocking the rest.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(event{Type: eventType, Payload: payload})
	if err != nil {
		slog.Error("marshal portal event", "type", eventType, "error", err)
		return
	}

	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		if err := c.Write(ctx, websocket.MessageText, data); err != nil {
			slog.Debug("portal client write failed", "error", err)
			h.drop(c)
		}
	}
}

// ConnectionCount reports how many portal clients are connected.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) drop(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if cancel, ok := h.clients[c]; ok {
		cancel()
		delete(h.clients, c)
		slog.Info("portal client disconnected")
	}
}
