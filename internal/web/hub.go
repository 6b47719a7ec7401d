package web

import (
	"encoding/json"
	"sync"

	"github.com/vitos/crypto_crash_risk/internal/domain"
	"go.uber.org/zap"
)

// RiskUpdateMessage is pushed to every connected dashboard client after each
// completed cycle and on staleness transitions.
type RiskUpdateMessage struct {
	Type string               `json:"type"`
	Data []*domain.RiskRecord `json:"data"`
}

// Hub fans messages out to all connected websocket clients so the dashboard
// gets state changes without polling.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	logger     *zap.Logger
	mu         sync.RWMutex
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		logger:     logger,
	}
}

// Run processes registration and broadcast events. Start in its own
// goroutine before serving /ws.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("Dashboard client connected", zap.Int("total", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			var dead []*Client
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer; drop it rather than stall the hub.
					dead = append(dead, client)
				}
			}
			h.mu.RUnlock()

			if len(dead) > 0 {
				h.mu.Lock()
				for _, client := range dead {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				h.mu.Unlock()
			}
		}
	}
}

// BroadcastRisk pushes the full record set to all clients.
func (h *Hub) BroadcastRisk(records []*domain.RiskRecord) {
	msg := RiskUpdateMessage{Type: "risk_update", Data: records}
	payload, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("Failed to marshal risk update", zap.Error(err))
		return
	}
	select {
	case h.broadcast <- payload:
	default:
		h.logger.Warn("Broadcast buffer full, dropping update")
	}
}
