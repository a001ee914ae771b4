package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"crypto-pulse-service/internal/application/dto"
	"crypto-pulse-service/internal/application/query"
	"crypto-pulse-service/internal/domain/entities"
	"crypto-pulse-service/internal/infrastructure/logging"
	"crypto-pulse-service/internal/infrastructure/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Subscriber resolves a websocket subscribe frame to a shared query
type Subscriber interface {
	Subscribe(resource string, params map[string]string) (*query.Subscription, error)
}

// Hub tracks the connected websocket clients. It streams query states to
// the clients that subscribed to them and broadcasts alert notifications
// to everyone.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	closed   bool
	market   Subscriber
	upgrader websocket.Upgrader
}

func NewHub(market Subscriber) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		market:  market,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// ServeWS godoc
// @Summary Live query stream
// @Description Upgrades to a websocket. Clients send subscribe, unsubscribe and refetch frames and receive state, alert and error frames.
// @Tags realtime
// @Success 101
// @Router /ws [get]
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.WarnWithError(r.Context(), "WebSocket upgrade failed", err, nil)
		return
	}

	client := newClient(uuid.NewString(), h, conn)
	if !h.register(client) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}

	ctx := logging.WithRequestID(context.Background(), client.id)
	logging.Info(ctx, "WebSocket client connected", logging.Fields{
		"client_id": client.id,
		"remote_ip": logging.GetRemoteIP(r.Context()),
	})

	go client.writePump()
	go client.readPump(ctx)
}

// Notify broadcasts an alert notification to every connected client
func (h *Hub) Notify(ctx context.Context, n entities.Notification) error {
	payload, err := json.Marshal(dto.ServerMessage{
		Type:    "alert",
		Alert:   &n,
		Message: n.Message(),
	})
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.enqueue("alert", payload)
	}
	return nil
}

// Len is the number of connected clients
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and rejects new ones
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	clients := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.close()
	}
}

func (h *Hub) register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c.id] = c
	metrics.UpdateWebSocketClients(len(h.clients))
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, c.id)
	metrics.UpdateWebSocketClients(len(h.clients))
}
