package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"crypto-pulse-service/internal/application/dto"
	"crypto-pulse-service/internal/application/query"
	"crypto-pulse-service/internal/infrastructure/logging"
	"crypto-pulse-service/internal/infrastructure/metrics"
)

// Client is one websocket connection and the queries it subscribed to,
// keyed by the id the client chose for each subscription.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu   sync.Mutex
	subs map[string]*query.Subscription

	done      chan struct{}
	closeOnce sync.Once
}

func newClient(id string, hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:   id,
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		subs: make(map[string]*query.Subscription),
		done: make(chan struct{}),
	}
}

func (c *Client) readPump(ctx context.Context) {
	defer c.close()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg dto.ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.WarnWithError(ctx, "WebSocket read failed", err, logging.Fields{"client_id": c.id})
			}
			return
		}
		c.handle(ctx, msg)
	}
}

func (c *Client) handle(ctx context.Context, msg dto.ClientMessage) {
	if msg.ID == "" {
		c.sendError("", "id is required")
		return
	}

	switch msg.Type {
	case "subscribe":
		c.subscribe(ctx, msg)
	case "unsubscribe":
		c.mu.Lock()
		sub, ok := c.subs[msg.ID]
		delete(c.subs, msg.ID)
		c.mu.Unlock()
		if ok {
			sub.Unsubscribe()
		}
	case "refetch":
		c.mu.Lock()
		sub, ok := c.subs[msg.ID]
		c.mu.Unlock()
		if !ok {
			c.sendError(msg.ID, "unknown subscription")
			return
		}
		if err := sub.Refetch(); err != nil {
			c.sendError(msg.ID, err.Error())
		}
	default:
		c.sendError(msg.ID, "unknown message type: "+msg.Type)
	}
}

// subscribe replaces any previous subscription with the same id
func (c *Client) subscribe(ctx context.Context, msg dto.ClientMessage) {
	sub, err := c.hub.market.Subscribe(msg.Resource, msg.Params)
	if err != nil {
		c.sendError(msg.ID, err.Error())
		return
	}

	c.mu.Lock()
	select {
	case <-c.done:
		c.mu.Unlock()
		sub.Unsubscribe()
		return
	default:
	}
	previous := c.subs[msg.ID]
	c.subs[msg.ID] = sub
	c.mu.Unlock()

	if previous != nil {
		previous.Unsubscribe()
	}

	logging.Debug(ctx, "WebSocket subscription added", logging.Fields{
		"client_id": c.id,
		"sub_id":    msg.ID,
		"key":       sub.Key(),
	})
	go c.forward(msg.ID, sub)
}

// forward pushes every state of sub until it is unsubscribed
func (c *Client) forward(id string, sub *query.Subscription) {
	for state := range sub.Updates() {
		payload, err := json.Marshal(dto.ServerMessage{
			Type:  "state",
			ID:    id,
			State: dto.ToQueryResponse(state),
		})
		if err != nil {
			continue
		}
		c.enqueue("state", payload)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
		_ = c.conn.Close()
	}()

	for {
		select {
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

// enqueue never blocks; a full buffer drops the frame
func (c *Client) enqueue(messageType string, payload []byte) {
	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- payload:
	default:
		metrics.RecordWebSocketDrop(messageType)
	}
}

func (c *Client) sendError(id, message string) {
	payload, err := json.Marshal(dto.ServerMessage{Type: "error", ID: id, Error: message})
	if err != nil {
		return
	}
	c.enqueue("error", payload)
}

// close stops the client; the write pump sends the close frame and
// releases the connection.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		close(c.done)
		subs := c.subs
		c.subs = make(map[string]*query.Subscription)
		c.mu.Unlock()

		for _, sub := range subs {
			sub.Unsubscribe()
		}
		c.hub.unregister(c)
		logging.Debug(context.Background(), "WebSocket client disconnected", logging.Fields{"client_id": c.id})
	})
}
