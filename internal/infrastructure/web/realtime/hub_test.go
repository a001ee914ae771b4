package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crypto-pulse-service/internal/application/dto"
	"crypto-pulse-service/internal/application/query"
	"crypto-pulse-service/internal/domain/entities"
)

// fakeSubscriber resuelve solo el recurso "global" contra un coordinator real
type fakeSubscriber struct {
	coordinator *query.Coordinator
	calls       atomic.Int32
}

func (f *fakeSubscriber) Subscribe(resource string, params map[string]string) (*query.Subscription, error) {
	if resource != "global" {
		return nil, errors.New("unknown market resource")
	}
	d := query.NewDescriptor("crypto", resource)
	return f.coordinator.Subscribe(d, func(ctx context.Context) (json.RawMessage, error) {
		f.calls.Add(1)
		return json.RawMessage(`{"data":{"active_cryptocurrencies":12000}}`), nil
	}, query.Options{StaleTime: time.Minute})
}

func newTestHub(t *testing.T) (*Hub, *fakeSubscriber, string) {
	t.Helper()
	coordinator := query.NewCoordinator(query.Config{GCTime: time.Minute})
	sub := &fakeSubscriber{coordinator: coordinator}
	hub := NewHub(sub)

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
		coordinator.Close()
	})
	return hub, sub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil lee frames hasta que match devuelve true
func readUntil(t *testing.T, conn *websocket.Conn, match func(dto.ServerMessage) bool) dto.ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg dto.ServerMessage
		require.NoError(t, conn.ReadJSON(&msg))
		if match(msg) {
			return msg
		}
	}
}

func TestHub_SubscribeReceivesState(t *testing.T) {
	hub, sub, url := newTestHub(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(dto.ClientMessage{Type: "subscribe", ID: "g1", Resource: "global"}))

	msg := readUntil(t, conn, func(m dto.ServerMessage) bool {
		return m.Type == "state" && m.State != nil && m.State.Status == "success"
	})
	assert.Equal(t, "g1", msg.ID)
	assert.Equal(t, "crypto:global", msg.State.Key)
	assert.JSONEq(t, `{"data":{"active_cryptocurrencies":12000}}`, string(msg.State.Data))
	assert.Equal(t, 1, hub.Len())

	require.NoError(t, conn.WriteJSON(dto.ClientMessage{Type: "refetch", ID: "g1"}))
	readUntil(t, conn, func(m dto.ServerMessage) bool {
		return m.Type == "state" && m.State != nil && !m.State.IsFetching && sub.calls.Load() == 2
	})
}

func TestHub_ClientErrors(t *testing.T) {
	_, _, url := newTestHub(t)
	conn := dial(t, url)

	tests := []struct {
		name    string
		msg     dto.ClientMessage
		wantErr string
	}{
		{"sin id", dto.ClientMessage{Type: "subscribe", Resource: "global"}, "id is required"},
		{"recurso desconocido", dto.ClientMessage{Type: "subscribe", ID: "x", Resource: "weather"}, "unknown market resource"},
		{"refetch sin suscripción", dto.ClientMessage{Type: "refetch", ID: "nope"}, "unknown subscription"},
		{"tipo desconocido", dto.ClientMessage{Type: "ping", ID: "p"}, "unknown message type: ping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteJSON(tt.msg))
			msg := readUntil(t, conn, func(m dto.ServerMessage) bool { return m.Type == "error" })
			assert.Equal(t, tt.wantErr, msg.Error)
		})
	}
}

func TestHub_NotifyBroadcastsAlerts(t *testing.T) {
	hub, _, url := newTestHub(t)
	first := dial(t, url)
	second := dial(t, url)

	require.Eventually(t, func() bool { return hub.Len() == 2 }, time.Second, 10*time.Millisecond)

	n := entities.Notification{
		AlertID:      "bitcoin-1",
		CoinID:       "bitcoin",
		CoinName:     "Bitcoin",
		CoinSymbol:   "btc",
		Condition:    entities.ConditionAbove,
		TargetPrice:  50000,
		CurrentPrice: 51000,
		TriggeredAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	require.NoError(t, hub.Notify(context.Background(), n))

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readUntil(t, conn, func(m dto.ServerMessage) bool { return m.Type == "alert" })
		require.NotNil(t, msg.Alert)
		assert.Equal(t, "bitcoin-1", msg.Alert.AlertID)
		assert.Equal(t, n.Message(), msg.Message)
	}
}

func TestHub_DisconnectReleasesClient(t *testing.T) {
	hub, _, url := newTestHub(t)
	conn := dial(t, url)

	require.NoError(t, conn.WriteJSON(dto.ClientMessage{Type: "subscribe", ID: "g1", Resource: "global"}))
	readUntil(t, conn, func(m dto.ServerMessage) bool { return m.Type == "state" })

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_CloseRejectsNewClients(t *testing.T) {
	hub, _, url := newTestHub(t)
	hub.Close()

	conn := dial(t, url)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway))
	assert.Equal(t, 0, hub.Len())
}
