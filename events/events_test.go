package events

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Dema10/beerproject/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type failing struct{ err error }

func (f failing) Publish(context.Context, Event) error { return f.err }

type counting struct{ n int }

func (c *counting) Publish(context.Context, Event) error {
	c.n++
	return nil
}

func TestMultiJoinsErrors(t *testing.T) {
	errA, errB := errors.New("a down"), errors.New("b down")
	c := &counting{}
	m := Multi{failing{errA}, nil, c, failing{errB}}

	err := m.Publish(context.Background(), Event{Type: OrderCreated})
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errB)
	assert.Equal(t, 1, c.n, "a failing member does not stop the others")

	assert.NoError(t, Multi{c, Nop{}}.Publish(context.Background(), Event{}))
	assert.Equal(t, 2, c.n)
}

func TestNewOrderEvent(t *testing.T) {
	order := &models.Order{ID: "o1", UserID: "alice", Status: models.OrderStatusShipped}
	ev := NewOrderEvent(OrderStatusChanged, order)

	assert.Equal(t, OrderStatusChanged, ev.Type)
	assert.Equal(t, "o1", ev.OrderID)
	assert.Equal(t, "alice", ev.UserID)
	assert.Equal(t, "shipped", ev.Status)
	assert.Same(t, order, ev.Order)
	assert.False(t, ev.At.IsZero())
}

func TestParseBrokers(t *testing.T) {
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, ParseBrokers(" k1:9092, ,k2:9092 "))
	assert.Empty(t, ParseBrokers(""))
}

func TestHubBroadcastsToDashboards(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	order := &models.Order{ID: "o1", UserID: "alice", Status: models.OrderStatusPending}
	require.NoError(t, hub.Publish(context.Background(), NewOrderEvent(OrderCreated, order)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got Event
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, OrderCreated, got.Type)
	assert.Equal(t, "o1", got.OrderID)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubCloseDisconnectsClients(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, hub.Close())
	assert.Zero(t, hub.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)

	// Publishing with nobody listening is fine.
	assert.NoError(t, hub.Publish(context.Background(), Event{Type: OrderCancelled}))
}

func TestHubDropsStalledClientWithoutBlocking(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(hub.ServeWS))
	defer srv.Close()

	// This dashboard never reads, so its socket buffers fill up.
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	big := Event{Type: OrderCreated, Status: strings.Repeat("x", 256<<10)}
	start := time.Now()
	for i := 0; i < 200; i++ {
		require.NoError(t, hub.Publish(context.Background(), big))
	}
	assert.Less(t, time.Since(start), writeWait, "publishing must not wait on the socket")
	assert.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestKafkaPublisherIsAsync(t *testing.T) {
	p := NewKafkaPublisher([]string{"localhost:9092"}, "brewery.orders", nil)
	assert.True(t, p.writer.Async)
	assert.NotNil(t, p.writer.Completion)
	assert.IsType(t, &kafka.Hash{}, p.writer.Balancer)
	require.NoError(t, p.Close())
}
