package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	brokerInmemory "github.com/sharetube/watchtogether/internal/repository/broker/inmemory"
	brokerRedis "github.com/sharetube/watchtogether/internal/repository/broker/redis"
	"github.com/sharetube/watchtogether/internal/repository/connection/inmemory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// connPair returns the server side of a websocket and the dialed client side.
func connPair(t *testing.T) (*websocket.Conn, *websocket.Conn) {
	t.Helper()

	serverConns := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		serverConns <- conn
	}))
	t.Cleanup(srv.Close)

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	server := <-serverConns
	t.Cleanup(func() { server.Close() })

	return server, client
}

func readEvent(t *testing.T, conn *websocket.Conn, wait time.Duration) (Event, bool) {
	t.Helper()

	conn.SetReadDeadline(time.Now().Add(wait))
	var frame outboundFrame
	if err := conn.ReadJSON(&frame); err != nil {
		return Event{}, false
	}
	assert.Equal(t, eventFrameType, frame.Type)

	return frame.Payload, true
}

func startService(t *testing.T, b iBroker) *service {
	t.Helper()

	s := NewService(inmemory.NewRepo(time.Second), b, UUIDGenerator{}, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	serve, err := s.Listen(ctx)
	require.NoError(t, err)
	go serve()

	return s
}

func TestPublishFansOutToOtherSubscribers(t *testing.T) {
	slog.SetLogLoggerLevel(slog.LevelDebug)
	s := startService(t, brokerInmemory.NewBroker(16))
	ctx := context.Background()

	serverA, clientA := connPair(t)
	serverB, clientB := connPair(t)
	serverC, clientC := connPair(t)

	for _, conn := range []*websocket.Conn{serverA, serverB, serverC} {
		_, err := s.Connect(ctx, &ConnectParams{Conn: conn})
		require.NoError(t, err)
	}
	require.NoError(t, s.Subscribe(ctx, &SubscribeParams{Conn: serverB, Channel: "media-42"}))
	require.NoError(t, s.Subscribe(ctx, &SubscribeParams{Conn: serverC, Channel: "game-42"}))

	data := json.RawMessage(`{"type":"play","time":12.3,"senderId":"a1"}`)
	require.NoError(t, s.Publish(ctx, &PublishParams{
		SenderConn: serverA,
		Channel:    "media-42",
		Event:      "video-event",
		Data:       data,
	}))

	ev, ok := readEvent(t, clientB, 2*time.Second)
	require.True(t, ok, "subscriber must receive the event")
	assert.Equal(t, "media-42", ev.Channel)
	assert.Equal(t, "video-event", ev.Event)
	assert.JSONEq(t, string(data), string(ev.Data))

	_, ok = readEvent(t, clientA, 200*time.Millisecond)
	assert.False(t, ok, "publisher must not receive its own event")
	_, ok = readEvent(t, clientC, 200*time.Millisecond)
	assert.False(t, ok, "other channels must not receive the event")

	assert.Equal(t, Stats{Channels: 2, Connections: 3}, s.GetStats(), "publisher joins the channel on publish")
}

func TestTriggerPublishReachesEverySubscriber(t *testing.T) {
	s := startService(t, brokerInmemory.NewBroker(16))
	ctx := context.Background()

	serverA, clientA := connPair(t)
	serverB, clientB := connPair(t)
	for _, conn := range []*websocket.Conn{serverA, serverB} {
		_, err := s.Connect(ctx, &ConnectParams{Conn: conn})
		require.NoError(t, err)
		require.NoError(t, s.Subscribe(ctx, &SubscribeParams{Conn: conn, Channel: "game-7"}))
	}

	require.NoError(t, s.Publish(ctx, &PublishParams{
		Channel: "game-7",
		Event:   "player-joined",
		Data:    json.RawMessage(`{"name":"Ann","id":"a1","joinedAt":1}`),
	}))

	for _, client := range []*websocket.Conn{clientA, clientB} {
		ev, ok := readEvent(t, client, 2*time.Second)
		require.True(t, ok)
		assert.Equal(t, "player-joined", ev.Event)
	}
}

func TestDisconnectDropsEmptyChannels(t *testing.T) {
	s := startService(t, brokerInmemory.NewBroker(16))
	ctx := context.Background()

	server, _ := connPair(t)
	_, err := s.Connect(ctx, &ConnectParams{Conn: server})
	require.NoError(t, err)
	require.NoError(t, s.Subscribe(ctx, &SubscribeParams{Conn: server, Channel: "chat-1"}))

	require.NoError(t, s.Disconnect(ctx, &ConnectParams{Conn: server}))
	assert.Equal(t, Stats{}, s.GetStats())

	err = s.Publish(ctx, &PublishParams{SenderConn: server, Channel: "chat-1", Event: "chat-message"})
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestRedisBrokerRelaysAcrossInstances(t *testing.T) {
	mr := miniredis.RunT(t)
	newBroker := func() iBroker {
		rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { rc.Close() })
		return brokerRedis.NewBroker(rc)
	}

	instance1 := startService(t, newBroker())
	instance2 := startService(t, newBroker())
	ctx := context.Background()

	serverA, clientA := connPair(t)
	serverB, clientB := connPair(t)
	_, err := instance1.Connect(ctx, &ConnectParams{Conn: serverA})
	require.NoError(t, err)
	_, err = instance2.Connect(ctx, &ConnectParams{Conn: serverB})
	require.NoError(t, err)
	require.NoError(t, instance1.Subscribe(ctx, &SubscribeParams{Conn: serverA, Channel: "media-9"}))
	require.NoError(t, instance2.Subscribe(ctx, &SubscribeParams{Conn: serverB, Channel: "media-9"}))

	require.NoError(t, instance1.Publish(ctx, &PublishParams{
		SenderConn: serverA,
		Channel:    "media-9",
		Event:      "video-event",
		Data:       json.RawMessage(`{"type":"pause","time":3,"senderId":"a1"}`),
	}))

	ev, ok := readEvent(t, clientB, 2*time.Second)
	require.True(t, ok, "subscriber on the other instance must receive the event")
	assert.Equal(t, "video-event", ev.Event)

	_, ok = readEvent(t, clientA, 200*time.Millisecond)
	assert.False(t, ok, "publisher must not receive its own event back from redis")
}
