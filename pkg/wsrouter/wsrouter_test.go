package wsrouter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subscribeInput struct {
	Channel string `json:"channel"`
}

func serve(t *testing.T, r *WSRouter) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		r.ServeConn(context.Background(), conn)
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func TestServeConnRoutesTypedPayload(t *testing.T) {
	r := New()

	var order []string
	r.Use(func(next HandlerFunc[any]) HandlerFunc[any] {
		return func(ctx context.Context, conn *websocket.Conn, payload any) error {
			order = append(order, "outer:"+GetMessageTypeFromCtx(ctx))
			return next(ctx, conn, payload)
		}
	})

	got := make(chan string, 1)
	AddRoute(r, "subscribe", func(_ context.Context, _ *websocket.Conn, in subscribeInput) error {
		order = append(order, "handler")
		got <- in.Channel
		return nil
	})

	conn := serve(t, r)
	require.NoError(t, conn.WriteJSON(map[string]any{
		"type":    "subscribe",
		"payload": map[string]string{"channel": "game-42"},
	}))

	select {
	case ch := <-got:
		assert.Equal(t, "game-42", ch)
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}
	assert.Equal(t, []string{"outer:subscribe", "handler"}, order)
}

func TestServeConnReportsErrors(t *testing.T) {
	r := New()

	errs := make(chan error, 3)
	r.OnError(func(_ context.Context, _ *websocket.Conn, err error) {
		errs <- err
	})

	handlerErr := errors.New("boom")
	AddRoute(r, "fail", func(context.Context, *websocket.Conn, subscribeInput) error {
		return handlerErr
	})

	conn := serve(t, r)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "nope"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"type": "fail", "payload": map[string]string{}}))

	var received []error
	for range 3 {
		select {
		case err := <-errs:
			received = append(received, err)
		case <-time.After(2 * time.Second):
			t.Fatal("error handler was not called")
		}
	}

	assert.ErrorIs(t, received[0], ErrInvalidMessage)
	assert.ErrorIs(t, received[1], ErrUnknownMessageType)
	assert.ErrorIs(t, received[2], handlerErr)
}
