package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sharetube/watchtogether/internal/chat"
	"github.com/sharetube/watchtogether/internal/game"
	"github.com/sharetube/watchtogether/internal/game/wouldrather"
	"github.com/sharetube/watchtogether/internal/mediasync"
	"github.com/sharetube/watchtogether/internal/session"
	"github.com/sharetube/watchtogether/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func newTestClient(t *testing.T, ctx context.Context, hub *transport.Hub, id, name string) (*client, *syncBuffer) {
	t.Helper()

	var buf syncBuffer
	bus := session.NewBus(hub, session.WithID(id))
	c := &client{out: newConsole(&buf)}

	c.chat = chat.NewRelay(bus, chat.Config{
		Channel:   chat.Channel("42"),
		Name:      name,
		OnMessage: func(m chat.Message) { c.out.printf("[%s] %s", m.User, m.Text) },
	}, slog.Default())
	require.NoError(t, c.chat.Start(ctx))

	c.player = mediasync.NewClockPlayer(nil)
	c.media = mediasync.NewController(bus, c.player, mediasync.Config{Channel: mediasync.Channel("42")}, slog.Default())
	require.NoError(t, c.media.Start(ctx))

	c.wyr = wouldrather.New(bus, game.Config{
		Channel: game.Channel("42"),
		Name:    name,
		Notify:  c.chat.Notifier(ctx),
	}, slog.Default())
	require.NoError(t, c.wyr.Start(ctx))

	return c, &buf
}

func TestClientCommands(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := transport.NewHub(32)

	alice, _ := newTestClient(t, ctx, hub, "a1", "Alice")
	bob, bobOut := newTestClient(t, ctx, hub, "b2", "Bob")

	quit, err := alice.exec(ctx, "hello bob")
	require.NoError(t, err)
	assert.False(t, quit)

	require.Eventually(t, func() bool {
		return strings.Contains(bobOut.String(), "[Alice] hello bob")
	}, time.Second, 5*time.Millisecond)

	_, err = alice.exec(ctx, "/load yt dQw4w9WgXcQ")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		m, ok := bob.media.Media()
		return ok && m.Src == "dQw4w9WgXcQ"
	}, time.Second, 5*time.Millisecond)

	_, err = alice.exec(ctx, "/seek abc")
	require.ErrorIs(t, err, errUsage)

	_, err = alice.exec(ctx, "/vote Bob")
	require.ErrorContains(t, err, "unknown command /vote")

	require.Eventually(t, func() bool {
		return alice.wyr.State().Phase == game.PhaseReady
	}, time.Second, 5*time.Millisecond)
	_, err = alice.exec(ctx, "/start")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		return strings.Contains(bobOut.String(), "[Alice] 🎮 Game started! Round 1")
	}, time.Second, 5*time.Millisecond)

	quit, err = alice.exec(ctx, "/quit")
	require.NoError(t, err)
	assert.True(t, quit)
}
