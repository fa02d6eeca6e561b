package session

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sharetube/watchtogether/internal/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	events []string
	data   []json.RawMessage
}

func (r *recorder) handle(event string, data json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	r.data = append(r.data, data)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.events)
}

func TestNewIDIsRandom(t *testing.T) {
	seen := make(map[string]struct{})
	for range 100 {
		id := NewID()
		assert.Len(t, id, idLength)
		seen[id] = struct{}{}
	}
	assert.Len(t, seen, 100)
}

func TestPublishTagsSender(t *testing.T) {
	hub := transport.NewHub(8)
	ctx := context.Background()
	bus := NewBus(hub, WithID("a1"))

	raw, err := hub.Subscribe(ctx, "media-42")
	require.NoError(t, err)

	bus.Publish(ctx, "media-42", "video-event", map[string]any{"type": "play", "time": 12.3})

	msg := <-raw
	assert.JSONEq(t, `{"type":"play","time":12.3,"senderId":"a1"}`, string(msg.Data))
}

func TestOwnEventsAreNeverApplied(t *testing.T) {
	hub := transport.NewHub(64)
	ctx := context.Background()
	a := NewBus(hub, WithID("a1"))
	b := NewBus(hub, WithID("b2"))

	var gotA, gotB recorder
	require.NoError(t, a.Subscribe(ctx, "game-1", gotA.handle))
	require.NoError(t, b.Subscribe(ctx, "game-1", gotB.handle))

	const n = 20
	for range n {
		a.Publish(ctx, "game-1", "game-state-update", map[string]any{"phase": "ready"})
	}

	require.Eventually(t, func() bool { return gotB.count() == n }, time.Second, 5*time.Millisecond)
	assert.Zero(t, gotA.count())
}

func TestUntaggedEventsReachPublisher(t *testing.T) {
	hub := transport.NewHub(8)
	ctx := context.Background()
	a := NewBus(hub, WithID("a1"))

	var got recorder
	require.NoError(t, a.Subscribe(ctx, "chat-1", got.handle))

	a.PublishUntagged(ctx, "chat-1", "emoji-reaction", map[string]any{"emoji": "🔥", "x": 10, "y": 20})

	require.Eventually(t, func() bool { return got.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "emoji-reaction", got.events[0])
}

func TestPublishFailureIsSwallowed(t *testing.T) {
	hub := transport.NewHub(1)
	hub.Close()

	bus := NewBus(hub)
	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), "chat-1", "chat-message", map[string]string{"text": "hi"})
	})
	assert.NotEmpty(t, bus.ID())
}

func TestNonObjectPayloadIsRejected(t *testing.T) {
	hub := transport.NewHub(1)
	ctx := context.Background()
	raw, err := hub.Subscribe(ctx, "chat-1")
	require.NoError(t, err)

	NewBus(hub).Publish(ctx, "chat-1", "chat-message", []string{"not", "an", "object"})
	assert.Empty(t, raw)
}
