package inmemory

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/sharetube/watchtogether/internal/repository/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishReachesEverySubscriber(t *testing.T) {
	b := NewBroker(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s1, err := b.Subscribe(ctx)
	require.NoError(t, err)
	s2, err := b.Subscribe(ctx)
	require.NoError(t, err)

	pub := &broker.Publication{Channel: "game-1", Event: "player-joined", Data: json.RawMessage(`{}`)}
	require.NoError(t, b.Publish(ctx, pub))

	assert.Equal(t, pub, <-s1)
	assert.Equal(t, pub, <-s2)
}

func TestFullSubscriberMissesEvents(t *testing.T) {
	b := NewBroker(1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s, err := b.Subscribe(ctx)
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, &broker.Publication{Event: "first"}))
	require.NoError(t, b.Publish(ctx, &broker.Publication{Event: "second"}))

	assert.Equal(t, "first", (<-s).Event)
	select {
	case pub := <-s:
		t.Fatalf("unexpected publication %q", pub.Event)
	default:
	}
}

func TestSubscriptionClosesWithContext(t *testing.T) {
	b := NewBroker(1)
	ctx, cancel := context.WithCancel(context.Background())

	s, err := b.Subscribe(ctx)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-s:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("subscription was not closed")
	}
}
