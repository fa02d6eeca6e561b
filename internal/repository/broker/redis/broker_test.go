package redis

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sharetube/watchtogether/internal/repository/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublishIsDeliveredToEveryInstance(t *testing.T) {
	s := miniredis.RunT(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	newClient := func() *redis.Client {
		rc := redis.NewClient(&redis.Options{Addr: s.Addr()})
		t.Cleanup(func() { rc.Close() })
		return rc
	}

	instance1 := NewBroker(newClient())
	instance2 := NewBroker(newClient())

	sub1, err := instance1.Subscribe(ctx)
	require.NoError(t, err)
	sub2, err := instance2.Subscribe(ctx)
	require.NoError(t, err)

	pub := &broker.Publication{
		Channel:  "media-42",
		Event:    "video-event",
		Data:     json.RawMessage(`{"type":"play","time":12.3,"senderId":"a1"}`),
		OriginID: "conn-1",
	}
	require.NoError(t, instance1.Publish(ctx, pub))

	for _, sub := range []<-chan *broker.Publication{sub1, sub2} {
		select {
		case got := <-sub:
			assert.Equal(t, pub.Channel, got.Channel)
			assert.Equal(t, pub.Event, got.Event)
			assert.Equal(t, pub.OriginID, got.OriginID)
			assert.JSONEq(t, string(pub.Data), string(got.Data))
		case <-time.After(2 * time.Second):
			t.Fatal("publication was not delivered")
		}
	}
}
