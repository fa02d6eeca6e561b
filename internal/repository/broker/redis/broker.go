package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/sharetube/watchtogether/internal/repository/broker"
)

const channelPrefix = "relay:"

// redisBroker relays publications between server instances over Redis pub/sub.
// Every instance, the publishing one included, receives each publication.
type redisBroker struct {
	rc *redis.Client
}

func NewBroker(rc *redis.Client) *redisBroker {
	return &redisBroker{rc: rc}
}

func (b *redisBroker) getChannelKey(channel string) string {
	return channelPrefix + channel
}

func (b *redisBroker) Publish(ctx context.Context, pub *broker.Publication) error {
	data, err := json.Marshal(pub)
	if err != nil {
		return fmt.Errorf("failed to marshal publication: %w", err)
	}

	if err := b.rc.Publish(ctx, b.getChannelKey(pub.Channel), data).Err(); err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}

	return nil
}

func (b *redisBroker) Subscribe(ctx context.Context) (<-chan *broker.Publication, error) {
	pubsub := b.rc.PSubscribe(ctx, channelPrefix+"*")

	// wait for the subscription confirmation so that no publish is missed after return
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	out := make(chan *broker.Publication)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var pub broker.Publication
				if err := json.Unmarshal([]byte(msg.Payload), &pub); err != nil {
					slog.WarnContext(ctx, "broker.redis.Subscribe", "error", err, "redis_channel", msg.Channel)
					continue
				}
				if pub.Channel == "" {
					pub.Channel = strings.TrimPrefix(msg.Channel, channelPrefix)
				}

				select {
				case out <- &pub:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}
