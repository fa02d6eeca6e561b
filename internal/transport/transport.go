// Package transport moves relay events between clients. Delivery is
// at-most-once with no replay: a subscriber only sees events published after
// its subscription was established.
package transport

import (
	"context"
	"encoding/json"
	"errors"
)

var ErrClosed = errors.New("transport is closed")

type Message struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
}

type Publisher interface {
	Publish(ctx context.Context, channel, event string, data json.RawMessage) error
}

type Subscriber interface {
	// Subscribe streams events on channel until ctx is done, then closes the
	// returned channel.
	Subscribe(ctx context.Context, channel string) (<-chan Message, error)
}

type Transport interface {
	Publisher
	Subscriber
}
