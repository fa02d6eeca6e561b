package transport

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
)

// Hub is an in-process transport. Like a hosted broker it delivers every
// event to all subscribers of the channel, the publisher included.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[chan Message]struct{}
	size   int
	closed bool
}

func NewHub(bufferSize int) *Hub {
	return &Hub{
		subs: make(map[string]map[chan Message]struct{}),
		size: bufferSize,
	}
}

// Publish never blocks. A subscriber whose buffer is full misses the event.
func (h *Hub) Publish(ctx context.Context, channel, event string, data json.RawMessage) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrClosed
	}

	msg := Message{Channel: channel, Event: event, Data: data}
	for ch := range h.subs[channel] {
		select {
		case ch <- msg:
		default:
			slog.WarnContext(ctx, "transport.Hub.Publish", "error", "subscriber buffer full", "channel", channel)
		}
	}

	return nil
}

func (h *Hub) Subscribe(ctx context.Context, channel string) (<-chan Message, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	ch := make(chan Message, h.size)
	if h.subs[channel] == nil {
		h.subs[channel] = make(map[chan Message]struct{})
	}
	h.subs[channel][ch] = struct{}{}

	go func() {
		<-ctx.Done()
		h.remove(channel, ch)
	}()

	return ch, nil
}

func (h *Hub) remove(channel string, ch chan Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[channel][ch]; !ok {
		return
	}

	delete(h.subs[channel], ch)
	if len(h.subs[channel]) == 0 {
		delete(h.subs, channel)
	}
	close(ch)
}

// Close ends every subscription. Later calls to Publish and Subscribe fail.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true

	for channel, chans := range h.subs {
		for ch := range chans {
			close(ch)
		}
		delete(h.subs, channel)
	}
}

// Channels reports how many channels have at least one subscriber.
func (h *Hub) Channels() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subs)
}
