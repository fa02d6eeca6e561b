package inmemory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sharetube/watchtogether/internal/repository/broker"
)

// inmemoryBroker fans publications out inside one process.
type inmemoryBroker struct {
	mu   sync.RWMutex
	subs map[chan *broker.Publication]struct{}
	size int
}

func NewBroker(bufferSize int) *inmemoryBroker {
	return &inmemoryBroker{
		subs: make(map[chan *broker.Publication]struct{}),
		size: bufferSize,
	}
}

// Publish never blocks: a subscriber with a full buffer misses the event.
func (b *inmemoryBroker) Publish(ctx context.Context, pub *broker.Publication) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs {
		select {
		case ch <- pub:
		default:
			slog.WarnContext(ctx, "broker.inmemory.Publish", "error", "subscriber buffer full", "channel", pub.Channel)
		}
	}

	return nil
}

// Subscribe returns a stream of every publication until ctx is done.
func (b *inmemoryBroker) Subscribe(ctx context.Context) (<-chan *broker.Publication, error) {
	ch := make(chan *broker.Publication, b.size)

	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()

		b.mu.Lock()
		delete(b.subs, ch)
		close(ch)
		b.mu.Unlock()
	}()

	return ch, nil
}
